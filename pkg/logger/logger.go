package logger

import (
	"os"
	"path/filepath"

	"bump-server/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// 未初始化时使用 Nop，测试和工具中调用是安全的
	log   = zap.NewNop()
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// InitLogger 初始化全局日志：JSON 编码，文件名为空时写标准输出，否则按大小轮转
func InitLogger(cfg config.LogConfig) *zap.Logger {
	level.SetLevel(parseLevel(cfg.Level))

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), newSink(cfg), level)

	// 包级函数多一层调用，跳过它才能定位到真正的调用方
	log = zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("service", "bump")),
	)
	zap.ReplaceGlobals(log)

	return log
}

func newSink(cfg config.LogConfig) zapcore.WriteSyncer {
	if cfg.Filename == "" {
		return zapcore.Lock(os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0755); err != nil {
		// 目录不可写时退回标准输出，不因日志阻止服务启动
		return zapcore.Lock(os.Stdout)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // 天
		Compress:   cfg.Compress,
	})
}

// parseLevel 无法识别的级别按 info 处理
func parseLevel(s string) zapcore.Level {
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// DebugEnabled 当前是否输出 debug 日志
func DebugEnabled() bool {
	return level.Enabled(zapcore.DebugLevel)
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	log.Fatal(msg, fields...)
}

// Sync 刷新缓冲
func Sync() error {
	return log.Sync()
}
