package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置结构体
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	JWT          JWTConfig          `yaml:"jwt"`
	Log          LogConfig          `yaml:"log"`
	Redis        RedisConfig        `yaml:"redis"`
	WebSocket    WebSocketConfig    `yaml:"websocket"`
	Notification NotificationConfig `yaml:"notification"`
	MQ           MQConfig           `yaml:"mq"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port         string        `yaml:"port"`         // 服务器监听端口
	ReadTimeout  time.Duration `yaml:"readTimeout"`  // 读取超时时间
	WriteTimeout time.Duration `yaml:"writeTimeout"` // 写入超时时间
	IdleTimeout  time.Duration `yaml:"idleTimeout"`  // 空闲超时时间
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver         string        `yaml:"driver"`         // 数据库驱动类型
	Host           string        `yaml:"host"`           // 数据库主机地址
	Port           int           `yaml:"port"`           // 数据库端口
	Username       string        `yaml:"username"`       // 数据库用户名
	Password       string        `yaml:"password"`       // 数据库密码
	Database       string        `yaml:"database"`       // 数据库名称
	Charset        string        `yaml:"charset"`        // 字符集
	MaxIdle        int           `yaml:"maxIdle"`        // 最大空闲连接数
	MaxOpen        int           `yaml:"maxOpen"`        // 最大打开连接数
	RequestTimeout time.Duration `yaml:"requestTimeout"` // 单次读写超时，超时按存储失败处理，不自动重试
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret     string        `yaml:"secret"`     // JWT密钥
	ExpireTime time.Duration `yaml:"expireTime"` // JWT过期时间
	Issuer     string        `yaml:"issuer"`     // JWT签发者
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`      // 日志级别
	Filename   string `yaml:"filename"`   // 日志文件名，为空时输出到标准输出
	MaxSize    int    `yaml:"maxSize"`    // 单个日志文件最大大小(MB)
	MaxBackups int    `yaml:"maxBackups"` // 最大备份文件数
	MaxAge     int    `yaml:"maxAge"`     // 最大保存天数
	Compress   bool   `yaml:"compress"`   // 是否压缩
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `yaml:"host"`     // Redis主机地址
	Port     int    `yaml:"port"`     // Redis端口
	Password string `yaml:"password"` // Redis密码
	DB       int    `yaml:"db"`       // Redis数据库编号
}

// WebSocketConfig WebSocket 心跳配置
type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"pingInterval"` // 发送ping的间隔
	ReadTimeout  time.Duration `yaml:"readTimeout"`  // 读超时时间（未收到任何数据则断开）
}

// NotificationConfig 通知闸门配置
// AvailabilityWindow 与 EnforceScope 默认关闭
type NotificationConfig struct {
	AvailabilityWindow bool `yaml:"availabilityWindow"` // 是否启用可用时段过滤
	EnforceScope       bool `yaml:"enforceScope"`       // 是否按 notifyScope 过滤事件
	MaxQueue           int  `yaml:"maxQueue"`           // 单个会话最多保留的通知条数，0 表示不限制
}

// MQConfig 活动事件外发配置（RabbitMQ）
type MQConfig struct {
	URL      string `yaml:"url"`      // AMQP 地址，为空时使用 noop
	Exchange string `yaml:"exchange"` // topic exchange 名称
}

// LoadConfig 加载配置：默认值 <- YAML 文件 <- 环境变量，后者优先
// 文件路径由 BUMP_CONFIG 指定，默认 config/config.yaml
func LoadConfig() *Config {
	path := os.Getenv("BUMP_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}

	config := loadFromYAML(path)
	overrideWithEnvVars(config)
	return config
}

// loadFromYAML 在默认值之上解析文件，文件中缺省的字段保留默认值
// 文件不存在或无法解析时使用默认配置
func loadFromYAML(filePath string) *Config {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return getDefaultConfig()
	}

	config := getDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return getDefaultConfig()
	}
	return config
}

// overrideWithEnvVars 用环境变量覆盖配置，无法解析的值被忽略
func overrideWithEnvVars(c *Config) {
	setString(&c.Server.Port, "SERVER_PORT")
	setDuration(&c.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	setDuration(&c.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	setDuration(&c.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")

	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.Username, "DB_USERNAME")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_DATABASE")
	setString(&c.Database.Charset, "DB_CHARSET")
	setInt(&c.Database.MaxIdle, "DB_MAX_IDLE")
	setInt(&c.Database.MaxOpen, "DB_MAX_OPEN")
	setDuration(&c.Database.RequestTimeout, "DB_REQUEST_TIMEOUT")

	setString(&c.JWT.Secret, "JWT_SECRET")
	setDuration(&c.JWT.ExpireTime, "JWT_EXPIRE_TIME")
	setString(&c.JWT.Issuer, "JWT_ISSUER")

	setString(&c.Log.Level, "LOG_LEVEL")
	// 允许显式置空，置空后输出到标准输出
	if filename, ok := os.LookupEnv("LOG_FILENAME"); ok {
		c.Log.Filename = filename
	}
	setInt(&c.Log.MaxSize, "LOG_MAX_SIZE")
	setInt(&c.Log.MaxBackups, "LOG_MAX_BACKUPS")
	setInt(&c.Log.MaxAge, "LOG_MAX_AGE")

	setString(&c.Redis.Host, "REDIS_HOST")
	setInt(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	setDuration(&c.WebSocket.PingInterval, "WS_PING_INTERVAL")
	setDuration(&c.WebSocket.ReadTimeout, "WS_READ_TIMEOUT")

	setBool(&c.Notification.AvailabilityWindow, "NOTIFY_AVAILABILITY_WINDOW")
	setBool(&c.Notification.EnforceScope, "NOTIFY_ENFORCE_SCOPE")
	setInt(&c.Notification.MaxQueue, "NOTIFY_MAX_QUEUE")

	setString(&c.MQ.URL, "MQ_URL")
	setString(&c.MQ.Exchange, "MQ_EXCHANGE")
}

// Validate 检查启动所需的最低配置
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.JWT.ExpireTime <= 0 {
		errs = append(errs, errors.New("jwt.expireTime must be positive"))
	}
	if c.Database.RequestTimeout <= 0 {
		errs = append(errs, errors.New("database.requestTimeout must be positive"))
	}
	if c.Notification.MaxQueue < 0 {
		errs = append(errs, fmt.Errorf("notification.maxQueue must not be negative, got %d", c.Notification.MaxQueue))
	}
	return errors.Join(errs...)
}

// getDefaultConfig 获取默认配置
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         "mysql",
			Host:           "localhost",
			Port:           3306,
			Username:       "bump",
			Password:       "bump",
			Database:       "bump",
			Charset:        "utf8mb4",
			MaxIdle:        10,
			MaxOpen:        100,
			RequestTimeout: 5 * time.Second,
		},
		JWT: JWTConfig{
			Secret:     "change-me-bump-secret",
			ExpireTime: 24 * time.Hour,
			Issuer:     "bump",
		},
		Log: LogConfig{
			Level:      "info",
			Filename:   "logs/app.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
		},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  90 * time.Second,
		},
		Notification: NotificationConfig{
			AvailabilityWindow: false,
			EnforceScope:       false,
			MaxQueue:           200,
		},
		MQ: MQConfig{
			URL:      "",
			Exchange: "bump.activity",
		},
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = v
	}
}
