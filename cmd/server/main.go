package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bump-server/config"
	"bump-server/internal/handler"
	"bump-server/internal/model"
	"bump-server/internal/notify"
	"bump-server/internal/repository"
	"bump-server/internal/service"
	dbPkg "bump-server/pkg/db"
	"bump-server/pkg/jwt"
	"bump-server/pkg/logger"
	"bump-server/pkg/metrics"
	"bump-server/pkg/mq"
	redisPkg "bump-server/pkg/redis"
	"bump-server/pkg/response"
	"bump-server/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	log.Info("=== Bump服务启动 ===")
	if err := cfg.Validate(); err != nil {
		log.Fatal("配置无效", zap.Error(err))
	}
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_host", cfg.Database.Host),
		zap.Int("database_port", cfg.Database.Port),
		zap.String("database_name", cfg.Database.Database),
		zap.Duration("request_timeout", cfg.Database.RequestTimeout),
		zap.Bool("availability_window", cfg.Notification.AvailabilityWindow),
		zap.Bool("enforce_scope", cfg.Notification.EnforceScope),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 初始化数据库连接
	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.CloseDB(); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	log.Info("数据库连接成功")

	// 3.1 自动迁移表结构
	if err := dbPkg.AutoMigrate(
		&model.User{},
		&model.FriendLink{},
		&model.Settings{},
		&model.Place{},
		&model.UserPlace{},
		&model.Status{},
		&model.Meetup{},
	); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("自动迁移完成")

	// 3.2 Redis：变更通知与在线状态；不可用时降级运行
	var (
		feed     *redisPkg.ChangeFeed
		presence *redisPkg.Presence
	)
	startCtx, startCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if rdb, err := redisPkg.InitRedis(startCtx, cfg.Redis); err != nil {
		log.Warn("Redis不可用，实时变更与在线状态已关闭", zap.Error(err))
	} else {
		feed = redisPkg.NewChangeFeed(rdb)
		presence = redisPkg.NewPresence(rdb)
		defer redisPkg.Close()
		log.Info("Redis连接成功")
	}
	startCancel()

	// 3.3 RabbitMQ：活动事件外发
	publisher := mq.NewPublisher(cfg.MQ)
	defer publisher.Close()
	log.Info("活动事件发布者", zap.String("mode", mq.PublisherMode(publisher)))

	// 4. 组装依赖
	timeout := cfg.Database.RequestTimeout
	jwtSvc := jwt.NewJWTService(cfg.JWT)
	wsManager := websocket.NewManager()

	userRepo := repository.NewUserRepository(db)
	linkRepo := repository.NewFriendLinkRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	placeRepo := repository.NewPlaceRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	meetupRepo := repository.NewMeetupRepository(db)

	settingsSvc := service.NewSettingsService(settingsRepo, timeout)
	sessions := notify.NewManager(notify.GateOptions{
		AvailabilityWindow: cfg.Notification.AvailabilityWindow,
		EnforceScope:       cfg.Notification.EnforceScope,
		MaxQueue:           cfg.Notification.MaxQueue,
	}, settingsSvc, wsManager)
	settingsSvc.SetObserver(sessions)

	friendDeps := service.FriendServiceDeps{
		Links:    linkRepo,
		Users:    userRepo,
		Places:   placeRepo,
		Statuses: statusRepo,
		Activity: publisher,
		Sink:     sessions,
		Timeout:  timeout,
	}
	var userPresence service.PresenceRemover
	var presenceChecker service.PresenceChecker
	if feed != nil {
		friendDeps.Feed = feed
	}
	if presence != nil {
		friendDeps.Presence = presence
		userPresence = presence
		presenceChecker = presence
	}
	friendSvc := service.NewFriendService(friendDeps)
	checkInSvc := service.NewCheckInService(service.CheckInServiceDeps{
		Statuses: statusRepo,
		Places:   placeRepo,
		Links:    linkRepo,
		Users:    userRepo,
		Activity: publisher,
		Sink:     sessions,
		Timeout:  timeout,
	})
	placeSvc := service.NewPlaceService(placeRepo, timeout)
	meetupSvc := service.NewMeetupService(meetupRepo, placeRepo, publisher, timeout)
	userSvc := service.NewUserService(userRepo, jwtSvc, sessions, userPresence, timeout)

	wsHandler := &websocket.Handler{
		Manager:   wsManager,
		JWT:       jwtSvc,
		Sessions:  sessions,
		Evaluator: friendSvc,
		Config:    cfg.WebSocket,
	}
	if feed != nil {
		wsHandler.Feed = feed
	}
	if presence != nil {
		wsHandler.Presence = presence
	}

	handlers := routeHandlers{
		user:         handler.NewUserHandler(userSvc, presenceChecker),
		friend:       handler.NewFriendHandler(friendSvc),
		notification: handler.NewNotificationHandler(sessions, settingsSvc),
		checkIn:      handler.NewCheckInHandler(checkInSvc),
		place:        handler.NewPlaceHandler(placeSvc),
		meetup:       handler.NewMeetupHandler(meetupSvc),
		ws:           wsHandler,
	}

	// 5. 设置Gin模式
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 6. 创建Gin路由
	router := gin.New()
	router.Use(logger.RequestLogger("/health", "/metrics"))
	router.Use(logger.ErrorLoggerMiddleware())
	router.Use(metrics.HTTPMetricsMiddleware())

	setupBasicRoutes(router)
	setupAPIRoutes(router, jwtSvc, sessions, handlers)

	// 7. 创建HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 8. 启动HTTP服务器
	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 8.1 定期清理过期的在线用户
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	if presence != nil {
		go runPresenceCleanup(cleanupCtx, presence)
	}

	// 9. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}

type routeHandlers struct {
	user         *handler.UserHandler
	friend       *handler.FriendHandler
	notification *handler.NotificationHandler
	checkIn      *handler.CheckInHandler
	place        *handler.PlaceHandler
	meetup       *handler.MeetupHandler
	ws           *websocket.Handler
}

// setupAPIRoutes 业务路由
func setupAPIRoutes(router *gin.Engine, jwtSvc *jwt.JWTService, sessions *notify.Manager, h routeHandlers) {
	v1 := router.Group("/api/v1")

	// 公开接口（无需认证）
	v1.POST("/users/register", h.user.Register)
	v1.POST("/users/login", h.user.Login)

	// 需要认证的接口
	auth := v1.Group("")
	auth.Use(jwtSvc.AuthMiddleware(), handler.SessionMiddleware(sessions))
	{
		auth.GET("/users/profile", h.user.GetProfile)
		auth.POST("/users/logout", h.user.Logout)
		auth.GET("/users/:user_id/online", h.user.CheckUserOnline)

		auth.GET("/friends", h.friend.ListFriends)
		auth.POST("/friends", h.friend.AddFriend)
		auth.DELETE("/friends/:peer_id", h.friend.Unfriend)
		auth.PUT("/friends/:peer_id/intent", h.friend.SetIntent)
		auth.GET("/friends/:peer_id/mutual", h.friend.Mutual)
		auth.GET("/friends/:peer_id/profile", h.friend.Profile)

		auth.GET("/notifications", h.notification.List)
		auth.POST("/notifications/read-all", h.notification.MarkAllRead)
		auth.POST("/notifications/:id/read", h.notification.MarkRead)
		auth.DELETE("/notifications", h.notification.ClearAll)

		auth.GET("/settings", h.notification.GetSettings)
		auth.PATCH("/settings", h.notification.UpdateSettings)
		auth.POST("/settings/dnd/toggle", h.notification.ToggleDoNotDisturb)

		auth.POST("/places", h.place.Create)
		auth.GET("/places/:id", h.place.Get)
		auth.POST("/places/:id/save", h.place.Save)
		auth.GET("/me/places", h.place.ListMine)

		auth.GET("/statuses", h.checkIn.ActiveStatuses)
		auth.POST("/statuses", h.checkIn.CheckIn)
		auth.DELETE("/statuses/:id", h.checkIn.CheckOut)

		auth.GET("/meetups", h.meetup.List)
		auth.POST("/meetups", h.meetup.Log)
	}

	// WebSocket路由，token 通过 query 或 Sec-WebSocket-Protocol 传递
	router.GET("/ws", h.ws.Serve)
}

// setupBasicRoutes 健康检查与监控
func setupBasicRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := dbPkg.HealthCheck(c.Request.Context()); err != nil {
			status = "db-down"
		}
		redisStatus := "ok"
		if err := redisPkg.HealthCheck(c.Request.Context()); err != nil {
			redisStatus = "down"
		}
		response.Success(c, gin.H{
			"status": status,
			"redis":  redisStatus,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/metrics", metrics.Handler())
}

func runPresenceCleanup(ctx context.Context, presence *redisPkg.Presence) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := presence.CleanExpired(ctx); err != nil {
				logger.Warn("清理在线用户失败", zap.Error(err))
			} else if n > 0 {
				logger.Debug("清理过期在线用户", zap.Int("count", n))
			}
		}
	}
}
