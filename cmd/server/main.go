package main

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/yumiazusa/contract-sys/internal/config"
	"github.com/yumiazusa/contract-sys/internal/handler"
	"github.com/yumiazusa/contract-sys/internal/middleware"
	"github.com/yumiazusa/contract-sys/internal/model/entity"
	"github.com/yumiazusa/contract-sys/internal/repository"
	"github.com/yumiazusa/contract-sys/internal/service"
	"github.com/yumiazusa/contract-sys/internal/session"
	"github.com/yumiazusa/contract-sys/web"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting contract-sys service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 建表与约束（contract_no唯一、必填列非空均由实体标签声明）
	if err := db.AutoMigrate(&entity.User{}, &entity.Contract{}); err != nil {
		zapLogger.Fatal("Failed to migrate tables", zap.Error(err))
	}

	// 初始化Redis会话存储
	rdb := initRedis(cfg.Redis)
	sessions := session.NewRedisStore(rdb)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, sessions, cfg)
	handlers := handler.NewHandlers(services, cfg)

	// 启动前幂等初始化默认管理员
	if err := services.Auth.EnsureDefaultAdmin(context.Background()); err != nil {
		zapLogger.Fatal("Failed to ensure default admin", zap.Error(err))
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 内嵌页面模板与静态资源
	router.SetHTMLTemplate(template.Must(template.New("").ParseFS(web.Templates, "templates/*.html")))
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		zapLogger.Fatal("Failed to mount static assets", zap.Error(err))
	}
	router.StaticFS("/static", http.FS(staticFS))

	// 注册路由
	registerRoutes(router, handlers, sessions, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, sessions session.Store, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// 登录页与会话
	r.GET("/", h.Auth.Index)
	r.POST("/login", h.Auth.Login)
	r.GET("/logout", h.Auth.Logout)

	// 主页面，需要会话
	page := r.Group("", middleware.SessionAuthPage(sessions, cfg.Session.Secret, cfg.Session.CookieName))
	{
		page.GET("/dashboard", h.Auth.Dashboard)
	}

	// API，需要会话
	api := r.Group("/api", middleware.SessionAuth(sessions, cfg.Session.Secret, cfg.Session.CookieName))
	{
		contracts := api.Group("/contracts")
		{
			contracts.GET("", h.Contract.List)
			contracts.GET("/filter_options", h.Contract.FilterOptions)
			contracts.POST("", h.Contract.Create)
			contracts.PUT("/:id", h.Contract.Update)
			contracts.POST("/:id/void", h.Contract.Void)
			contracts.GET("/:id/check_delete", h.Contract.CheckDelete)
			contracts.DELETE("/:id", h.Contract.Delete)
		}

		api.GET("/export/excel", h.Export.ExportExcel)
	}
}
