package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ourmemory/ourmemory-server/internal/config"
	"github.com/ourmemory/ourmemory-server/internal/handler"
	"github.com/ourmemory/ourmemory-server/internal/middleware"
	"github.com/ourmemory/ourmemory-server/internal/migration"
	"github.com/ourmemory/ourmemory-server/internal/repository"
	"github.com/ourmemory/ourmemory-server/internal/routes"
	"github.com/ourmemory/ourmemory-server/internal/service"
	pkgcache "github.com/ourmemory/ourmemory-server/pkg/cache"
	"github.com/ourmemory/ourmemory-server/pkg/jwt"
	pkglogger "github.com/ourmemory/ourmemory-server/pkg/logger"
	pkgredis "github.com/ourmemory/ourmemory-server/pkg/redis"
)

// @title           OurMemory API
// @version         1.0
// @description     친구, 공유 방, 일정을 관리하는 백엔드 API
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	// 로거 초기화
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	log := pkglogger.GetLogger()
	log.Info().Str("env", env).Strs("dotenv", dotenvFiles).Msg("starting ourmemory-server")

	// 설정 로드
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.LogResolved(cfg)

	// MySQL 연결
	db, err := initDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().Msg("connected to MySQL")

	if err := migration.Run(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// Redis 연결 (없어도 캐시만 꺼진 채 동작)
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis (continuing without cache)")
		redisClient = nil
	} else {
		log.Info().Msg("connected to Redis")
	}
	cacheService := pkgcache.NewService(redisClient)

	// JWT Manager
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	memoryRepo := repository.NewMemoryRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)

	// Services
	noticeService := service.NewNoticeService(noticeRepo)
	friendService := service.NewFriendService(db, friendRepo, userRepo, noticeService)
	roomService := service.NewRoomService(db, roomRepo, userRepo, memoryRepo, cacheService)
	memoryService := service.NewMemoryService(db, memoryRepo, roomRepo, userRepo, cacheService)
	userService := service.NewUserService(db, userRepo, friendRepo, roomRepo, noticeRepo, roomService, cacheService)

	// Handlers
	userHandler := handler.NewUserHandler(userService, noticeService, jwtManager)
	friendHandler := handler.NewFriendHandler(friendService)
	roomHandler := handler.NewRoomHandler(roomService)
	memoryHandler := handler.NewMemoryHandler(memoryService)

	// Gin 라우터 생성
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS 설정
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400 * time.Second,
	}))

	// Middleware
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.Setup(router, userHandler, friendHandler, roomHandler, memoryHandler, jwtManager)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// SIGINT/SIGTERM 수신 시 진행 중인 요청을 마치고 종료
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Info().Msg("server stopped")
}

// initDB MySQL 연결 초기화
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	gormCfg := &gorm.Config{}
	if cfg.IsDevelopment() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	} else {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}
