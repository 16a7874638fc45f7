package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/catalog-service/config"
	"github.com/fekuna/catalog-service/internal/api"
	"github.com/fekuna/catalog-service/pkg/broker"
	"github.com/fekuna/catalog-service/pkg/cache"
	"github.com/fekuna/catalog-service/pkg/logger"
	"github.com/fekuna/catalog-service/pkg/postgres"

	attrH "github.com/fekuna/catalog-service/internal/attribute/handler"
	attrRepoPkg "github.com/fekuna/catalog-service/internal/attribute/repository"
	attrUCPkg "github.com/fekuna/catalog-service/internal/attribute/usecase"

	catH "github.com/fekuna/catalog-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/catalog-service/internal/category/repository"
	catUCPkg "github.com/fekuna/catalog-service/internal/category/usecase"

	prodH "github.com/fekuna/catalog-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/catalog-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/catalog-service/internal/product/usecase"

	varH "github.com/fekuna/catalog-service/internal/variant/handler"
	varListenerPkg "github.com/fekuna/catalog-service/internal/variant/listener"
	varRepoPkg "github.com/fekuna/catalog-service/internal/variant/repository"
	varUCPkg "github.com/fekuna/catalog-service/internal/variant/usecase"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// Prices serialize as JSON numbers, matching the wire format clients expect.
	decimal.MarshalJSONWithoutQuotes = true

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}

	if cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Consumer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 6. Initialize Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	varRepo := varRepoPkg.NewPGRepository(db)
	catRepo := catRepoPkg.NewPGRepository(db)
	attrRepo := attrRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, redisClient, appLogger, prodUCPkg.Config{
		ProductTTL: cfg.Cache.ProductTTL,
	})
	varUC := varUCPkg.NewVariantUseCase(varRepo, redisClient, appLogger, varUCPkg.Config{
		VariantListTTL: cfg.Cache.VariantListTTL,
	})
	catUC := catUCPkg.NewCategoryUseCase(catRepo, redisClient, appLogger, catUCPkg.Config{
		ReferenceTTL: cfg.Cache.ReferenceTTL,
	})
	attrUC := attrUCPkg.NewAttributeUseCase(attrRepo, redisClient, appLogger, attrUCPkg.Config{
		ReferenceTTL: cfg.Cache.ReferenceTTL,
	})

	// 8. Start Order Listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orderListener := varListenerPkg.NewOrderListener(kafkaConsumer, varUC, appLogger)
	go orderListener.Start(ctx)

	// 9. HTTP Server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Validator = api.NewRequestValidator()

	v1 := e.Group("/api/v1")
	prodH.NewProductHandler(prodUC, appLogger).RegisterRoutes(v1)
	varH.NewVariantHandler(varUC, appLogger).RegisterRoutes(v1)
	catH.NewCategoryHandler(catUC, appLogger).RegisterRoutes(v1)
	attrH.NewAttributeHandler(attrUC, appLogger).RegisterRoutes(v1)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", port))
		if err := e.Start(port); err != nil {
			appLogger.Info("HTTP server stopped", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
