package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop_service/config"
	"shop_service/internal/delivery"
	grpcHandler "shop_service/internal/delivery/grpc"
	"shop_service/internal/domain"
	"shop_service/internal/mailer"
	"shop_service/internal/messaging"
	"shop_service/internal/repository"
	"shop_service/internal/repository/memory"
	"shop_service/internal/usecase"
	"shop_service/pkg/db"
	"shop_service/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := setupLogger()

	cfg := config.LoadConfig(logger)
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s' in config, using default 'info'. Error: %v", cfg.LogLevel, err)
	} else {
		logger.SetLevel(logLevel)
	}
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Shop Service...")
	if err := run(cfg, logger); err != nil {
		logger.Fatalf("Shop Service stopped with error: %v", err)
	}
	logger.Info("Shop Service shut down gracefully.")
}

func setupLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	store, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	otps, closeOTP, err := openOTPStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeOTP()

	// --- Adapters ---
	var publisher messaging.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaStockTopic, logger)
		logger.Infof("Stock events go to kafka topic %s", cfg.KafkaStockTopic)
	} else {
		publisher = messaging.NewLogPublisher(logger)
		logger.Info("KAFKA_BROKERS not set, stock events are only logged")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Errorf("Error closing event publisher: %v", err)
		}
	}()

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail, err = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, logger)
		if err != nil {
			return err
		}
	} else {
		mail = mailer.NewLogMailer(logger)
		logger.Info("SMTP_HOST not set, OTP mails are only logged")
	}

	tokens := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	// --- Use cases ---
	productUseCase := usecase.NewProductUseCase(store, logger)
	categoryUseCase := usecase.NewCategoryUseCase(store.Categories(), logger)
	cartUseCase := usecase.NewCartUseCase(store, publisher, logger)
	addressUseCase := usecase.NewAddressUseCase(store, logger)
	authUseCase := usecase.NewAuthUseCase(store.Users(), otps, mail, tokens, cfg.OTPTTL, cfg.AdminEmails, logger)
	logger.Info("Use cases initialized.")

	// --- Transports ---
	router := delivery.NewRouter(delivery.RouterConfig{
		AllowOrigins: cfg.CorsAllowOrigins,
		Tokens:       tokens,
		Health:       health,
	}, delivery.Handlers{
		Auth:       delivery.NewAuthHandler(authUseCase, logger),
		Products:   delivery.NewProductHandler(productUseCase, logger),
		Categories: delivery.NewCategoryHandler(categoryUseCase, logger),
		Cart:       delivery.NewCartHandler(cartUseCase, logger),
		Addresses:  delivery.NewAddressHandler(addressUseCase, logger),
	}, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer, healthServer := grpcHandler.NewServer(grpcHandler.NewCatalogHandler(productUseCase, logger), logger)
	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Errorf("Failed to listen on port %s: %v", cfg.GrpcPort, err)
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("gRPC server listening on %s", cfg.GrpcPort)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Warn("Shutdown signal received...")
		healthServer.SetServingStatus(grpcHandler.CatalogServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("HTTP server shutdown error: %v", err)
		}
		logger.Info("HTTP server stopped.")

		grpcServer.GracefulStop()
		logger.Info("gRPC server gracefully stopped.")
		return nil
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (domain.DataStore, func(context.Context) error, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore(logger), nil, func() {}, nil
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := database.Close(); err != nil {
			logger.Errorf("Error closing database connection: %v", err)
		} else {
			logger.Info("Database connection closed.")
		}
	}
	if err := db.Migrate(ctx, database); err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	logger.Info("Database connection established and schema is up to date.")

	return repository.NewPostgresStore(database, logger), database.PingContext, closeDB, nil
}

func openOTPStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (domain.OTPStore, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, OTP codes are kept in memory")
		otps := memory.NewOTPStore()
		return otps, otps.Close, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Errorf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
		return nil, nil, err
	}
	logger.Infof("Connected to redis at %s", cfg.RedisAddr)

	return repository.NewRedisOTPStore(client, logger), func() {
		if err := client.Close(); err != nil {
			logger.Errorf("Error closing redis client: %v", err)
		}
	}, nil
}
