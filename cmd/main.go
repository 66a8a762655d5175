package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-CancellationService/internal/api"
	cancelBookingHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/complete_booking"
	confirmBookingHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/confirm_booking"
	getBookingHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/get_booking"
	getPolicyHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/get_cancellation_policy"
	previewHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/preview_cancellation"
	rescheduleHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/reschedule_booking"
	sweepHandler "github.com/m04kA/SMC-CancellationService/internal/api/handlers/run_no_show_sweep"
	"github.com/m04kA/SMC-CancellationService/internal/config"
	"github.com/m04kA/SMC-CancellationService/internal/evaluator"
	policyCache "github.com/m04kA/SMC-CancellationService/internal/infra/cache/policy"
	bookingRepo "github.com/m04kA/SMC-CancellationService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-CancellationService/internal/infra/storage/memory"
	policyRepo "github.com/m04kA/SMC-CancellationService/internal/infra/storage/policy"
	"github.com/m04kA/SMC-CancellationService/internal/integrations/refundgateway"
	bookingsService "github.com/m04kA/SMC-CancellationService/internal/service/bookings"
	policiesService "github.com/m04kA/SMC-CancellationService/internal/service/policies"
	"github.com/m04kA/SMC-CancellationService/internal/worker/noshow"
	"github.com/m04kA/SMC-CancellationService/pkg/clock"
	"github.com/m04kA/SMC-CancellationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-CancellationService/pkg/logger"
	"github.com/m04kA/SMC-CancellationService/pkg/metrics"
)

// storage то, что нужно сервисам от слоя хранения
type storage interface {
	bookingsService.BookingRepository
	noshow.CandidateSource
}

type refundGateway interface {
	bookingsService.RefundGateway
	Close() error
}

func main() {
	// Загружаем конфигурацию
	configPath := "config.toml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-CancellationService...")
	log.Info("Configuration loaded from %s", configPath)

	// Инициализируем метрики (если включены). Методы *metrics.Metrics безопасны на nil.
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Инициализируем хранилище
	var (
		bookings storage
		policies policyCache.Source
	)

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		bookings, policies = store, store
		log.Warn("Using in-memory storage, data is lost on restart")

	default:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		if cfg.Metrics.Enabled {
			wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
			log.Info("Database metrics collection started")
			bookings = bookingRepo.NewRepository(wrappedDB)
			policies = policyRepo.NewRepository(wrappedDB)
		} else {
			bookings = bookingRepo.NewRepository(db)
			policies = policyRepo.NewRepository(db)
		}
	}

	// Кэш политик: локальный снимок и опционально Redis
	var redisClient *redis.Client
	if cfg.PolicyCache.Enabled {
		var l2 policyCache.RedisClient
		if cfg.Redis.Enabled {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				log.Warn("Redis is unavailable at %s, policy cache degrades to local level: %v", cfg.Redis.Addr, err)
			}
			cancel()
			l2 = redisClient
		}
		policies = policyCache.NewCache(policies, l2, cfg.PolicyCache.TTL(), clock.Real{}, metricsCollector, log)
		log.Info("Policy cache enabled (ttl=%s, redis=%t)", cfg.PolicyCache.TTL(), cfg.Redis.Enabled)
	}

	// Refund gateway
	var gateway refundGateway
	switch cfg.RefundGateway.Driver {
	case config.RefundDriverKafka:
		gateway, err = refundgateway.NewKafkaPublisher(refundgateway.KafkaConfig{
			Brokers:  cfg.RefundGateway.Brokers,
			Topic:    cfg.RefundGateway.Topic,
			ClientID: cfg.RefundGateway.ClientID,
			RetryMax: cfg.RefundGateway.RetryMax,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize refund gateway: %v", err)
		}
		log.Info("Refund gateway: kafka (brokers=%v, topic=%s)", cfg.RefundGateway.Brokers, cfg.RefundGateway.Topic)
	default:
		gateway = refundgateway.NewLogGateway(log)
		log.Warn("Refund gateway: log driver, refunds are not executed")
	}

	// Инициализируем сервисы
	eval := evaluator.New(cfg.Engine.Precision())

	bookingSvc := bookingsService.NewService(
		bookings,
		policies,
		gateway,
		eval,
		clock.Real{},
		metricsCollector,
		log,
		cfg.Engine.MaxCASRetries,
	)
	policySvc := policiesService.NewService(policies, log)

	sweeper := noshow.NewSweeper(
		bookings,
		bookingSvc,
		clock.Real{},
		metricsCollector,
		log,
		cfg.Sweeper.Interval(),
		cfg.Sweeper.BatchSize,
	)

	ctx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if cfg.Sweeper.Enabled {
		sweeper.Start(ctx)
		log.Info("No-show sweeper started (interval=%s, batch=%d)", cfg.Sweeper.Interval(), cfg.Sweeper.BatchSize)
	}

	// Инициализируем handlers и роутер
	handlers := api.Handlers{
		GetBooking:      getBookingHandler.NewHandler(bookingSvc, log),
		Preview:         previewHandler.NewHandler(bookingSvc, log),
		CancelBooking:   cancelBookingHandler.NewHandler(bookingSvc, log),
		Reschedule:      rescheduleHandler.NewHandler(bookingSvc, log),
		ConfirmBooking:  confirmBookingHandler.NewHandler(bookingSvc, log),
		CompleteBooking: completeBookingHandler.NewHandler(bookingSvc, log),
		RunNoShowSweep:  sweepHandler.NewHandler(sweeper, log),
		GetPolicy:       getPolicyHandler.NewHandler(policySvc, log),
	}

	opts := api.Options{Logger: log}
	if cfg.Metrics.Enabled {
		opts.Metrics = metricsCollector
		opts.MetricsPath = cfg.Metrics.Path
		opts.MetricsHandler = promhttp.Handler()
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}
	r := api.NewRouter(handlers, opts)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	sweeper.Stop()
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Дожидаемся отправленных возвратов до закрытия producer'а
	bookingSvc.WaitRefunds()
	if err := gateway.Close(); err != nil {
		log.Error("Failed to close refund gateway: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}

	log.Info("Server stopped gracefully")
}
