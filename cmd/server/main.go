package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voltgrid/evse-scheduler/internal/adapter/cache"
	"github.com/voltgrid/evse-scheduler/internal/adapter/queue"
	"github.com/voltgrid/evse-scheduler/internal/adapter/storage/postgres"
	"github.com/voltgrid/evse-scheduler/internal/billing"
	"github.com/voltgrid/evse-scheduler/internal/domain"
	"github.com/voltgrid/evse-scheduler/internal/observability/telemetry"
	"github.com/voltgrid/evse-scheduler/internal/scheduler"
	"github.com/voltgrid/evse-scheduler/pkg/config"
)

const (
	serviceName    = "evse-scheduler"
	serviceVersion = "v1.0.0"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("starting evse-scheduler",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	tracerProvider, err := telemetry.InitTracer(serviceName, cfg.OpenTelemetry.Jaeger.Endpoint)
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", zap.Error(err))
	} else {
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	db, err := postgres.NewConnection(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	defer postgres.Close(db)

	appCache, err := cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("redis not available, falling back to local in-memory cache", zap.Error(err))
		appCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer appCache.Close()

	natsQueue, err := queue.NewNATSQueue(cfg.NATS.URL, logger)
	if err != nil {
		logger.Warn("nats not available, domain events will not be published", zap.Error(err))
		natsQueue = nil
	} else {
		defer natsQueue.Close()
	}

	rabbitQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Warn("rabbitmq not available, persistence retries will not be durable", zap.Error(err))
		rabbitQueue = nil
	} else {
		defer rabbitQueue.Close()
	}

	persistRepo := postgres.NewPersistenceRepository(db, logger)
	persistor := scheduler.NewAsyncPersistor(persistRepo, rabbitQueue, logger)
	defer persistor.Close()

	events := scheduler.NewEventPublisher(natsQueue, logger)

	pricing := &billing.PricingConfig{
		Schedule:          buildTariffSchedule(cfg.Scheduler.Tariff),
		ServiceRatePerKWh: cfg.Scheduler.ServiceRatePerKWh,
	}
	calc := billing.NewCalculator(pricing, logger)

	schedulerCfg := buildSchedulerConfig(cfg.Scheduler)
	facade := scheduler.NewFacade(schedulerCfg, calc, persistor, events, logger)
	if err := facade.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	snapshots := scheduler.NewCachedSnapshotProvider(facade, appCache, cfg.Redis.SnapshotTTL, logger)

	mux := http.NewServeMux()
	mux.Handle(cfg.Prometheus.Path, promhttp.Handler())
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		data, err := snapshots.Snapshot(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database not ready"))
			return
		}
		w.Write([]byte("ready"))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Prometheus.Port),
		Handler: mux,
	}
	go func() {
		logger.Info("starting metrics server", zap.Int("port", cfg.Prometheus.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server forced to shutdown", zap.Error(err))
	}

	if err := facade.Stop(); err != nil {
		logger.Error("error stopping scheduler", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

// buildSchedulerConfig translates the viper-bound pkg/config.SchedulerConfig
// into the scheduler package's own runtime Config.
func buildSchedulerConfig(sc config.SchedulerConfig) scheduler.Config {
	cfg := scheduler.Config{
		Acceleration:        sc.Acceleration,
		TickInterval:        sc.TickIntervalMs,
		WaitingAreaCapacity: sc.WaitingAreaCapacity,
		PileQueueCapacity:   sc.PileQueueCapacity,
		FastPowerKWhPerH:    sc.FastPowerKWhPerH,
		SlowPowerKWhPerH:    sc.SlowPowerKWhPerH,
	}
	if len(sc.InitialPiles) == 0 {
		cfg.InitialPiles = scheduler.DefaultConfig().InitialPiles
		return cfg
	}
	for _, ip := range sc.InitialPiles {
		cfg.InitialPiles = append(cfg.InitialPiles, scheduler.InitialPile{
			Number: ip.Number,
			Mode:   domain.ChargingMode(ip.Mode),
		})
	}
	return cfg
}

// buildTariffSchedule translates the viper-bound tariff configuration
// into a billing.Schedule, falling back to the spec default when no
// windows are configured.
func buildTariffSchedule(tc config.TariffScheduleConfig) billing.Schedule {
	if len(tc.Windows) == 0 {
		return billing.DefaultSchedule()
	}

	schedule := billing.Schedule{
		PeakRate:   tc.PeakRate,
		FlatRate:   tc.FlatRate,
		ValleyRate: tc.ValleyRate,
	}
	for _, w := range tc.Windows {
		schedule.Windows = append(schedule.Windows, billing.Rate{
			Slot:     billing.TimeSlot(w.Slot),
			StartMin: w.StartMin,
			EndMin:   w.EndMin,
		})
	}
	return schedule
}
