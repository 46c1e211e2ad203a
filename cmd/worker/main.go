package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/showcase-api/internal/bootstrap"
	"github.com/jwalitptl/showcase-api/internal/config"
	"github.com/jwalitptl/showcase-api/internal/handler/health"
	internalworker "github.com/jwalitptl/showcase-api/internal/worker"
	"github.com/jwalitptl/showcase-api/pkg/logger"
	"github.com/jwalitptl/showcase-api/pkg/metrics"
	"github.com/jwalitptl/showcase-api/pkg/worker"
)

func setupHealthCheck(port int, h *health.Handler, log *logger.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	h.RegisterRoutes(engine.Group(""))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(cfg.Log.ToLoggerConfig())
	appLogger.SetGlobal()
	workerLogger := appLogger.With("process", "worker")

	if cfg.Storage.Driver == config.StorageDriverMemory {
		workerLogger.Fatal(errors.New("storage.driver is memory"), "The worker needs shared storage; the API relays events itself with the memory driver")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workerMetrics := metrics.NewMetrics("showcase", reg)

	store, err := bootstrap.OpenStore(cfg, workerLogger)
	if err != nil {
		workerLogger.Fatal(err, "Failed to open storage")
	}
	defer store.Close()

	broker, brokerCheck, err := bootstrap.NewBroker(ctx, cfg, workerMetrics, workerLogger)
	if err != nil {
		workerLogger.Fatal(err, "Failed to create message broker")
	}
	defer broker.Close()

	checks := map[string]health.Pinger{"database": store}
	if brokerCheck != nil {
		checks["redis"] = brokerCheck
	}

	processor, err := worker.NewOutboxProcessor(store, broker, cfg.Outbox.ToWorkerConfig(), workerLogger, workerMetrics)
	if err != nil {
		workerLogger.Fatal(err, "Failed to create outbox processor")
	}

	cleanup, err := internalworker.NewOutboxCleanupWorker(store.Repos().Outbox, cfg.Outbox.Retention, cfg.Outbox.CleanupSchedule, workerLogger, workerMetrics)
	if err != nil {
		workerLogger.Fatal(err, "Failed to create outbox cleanup worker")
	}

	healthSrv := setupHealthCheck(cfg.Worker.HealthPort, health.NewHandler(reg, checks), workerLogger)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := cleanup.Start(ctx); err != nil {
			workerLogger.Error(err, "Outbox cleanup stopped")
		}
	}()

	<-ctx.Done()
	workerLogger.Info("Shutting down...")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		workerLogger.Error(err, "Health check server forced to shutdown")
	}
}
