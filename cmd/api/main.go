package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/showcase-api/internal/bootstrap"
	"github.com/jwalitptl/showcase-api/internal/config"
	apprequestHandler "github.com/jwalitptl/showcase-api/internal/handler/apprequest"
	"github.com/jwalitptl/showcase-api/internal/handler/health"
	notificationHandler "github.com/jwalitptl/showcase-api/internal/handler/notification"
	"github.com/jwalitptl/showcase-api/internal/middleware"
	"github.com/jwalitptl/showcase-api/internal/repository/cached"
	"github.com/jwalitptl/showcase-api/internal/router"
	apprequestService "github.com/jwalitptl/showcase-api/internal/service/apprequest"
	claimService "github.com/jwalitptl/showcase-api/internal/service/claim"
	notificationService "github.com/jwalitptl/showcase-api/internal/service/notification"
	"github.com/jwalitptl/showcase-api/pkg/auth"
	"github.com/jwalitptl/showcase-api/pkg/logger"
	"github.com/jwalitptl/showcase-api/pkg/metrics"
	"github.com/jwalitptl/showcase-api/pkg/worker"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(cfg.Log.ToLoggerConfig())
	appLogger.SetGlobal()

	if err := middleware.RegisterValidators(); err != nil {
		appLogger.Fatal(err, "failed to register validators")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics("showcase", reg)

	store, err := bootstrap.OpenStore(cfg, appLogger)
	if err != nil {
		appLogger.Fatal(err, "failed to open storage")
	}
	defer store.Close()

	checks := map[string]health.Pinger{"database": store}

	// Repositories and services
	users := cached.NewUserDirectory(store.Repos().Users, cfg.Cache.ToCacheConfig())
	recorder := notificationService.NewRecorder(appMetrics)
	claimSvc := claimService.NewService(store, recorder, appMetrics, appLogger)
	requestSvc := apprequestService.NewService(store, users, recorder, appMetrics, appLogger, cfg.Lifecycle.ToServiceConfig())
	notificationSvc := notificationService.NewService(store, recorder, appLogger)

	// The in-memory store is invisible to a separate worker process, so the
	// relay runs here instead.
	if cfg.Storage.Driver == config.StorageDriverMemory {
		broker, brokerCheck, err := bootstrap.NewBroker(ctx, cfg, appMetrics, appLogger)
		if err != nil {
			appLogger.Fatal(err, "failed to create message broker")
		}
		defer broker.Close()
		if brokerCheck != nil {
			checks["redis"] = brokerCheck
		}

		processor, err := worker.NewOutboxProcessor(store, broker, cfg.Outbox.ToWorkerConfig(), appLogger, appMetrics)
		if err != nil {
			appLogger.Fatal(err, "failed to create outbox processor")
		}
		go processor.Start(ctx)
	}

	// Handlers and router
	jwtService := auth.NewJWTService(cfg.JWT.ToAuthConfig())
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	if len(cfg.CORS.AllowedMethods) > 0 {
		corsConfig.AllowMethods = cfg.CORS.AllowedMethods
	}
	if len(cfg.CORS.AllowedHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.CORS.AllowedHeaders
	}

	routerConfig := router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		CORSConfig:     corsConfig,
		MetricsPrefix:  "showcase_http",
		Registerer:     reg,
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = cfg.RateLimit.RequestsPerSecond
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(jwtService),
		apprequestHandler.NewHandler(requestSvc, claimSvc),
		notificationHandler.NewHandler(notificationSvc),
		health.NewHandler(reg, checks),
		routerConfig,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "server forced to shutdown")
	}
	appLogger.Info("server exited")
}
