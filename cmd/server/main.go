package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rooftop/solar-rewards-go/internal/config"
	"github.com/rooftop/solar-rewards-go/internal/database"
	"github.com/rooftop/solar-rewards-go/internal/handler"
	"github.com/rooftop/solar-rewards-go/internal/jobs"
	"github.com/rooftop/solar-rewards-go/internal/metrics"
	"github.com/rooftop/solar-rewards-go/internal/middleware"
	"github.com/rooftop/solar-rewards-go/internal/provider"
	"github.com/rooftop/solar-rewards-go/internal/redis"
	"github.com/rooftop/solar-rewards-go/internal/repository"
	"github.com/rooftop/solar-rewards-go/internal/service"
	"github.com/rooftop/solar-rewards-go/internal/util"
)

const (
	cronRateLimitBurst = 10
	apiRateLimitBurst  = 120
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	cipher, err := util.NewCredentialCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise credential cipher")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	m.Register(registry)

	accountRepo := repository.NewAccountRepository(db.DB, cipher)
	productionRepo := repository.NewProductionRepository(db.DB)
	rewardRepo := repository.NewRewardRepository(db.DB)

	var tokenClient service.TokenClient
	if cfg.SimulatedDistribution() {
		log.Warn().Float64("failureRate", cfg.SimulatedFailureRate).Msg("reward distribution is simulated")
		tokenClient = service.NewSimulatedTokenClient(cfg.SimulatedFailureRate)
	} else {
		tokenClient = service.NewHTTPTokenClient(service.HTTPTokenClientConfig{
			BaseURL:  cfg.DistributionURL,
			APIKey:   cfg.DistributionAPIKey,
			Network:  cfg.DistributionNetwork,
			Contract: cfg.B3TRContractAddress,
			Timeout:  cfg.DistributionTimeout(),
		})
	}

	calculator := service.NewRewardCalculator(decimal.NewFromFloat(cfg.RewardRate))
	distributor := service.NewDistributor(tokenClient, cfg.DistributionDelay(), cfg.DistributionTimeout(), m)
	fetcher := service.NewProductionFetcher(provider.NewRegistryFromConfig(cfg), accountRepo, m)
	pipeline := service.NewPipeline(service.PipelineDeps{
		Accounts:    accountRepo,
		Production:  productionRepo,
		Rewards:     rewardRepo,
		Fetcher:     fetcher,
		Calculator:  calculator,
		Distributor: distributor,
		Metrics:     m,
	}, cfg.AccountDelay())
	passStore := redis.NewPassStore(redisClient.Client, cfg.PassLockTTL())
	passRunner := service.NewPassRunner(pipeline, passStore, passStore, m)
	connectionService := service.NewConnectionService(accountRepo, productionRepo, rewardRepo)

	cronAuthMiddleware := middleware.NewCronAuthMiddleware(cfg.CronAuthToken)
	cronRateLimit := middleware.NewIPRateLimitMiddleware(middleware.NewIPRateLimiter(cronRateLimitBurst, config.RateLimitWindow), "cron")
	apiRateLimit := middleware.NewIPRateLimitMiddleware(middleware.NewIPRateLimiter(apiRateLimitBurst, config.RateLimitWindow), "api")
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxRequestBodyBytes)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	cronHandler := handler.NewCronHandler(passRunner, cronAuthMiddleware.Handler, config.PassRequestTimeout)
	connectionHandler := handler.NewConnectionHandler(connectionService)
	statusHandler := handler.NewStatusHandler(distributor, passRunner, calculator)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", handler.Health(db))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	// A pass outlives ServerRequestTimeout, so the trigger sits outside it.
	r.Route("/api/cron", func(r chi.Router) {
		r.Use(cronRateLimit.Handler)
		r.Mount("/", cronHandler.Routes())
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(apiRateLimit.Handler)
		r.Use(cronAuthMiddleware.Handler)
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		connectionHandler.Register(r)
		statusHandler.Register(r)
	})

	if interval := cfg.DailyFetchInterval(); interval > 0 {
		dailyFetchJob := jobs.NewDailyFetchJob(passRunner, interval, config.PassRequestTimeout)
		dailyFetchJob.Start()
		defer dailyFetchJob.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
