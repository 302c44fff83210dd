package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-discount/internal/common"
	"github.com/noah-isme/toko-discount/internal/config"
	"github.com/noah-isme/toko-discount/internal/health"
	"github.com/noah-isme/toko-discount/internal/obs"
	"github.com/noah-isme/toko-discount/internal/quote"
	"github.com/noah-isme/toko-discount/internal/ratelimit"
	"github.com/noah-isme/toko-discount/internal/resilience"
	"github.com/noah-isme/toko-discount/internal/rules"
	"github.com/noah-isme/toko-discount/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	reg := prometheus.DefaultRegisterer
	domainMetrics := obs.NewDomainMetrics(cfg.Obs.MetricsNamespace, reg)

	tracingEnabled := cfg.Obs.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "toko-discount",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      os.Getenv("OBS_TRACING_EXPORTER"),
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = mustInitRedis(cfg, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	source, probes := rulesSource(cfg, redisClient, reg, logger)
	quoteHandler := quote.NewHandler(quote.HandlerConfig{
		Rules:    source,
		Stacking: cfg.Stacking,
		Logger:   &logger,
		Metrics:  domainMetrics,
	})
	healthHandler := health.Handler{Probes: probes}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.Obs.EnablePrometheus {
		r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, reg)}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{obs.QuoteIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{EnableHSTS: cfg.AppEnv == "production"}.Middleware)

	if cfg.Obs.EnablePrometheus {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		if cfg.RateLimitEnabled() && redisClient != nil {
			limiter := ratelimit.Handler{
				Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "discount:rl"},
				Config:  ratelimit.Config{Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
				OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
			}
			v.Use(limiter.Middleware)
		}
		v.Post("/quotes", quoteHandler.Quote)
		v.Post("/vouchers/validate", quoteHandler.ValidateVoucher)
		v.Get("/rules", quoteHandler.Rules)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "route not found", nil)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("rules_source", cfg.RulesSource).Bool("stacking", cfg.Stacking).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func mustInitRedis(cfg *config.Config, logger zerolog.Logger) *redis.Client {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

// rulesSource picks the configured rule source and the readiness probes that
// go with it.
func rulesSource(cfg *config.Config, client *redis.Client, reg prometheus.Registerer, logger zerolog.Logger) (rules.Source, map[string]health.Probe) {
	probes := map[string]health.Probe{}
	if client != nil {
		probes["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	var src *rules.Cached
	switch cfg.RulesSource {
	case config.RulesFile:
		if _, err := rules.LoadFile(cfg.RulesFile); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.RulesFile).Msg("load rules file")
		}
		src = rules.NewCached(rules.File{Path: cfg.RulesFile}, cfg.RulesCacheTTL, logger)
	case config.RulesRedis:
		breaker := resilience.NewBreaker(resilience.Options{
			MinRequests:  5,
			FailureRatio: 0.5,
			OpenFor:      10 * time.Second,
			Target:       "rules_redis",
			Logger:       &logger,
			Metrics:      resilience.NewMetrics(cfg.Obs.MetricsNamespace, reg),
		})
		store := rules.NewRedis(client, cfg.RulesRedisKey)
		src = rules.NewCached(store, cfg.RulesCacheTTL, logger).WithBreaker(breaker)
	default:
		return rules.NewStatic(rules.Fixtures()), probes
	}
	probes["rules"] = func(ctx context.Context) error {
		_, err := src.Load(ctx)
		return err
	}
	return src, probes
}
