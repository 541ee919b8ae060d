package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/analysis"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/cache"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/config"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/history"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/providers/apisports"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/ratelimit"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/resolver"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/retry"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/telemetry"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	fmt.Println("=== Fortuna Goal Analysis v0 ===")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := telemetry.New(cfg.Log.Env, cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.APISports.Key == "" {
		fmt.Println("⚠️  APISPORTS_KEY not set; provider calls will be rejected")
	}

	client := apisports.New(apisports.Config{
		BaseURL: cfg.APISports.BaseURL,
		APIKey:  cfg.APISports.Key,
		Timeout: cfg.APISports.Timeout,
		Limiter: ratelimit.NewPerMinute(cfg.APISports.RatePerMin),
		Retry:   retry.NewPolicy(cfg.APISports.MaxAttempts, 500*time.Millisecond),
		Logger:  logger,
	})
	fmt.Printf("✓ API-Football client ready (%s)\n", cfg.APISports.BaseURL)

	checks := make(map[string]handlers.Pinger)

	// Fixture cache and analysis stream (optional)
	var fixtureCache cache.FixtureCache = cache.NopCache{}
	var streamPublisher analysis.Publisher
	if cfg.CacheEnabled() {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			fmt.Printf("❌ Failed to parse Redis URL: %v\n", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
			os.Exit(1)
		}
		fixtureCache = cache.NewRedisCache(redisClient, cfg.Redis.CacheTTL)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		fmt.Printf("✓ Connected to Redis (fixture TTL %s)\n", cfg.Redis.CacheTTL)

		if cfg.StreamEnabled() {
			streamPublisher = publisher.NewStreamPublisher(redisClient, cfg.Redis.Stream, cfg.Redis.StreamMaxLen)
			fmt.Printf("✓ Publishing analyses to stream %s\n", cfg.Redis.Stream)
		}
	} else {
		fmt.Println("  Fixture cache disabled (REDIS_URL not set)")
	}

	// Analysis log (optional)
	var recorder history.Recorder
	if cfg.HistoryEnabled() {
		db, err := history.Connect(ctx, cfg.History.DSN)
		if err != nil {
			fmt.Printf("❌ Failed to connect to analysis log: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		analysisLog := history.NewPostgresLog(db)
		if err := analysisLog.Migrate(ctx); err != nil {
			fmt.Printf("❌ Failed to migrate analysis log: %v\n", err)
			os.Exit(1)
		}
		recorder = analysisLog
		checks["history"] = db.PingContext
		fmt.Println("✓ Connected to analysis log")
	} else {
		fmt.Println("  Analysis log disabled (HISTORY_DSN not set)")
	}

	registry, err := resolver.NewRegistry(client, cfg.Analysis.Strategy)
	if err != nil {
		fmt.Printf("❌ Failed to build team resolver: %v\n", err)
		os.Exit(1)
	}

	analyzer := analysis.New(client, registry, analysis.Options{
		Window:      cfg.Analysis.Window,
		TeamTimeout: cfg.Analysis.TeamTimeout,
		Cache:       fixtureCache,
		History:     recorder,
		Publisher:   streamPublisher,
		Logger:      logger,
	})

	handler := handlers.NewHandler(analyzer, checks, logger)
	liveHandler := handlers.NewLiveHandler(ctx, analyzer, cfg.Server.CORSOrigins, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Websocket sessions outlive the request timeout
	r.Get("/ws", liveHandler.HandleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))

		r.Get("/", handler.Index)
		r.Post("/analyze", handler.AnalyzeForm)
		r.Get("/health", handler.HealthCheck)

		// API v1
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/teams/search", handler.SearchTeams)
			r.Post("/analysis", handler.Analyze)
			r.Get("/analysis/recent", handler.RecentAnalyses)
		})
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Goal Analysis listening on %s (strategy=%s, window=%d)\n",
			cfg.Server.Addr, registry.Default(), cfg.Analysis.Window)
		fmt.Println("  Endpoints:")
		fmt.Println("    GET  /")
		fmt.Println("    POST /analyze")
		fmt.Println("    GET  /health")
		fmt.Println("    GET  /ws")
		fmt.Println("    GET  /api/v1/teams/search?q=")
		fmt.Println("    POST /api/v1/analysis")
		fmt.Println("    GET  /api/v1/analysis/recent")

		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		fmt.Printf("❌ Server error: %v\n", err)
		os.Exit(1)

	case sig := <-shutdown:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)

		// Close live sessions, then give outstanding requests a deadline
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("⚠️  Graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("❌ Could not stop server: %v\n", err)
			}
		}
	}

	fmt.Println("✓ Shutdown complete")
}
