package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"hraccess/internal/db"
	"hraccess/internal/domain/access"
	"hraccess/internal/domain/audit"
	"hraccess/internal/domain/directory"
	"hraccess/internal/domain/reports"
	"hraccess/internal/platform/config"
	platformdb "hraccess/internal/platform/db"
	"hraccess/internal/platform/metrics"
	"hraccess/internal/transport/http/api"
	accesshandler "hraccess/internal/transport/http/handlers/access"
	adminhandler "hraccess/internal/transport/http/handlers/admin"
	audithandler "hraccess/internal/transport/http/handlers/audit"
	reportshandler "hraccess/internal/transport/http/handlers/reports"
	"hraccess/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	layout := access.DefaultConfig()
	if cfg.DashboardConfigFile != "" {
		layout, err = access.LoadConfigFile(cfg.DashboardConfigFile)
		if err != nil {
			log.Fatalf("dashboard config load failed: %v", err)
		}
	}
	if err := layout.Validate(); err != nil {
		log.Fatalf("invalid dashboard config: %v", err)
	}

	if cfg.RunSeed {
		if err := platformdb.Seed(ctx, pool, cfg, layout); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	resolver := access.NewResolver(layout)
	accessService := access.NewService(access.NewStore(pool), resolver)
	directoryService := directory.NewService(directory.NewStore(pool), layout)
	auditService := audit.New(pool)
	reportsService := reports.NewService(accessService)
	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.AdminMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(collector))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		accesshandler.NewHandler(accessService).RegisterRoutes(r)
		adminhandler.NewHandler(directoryService, accessService, auditService).RegisterRoutes(r)
		audithandler.NewHandler(auditService, accessService).RegisterRoutes(r)
		reportshandler.NewHandler(reportsService, accessService).RegisterRoutes(r)
	})

	log.Printf("access server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
