// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/cache"
	"github.com/olegiv/trapo-admin/internal/config"
	"github.com/olegiv/trapo-admin/internal/handler"
	"github.com/olegiv/trapo-admin/internal/logging"
	"github.com/olegiv/trapo-admin/internal/middleware"
	"github.com/olegiv/trapo-admin/internal/render"
	"github.com/olegiv/trapo-admin/internal/scheduler"
	"github.com/olegiv/trapo-admin/internal/service"
	"github.com/olegiv/trapo-admin/internal/session"
	"github.com/olegiv/trapo-admin/internal/store"
	"github.com/olegiv/trapo-admin/internal/version"
	"github.com/olegiv/trapo-admin/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// recentEvents is the size of the in-memory WARN+ log ring.
const recentEvents = 500

// staticMaxAge is the Cache-Control max-age of embedded assets in seconds.
const staticMaxAge = 24 * 60 * 60

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "trapo-admin - Trapo store admin dashboard server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_API_URL          Store backend base URL (default: http://localhost:5000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_SESSION_SECRET   Session and CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_DB_PATH          Session database path (default: ./data/trapo-admin.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_SERVER_PORT      Server port (default: 3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_STATIC_DIR       Directory of a built SPA served for admin pages (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_REDIS_URL        Redis URL for the dashboard cache (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("trapo-admin %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	recorder := logging.NewRecorder(recentEvents)
	logger := logging.NewLogger(cfg.LogLevel, recorder)
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		err = db.Close()
		if err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	sessionManager := session.NewManager(db, cfg.IsDevelopment())

	cacher := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTL,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() {
		if err := cacher.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	client, err := apiclient.New(apiclient.Options{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		Burst:     cfg.APIBurst,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}
	slog.Info("backend client ready", "url", cfg.APIURL)

	renderer, err := render.New(render.Config{
		TemplatesFS: web.Templates(),
		IsDev:       cfg.IsDevelopment(),
		Version:     appVersion,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	// Services
	dashboard := service.NewDashboard(cacher, cfg.CacheTTL, logger)
	orders := service.NewOrders(logger, dashboard)
	products := service.NewProducts(logger, dashboard)
	users := service.NewUsers(logger)

	// Middleware and handlers
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	sessions := middleware.NewSessions(sessionManager, client, logger)
	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	backendProbe := handler.NewBackendProbe(client, logger)
	healthHandler := handler.NewHealthHandler(handler.HealthConfig{
		DB:      db,
		Cache:   cacher,
		Backend: backendProbe,
		DataDir: dbDir,
		Version: versionInfo,
	})
	pagesHandler := handler.NewPagesHandler(renderer, cfg.StaticDir, logger)
	authHandler := handler.NewAuthHandler(loginProtection, logger)
	accountHandler := handler.NewAccountHandler(sessionManager, client, logger)
	dashboardHandler := handler.NewDashboardHandler(client, dashboard, logger)
	ordersHandler := handler.NewOrdersHandler(client, orders, cfg.PageSize, logger)
	productsHandler := handler.NewProductsHandler(client, products, cfg.PageSize, logger)
	usersHandler := handler.NewUsersHandler(client, users, cfg.PageSize, logger)
	eventsHandler := handler.NewEventsHandler(recorder)

	// Background jobs
	sched := scheduler.New(logger)
	if err := registerJobs(sched, db, cacher, loginProtection, backendProbe); err != nil {
		return fmt.Errorf("registering scheduled jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestPath)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.Gate(middleware.GateConfig{
		PublicPaths: []string{
			"/admin/api/session",
			"/admin/api/login",
			"/admin/api/register",
		},
	}))

	apiTimeout := cfg.APITimeout + 5*time.Second

	// Static assets
	r.With(middleware.StaticCache(staticMaxAge)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	// Health checks
	r.Get("/health/live", healthHandler.Liveness)
	r.Group(func(r chi.Router) {
		r.Use(sessions.Load)
		r.Get("/health", healthHandler.Health)
		r.Get("/health/ready", healthHandler.Readiness)
	})

	// Pages
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, middleware.AdminPath, http.StatusSeeOther)
	})
	r.Get(middleware.LoginPath, pagesHandler.Login)
	r.Get(middleware.RegisterPath, pagesHandler.Register)
	r.Group(func(r chi.Router) {
		r.Use(sessions.Load)
		r.Use(middleware.RequireAdmin(pagesHandler.GuardViews()))
		r.Get(middleware.AdminPath, pagesHandler.Shell)
		r.Get(middleware.AdminPath+"/*", pagesHandler.Shell)
	})

	// Admin JSON API
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.Timeout(apiTimeout))
		r.Use(csrfMiddleware)
		r.Use(sessions.Load)

		r.Get("/session", authHandler.Session)
		r.With(loginProtection.Middleware()).Post("/login", authHandler.Login)
		r.With(loginProtection.Middleware()).Post("/register", authHandler.Register)
		r.Post("/logout", authHandler.Logout)
		r.Post("/session/refresh", authHandler.RefreshUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(pagesHandler.GuardViews()))

			r.Get("/dashboard", dashboardHandler.Stats)

			r.Get("/orders", ordersHandler.List)
			r.Get("/orders/{id}", ordersHandler.Get)
			r.Put("/orders/{id}/status", ordersHandler.UpdateStatus)

			r.Get("/products", productsHandler.List)
			r.Post("/products", productsHandler.Create)
			r.Get("/products/{id}", productsHandler.Get)
			r.Put("/products/{id}", productsHandler.Update)
			r.Delete("/products/{id}", productsHandler.Delete)

			r.Get("/users", usersHandler.List)
			r.Get("/events", eventsHandler.List)
		})
	})

	// End-user account JSON API
	r.Route("/account/api", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.Timeout(apiTimeout))
		r.Use(csrfMiddleware)

		r.With(loginProtection.Middleware()).Post("/login", accountHandler.Login)
		r.With(loginProtection.Middleware()).Post("/register", accountHandler.Register)
		r.Post("/logout", accountHandler.Logout)
		r.Get("/profile", accountHandler.Profile)
		r.Put("/profile", accountHandler.UpdateProfile)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "backend", cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// registerJobs schedules the housekeeping of the session database, caches
// and login protection, and the backend health probe.
func registerJobs(sched *scheduler.Scheduler, db *sql.DB, cacher cache.Cacher, lp *middleware.LoginProtection, probe *handler.BackendProbe) error {
	ctx := context.Background()

	if _, err := sched.Every("session-cleanup", time.Hour, func() {
		n, err := store.DeleteExpiredSessions(ctx, db)
		if err != nil {
			slog.Error("deleting expired sessions", "error", err)
			return
		}
		if n > 0 {
			slog.Info("expired sessions deleted", "count", n)
		}
	}); err != nil {
		return err
	}

	if _, err := sched.Every("login-protection-prune", 10*time.Minute, func() {
		if n := lp.Prune(); n > 0 {
			slog.Debug("login attempts pruned", "count", n)
		}
	}); err != nil {
		return err
	}

	if _, err := sched.Every("backend-probe", time.Minute, func() {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		probe.Probe(probeCtx)
	}); err != nil {
		return err
	}

	if mc, ok := cacher.(*cache.MemoryCache); ok {
		if _, err := sched.Every("cache-expiry", time.Minute, func() {
			mc.RemoveExpired()
		}); err != nil {
			return err
		}
	}

	return nil
}
