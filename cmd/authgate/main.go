// ABOUTME: Entry point for the authgate demo server
// ABOUTME: Wires config, cache, validator, evaluator, audit log, and guarded routes

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"

	"github.com/jaggalex/authgate/internal/audit"
	"github.com/jaggalex/authgate/internal/auth"
	"github.com/jaggalex/authgate/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: authgate <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve [config.yaml]  Start the gateway server")
		fmt.Println("  health               Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file named on the command line, or falls back
// to AUTHGATE_* environment variables when no file is given.
func loadConfig() (*config.Config, error) {
	if len(os.Args) > 2 {
		return config.Load(os.Args[2])
	}
	return config.FromEnv()
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("  ▶ ")
	fmt.Printf("authgate %s\n", version)
	green.Print("  ▶ ")
	fmt.Printf("HTTP:        %s\n", cfg.Server.HTTPAddr)
	green.Print("  ▶ ")
	fmt.Printf("Environment: %s\n", environmentLabel(cfg))
	fmt.Println()

	client := auth.NewClient(auth.AuthorityConfig{
		IntrospectURL: cfg.Authority.IntrospectURL,
		PermissionURL: cfg.Authority.PermissionURL,
		RoleURL:       cfg.Authority.RoleURL,
		Timeout:       cfg.Authority.Timeout,
	})

	cache, err := buildCache(cfg)
	if err != nil {
		return err
	}

	validator := auth.NewValidator(client, cache, logger)
	evaluator := auth.NewEvaluator(client, logger)

	var recorder auth.DecisionRecorder
	if cfg.Audit.Path != "" {
		store, err := audit.NewStore(cfg.Audit.Path)
		if err != nil {
			return fmt.Errorf("opening audit store: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version})
	})

	authn := auth.Middleware(validator, recorder)

	// Each protected route declares its requirements as plain Guard data.
	routes := []struct {
		pattern string
		guard   auth.Guard
	}{
		{"/api/me", auth.Guard{}},
		{"/api/docs", auth.Guard{Permissions: []string{"doc:read"}, Match: auth.MatchAny}},
		{"/api/admin", auth.Guard{Roles: []string{"admin", "owner"}, Match: auth.MatchAny}},
	}
	for _, route := range routes {
		mux.Handle(route.pattern, authn(auth.RequireGuard(evaluator, route.guard, recorder)(whoamiHandler())))
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	logger.Info("starting authgate",
		"http_addr", cfg.Server.HTTPAddr,
		"environment", cfg.Environment,
		"cache_backend", cacheLabel(cfg),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildCache constructs the introspection cache named by the config. The
// development-mode bypass is threaded in as the cache's bypass hook.
func buildCache(cfg *config.Config) (auth.TokenCache, error) {
	bypass := func() bool { return cfg.Development() }
	switch cfg.Cache.Backend {
	case "", "memory":
		return auth.NewMemoryCache(auth.IntrospectionTTL, bypass), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		return auth.NewRedisCache(client, "", auth.IntrospectionTTL, bypass), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// whoamiHandler echoes the authenticated principal.
func whoamiHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.MustFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"subject":     user.Subject,
			"role":        user.Role,
			"permissions": user.Permissions,
		})
	})
}

func environmentLabel(cfg *config.Config) string {
	if cfg.Development() {
		return color.YellowString("development (introspection cache disabled)")
	}
	if cfg.Environment == "" {
		return "production"
	}
	return cfg.Environment
}

func cacheLabel(cfg *config.Config) string {
	if cfg.Cache.Backend == "" {
		return "memory"
	}
	return cfg.Cache.Backend
}

func runHealth(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway unhealthy: status %d", resp.StatusCode)
	}
	color.Green("gateway healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
