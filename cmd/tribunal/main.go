package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openjury/tribunal/pkg/api"
	"github.com/openjury/tribunal/pkg/config"
	"github.com/openjury/tribunal/pkg/intake"
	"github.com/openjury/tribunal/pkg/ledger"
	"github.com/openjury/tribunal/pkg/llm"
	"github.com/openjury/tribunal/pkg/observability"
	"github.com/openjury/tribunal/pkg/session"
	"github.com/openjury/tribunal/pkg/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := config.DefaultProfile()
	if cfg.ProfilePath != "" {
		p, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return fmt.Errorf("load courtroom profile: %w", err)
		}
		profile = p
	}

	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "tribunal",
		ServiceVersion: "0.1.0",
		Environment:    cfg.AppID,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Enabled:        cfg.OTLPEndpoint != "",
		Insecure:       true,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	docs, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer closeStore()

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; agent turns will fail")
	}
	client := llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	journal := ledger.NewJournal()
	chain := ledger.NewChainClient(cfg.ChainGatewayURL, cfg.ChainContract, cfg.TreasuryKey, journal)
	if !chain.Configured() {
		logger.Warn("chain gateway not configured; verdicts will not be recorded on-chain")
	}

	registry := session.NewRegistry(time.Duration(profile.Retention.TerminalMinutes) * time.Minute)
	registry.StartJanitor(ctx, time.Minute)

	svc := intake.NewService(client, docs, "cases", cfg.AppID)

	deps := session.Deps{
		LLM:         client,
		Store:       docs,
		Ledger:      chain,
		Profile:     profile,
		Tracer:      obs.Tracer(),
		Collection:  svc.Collection(),
		TurnTimeout: 2 * time.Minute,
	}

	server := api.NewServer(svc, registry, docs, deps, obs)

	// Metrics sit outside the limiter so rejected requests count too.
	limiter := api.NewGlobalRateLimiter(10, 20)
	handler := api.CORSMiddleware(corsOrigins(),
		api.MetricsMiddleware(obs, limiter.Middleware(server.Routes())))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tribunal listening", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config) (store.DocumentStore, func(), error) {
	switch cfg.StoreDriver {
	case "sqlite":
		s, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL required for postgres store")
		}
		s, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func corsOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{"http://localhost:3000"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
