// ABOUTME: Entry point for the campaign-gateway review server
// ABOUTME: Wires config, store, generator, classifier, engine, and HTTP surface

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2389/campaign-gateway/internal/api"
	"github.com/2389/campaign-gateway/internal/config"
	"github.com/2389/campaign-gateway/internal/dedupe"
	"github.com/2389/campaign-gateway/internal/intent"
	"github.com/2389/campaign-gateway/internal/llm"
	"github.com/2389/campaign-gateway/internal/store"
	"github.com/2389/campaign-gateway/internal/webui"
	"github.com/2389/campaign-gateway/internal/workflow"
)

// version is set at build time.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: campaign-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve     Start the gateway server")
		fmt.Println("  health    Check gateway health")
		fmt.Println("  version   Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "health":
		err = runHealth(ctx, os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// getConfigPath resolves the config file path.
// Priority: --config flag > CAMPAIGN_CONFIG env var > none (defaults apply).
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("CAMPAIGN_CONFIG")
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath(*configPath))
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	sessions, cleanup, err := newStore(cfg.Store)
	if err != nil {
		return err
	}
	defer cleanup()

	generator, err := newGenerator(cfg.Generator)
	if err != nil {
		return err
	}

	classifier := intent.NewChain(generator, logger)
	engine := workflow.New(sessions, generator, classifier, logger)

	cache := dedupe.New(cfg.Dedupe.TTL, cfg.Dedupe.MaxSize)
	defer cache.Close()

	ui := webui.New(engine, logger)
	router := api.NewRouter(engine, cache, ui.Routes(), logger)

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("campaign-gateway listening",
			"addr", cfg.Server.HTTPAddr,
			"store", cfg.Store.Backend,
			"offline", cfg.Generator.Offline,
			"version", version)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runHealth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	baseURL := fs.String("url", gatewayURL(), "gateway base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway unhealthy (status %d): %s", resp.StatusCode, body)
	}

	var health api.HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return err
	}
	fmt.Printf("status: %s (%d active sessions)\n", health.Status, health.ActiveSessions)
	return nil
}

func gatewayURL() string {
	if url := os.Getenv("CAMPAIGN_GATEWAY_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newStore(cfg config.StoreConfig) (store.Store, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing sqlite store: %w", err)
		}
		return s, func() { s.Close() }, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}

func newGenerator(cfg config.GeneratorConfig) (llm.Generator, error) {
	if cfg.Offline {
		return llm.StaticGenerator{}, nil
	}
	return llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:         cfg.APIKey,
		Model:          cfg.Model,
		CompletionsURL: cfg.CompletionsURL,
		Timeout:        cfg.Timeout,
	})
}
