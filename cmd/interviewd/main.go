// Command interviewd runs the AI interview backend: a scripted
// LLM-driven interview conversation engine with HTTP API, pluggable
// session stores, and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sagalabs/interviewd/internal/config"
	"github.com/sagalabs/interviewd/internal/httpapi"
	"github.com/sagalabs/interviewd/internal/interview"
	"github.com/sagalabs/interviewd/internal/llm"
	"github.com/sagalabs/interviewd/internal/llm/provider"
	"github.com/sagalabs/interviewd/internal/module"
	"github.com/sagalabs/interviewd/internal/observability"
	"github.com/sagalabs/interviewd/internal/session"
)

// Version is set via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "interviewd",
		Short:   "AI interview conversation engine",
		Version: Version,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the interview HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configFile)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", os.Getenv("CONFIG_FILE"), "configuration file (YAML)")
	return cmd
}

func serve(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log := observability.Logger()
	log.Info("starting interviewd", "version", Version, "port", cfg.Server.Port)

	observability.InitMetrics()
	if err := observability.InitTracing(ctx); err != nil {
		return err
	}
	defer func() { _ = observability.ShutdownTracing(context.Background()) }()

	modules, err := module.LoadDir(cfg.Interview.ModulesDir)
	if err != nil {
		return err
	}
	log.Info("loaded interview modules", "count", len(modules), "dir", cfg.Interview.ModulesDir)

	registry := module.NewRegistry(modules, cfg.Interview.DefaultModule, module.Defaults{
		Prompts: module.Prompts{
			Initial:  cfg.Interview.Prompts.Initial,
			FollowUp: cfg.Interview.Prompts.FollowUp,
			Summary:  cfg.Interview.Prompts.Summary,
		},
		InterviewLength: cfg.Interview.DefaultLength,
		Temperature:     cfg.LLM.Temperature,
		Model:           cfg.LLM.Model,
	}, log)

	providers := provider.NewRegistry()
	if cfg.LLM.APIKey != "" {
		providers.Register(provider.NewOpenAIProvider(cfg.LLM.APIKey))
	}

	gateway := llm.NewGateway(providers, cfg.LLM.Provider, cfg.LLM.RequestsPerSecond, log)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	log.Info("session store ready", "backend", cfg.Store.Backend)

	orchestrator := interview.NewOrchestrator(registry, gateway, store, interview.Defaults{
		SummaryPrompt: cfg.Interview.Prompts.Summary,
		Temperature:   cfg.LLM.Temperature,
		Model:         cfg.LLM.Model,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpapi.NewHandler(orchestrator, cfg.LLM.ExposeDegraded),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		return session.NewRedisStore(session.RedisOptions{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
			TTL:      time.Duration(cfg.Store.Redis.TTLSecs) * time.Second,
		})
	case "sqlite":
		return session.NewSQLiteStore(cfg.Store.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
