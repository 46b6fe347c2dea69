package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yangwenmai/lexdraft/internal/api"
	"github.com/yangwenmai/lexdraft/internal/audit"
	"github.com/yangwenmai/lexdraft/internal/config"
	"github.com/yangwenmai/lexdraft/internal/engine"
	"github.com/yangwenmai/lexdraft/internal/model"
	"github.com/yangwenmai/lexdraft/internal/orchestrator"
	"github.com/yangwenmai/lexdraft/internal/store"
)

func main() {
	if err := run(); err != nil {
		var cerr *model.ConfigurationError
		if errors.As(err, &cerr) {
			fmt.Fprintf(os.Stderr, "lexdraft: %v\n", err)
			os.Exit(2)
		}
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if cfg.UseStubs() {
		slog.Warn("no backend credentials configured, using stub backends")
		cfg = cfg.WithStubBackends()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sel, err := engine.NewSelector(cfg.PrimaryBackend, cfg.FallbackBackend)
	if err != nil {
		return err
	}

	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	s, err := store.New(db)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	recorder := audit.New(s, audit.WithBuffer(cfg.AuditBuffer), audit.WithLogger(logger))
	backend := newDispatcher(cfg)
	orch := orchestrator.New(backend, sel,
		orchestrator.WithLogger(logger),
		orchestrator.WithAuditor(recorder),
		orchestrator.WithMaxRetryDelay(cfg.MaxRetryDelay),
	)

	srv := api.New(orch, s,
		api.WithExtractor(engine.NewHTTPExtractor(engine.WithMaxTextLength(cfg.MaxTextLength))),
		api.WithRecorder(recorder),
		api.WithCORSOrigin(cfg.CORSOrigin),
		api.WithRequestTimeout(cfg.RequestTimeout),
		api.WithLogger(logger),
	)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	// The recorder outlives the HTTP server so activities from draining
	// requests are still flushed.
	recCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()

	g.Go(func() error { return recorder.Run(recCtx) })
	g.Go(func() error {
		for {
			select {
			case <-recCtx.Done():
				return nil
			case err := <-recorder.Errors():
				slog.Warn("activity not recorded", "error", err)
			}
		}
	})
	g.Go(func() error {
		slog.Info("lexdraft server listening",
			"addr", "http://localhost:"+cfg.Port,
			"primary", sel.Primary(),
			"fallback", sel.Fallback(),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		defer stopRecorder()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newDispatcher registers a client for every provider that has credentials.
// The stub provider is always available.
func newDispatcher(cfg config.Config) *engine.Dispatcher {
	opts := []engine.DispatcherOption{
		engine.WithProvider(engine.ProviderStub, &engine.StubClient{}),
		engine.WithRateLimit(cfg.BackendRPS, cfg.BackendBurst),
	}
	if cfg.GeminiKey != "" {
		opts = append(opts, engine.WithProvider(engine.ProviderGemini,
			engine.NewGeminiClient(cfg.GeminiKey, engine.WithGeminiTimeout(cfg.HTTPTimeout))))
	}
	if cfg.OpenAIKey != "" {
		opts = append(opts, engine.WithProvider(engine.ProviderOpenAI,
			engine.NewOpenAIClient(cfg.OpenAIKey,
				engine.WithBaseURL(cfg.OpenAIBaseURL),
				engine.WithOpenAITimeout(cfg.HTTPTimeout))))
	}
	if cfg.AnthropicKey != "" {
		opts = append(opts, engine.WithProvider(engine.ProviderClaude,
			engine.NewClaudeClient(cfg.AnthropicKey, engine.WithClaudeTimeout(cfg.HTTPTimeout))))
	}
	if cfg.OllamaURL != "" {
		opts = append(opts, engine.WithProvider(engine.ProviderOllama,
			engine.NewOllamaClient(cfg.OllamaURL, engine.WithOllamaTimeout(cfg.HTTPTimeout))))
	}
	return engine.NewDispatcher(opts...)
}
