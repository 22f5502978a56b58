// Bluecaller - contractor writing assistant server
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ashureev/bluecaller/internal/api"
	"github.com/ashureev/bluecaller/internal/audit"
	"github.com/ashureev/bluecaller/internal/config"
	"github.com/ashureev/bluecaller/internal/llm"
	"github.com/ashureev/bluecaller/internal/pipeline"
	"github.com/ashureev/bluecaller/internal/prompt"
	"github.com/ashureev/bluecaller/internal/ratelimit"
	"github.com/ashureev/bluecaller/internal/session"
	"github.com/ashureev/bluecaller/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slog.SetDefault(newLogger(os.Stdout, slog.LevelInfo, "json"))

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped successfully")
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting server",
		"port", cfg.Port,
		"provider", cfg.LLM.Provider,
		"classifier_model", cfg.LLM.ClassifierModel,
		"generator_model", cfg.LLM.GeneratorModel,
	)
	if cfg.UsesDefaultSecret() {
		slog.Warn("SESSION_SECRET not set, using the built-in development secret")
	}

	// Log files.
	auditLog, err := audit.Open(cfg.Log.AuditPath)
	if err != nil {
		return err
	}
	defer closeQuietly("audit log", auditLog)
	defer auditLog.Logger().Info("Server stopped")

	promptLog, err := audit.OpenPromptLog(cfg.Log.PromptLogPath)
	if err != nil {
		return err
	}
	defer closeQuietly("prompt log", promptLog)

	// Provider.
	provider, err := llm.New(ctx, llm.Options{
		Provider:      cfg.LLM.Provider,
		OpenAIAPIKey:  cfg.LLM.OpenAIAPIKey,
		OpenAIBaseURL: cfg.LLM.OpenAIBaseURL,
		GeminiAPIKey:  cfg.LLM.GeminiAPIKey,
		GeminiBaseURL: cfg.LLM.GeminiBaseURL,
	})
	if err != nil {
		return err
	}
	client := llm.NewClient(provider, llm.Policy{
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
		RetryDelay: cfg.LLM.RetryDelay,
	}, logger)
	slog.Info("LLM provider initialized", "provider", client.Provider().Name())

	// Pipeline.
	limiter := ratelimit.New(cfg.RateLimit.MaxPrompts, cfg.RateLimit.MaxAddresses)
	svc, err := pipeline.NewService(pipeline.Deps{
		Limiter:    limiter,
		Classifier: pipeline.NewClassifier(client, cfg.LLM.ClassifierModel),
		Templates:  prompt.Default(),
		Generator:  pipeline.NewGenerator(client, cfg.LLM.GeneratorModel),
		Auditor:    auditLog,
		Journal:    promptLog,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	// HTTP.
	pages, err := web.Load()
	if err != nil {
		return err
	}
	sessions := session.NewStore(cfg.Auth.SessionSecret)
	handler := api.NewHandler(svc, pages, sessions, cfg.MaxInputBytes, logger)

	// No WriteTimeout: one request spans two provider calls.
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(handler, api.RouterOptions{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
			Sessions: sessions,
			Logger:   logger,

			TrustProxyHeaders: cfg.TrustProxyHeaders,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("Logs ready",
		"audit_log", auditLog.Path(),
		"prompt_log", cfg.Log.PromptLogPath,
		"prompt_limit", limiter.Limit(),
		"trust_proxy_headers", cfg.TrustProxyHeaders,
	)
	auditLog.Logger().Info("Server started",
		"provider", client.Provider().Name(),
		"prompt_limit", limiter.Limit(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func closeQuietly(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Error("Failed to close "+name, "error", err)
	}
}
