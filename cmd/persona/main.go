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

	"github.com/MikeSquared-Agency/persona/internal/anthropic"
	"github.com/MikeSquared-Agency/persona/internal/api"
	"github.com/MikeSquared-Agency/persona/internal/chat"
	"github.com/MikeSquared-Agency/persona/internal/config"
	"github.com/MikeSquared-Agency/persona/internal/extractor"
	"github.com/MikeSquared-Agency/persona/internal/hermes"
	"github.com/MikeSquared-Agency/persona/internal/llm"
	"github.com/MikeSquared-Agency/persona/internal/openaichat"
	"github.com/MikeSquared-Agency/persona/internal/processor"
	"github.com/MikeSquared-Agency/persona/internal/profile"
	"github.com/MikeSquared-Agency/persona/internal/report"
	"github.com/MikeSquared-Agency/persona/internal/review"
	"github.com/MikeSquared-Agency/persona/internal/schema"
	"github.com/MikeSquared-Agency/persona/internal/store"
)

// chatTemperature keeps tutoring replies varied; extraction and reports run
// at the provider default.
const chatTemperature = 0.7

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("persona starting", "port", cfg.Port, "provider", cfg.LLMProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sch, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		slog.Error("failed to load schema", "path", cfg.SchemaPath, "error", err)
		os.Exit(1)
	}
	slog.Info("schema loaded", "version", sch.Version, "fields", sch.FieldCount())

	// Storage: Postgres when configured, JSON files otherwise.
	var docs store.DocumentStore
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare database", "error", err)
			os.Exit(1)
		}
		docs = db
		slog.Info("database connected")
	} else {
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			slog.Error("failed to open data directory", "dir", cfg.DataDir, "error", err)
			os.Exit(1)
		}
		docs = fs
		slog.Info("file store ready", "dir", fs.Root())
	}

	base, chatLLM, err := newCompleters(cfg)
	if err != nil {
		slog.Error("failed to create llm client", "error", err)
		os.Exit(1)
	}

	// NATS/Hermes (optional)
	var events hermes.Publisher = hermes.Nop{}
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		events = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("nats not configured, events are discarded")
	}

	logger := slog.Default()
	profiles := profile.NewRepository(docs, sch, logger)
	ext := extractor.New(base, profiles, events, logger)
	chats := chat.New(chatLLM, docs, events, logger)
	reports := report.NewSummarizer(base, chats, docs, events, logger)
	reviews := review.NewRepository(docs, logger)
	proc := processor.New(profiles, chats, reports, logger)

	if hermesClient != nil {
		if err := hermesClient.Subscribe(hermes.SubjectReportRequested, proc.HandleReportRequested); err != nil {
			slog.Error("failed to subscribe to report requests", "error", err)
			os.Exit(1)
		}
		if err := hermesClient.Subscribe(hermes.SubjectChatReaction, proc.HandleChatReaction); err != nil {
			slog.Error("failed to subscribe to chat reactions", "error", err)
			os.Exit(1)
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, api.Deps{
		Profiles:  profiles,
		Extractor: ext,
		Chats:     chats,
		Processor: proc,
		Reports:   reports,
		Reviews:   reviews,
	}, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	if cfg.APIToken == "" {
		slog.Warn("PERSONA_API_TOKEN not set, API is unauthenticated")
	}

	slog.Info("persona ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	if hermesClient != nil {
		if err := hermesClient.Drain(); err != nil {
			slog.Warn("nats drain", "error", err)
		}
	}
	cancel()
	slog.Info("persona stopped")
}

// newCompleters returns the completer used for extraction and reports, and a
// warmer one for chat.
func newCompleters(cfg config.Config) (llm.Completer, llm.Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, nil, errors.New("OPENAI_API_KEY is required")
		}
		c, err := openaichat.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.MaxTokens)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("openai client ready", "model", cfg.OpenAIModel)
		return c, c.WithTemperature(chatTemperature), nil
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, nil, errors.New("ANTHROPIC_API_KEY is required")
		}
		c := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxTokens)
		slog.Info("anthropic client ready", "model", cfg.AnthropicModel)
		return c, c.WithTemperature(chatTemperature), nil
	}
	return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
