package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/arturoeanton/authorlens/internal/adapter/ai"
	"github.com/arturoeanton/authorlens/internal/adapter/store"
	"github.com/arturoeanton/authorlens/internal/domain"
	"github.com/arturoeanton/authorlens/internal/handler"
	"github.com/arturoeanton/authorlens/internal/mcp"
	"github.com/arturoeanton/authorlens/internal/port"
	"github.com/arturoeanton/authorlens/internal/service"
	"github.com/arturoeanton/authorlens/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	metric, err := domain.ParseMetric(cfg.DistanceMetric)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	spec := domain.IndexSpec{Dimension: cfg.EmbeddingDimension, Metric: metric}

	slog.Info("🚀 Starting AuthorLens",
		"port", cfg.Port,
		"store", cfg.StoreDriver,
		"dimension", spec.Dimension,
		"metric", spec.Metric,
		"ollama_embed", cfg.OllamaEmbedURL,
		"ollama_chat", cfg.OllamaChatURL,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Author index ─────────────────────────────────────────────────────
	var index port.AuthorIndex
	switch cfg.StoreDriver {
	case "memory":
		index = store.NewMemoryStore(spec)
	default:
		pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()

		if err := pgStore.EnsureSchema(context.Background(), spec); err != nil {
			slog.Error("failed to initialize schema", "error", err)
			os.Exit(1)
		}
		index = store.NewAuthorStore(pgStore, spec)
	}

	// ── AI provider ──────────────────────────────────────────────────────
	ollamaAI := ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaEmbedURL,
			Model:   cfg.OllamaEmbedModel,
			Token:   cfg.OllamaEmbedToken,
		},
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		},
		cfg.ProviderMaxInput,
		cfg.ProviderTimeout,
	)

	// Retry policy lives here, outside the services: bounded backoff on
	// rate limits only.
	provider := ai.NewRetryProvider(ollamaAI, cfg.RetryMaxAttempts, cfg.RetryBaseDelay)

	// ── Services ─────────────────────────────────────────────────────────
	retrievalService := service.NewRetrievalService(provider, index, spec, cfg.ProviderTimeout)
	answerService := service.NewAnswerService(provider, retrievalService, cfg.AskThreshold, cfg.ProviderTimeout)
	catalogService := service.NewCatalogService(provider, index, cfg.ProviderTimeout)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	authorHandler := handler.NewAuthorHandler(catalogService)
	authorHandler.Register(api)

	searchHandler := handler.NewSearchHandler(retrievalService, answerService, cfg.SearchTopK, cfg.SearchThreshold, cfg.AskTopK)
	searchHandler.Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(retrievalService, answerService, catalogService, cfg.MCPPort,
			cfg.SearchTopK, cfg.SearchThreshold, cfg.AskTopK)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
