package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/archive"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/config"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/database"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/enrich"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/extract"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/handlers"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/llm"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/logging"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/repositories"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/services"
	"github.com/ideafarm-labs/ideafarm-engine/pkg/vault"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", cfg.Database.Host),
		zap.String("llm_model", cfg.LLM.Model))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	ideaRepo := repositories.NewIdeaRepository(db)
	credentialRepo := repositories.NewCredentialRepository(db)

	keyring, err := vault.NewKeyring(cfg.Vault.Key, cfg.Vault.KeyVersion)
	if err != nil {
		logger.Fatal("Failed to build vault keyring", zap.Error(err))
	}
	credentialVault := vault.New(keyring, credentialRepo, &vault.Config{
		TokenEndpoint: cfg.OAuth.TokenEndpoint,
		ClientID:      cfg.OAuth.ClientID,
		ClientSecret:  cfg.OAuth.ClientSecret,
	}, logger)

	llmClient, err := llm.NewClient(&llm.Config{
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create completion client", zap.Error(err))
	}

	extractor := extract.New(extract.Config{
		FetchTimeout:    time.Duration(cfg.Extract.FetchTimeoutSeconds) * time.Second,
		MaxContentChars: cfg.Extract.MaxContentChars,
	}, logger)

	enricher := enrich.New(llmClient, logger)

	archiver := archive.New(archive.Config{
		BaseURL: cfg.Archive.BaseURL,
		Timeout: time.Duration(cfg.Archive.TimeoutSeconds) * time.Second,
	}, credentialVault, logger)

	pipeline := services.NewPipeline(services.Config{
		ProcessTimeout: time.Duration(cfg.Pipeline.ProcessTimeoutSeconds) * time.Second,
	}, ideaRepo, extractor, enricher, archiver, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewConsentHandler(credentialVault, logger).RegisterRoutes(mux)
	handlers.NewIdeaHandler(ideaRepo, pipeline, logger).RegisterRoutes(mux)
	handlers.NewEventHandler(pipeline, logger).RegisterRoutes(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting ideafarm-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
