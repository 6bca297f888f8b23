package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/pbchs/registry-assistant/pkg/chat"
	"github.com/pbchs/registry-assistant/pkg/config"
	"github.com/pbchs/registry-assistant/pkg/database"
	"github.com/pbchs/registry-assistant/pkg/llm"
	"github.com/pbchs/registry-assistant/pkg/logging"
	"github.com/pbchs/registry-assistant/pkg/notes"
	"github.com/pbchs/registry-assistant/pkg/prompts"
	"github.com/pbchs/registry-assistant/pkg/registry"
	"github.com/pbchs/registry-assistant/pkg/repositories"
	"github.com/pbchs/registry-assistant/pkg/resolve"
	"github.com/pbchs/registry-assistant/pkg/retrieval"
	"github.com/pbchs/registry-assistant/pkg/sqlguard"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Log startup configuration
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  LLM provider: %s (model: %s)", cfg.LLM.Provider, cfg.LLM.Model)
	log.Printf("  Database: %s", logging.SanitizeConnectionString(cfg.Database.ConnectionString()))
	log.Printf("  Notes directory: %s", cfg.NotesDir)

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	llmCfg := &llm.Config{
		Provider:       cfg.LLM.Provider,
		Endpoint:       cfg.LLM.Endpoint,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		APIKey:         cfg.LLM.APIKey,
	}
	generator, err := llm.NewGenerator(llmCfg, logger)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	embedder, err := llm.NewEmbedder(llmCfg, logger)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	whitelist := sqlguard.DefaultWhitelist()
	if cfg.WhitelistPath != "" {
		whitelist, err = sqlguard.LoadWhitelist(cfg.WhitelistPath)
		if err != nil {
			log.Fatalf("Failed to load whitelist %s: %v", cfg.WhitelistPath, err)
		}
	}
	guard := sqlguard.NewGuardrail(whitelist, logger)
	runner := database.NewExecutor(db, guard, logger)

	index := retrieval.NewIndex(embedder, logger)
	if err := index.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to build retrieval index: %v", err)
	}

	manager := chat.NewManager(chat.Deps{
		Generator: generator,
		Index:     index,
		Runner:    runner,
		Resolver:  resolve.NewResolver(runner, logger),
		Repair:    sqlguard.NewResolver(generator, guard, prompts.SQLGenerationSystemPrompt, logger),
		Maps:      registry.NewMaps(runner, logger),
		Notes:     notes.NewGenerator(runner, cfg.NotesDir, logger),
		History:   repositories.NewHistoryRepository(db, cfg.Chat.MaxHistoryPerThread),
		Config:    cfg.Chat,
		Logger:    logger,
	})

	log.Printf("Starting registry-assistant CLI (version: %s)", cfg.Version)

	// The whole terminal session is one user and one thread.
	session := manager.Session("cli_user", "cli")

	fmt.Println("Punjabi Bagh Property Registry Assistant")
	fmt.Println("Type 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if lower := strings.ToLower(query); lower == "exit" || lower == "quit" {
			break
		}

		fmt.Println("\nBot:")
		streamed := false
		result, err := session.Run(ctx, query, func(token string) {
			streamed = true
			fmt.Print(token)
		})
		if err != nil {
			logger.Error("Turn failed", zap.Error(err))
			fmt.Println("Something went wrong, please try again.")
			fmt.Println()
			continue
		}
		if streamed {
			fmt.Println()
		} else {
			fmt.Println(result.Answer)
		}
		if result.NotePath != "" {
			fmt.Printf("(note document saved to %s)\n", result.NotePath)
		}
		fmt.Println()
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runMigrations opens a short-lived database/sql connection because the
// migration library does not speak pgxpool.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	return database.RunMigrations(sqlDB, cfg.MigrationsPath, logger)
}
