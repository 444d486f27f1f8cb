package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"fidolity-token-api/internal/config"
	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/services"
	"fidolity-token-api/internal/store"
	"fidolity-token-api/pkg/logger"

	"github.com/fatih/color"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const setupTimeout = 2 * time.Minute

func main() {
	var (
		migrate     = flag.Bool("migrate", false, "Run pending schema migrations")
		rollback    = flag.Bool("rollback", false, "Roll back the last migration")
		seedData    = flag.Bool("seed", false, "Seed default token, staking and marketplace data and an admin API key")
		healthCheck = flag.Bool("health", false, "Run database health check")
		all         = flag.Bool("all", false, "Run health, migrate and seed (full setup)")
	)
	flag.Parse()

	if !*migrate && !*rollback && !*seedData && !*healthCheck && !*all {
		usage()
		os.Exit(1)
	}

	config.LoadDotEnv()
	cfg := config.LoadConfig()
	if err := logger.Initialize(&logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
		Service:     "dbsetup",
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	client, err := store.Connect(ctx, &cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn("Error closing MongoDB connection", zap.Error(err))
		}
	}()
	db := client.Database(cfg.MongoDB.Database)

	steps := []struct {
		enabled bool
		name    string
		run     func() error
	}{
		{*healthCheck || *all, "health check", func() error { return runHealthCheck(ctx, db) }},
		{*migrate || *all, "migration", func() error { return runMigrations(ctx, db, cfg) }},
		{*rollback, "rollback", func() error { return rollbackMigration(ctx, db, cfg) }},
		{*seedData || *all, "seeding", func() error { return seed(ctx, db, cfg) }},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := step.run(); err != nil {
			log.Error("Database setup step failed", zap.String("step", step.name), zap.Error(err))
			cancel()
			_ = client.Disconnect(context.Background())
			os.Exit(1)
		}
	}

	log.Info("Database setup completed successfully")
}

func usage() {
	fmt.Println("Database Setup Utility")
	fmt.Println("Usage:")
	fmt.Println("  -migrate   Run pending schema migrations")
	fmt.Println("  -rollback  Roll back the last migration")
	fmt.Println("  -seed      Seed default data and create an admin API key")
	fmt.Println("  -health    Run database health check")
	fmt.Println("  -all       Run full setup (health + migrate + seed)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  MONGODB_URI                MongoDB connection string")
	fmt.Println("  MONGODB_DATABASE           Database name")
	fmt.Println("  MONGODB_APIKEY_COLLECTION  API keys collection name")
}

// runHealthCheck prints connectivity and index checks and fails if any is unhealthy
func runHealthCheck(ctx context.Context, db *mongo.Database) error {
	checks := services.NewDatabaseHealthChecker(db).GetDetailedHealth(ctx)

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ok := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	fmt.Println("Health Check Results:")
	var failed []string
	for _, name := range names {
		check := checks[name]
		mark := ok("✓")
		switch check.Status {
		case services.HealthStatusDegraded:
			mark = warn("!")
		case services.HealthStatusUnhealthy:
			mark = bad("✗")
			failed = append(failed, name)
		}
		fmt.Printf("  %s %s: %s (%v)\n", mark, name, check.Status, check.ResponseTime)
		if check.Message != "" {
			fmt.Printf("    %s\n", check.Message)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("health check failed for %v", failed)
	}
	return nil
}

func runMigrations(ctx context.Context, db *mongo.Database, cfg *config.Config) error {
	applied, err := store.NewMigrator(db, cfg.MongoDB.APIKeyCollection).Up(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().Info("Migrations applied", zap.Int("count", applied))
	return nil
}

func rollbackMigration(ctx context.Context, db *mongo.Database, cfg *config.Config) error {
	version, err := store.NewMigrator(db, cfg.MongoDB.APIKeyCollection).Down(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().Info("Rollback finished", zap.Int("rolled_back_version", version))
	return nil
}

// seed inserts default rows and, when no admin key exists yet, creates one and prints it once
func seed(ctx context.Context, db *mongo.Database, cfg *config.Config) error {
	report, err := NewSeeder(store.NewMongoStore(db), cfg).Seed(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().Info("Seed data written",
		zap.Int("token_info", report.TokenInfo),
		zap.Int("staking_config", report.StakingConfig),
		zap.Int("marketplace_items", report.MarketplaceItems),
	)

	auth := services.NewAuthService(db, cfg.MongoDB.APIKeyCollection)
	admins, err := auth.CountKeysWithScope(ctx, models.ScopeTokenAdmin)
	if err != nil {
		return err
	}
	if admins > 0 {
		logger.GetLogger().Info("Admin API key already exists", zap.Int64("count", admins))
		return nil
	}

	key, err := auth.CreateAPIKey(ctx, "Token admin", models.ScopeTokenAdmin)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(color.New(color.Bold).Sprint("Admin API key created. It will not be shown again:"))
	fmt.Printf("  %s\n\n", color.CyanString(key.Key))
	return nil
}
