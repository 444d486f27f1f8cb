package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fidolity-token-api/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CollectionMigrations records applied migration versions
const CollectionMigrations = "migrations"

// Migration is one reversible schema step
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
	Down        func(ctx context.Context, db *mongo.Database) error
}

// Migrator applies Migrations in version order and records them in CollectionMigrations
type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     *logger.Logger
}

// NewMigrator creates a migrator for db. apiKeyCollection names the API key collection.
func NewMigrator(db *mongo.Database, apiKeyCollection string) *Migrator {
	return &Migrator{
		db:         db,
		migrations: Migrations(apiKeyCollection),
		logger:     logger.GetLogger().Component("migrate"),
	}
}

// Migrations returns the schema history of the database
func Migrations(apiKeyCollection string) []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create API key indexes",
			Up: createIndexes(apiKeyCollection,
				mongo.IndexModel{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
				mongo.IndexModel{Keys: bson.D{{Key: "active", Value: 1}}},
			),
			Down: dropCollection(apiKeyCollection),
		},
		{
			Version:     2,
			Description: "Add scopes to existing API keys",
			Up: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection(apiKeyCollection).UpdateMany(ctx,
					bson.M{"scopes": bson.M{"$exists": false}},
					bson.M{"$set": bson.M{"scopes": bson.A{}}},
				)
				return err
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection(apiKeyCollection).UpdateMany(ctx,
					bson.M{},
					bson.M{"$unset": bson.M{"scopes": ""}},
				)
				return err
			},
		},
		{
			Version:     3,
			Description: "Create token info indexes",
			Up: createIndexes(CollectionTokenInfo,
				mongo.IndexModel{Keys: bson.D{{Key: "token_symbol", Value: 1}}, Options: options.Index().SetUnique(true)},
			),
			Down: dropIndexes(CollectionTokenInfo, "token_symbol_1"),
		},
		{
			Version:     4,
			Description: "Create staking ledger indexes",
			Up: func(ctx context.Context, db *mongo.Database) error {
				if err := createIndexes(CollectionUserStakes,
					mongo.IndexModel{Keys: bson.D{{Key: "wallet_address", Value: 1}, {Key: "token_symbol", Value: 1}}},
					mongo.IndexModel{Keys: bson.D{{Key: "token_symbol", Value: 1}, {Key: "unstake_date", Value: 1}}},
				)(ctx, db); err != nil {
					return err
				}
				return createIndexes(CollectionStakingConfig,
					mongo.IndexModel{Keys: bson.D{{Key: "token_symbol", Value: 1}}, Options: options.Index().SetUnique(true)},
				)(ctx, db)
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				if err := dropIndexes(CollectionUserStakes, "wallet_address_1_token_symbol_1", "token_symbol_1_unstake_date_1")(ctx, db); err != nil {
					return err
				}
				return dropIndexes(CollectionStakingConfig, "token_symbol_1")(ctx, db)
			},
		},
		{
			Version:     5,
			Description: "Create chat and wallet activity indexes",
			Up: func(ctx context.Context, db *mongo.Database) error {
				if err := createIndexes(CollectionChatMessages,
					mongo.IndexModel{Keys: bson.D{{Key: "wallet_address", Value: 1}, {Key: "created_at", Value: 1}}},
				)(ctx, db); err != nil {
					return err
				}
				return createIndexes(CollectionWalletActivity,
					mongo.IndexModel{Keys: bson.D{{Key: "wallet_address", Value: 1}, {Key: "created_at", Value: -1}}},
					mongo.IndexModel{Keys: bson.D{{Key: "transaction_signature", Value: 1}}},
				)(ctx, db)
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				if err := dropIndexes(CollectionChatMessages, "wallet_address_1_created_at_1")(ctx, db); err != nil {
					return err
				}
				return dropIndexes(CollectionWalletActivity, "wallet_address_1_created_at_-1", "transaction_signature_1")(ctx, db)
			},
		},
	}
}

func createIndexes(collection string, indexes ...mongo.IndexModel) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
		return nil
	}
}

func dropIndexes(collection string, names ...string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		log := logger.GetLogger().Component("migrate")
		for _, name := range names {
			if _, err := db.Collection(collection).Indexes().DropOne(ctx, name); err != nil {
				log.Warn("Failed to drop index",
					zap.String("collection", collection),
					zap.String("index", name),
					zap.Error(err),
				)
			}
		}
		return nil
	}
}

func dropCollection(collection string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		if err := db.Collection(collection).Drop(ctx); err != nil {
			return fmt.Errorf("failed to drop %s: %w", collection, err)
		}
		return nil
	}
}

// CurrentVersion returns the highest applied version, or 0 when none has run
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(CollectionMigrations).FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}}),
	).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return result.Version, nil
}

// Up runs every pending migration and returns how many were applied
func (m *Migrator) Up(ctx context.Context) (int, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return 0, err
	}
	m.logger.Info("Current migration version", zap.Int("version", current))

	applied := 0
	for _, mig := range m.migrations {
		if mig.Version <= current {
			continue
		}

		m.logger.Info("Running migration", zap.Int("version", mig.Version), zap.String("description", mig.Description))
		if err := mig.Up(ctx, m.db); err != nil {
			return applied, fmt.Errorf("migration %d failed: %w", mig.Version, err)
		}

		_, err := m.db.Collection(CollectionMigrations).InsertOne(ctx, bson.M{
			"version":     mig.Version,
			"description": mig.Description,
			"applied_at":  time.Now().UTC(),
		})
		if err != nil {
			return applied, fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
		}
		applied++
	}
	return applied, nil
}

// Down rolls back the most recent migration. It returns the version rolled back, or 0 when there was none.
func (m *Migrator) Down(ctx context.Context) (int, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return 0, err
	}
	if current == 0 {
		m.logger.Info("No migrations to roll back")
		return 0, nil
	}

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == current {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return 0, fmt.Errorf("migration %d not found", current)
	}

	m.logger.Info("Rolling back migration", zap.Int("version", target.Version), zap.String("description", target.Description))
	if err := target.Down(ctx, m.db); err != nil {
		return 0, fmt.Errorf("rollback of migration %d failed: %w", target.Version, err)
	}

	if _, err := m.db.Collection(CollectionMigrations).DeleteOne(ctx, bson.M{"version": current}); err != nil {
		return 0, fmt.Errorf("failed to remove migration record: %w", err)
	}
	return current, nil
}
