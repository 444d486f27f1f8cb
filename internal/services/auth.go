package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInvalidAPIKey  = errors.New("invalid API key")
	ErrInactiveAPIKey = errors.New("API key is inactive")
	ErrDatabaseError  = errors.New("database error")
)

// AuthService handles API key authentication using MongoDB
type AuthService struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewAuthService creates an authentication service over the API key collection of db
func NewAuthService(db *mongo.Database, collection string) *AuthService {
	return &AuthService{
		collection: db.Collection(collection),
		logger:     logger.GetLogger().Component("auth"),
	}
}

// ValidateAPIKey looks key up and checks that it is active
func (a *AuthService) ValidateAPIKey(ctx context.Context, key string) (*models.APIKey, error) {
	if key == "" {
		return nil, ErrInvalidAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var apiKey models.APIKey
	err := a.collection.FindOne(ctx, bson.M{"key": key}).Decode(&apiKey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if !apiKey.Active {
		return nil, ErrInactiveAPIKey
	}

	go a.updateLastUsed(apiKey.ID)

	return &apiKey, nil
}

// CreateAPIKey generates and stores a new active key with the given scopes
func (a *AuthService) CreateAPIKey(ctx context.Context, name string, scopes ...string) (*models.APIKey, error) {
	key, err := GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	apiKey := &models.APIKey{
		ID:        primitive.NewObjectID(),
		Key:       key,
		Name:      name,
		Active:    true,
		Scopes:    scopes,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := a.collection.InsertOne(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("insert api key: %w", err)
	}
	return apiKey, nil
}

// CountKeysWithScope returns how many active keys grant scope
func (a *AuthService) CountKeysWithScope(ctx context.Context, scope string) (int64, error) {
	n, err := a.collection.CountDocuments(ctx, bson.M{"active": true, "scopes": scope})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}

// GenerateAPIKey returns a random 32-byte key, hex encoded with a "fdlt_" prefix
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "fdlt_" + hex.EncodeToString(b), nil
}

func (a *AuthService) updateLastUsed(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if _, err := a.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_used": now}}); err != nil {
		a.logger.Warn("Failed to update API key last_used", zap.String("api_key_id", id.Hex()), zap.Error(err))
	}
}
