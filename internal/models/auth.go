package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScopeTokenAdmin allows changing token metadata such as the contract address
const ScopeTokenAdmin = "token:admin"

// APIKey represents an API key stored in MongoDB
type APIKey struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key       string             `bson:"key" json:"key"`
	Name      string             `bson:"name" json:"name"`
	Active    bool               `bson:"active" json:"active"`
	Scopes    []string           `bson:"scopes" json:"scopes"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	LastUsed  *time.Time         `bson:"last_used,omitempty" json:"last_used,omitempty"`
}

// HasScope reports whether the key grants scope
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
