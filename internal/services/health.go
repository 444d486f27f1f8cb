package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents the health status of a service
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a health check result
type HealthCheck struct {
	Service      string        `json:"service"`
	Status       HealthStatus  `json:"status"`
	Message      string        `json:"message,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

// HealthChecker reports on one dependency
type HealthChecker interface {
	CheckHealth(ctx context.Context) *HealthCheck
}

// RequiredIndexes lists, per collection, the index names the server relies on
var RequiredIndexes = map[string][]string{
	"api_keys":      {"key_1", "active_1"},
	"token_info":    {"token_symbol_1"},
	"user_stakes":   {"wallet_address_1_token_symbol_1", "token_symbol_1_unstake_date_1"},
	"chat_messages": {"wallet_address_1_created_at_1"},
}

// DatabaseHealthChecker provides health check functionality for MongoDB
type DatabaseHealthChecker struct {
	db *mongo.Database
}

// NewDatabaseHealthChecker creates a checker for db
func NewDatabaseHealthChecker(db *mongo.Database) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{db: db}
}

// CheckHealth pings the server and runs dbStats
func (dhc *DatabaseHealthChecker) CheckHealth(ctx context.Context) *HealthCheck {
	start := time.Now()
	hc := &HealthCheck{Service: "mongodb", Timestamp: start}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := dhc.db.Client().Ping(ctx, nil); err != nil {
		return finish(hc, start, HealthStatusUnhealthy, fmt.Sprintf("ping failed: %v", err))
	}

	var result bson.M
	if err := dhc.db.RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).Decode(&result); err != nil {
		return finish(hc, start, HealthStatusDegraded, fmt.Sprintf("database operations failed: %v", err))
	}

	return finish(hc, start, HealthStatusHealthy, "all checks passed")
}

// CheckIndexes verifies that RequiredIndexes exist
func (dhc *DatabaseHealthChecker) CheckIndexes(ctx context.Context) *HealthCheck {
	start := time.Now()
	hc := &HealthCheck{Service: "mongodb_indexes", Timestamp: start}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var missing []string
	for collection, names := range RequiredIndexes {
		cursor, err := dhc.db.Collection(collection).Indexes().List(ctx)
		if err != nil {
			return finish(hc, start, HealthStatusUnhealthy, fmt.Sprintf("failed to list indexes of %s: %v", collection, err))
		}

		var indexes []bson.M
		if err := cursor.All(ctx, &indexes); err != nil {
			return finish(hc, start, HealthStatusUnhealthy, fmt.Sprintf("failed to decode indexes of %s: %v", collection, err))
		}

		present := make(map[string]bool, len(indexes))
		for _, idx := range indexes {
			if name, ok := idx["name"].(string); ok {
				present[name] = true
			}
		}
		for _, name := range names {
			if !present[name] {
				missing = append(missing, collection+"."+name)
			}
		}
	}

	if len(missing) > 0 {
		return finish(hc, start, HealthStatusDegraded, fmt.Sprintf("missing indexes: %v", missing))
	}
	return finish(hc, start, HealthStatusHealthy, "all required indexes present")
}

// GetDetailedHealth returns every database check
func (dhc *DatabaseHealthChecker) GetDetailedHealth(ctx context.Context) map[string]*HealthCheck {
	return map[string]*HealthCheck{
		"connectivity": dhc.CheckHealth(ctx),
		"indexes":      dhc.CheckIndexes(ctx),
	}
}

// RPCHealthChecker reports on the Solana RPC endpoint
type RPCHealthChecker struct {
	client interface {
		IsHealthy(ctx context.Context) error
	}
}

// NewRPCHealthChecker wraps client
func NewRPCHealthChecker(client *SolanaClient) *RPCHealthChecker {
	return &RPCHealthChecker{client: client}
}

// CheckHealth fetches a blockhash. An unreachable RPC degrades the service rather than failing it.
func (r *RPCHealthChecker) CheckHealth(ctx context.Context) *HealthCheck {
	start := time.Now()
	hc := &HealthCheck{Service: "solana_rpc", Timestamp: start}
	if err := r.client.IsHealthy(ctx); err != nil {
		return finish(hc, start, HealthStatusDegraded, err.Error())
	}
	return finish(hc, start, HealthStatusHealthy, "rpc reachable")
}

func finish(hc *HealthCheck, start time.Time, status HealthStatus, msg string) *HealthCheck {
	hc.Status = status
	hc.Message = msg
	hc.ResponseTime = time.Since(start)
	return hc
}

// Pinger is any dependency that can verify its connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingHealthChecker reports on a Pinger such as a store
type PingHealthChecker struct {
	name   string
	pinger Pinger
}

// NewPingHealthChecker creates a checker reporting as name
func NewPingHealthChecker(name string, pinger Pinger) *PingHealthChecker {
	return &PingHealthChecker{name: name, pinger: pinger}
}

// CheckHealth pings the dependency; any error makes it unhealthy
func (p *PingHealthChecker) CheckHealth(ctx context.Context) *HealthCheck {
	start := time.Now()
	hc := &HealthCheck{Service: p.name, Timestamp: start}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.pinger.Ping(ctx); err != nil {
		return finish(hc, start, HealthStatusUnhealthy, err.Error())
	}
	return finish(hc, start, HealthStatusHealthy, "reachable")
}
