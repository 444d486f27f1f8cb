package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPingHealthChecker(t *testing.T) {
	healthy := NewPingHealthChecker("store", pingerFunc(func(context.Context) error { return nil })).CheckHealth(context.Background())
	assert.Equal(t, "store", healthy.Service)
	assert.Equal(t, HealthStatusHealthy, healthy.Status)

	down := NewPingHealthChecker("store", pingerFunc(func(context.Context) error { return errBoom })).CheckHealth(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, down.Status)
	assert.Equal(t, "boom", down.Message)
}
