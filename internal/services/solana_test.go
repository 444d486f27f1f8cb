package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fidolity-token-api/internal/config"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signatureStatusServer answers getSignatureStatuses with each status in turn, repeating the last
func signatureStatusServer(t *testing.T, statuses ...string) (*httptest.Server, *int64) {
	t.Helper()
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "getSignatureStatuses", req.Method)

		n := atomic.AddInt64(&calls, 1)
		status := statuses[len(statuses)-1]
		if int(n) <= len(statuses) {
			status = statuses[n-1]
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value": []interface{}{map[string]interface{}{
					"slot":               1,
					"confirmations":      nil,
					"err":                nil,
					"confirmationStatus": status,
				}},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestNewSolanaClientReplacesNonPositiveTimings(t *testing.T) {
	cfg := &config.RPCConfig{Endpoint: "http://localhost:1", Timeout: -time.Second, ConfirmPollInterval: 0}

	client := NewSolanaClient(cfg)
	assert.Equal(t, config.DefaultRPCTimeout, client.config.Timeout)
	assert.Equal(t, config.DefaultConfirmPollInterval, client.config.ConfirmPollInterval)
	assert.Equal(t, time.Duration(0), cfg.ConfirmPollInterval, "caller's config is not modified")
}

func TestConfirmTransactionWithZeroPollInterval(t *testing.T) {
	server, calls := signatureStatusServer(t, "processed", "confirmed")
	client := NewSolanaClient(&config.RPCConfig{Endpoint: server.URL, Timeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NotPanics(t, func() {
		require.NoError(t, client.ConfirmTransaction(ctx, solana.Signature{1}))
	})
	assert.Equal(t, int64(2), atomic.LoadInt64(calls))
}

func TestConfirmTransactionTimesOut(t *testing.T) {
	server, _ := signatureStatusServer(t, "processed")
	client := NewSolanaClient(&config.RPCConfig{
		Endpoint:            server.URL,
		Timeout:             5 * time.Second,
		ConfirmPollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := client.ConfirmTransaction(ctx, solana.Signature{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
