package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fidolity-token-api/internal/config"
	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/cache"
	"fidolity-token-api/pkg/logger"
	"fidolity-token-api/pkg/metrics"
	"fidolity-token-api/pkg/mutex"

	"go.uber.org/zap"
)

// BalanceFetcher reads a native balance in SOL
type BalanceFetcher interface {
	GetBalance(ctx context.Context, address string) (float64, error)
}

// BalanceService serves wallet balances through a TTL cache, collapsing
// concurrent lookups of the same address into one RPC call
type BalanceService struct {
	rpcClient    BalanceFetcher
	cache        *cache.Cache[float64]
	requestMutex *mutex.KeyedMutex
	config       *config.Config
	metrics      *metrics.MetricsCollector
}

// NewBalanceService creates a new BalanceService instance
func NewBalanceService(rpcClient BalanceFetcher, cfg *config.Config, collector *metrics.MetricsCollector) *BalanceService {
	if collector == nil {
		collector = metrics.NewMetricsCollector()
	}
	return &BalanceService{
		rpcClient:    rpcClient,
		cache:        cache.New[float64](cfg.Cache.TTL),
		requestMutex: mutex.New(cfg.Cache.CleanupInterval),
		config:       cfg,
		metrics:      collector,
	}
}

// GetBalances fetches balances for several addresses concurrently
func (bs *BalanceService) GetBalances(ctx context.Context, addresses []string) (*models.BalanceResponse, error) {
	log := logger.GetLogger().WithContext(ctx)

	if len(addresses) == 0 {
		return &models.BalanceResponse{Balances: []models.WalletBalance{}}, nil
	}

	start := time.Now()
	balances := make([]models.WalletBalance, len(addresses))
	allCached := true
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, address := range addresses {
		wg.Add(1)
		go func(index int, addr string) {
			defer wg.Done()

			walletBalance, cached := bs.getBalanceWithCache(ctx, addr)
			balances[index] = *walletBalance

			if !cached {
				mu.Lock()
				allCached = false
				mu.Unlock()
			}
		}(i, address)
	}
	wg.Wait()

	log.Info("Completed balance request",
		zap.Int("address_count", len(addresses)),
		zap.Bool("all_cached", allCached),
		zap.Duration("duration", time.Since(start)),
	)

	return &models.BalanceResponse{Balances: balances, Cached: allCached}, nil
}

// GetBalance fetches the balance of a single address
func (bs *BalanceService) GetBalance(ctx context.Context, address string) (*models.WalletBalance, error) {
	walletBalance, _ := bs.getBalanceWithCache(ctx, address)
	return walletBalance, nil
}

func (bs *BalanceService) getBalanceWithCache(ctx context.Context, address string) (*models.WalletBalance, bool) {
	log := logger.GetLogger().WithContext(ctx).WithFields(map[string]interface{}{
		"wallet_address": address,
		"component":      "balance_service",
	})

	if balance, found := bs.cache.Get(address); found {
		bs.metrics.RecordCacheHit()
		return &models.WalletBalance{Address: address, Balance: balance}, true
	}
	bs.metrics.RecordCacheMiss()

	m := bs.requestMutex.Get(address)
	m.Lock()
	defer m.Unlock()

	// another goroutine may have filled the cache while we waited
	if balance, found := bs.cache.Get(address); found {
		bs.metrics.RecordCacheHit()
		return &models.WalletBalance{Address: address, Balance: balance}, true
	}

	rpcStart := time.Now()
	balance, err := bs.rpcClient.GetBalance(ctx, address)
	rpcDuration := time.Since(rpcStart)
	bs.metrics.RecordRPCCall(rpcDuration, err == nil)

	if err != nil {
		log.Error("Failed to fetch balance from RPC client",
			zap.Error(err),
			zap.Duration("rpc_duration", rpcDuration),
		)
		return &models.WalletBalance{
			Address: address,
			Error:   fmt.Sprintf("Failed to fetch balance: %v", err),
		}, false
	}

	bs.cache.Set(address, balance)
	log.Debug("Fetched balance from RPC", zap.Float64("balance", balance), zap.Duration("rpc_duration", rpcDuration))

	return &models.WalletBalance{Address: address, Balance: balance}, false
}

// GetPerformanceStats returns statistics for the /metrics endpoint
func (bs *BalanceService) GetPerformanceStats() map[string]interface{} {
	m := bs.metrics.GetMetrics()

	return map[string]interface{}{
		"uptime":                   bs.metrics.GetUptime().String(),
		"total_requests":           m.TotalRequests,
		"successful_requests":      m.SuccessfulRequests,
		"failed_requests":          m.FailedRequests,
		"success_rate_percent":     bs.metrics.GetSuccessRate(),
		"average_response_time_ms": m.AverageResponseTime.Milliseconds(),
		"max_response_time_ms":     m.MaxResponseTime.Milliseconds(),
		"cache_hits":               m.CacheHits,
		"cache_misses":             m.CacheMisses,
		"cache_hit_ratio_percent":  bs.metrics.GetCacheHitRatio(),
		"rpc_calls":                m.RPCCalls,
		"rpc_failures":             m.RPCFailures,
		"average_rpc_time_ms":      m.AverageRPCTime.Milliseconds(),
		"active_requests":          m.ActiveRequests,
		"transfers":                m.Transfers,
		"transfer_failures":        m.TransferFailures,
		"simulated_stakes":         m.SimulatedStakes,
		"ledger_write_errors":      m.LedgerWriteErrors,
		"cache_size":               bs.cache.Size(),
		"mutex_count":              bs.requestMutex.Size(),
	}
}

// ClearCache clears all cached entries
func (bs *BalanceService) ClearCache() {
	bs.cache.Clear()
}

// Stop releases the cache and mutex cleanup goroutines
func (bs *BalanceService) Stop() {
	bs.cache.Stop()
	bs.requestMutex.Stop()
}

// GetMetricsCollector returns the metrics collector for middleware integration
func (bs *BalanceService) GetMetricsCollector() *metrics.MetricsCollector {
	return bs.metrics
}
