package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics is a point-in-time snapshot of the collector
type Metrics struct {
	TotalRequests      int64 `json:"total_requests"`
	SuccessfulRequests int64 `json:"successful_requests"`
	FailedRequests     int64 `json:"failed_requests"`
	ActiveRequests     int64 `json:"active_requests"`

	AverageResponseTime time.Duration `json:"average_response_time"`
	MaxResponseTime     time.Duration `json:"max_response_time"`

	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`

	RPCCalls       int64         `json:"rpc_calls"`
	RPCFailures    int64         `json:"rpc_failures"`
	AverageRPCTime time.Duration `json:"average_rpc_time"`

	Transfers         int64 `json:"transfers"`
	TransferFailures  int64 `json:"transfer_failures"`
	SimulatedStakes   int64 `json:"simulated_stakes"`
	LedgerWriteErrors int64 `json:"ledger_write_errors"`
}

// MetricsCollector provides thread-safe metrics collection
type MetricsCollector struct {
	totalRequests      int64
	successfulRequests int64
	failedRequests     int64
	activeRequests     int64
	cacheHits          int64
	cacheMisses        int64
	rpcCalls           int64
	rpcFailures        int64
	transfers          int64
	transferFailures   int64
	simulatedStakes    int64
	ledgerWriteErrors  int64

	mu                sync.Mutex
	completed         int64
	totalResponseTime time.Duration
	maxResponseTime   time.Duration
	totalRPCTime      time.Duration

	startTime time.Time
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

// RecordRequest records a new request
func (mc *MetricsCollector) RecordRequest() {
	atomic.AddInt64(&mc.totalRequests, 1)
	atomic.AddInt64(&mc.activeRequests, 1)
}

// RecordRequestComplete records request completion
func (mc *MetricsCollector) RecordRequestComplete(duration time.Duration, success bool) {
	atomic.AddInt64(&mc.activeRequests, -1)
	if success {
		atomic.AddInt64(&mc.successfulRequests, 1)
	} else {
		atomic.AddInt64(&mc.failedRequests, 1)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.completed++
	mc.totalResponseTime += duration
	if duration > mc.maxResponseTime {
		mc.maxResponseTime = duration
	}
}

// RecordCacheHit records a balance cache hit
func (mc *MetricsCollector) RecordCacheHit() {
	atomic.AddInt64(&mc.cacheHits, 1)
}

// RecordCacheMiss records a balance cache miss
func (mc *MetricsCollector) RecordCacheMiss() {
	atomic.AddInt64(&mc.cacheMisses, 1)
}

// RecordRPCCall records a chain RPC call
func (mc *MetricsCollector) RecordRPCCall(duration time.Duration, success bool) {
	atomic.AddInt64(&mc.rpcCalls, 1)
	if !success {
		atomic.AddInt64(&mc.rpcFailures, 1)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.totalRPCTime += duration
}

// RecordTransfer records a submitted stake or unstake transfer
func (mc *MetricsCollector) RecordTransfer(success bool) {
	atomic.AddInt64(&mc.transfers, 1)
	if !success {
		atomic.AddInt64(&mc.transferFailures, 1)
	}
}

// RecordSimulatedStake records a stake or unstake served by the simulated path
func (mc *MetricsCollector) RecordSimulatedStake() {
	atomic.AddInt64(&mc.simulatedStakes, 1)
}

// RecordLedgerWriteError records a failed backend write after a transfer
func (mc *MetricsCollector) RecordLedgerWriteError() {
	atomic.AddInt64(&mc.ledgerWriteErrors, 1)
}

// GetMetrics returns a copy of current metrics
func (mc *MetricsCollector) GetMetrics() *Metrics {
	m := &Metrics{
		TotalRequests:      atomic.LoadInt64(&mc.totalRequests),
		SuccessfulRequests: atomic.LoadInt64(&mc.successfulRequests),
		FailedRequests:     atomic.LoadInt64(&mc.failedRequests),
		ActiveRequests:     atomic.LoadInt64(&mc.activeRequests),
		CacheHits:          atomic.LoadInt64(&mc.cacheHits),
		CacheMisses:        atomic.LoadInt64(&mc.cacheMisses),
		RPCCalls:           atomic.LoadInt64(&mc.rpcCalls),
		RPCFailures:        atomic.LoadInt64(&mc.rpcFailures),
		Transfers:          atomic.LoadInt64(&mc.transfers),
		TransferFailures:   atomic.LoadInt64(&mc.transferFailures),
		SimulatedStakes:    atomic.LoadInt64(&mc.simulatedStakes),
		LedgerWriteErrors:  atomic.LoadInt64(&mc.ledgerWriteErrors),
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.completed > 0 {
		m.AverageResponseTime = mc.totalResponseTime / time.Duration(mc.completed)
	}
	m.MaxResponseTime = mc.maxResponseTime
	if m.RPCCalls > 0 {
		m.AverageRPCTime = mc.totalRPCTime / time.Duration(m.RPCCalls)
	}
	return m
}

// GetUptime returns the uptime since metrics collection started
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// GetCacheHitRatio returns the cache hit ratio as a percentage
func (mc *MetricsCollector) GetCacheHitRatio() float64 {
	hits := atomic.LoadInt64(&mc.cacheHits)
	total := hits + atomic.LoadInt64(&mc.cacheMisses)
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

// GetSuccessRate returns the share of completed requests that succeeded, as a percentage
func (mc *MetricsCollector) GetSuccessRate() float64 {
	successful := atomic.LoadInt64(&mc.successfulRequests)
	total := successful + atomic.LoadInt64(&mc.failedRequests)
	if total == 0 {
		return 0.0
	}
	return float64(successful) / float64(total) * 100.0
}
