// Package appconfig loads the public config.json document and keeps it until
// explicitly cleared. Load failures never reach the caller: the documented
// defaults are returned instead.
package appconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"

	"go.uber.org/zap"
)

// Loader fetches and caches an AppConfig
type Loader struct {
	url        string
	httpClient *http.Client
	overrides  OverrideStore
	logger     *logger.Logger

	mu     sync.Mutex
	cached *models.AppConfig

	fetches int64
	now     func() time.Time
}

// NewLoader creates a Loader for the config resource at rawURL. overrides may be nil.
func NewLoader(rawURL string, httpClient *http.Client, overrides OverrideStore, log *logger.Logger) *Loader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Loader{
		url:        rawURL,
		httpClient: httpClient,
		overrides:  overrides,
		logger:     log.Component("appconfig"),
		now:        time.Now,
	}
}

// Get returns the cached config, fetching it on first use.
// A local contract address override, when set, replaces the fetched address.
func (l *Loader) Get(ctx context.Context) *models.AppConfig {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached == nil {
		cfg, err := l.fetch(ctx)
		if err != nil {
			l.logger.WithContext(ctx).Error("Failed to load config, using defaults",
				zap.String("url", l.url),
				zap.Error(err),
			)
			return l.applyOverride(models.DefaultAppConfig())
		}
		l.cached = cfg
	}

	return l.applyOverride(l.cached.Clone())
}

// TokenConfig returns the token section of Get
func (l *Loader) TokenConfig(ctx context.Context) models.TokenConfig {
	return l.Get(ctx).Token
}

// Clear drops the cached config so the next Get fetches again
func (l *Loader) Clear() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

// FetchCount returns how many fetches have been attempted
func (l *Loader) FetchCount() int64 {
	return atomic.LoadInt64(&l.fetches)
}

func (l *Loader) fetch(ctx context.Context) (*models.AppConfig, error) {
	atomic.AddInt64(&l.fetches, 1)

	u, err := url.Parse(l.url)
	if err != nil {
		return nil, fmt.Errorf("parse config url: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(l.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var cfg models.AppConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) applyOverride(cfg *models.AppConfig) *models.AppConfig {
	if l.overrides == nil {
		return cfg
	}
	address, ok, err := l.overrides.ContractAddressOverride()
	if err != nil {
		l.logger.Warn("Failed to read contract address override", zap.Error(err))
		return cfg
	}
	if ok {
		cfg.Token.ContractAddress = models.ParseContractAddress(address)
	}
	return cfg
}
