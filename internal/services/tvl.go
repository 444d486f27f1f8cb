package services

import (
	"context"
	"fmt"
	"time"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StakeLedger is the slice of the store the TVL job reads and writes
type StakeLedger interface {
	StakingConfigs(ctx context.Context) ([]models.StakingConfig, error)
	StakesBySymbol(ctx context.Context, symbol string) ([]models.StakeRecord, error)
	SetTotalValueLocked(ctx context.Context, symbol string, tvl float64) error
}

// TVLJob recomputes staking_config.total_value_locked from the active stakes of each token
type TVLJob struct {
	ledger  StakeLedger
	timeout time.Duration
	logger  *logger.Logger
}

// NewTVLJob creates a job over ledger. Each run is bounded by timeout.
func NewTVLJob(ledger StakeLedger, timeout time.Duration) *TVLJob {
	return &TVLJob{
		ledger:  ledger,
		timeout: timeout,
		logger:  logger.GetLogger().Component("tvl_job"),
	}
}

// Run updates every configured token and returns the first error after attempting all of them
func (j *TVLJob) Run(ctx context.Context) error {
	configs, err := j.ledger.StakingConfigs(ctx)
	if err != nil {
		return fmt.Errorf("load staking configs: %w", err)
	}

	var firstErr error
	for _, cfg := range configs {
		stakes, err := j.ledger.StakesBySymbol(ctx, cfg.TokenSymbol)
		if err == nil {
			tvl := SumActiveStakes(stakes)
			err = j.ledger.SetTotalValueLocked(ctx, cfg.TokenSymbol, tvl)
			if err == nil {
				j.logger.Debug("Updated total value locked",
					zap.String("token_symbol", cfg.TokenSymbol),
					zap.Float64("tvl", tvl),
					zap.Int("active_stakes", len(stakes)),
				)
				continue
			}
		}

		j.logger.Error("Failed to update total value locked", zap.String("token_symbol", cfg.TokenSymbol), zap.Error(err))
		if firstErr == nil {
			firstErr = fmt.Errorf("update tvl of %s: %w", cfg.TokenSymbol, err)
		}
	}
	return firstErr
}

// Schedule registers the job on c with a cron schedule such as "@every 5m"
func (j *TVLJob) Schedule(c *cron.Cron, schedule string) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if err := j.Run(ctx); err != nil {
			j.logger.Warn("TVL job finished with errors", zap.Error(err))
		}
	})
}
