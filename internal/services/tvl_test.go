package services

import (
	"context"
	"testing"
	"time"

	"fidolity-token-api/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	configs []models.StakingConfig
	stakes  map[string][]models.StakeRecord
	tvl     map[string]float64
	failSet string
}

func (f *fakeLedger) StakingConfigs(context.Context) ([]models.StakingConfig, error) {
	return f.configs, nil
}

func (f *fakeLedger) StakesBySymbol(_ context.Context, symbol string) ([]models.StakeRecord, error) {
	return f.stakes[symbol], nil
}

func (f *fakeLedger) SetTotalValueLocked(_ context.Context, symbol string, tvl float64) error {
	if symbol == f.failSet {
		return errBoom
	}
	f.tvl[symbol] = tvl
	return nil
}

func TestTVLJobRun(t *testing.T) {
	closed := models.Now()
	ledger := &fakeLedger{
		configs: []models.StakingConfig{{TokenSymbol: "FDLT"}, {TokenSymbol: "BAD"}, {TokenSymbol: "EMPTY"}},
		stakes: map[string][]models.StakeRecord{
			"FDLT": {
				{StakedAmount: 0.1},
				{StakedAmount: 0.2},
				{StakedAmount: 100, UnstakeDate: &closed},
			},
		},
		tvl:     map[string]float64{},
		failSet: "BAD",
	}

	err := NewTVLJob(ledger, time.Second).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "BAD")

	assert.Equal(t, 0.3, ledger.tvl["FDLT"])
	assert.Equal(t, 0.0, ledger.tvl["EMPTY"])
}

func TestTVLJobSchedule(t *testing.T) {
	c := cron.New()
	_, err := NewTVLJob(&fakeLedger{tvl: map[string]float64{}}, time.Second).Schedule(c, "@every 1m")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = NewTVLJob(&fakeLedger{}, time.Second).Schedule(c, "not a schedule")
	assert.Error(t, err)
}
