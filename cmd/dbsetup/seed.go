package main

import (
	"context"
	"errors"
	"fmt"

	"fidolity-token-api/internal/config"
	"fidolity-token-api/internal/handlers"
	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/store"
	"fidolity-token-api/pkg/logger"

	"go.uber.org/zap"
)

// Seeder inserts the default rows a fresh deployment needs. Every step skips rows that already exist.
type Seeder struct {
	store   store.Store
	token   config.TokenConfig
	staking config.StakingConfig
	logger  *logger.Logger
}

// SeedReport counts the rows each step inserted
type SeedReport struct {
	TokenInfo        int
	StakingConfig    int
	MarketplaceItems int
}

func NewSeeder(s store.Store, cfg *config.Config) *Seeder {
	return &Seeder{
		store:   s,
		token:   cfg.Token,
		staking: cfg.Staking,
		logger:  logger.GetLogger().Component("seed"),
	}
}

// Seed runs every step in order and stops at the first error
func (s *Seeder) Seed(ctx context.Context) (*SeedReport, error) {
	report := &SeedReport{}
	var err error

	if report.TokenInfo, err = s.seedTokenInfo(ctx); err != nil {
		return report, fmt.Errorf("seed token info: %w", err)
	}
	if report.StakingConfig, err = s.seedStakingConfig(ctx); err != nil {
		return report, fmt.Errorf("seed staking config: %w", err)
	}
	if report.MarketplaceItems, err = s.seedMarketplace(ctx); err != nil {
		return report, fmt.Errorf("seed marketplace: %w", err)
	}
	return report, nil
}

func (s *Seeder) seedTokenInfo(ctx context.Context) (int, error) {
	rows, err := s.store.ListTokenInfo(ctx, nil)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		if row.TokenSymbol == s.token.Symbol {
			s.logger.Info("Token info already exists", zap.String("symbol", row.TokenSymbol))
			return 0, nil
		}
	}

	now := models.Now()
	err = s.store.InsertTokenInfo(ctx, &models.TokenInfo{
		ID:              models.NewID(),
		TokenSymbol:     s.token.Symbol,
		TokenName:       s.token.Name,
		ContractAddress: models.UnlaunchedSentinel,
		Blockchain:      s.token.Blockchain,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if errors.Is(err, models.ErrDuplicate) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s.logger.Info("Token info seeded", zap.String("symbol", s.token.Symbol))
	return 1, nil
}

func (s *Seeder) seedStakingConfig(ctx context.Context) (int, error) {
	configs, err := s.store.StakingConfigs(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range configs {
		if c.TokenSymbol == s.token.Symbol {
			s.logger.Info("Staking config already exists", zap.String("symbol", c.TokenSymbol))
			return 0, nil
		}
	}

	now := models.Now()
	err = s.store.UpsertStakingConfig(ctx, &models.StakingConfig{
		ID:                    models.NewID(),
		TokenName:             s.token.Name,
		TokenSymbol:           s.token.Symbol,
		TokenAddress:          s.staking.TokenAddress,
		TokenDecimals:         s.token.Decimals,
		BaseAPY:               s.staking.BaseAPY,
		BoostedAPY:            s.staking.BoostedAPY,
		BoostAmount:           15000,
		BoostSource:           "15k USDC rewards campaign",
		CampaignProgress:      75.4,
		TotalValueLocked:      0,
		StakeEnabled:          s.staking.Enabled,
		UnstakeEnabled:        true,
		LockDurationDays:      0,
		StakingProgramAddress: s.staking.ProgramAddress,
		CreatedAt:             now,
		UpdatedAt:             now,
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("Staking config seeded", zap.String("symbol", s.token.Symbol))
	return 1, nil
}

func (s *Seeder) seedMarketplace(ctx context.Context) (int, error) {
	existing, err := s.store.MarketplaceItems(ctx, true, 1)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		s.logger.Info("Marketplace already has items")
		return 0, nil
	}

	items := defaultMarketplaceItems()
	for _, item := range items {
		if err := s.store.InsertMarketplaceItem(ctx, item); err != nil {
			return 0, err
		}
	}
	s.logger.Info("Marketplace items seeded", zap.Int("count", len(items)))
	return len(items), nil
}

func defaultMarketplaceItems() []*models.MarketplaceItem {
	type seed struct {
		name, description, full, category string
		price, revenue, score             float64
		executions                        int
		preview                           bool
	}
	seeds := []seed{
		{
			name:        "r1x Aggregator",
			description: "Scrape full contents from a specific URL. Returns clean and summarized web contents.",
			full:        "The r1x Aggregator is a powerful web scraping tool that extracts complete content from any URL.",
			category:    "AI Agent",
			price:       0.01, executions: 1245, revenue: 12.45, score: 4.8, preview: true,
		},
		{
			name:        "Web Search Tool",
			description: "Search the web for any topics with AI-powered summarization.",
			full:        "Comprehensive web search tool with time filtering and domain filtering capabilities.",
			category:    "AI",
			price:       0.001, executions: 4532, revenue: 4.53, score: 4.9,
		},
		{
			name:        "Financial Advisor Agent",
			description: "AI-powered financial analysis and investment recommendation agent.",
			full:        "Comprehensive financial advisory service powered by advanced AI.",
			category:    "AI Agent",
			price:       0.08, executions: 201, revenue: 16.08, score: 4.9,
		},
	}

	items := make([]*models.MarketplaceItem, 0, len(seeds))
	for _, sd := range seeds {
		price := sd.price
		item := handlers.NewMarketplaceItem(models.MarketplaceItemCreate{
			Name:            sd.name,
			Description:     sd.description,
			FullDescription: sd.full,
			Category:        sd.category,
			Price:           &price,
		})
		item.Executions = sd.executions
		item.Revenue = sd.revenue
		item.Score = sd.score
		item.HasPreview = sd.preview
		items = append(items, item)
	}
	return items
}
