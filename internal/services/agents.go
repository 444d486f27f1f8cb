package services

import (
	"context"
	"fmt"
	"net/url"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AgentBuilderService covers agent drafts, marketplace listings and reviews
type AgentBuilderService struct {
	api    API
	logger *logger.Logger
}

// NewAgentBuilderService creates an AgentBuilderService
func NewAgentBuilderService(api API) *AgentBuilderService {
	return &AgentBuilderService{api: api, logger: logger.GetLogger().Component("agent_builder")}
}

// CreateDraft starts an empty draft owned by walletAddress
func (a *AgentBuilderService) CreateDraft(ctx context.Context, walletAddress string) (*models.AgentDraft, error) {
	price := models.DefaultDraftPrice
	var draft models.AgentDraft
	err := a.api.Post(ctx, "/agents/drafts", models.AgentDraftCreate{
		CreatorWallet: walletAddress,
		Category:      models.DefaultDraftCategory,
		Price:         &price,
	}, &draft)
	if err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return &draft, nil
}

// GetUserDrafts lists the wallet's drafts
func (a *AgentBuilderService) GetUserDrafts(ctx context.Context, walletAddress string) []models.AgentDraft {
	var drafts []models.AgentDraft
	if err := a.api.Get(ctx, "/agents/drafts/"+url.PathEscape(walletAddress), &drafts); err != nil {
		a.logger.WithContext(ctx).Error("Error fetching drafts", zap.String("wallet_address", walletAddress), zap.Error(err))
		return []models.AgentDraft{}
	}
	return nonNil(drafts)
}

// GetMarketplaceItems lists active marketplace items
func (a *AgentBuilderService) GetMarketplaceItems(ctx context.Context) []models.MarketplaceItem {
	var items []models.MarketplaceItem
	if err := a.api.Get(ctx, "/marketplace/items", &items); err != nil {
		a.logger.WithContext(ctx).Error("Error fetching marketplace items", zap.Error(err))
		return []models.MarketplaceItem{}
	}
	return nonNil(items)
}

// GetMarketplaceItem returns one item, or nil when unavailable
func (a *AgentBuilderService) GetMarketplaceItem(ctx context.Context, itemID string) *models.MarketplaceItem {
	item, err := a.getItem(ctx, itemID)
	if err != nil {
		a.logger.WithContext(ctx).Error("Error fetching marketplace item", zap.String("item_id", itemID), zap.Error(err))
		return nil
	}
	return item
}

// GetItemReviews lists the reviews of an item
func (a *AgentBuilderService) GetItemReviews(ctx context.Context, itemID string) []models.AgentReview {
	reviews, err := a.getReviews(ctx, itemID)
	if err != nil {
		a.logger.WithContext(ctx).Error("Error fetching reviews", zap.String("item_id", itemID), zap.Error(err))
		return []models.AgentReview{}
	}
	return reviews
}

// GetItemDetail fetches an item and its reviews concurrently. A missing item yields nil;
// failing reviews degrade to an empty list.
func (a *AgentBuilderService) GetItemDetail(ctx context.Context, itemID string) *models.ItemDetail {
	var (
		item    *models.MarketplaceItem
		reviews []models.AgentReview
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		item, err = a.getItem(gctx, itemID)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = a.getReviews(gctx, itemID)
		if err != nil {
			a.logger.WithContext(ctx).Warn("Error fetching reviews", zap.String("item_id", itemID), zap.Error(err))
			reviews = []models.AgentReview{}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.WithContext(ctx).Error("Error fetching marketplace item", zap.String("item_id", itemID), zap.Error(err))
		return nil
	}
	return &models.ItemDetail{Item: item, Reviews: reviews}
}

// RecordListingFee records the fee paid to list a draft
func (a *AgentBuilderService) RecordListingFee(ctx context.Context, fee models.ListingFee) (*models.ListingFee, error) {
	if fee.Status == "" {
		fee.Status = models.TransactionStatusPending
	}
	var out models.ListingFee
	if err := a.api.Post(ctx, "/agents/listing-fees", fee, &out); err != nil {
		return nil, fmt.Errorf("record listing fee: %w", err)
	}
	return &out, nil
}

func (a *AgentBuilderService) getItem(ctx context.Context, itemID string) (*models.MarketplaceItem, error) {
	var item models.MarketplaceItem
	if err := a.api.Get(ctx, "/marketplace/items/"+url.PathEscape(itemID), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (a *AgentBuilderService) getReviews(ctx context.Context, itemID string) ([]models.AgentReview, error) {
	var reviews []models.AgentReview
	if err := a.api.Get(ctx, "/agents/reviews/"+url.PathEscape(itemID), &reviews); err != nil {
		return nil, err
	}
	return nonNil(reviews), nil
}
