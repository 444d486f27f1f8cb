// Package store persists the backend's records. Store is implemented by
// MongoStore for production and MemoryStore for tests.
package store

import (
	"context"
	"fmt"

	"fidolity-token-api/internal/models"

	"github.com/shopspring/decimal"
)

// Collection names
const (
	CollectionChatMessages   = "chat_messages"
	CollectionWalletActivity = "wallet_activity"
	CollectionUserSpending   = "user_spending"
	CollectionTokenInfo      = "token_info"
	CollectionStakingConfig  = "staking_config"
	CollectionUserStakes     = "user_stakes"
	CollectionMarketItems    = "marketplace_items"
	CollectionPurchases      = "marketplace_purchases"
	CollectionAgentDrafts    = "agent_drafts"
	CollectionAgentReviews   = "agent_reviews"
	CollectionListingFees    = "listing_fees"
)

// MaxListSize caps list queries that take no explicit limit
const MaxListSize = 100

// Store is the persistence surface of the backend API. Lookups of a missing
// record return models.ErrNotFound; unique key violations return models.ErrDuplicate.
type Store interface {
	Ping(ctx context.Context) error

	ChatHistory(ctx context.Context, wallet string, limit int64) ([]models.ChatMessage, error)
	InsertChatMessage(ctx context.Context, msg *models.ChatMessage) error
	DeleteChatHistory(ctx context.Context, wallet string) (int64, error)

	WalletActivity(ctx context.Context, wallet string, limit int64) ([]models.WalletActivity, error)
	InsertWalletActivity(ctx context.Context, activity *models.WalletActivity) error
	UpdateTransactionStatus(ctx context.Context, signature string, update models.TransactionStatusUpdate) error
	UserSpending(ctx context.Context, wallet string) (*models.UserSpending, error)

	ListTokenInfo(ctx context.Context, active *bool) ([]models.TokenInfo, error)
	TokenInfo(ctx context.Context, symbol string) (*models.TokenInfo, error)
	InsertTokenInfo(ctx context.Context, info *models.TokenInfo) error
	UpdateTokenInfo(ctx context.Context, symbol string, update models.TokenInfoUpdate) (*models.TokenInfo, error)
	UpsertTokenInfo(ctx context.Context, info *models.TokenInfo) (*models.TokenInfo, error)

	StakingConfigs(ctx context.Context) ([]models.StakingConfig, error)
	UpsertStakingConfig(ctx context.Context, cfg *models.StakingConfig) error
	SetTotalValueLocked(ctx context.Context, symbol string, tvl float64) error
	StakesByWallet(ctx context.Context, wallet string) ([]models.StakeRecord, error)
	StakesBySymbol(ctx context.Context, symbol string) ([]models.StakeRecord, error)
	// AddStake tops up the wallet's active stake of the token, or opens one when none is active
	AddStake(ctx context.Context, stake *models.StakeRecord) (*models.StakeRecord, error)
	Unstake(ctx context.Context, req models.UnstakeCreate) (*models.StakeRecord, error)

	MarketplaceItems(ctx context.Context, active bool, limit int64) ([]models.MarketplaceItem, error)
	MarketplaceItem(ctx context.Context, id string) (*models.MarketplaceItem, error)
	InsertMarketplaceItem(ctx context.Context, item *models.MarketplaceItem) error
	Purchases(ctx context.Context, wallet string) ([]models.MarketplacePurchase, error)

	AgentDrafts(ctx context.Context, wallet string) ([]models.AgentDraft, error)
	InsertAgentDraft(ctx context.Context, draft *models.AgentDraft) error
	Reviews(ctx context.Context, itemID string) ([]models.AgentReview, error)
	InsertListingFee(ctx context.Context, fee *models.ListingFee) error
}

// addToStake tops up an active stake with amount and the signature of the latest transfer
func addToStake(stake *models.StakeRecord, amount float64, signature string) {
	stake.StakedAmount, _ = decimal.NewFromFloat(stake.StakedAmount).Add(decimal.NewFromFloat(amount)).Float64()
	if signature != "" {
		stake.TransactionSignature = signature
	}
}

// applyUnstake withdraws req.Amount from stake. A non-positive amount, or one equal to the whole
// stake, closes it; a smaller amount reduces it and leaves it active. A larger amount fails
// with models.ErrInsufficientStake and leaves stake unchanged.
func applyUnstake(stake *models.StakeRecord, req models.UnstakeCreate) error {
	staked := decimal.NewFromFloat(stake.StakedAmount)
	amount := decimal.NewFromFloat(req.Amount)
	if amount.GreaterThan(staked) {
		return fmt.Errorf("%w: requested %s, staked %s", models.ErrInsufficientStake, amount, staked)
	}
	if amount.IsPositive() && amount.LessThan(staked) {
		stake.StakedAmount, _ = staked.Sub(amount).Float64()
		return nil
	}
	now := models.Now()
	stake.UnstakeDate = &now
	return nil
}

func applyTokenUpdate(info *models.TokenInfo, update models.TokenInfoUpdate) {
	if update.ContractAddress != nil {
		info.ContractAddress = *update.ContractAddress
	}
	if update.TokenName != nil {
		info.TokenName = *update.TokenName
	}
	if update.IsActive != nil {
		info.IsActive = *update.IsActive
	}
	info.UpdatedAt = models.Now()
}
