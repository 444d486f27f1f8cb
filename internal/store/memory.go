package store

import (
	"context"
	"sort"
	"sync"

	"fidolity-token-api/internal/models"
)

// MemoryStore is an in-process Store. Records are copied on the way in and out.
type MemoryStore struct {
	mu sync.RWMutex

	chat        []models.ChatMessage
	activity    []models.WalletActivity
	spending    map[string]*models.UserSpending
	tokens      map[string]*models.TokenInfo
	staking     map[string]*models.StakingConfig
	stakes      []*models.StakeRecord
	items       []models.MarketplaceItem
	purchases   []models.MarketplacePurchase
	drafts      []models.AgentDraft
	reviews     []models.AgentReview
	listingFees []models.ListingFee
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		spending: make(map[string]*models.UserSpending),
		tokens:   make(map[string]*models.TokenInfo),
		staking:  make(map[string]*models.StakingConfig),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func selectWhere[T any](in []T, keep func(*T) bool, limit int64) []T {
	out := make([]T, 0)
	for i := range in {
		if int64(len(out)) >= limit {
			break
		}
		if keep(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

func (m *MemoryStore) ChatHistory(_ context.Context, wallet string, limit int64) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := append([]models.ChatMessage(nil), m.chat...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt.Time) })

	return selectWhere(sorted, func(msg *models.ChatMessage) bool { return msg.WalletAddress == wallet }, capped(limit)), nil
}

func (m *MemoryStore) InsertChatMessage(_ context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chat = append(m.chat, *msg)
	return nil
}

func (m *MemoryStore) DeleteChatHistory(_ context.Context, wallet string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.chat[:0]
	var deleted int64
	for _, msg := range m.chat {
		if msg.WalletAddress == wallet {
			deleted++
			continue
		}
		kept = append(kept, msg)
	}
	m.chat = kept
	return deleted, nil
}

func (m *MemoryStore) WalletActivity(_ context.Context, wallet string, limit int64) ([]models.WalletActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := append([]models.WalletActivity(nil), m.activity...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time) })

	return selectWhere(sorted, func(a *models.WalletActivity) bool { return a.WalletAddress == wallet }, capped(limit)), nil
}

func (m *MemoryStore) InsertWalletActivity(_ context.Context, activity *models.WalletActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = append(m.activity, *activity)
	return nil
}

func (m *MemoryStore) UpdateTransactionStatus(_ context.Context, signature string, update models.TransactionStatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.activity {
		if m.activity[i].TransactionSignature != signature {
			continue
		}
		m.activity[i].Status = update.Status
		if update.ConfirmedAt != nil {
			at := *update.ConfirmedAt
			m.activity[i].ConfirmedAt = &at
		}
		return nil
	}
	return models.ErrNotFound
}

func (m *MemoryStore) UserSpending(_ context.Context, wallet string) (*models.UserSpending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.spending[wallet]
	if !ok {
		now := models.Now()
		s = &models.UserSpending{
			ID:            models.NewID(),
			WalletAddress: wallet,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		m.spending[wallet] = s
	}
	out := *s
	return &out, nil
}

func (m *MemoryStore) ListTokenInfo(_ context.Context, active *bool) ([]models.TokenInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.TokenInfo, 0, len(m.tokens))
	for _, t := range m.tokens {
		if active != nil && t.IsActive != *active {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenSymbol < out[j].TokenSymbol })
	return out, nil
}

func (m *MemoryStore) TokenInfo(_ context.Context, symbol string) (*models.TokenInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[symbol]
	if !ok || !t.IsActive {
		return nil, models.ErrNotFound
	}
	out := *t
	return &out, nil
}

func (m *MemoryStore) InsertTokenInfo(_ context.Context, info *models.TokenInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[info.TokenSymbol]; ok {
		return models.ErrDuplicate
	}
	row := *info
	m.tokens[info.TokenSymbol] = &row
	return nil
}

func (m *MemoryStore) UpdateTokenInfo(_ context.Context, symbol string, update models.TokenInfoUpdate) (*models.TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[symbol]
	if !ok {
		return nil, models.ErrNotFound
	}
	applyTokenUpdate(t, update)
	out := *t
	return &out, nil
}

func (m *MemoryStore) UpsertTokenInfo(_ context.Context, info *models.TokenInfo) (*models.TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := models.Now()
	t, ok := m.tokens[info.TokenSymbol]
	if !ok {
		t = &models.TokenInfo{
			ID:          models.NewID(),
			TokenSymbol: info.TokenSymbol,
			CreatedAt:   now,
		}
		m.tokens[info.TokenSymbol] = t
	}
	t.TokenName = info.TokenName
	t.ContractAddress = info.ContractAddress
	t.Blockchain = info.Blockchain
	t.IsActive = info.IsActive
	t.UpdatedAt = now

	out := *t
	return &out, nil
}

func (m *MemoryStore) StakingConfigs(_ context.Context) ([]models.StakingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.StakingConfig, 0, len(m.staking))
	for _, c := range m.staking {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenSymbol < out[j].TokenSymbol })
	return out, nil
}

func (m *MemoryStore) UpsertStakingConfig(_ context.Context, cfg *models.StakingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *cfg
	m.staking[cfg.TokenSymbol] = &c
	return nil
}

func (m *MemoryStore) SetTotalValueLocked(_ context.Context, symbol string, tvl float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.staking[symbol]
	if !ok {
		return models.ErrNotFound
	}
	c.TotalValueLocked = tvl
	c.UpdatedAt = models.Now()
	return nil
}

func (m *MemoryStore) selectStakes(keep func(*models.StakeRecord) bool, limit int) []models.StakeRecord {
	out := make([]models.StakeRecord, 0)
	for _, s := range m.stakes {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keep(s) {
			out = append(out, *s)
		}
	}
	return out
}

func (m *MemoryStore) StakesByWallet(_ context.Context, wallet string) ([]models.StakeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectStakes(func(s *models.StakeRecord) bool { return s.WalletAddress == wallet }, MaxListSize), nil
}

func (m *MemoryStore) StakesBySymbol(_ context.Context, symbol string) ([]models.StakeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectStakes(func(s *models.StakeRecord) bool { return s.TokenSymbol == symbol && s.Active() }, 0), nil
}

func (m *MemoryStore) AddStake(_ context.Context, stake *models.StakeRecord) (*models.StakeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if active := m.activeStake(stake.WalletAddress, stake.TokenSymbol); active != nil {
		addToStake(active, stake.StakedAmount, stake.TransactionSignature)
		out := *active
		return &out, nil
	}

	s := *stake
	m.stakes = append(m.stakes, &s)
	out := s
	return &out, nil
}

func (m *MemoryStore) Unstake(_ context.Context, req models.UnstakeCreate) (*models.StakeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.activeStake(req.WalletAddress, req.TokenSymbol)
	if active == nil {
		return nil, models.ErrNotFound
	}
	if err := applyUnstake(active, req); err != nil {
		return nil, err
	}
	out := *active
	return &out, nil
}

// activeStake returns the most recent active stake of the wallet and token, or nil
func (m *MemoryStore) activeStake(wallet, symbol string) *models.StakeRecord {
	var latest *models.StakeRecord
	for _, s := range m.stakes {
		if s.WalletAddress != wallet || s.TokenSymbol != symbol || !s.Active() {
			continue
		}
		if latest == nil || !s.StakeDate.Before(latest.StakeDate.Time) {
			latest = s
		}
	}
	return latest
}

func (m *MemoryStore) MarketplaceItems(_ context.Context, active bool, limit int64) ([]models.MarketplaceItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectWhere(m.items, func(it *models.MarketplaceItem) bool { return it.IsActive == active }, capped(limit)), nil
}

func (m *MemoryStore) MarketplaceItem(_ context.Context, id string) (*models.MarketplaceItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, it := range m.items {
		if it.ID == id {
			out := it
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemoryStore) InsertMarketplaceItem(_ context.Context, item *models.MarketplaceItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *item)
	return nil
}

func (m *MemoryStore) Purchases(_ context.Context, wallet string) ([]models.MarketplacePurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectWhere(m.purchases, func(p *models.MarketplacePurchase) bool { return p.BuyerWallet == wallet }, MaxListSize), nil
}

// InsertPurchase records a purchase. Purchases are written by the payment flow, not the HTTP API.
func (m *MemoryStore) InsertPurchase(_ context.Context, p *models.MarketplacePurchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases = append(m.purchases, *p)
	return nil
}

func (m *MemoryStore) AgentDrafts(_ context.Context, wallet string) ([]models.AgentDraft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectWhere(m.drafts, func(d *models.AgentDraft) bool { return d.CreatorWallet == wallet }, MaxListSize), nil
}

func (m *MemoryStore) InsertAgentDraft(_ context.Context, draft *models.AgentDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = append(m.drafts, *draft)
	return nil
}

func (m *MemoryStore) Reviews(_ context.Context, itemID string) ([]models.AgentReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectWhere(m.reviews, func(r *models.AgentReview) bool { return r.ItemID == itemID }, MaxListSize), nil
}

// InsertReview adds a review
func (m *MemoryStore) InsertReview(_ context.Context, r *models.AgentReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *MemoryStore) InsertListingFee(_ context.Context, fee *models.ListingFee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listingFees = append(m.listingFees, *fee)
	return nil
}

// ListingFees returns every recorded listing fee
func (m *MemoryStore) ListingFees() []models.ListingFee {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ListingFee(nil), m.listingFees...)
}

var _ Store = (*MemoryStore)(nil)
