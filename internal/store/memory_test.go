package store

import (
	"context"
	"testing"
	"time"

	"fidolity-token-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func at(minute int) models.Timestamp {
	return models.NewTimestamp(time.Date(2024, 5, 1, 12, minute, 0, 0, time.UTC))
}

func TestMemoryStoreChatHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, m := range []int{3, 1, 2} {
		require.NoError(t, s.InsertChatMessage(ctx, &models.ChatMessage{
			ID: models.NewID(), WalletAddress: "w1", Content: string(rune('a' + m)), CreatedAt: at(m),
		}))
	}
	require.NoError(t, s.InsertChatMessage(ctx, &models.ChatMessage{ID: models.NewID(), WalletAddress: "w2", CreatedAt: at(0)}))

	history, err := s.ChatHistory(ctx, "w1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, at(1), history[0].CreatedAt, "oldest first")
	assert.Equal(t, at(2), history[1].CreatedAt)

	deleted, err := s.DeleteChatHistory(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	history, err = s.ChatHistory(ctx, "w1", 50)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NotNil(t, history)

	history, err = s.ChatHistory(ctx, "w2", 50)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestMemoryStoreWalletActivity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.InsertWalletActivity(ctx, &models.WalletActivity{
			ID:                   models.NewID(),
			WalletAddress:        "w1",
			TransactionSignature: string(rune('x' + i)),
			Status:               models.TransactionStatusPending,
			CreatedAt:            at(i),
		}))
	}

	activity, err := s.WalletActivity(ctx, "w1", 20)
	require.NoError(t, err)
	require.Len(t, activity, 3)
	assert.Equal(t, at(2), activity[0].CreatedAt, "newest first")

	confirmed := at(30)
	require.NoError(t, s.UpdateTransactionStatus(ctx, "y", models.TransactionStatusUpdate{
		Status:      models.TransactionStatusConfirmed,
		ConfirmedAt: &confirmed,
	}))

	activity, err = s.WalletActivity(ctx, "w1", 20)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusConfirmed, activity[1].Status)
	require.NotNil(t, activity[1].ConfirmedAt)
	assert.Equal(t, confirmed, *activity[1].ConfirmedAt)

	err = s.UpdateTransactionStatus(ctx, "missing", models.TransactionStatusUpdate{Status: models.TransactionStatusFailed})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryStoreUserSpendingCreatedOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.UserSpending(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "w1", first.WalletAddress)
	assert.Zero(t, first.TotalSpentSOL)

	second, err := s.UserSpending(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestMemoryStoreTokenInfo(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.InsertTokenInfo(ctx, &models.TokenInfo{
		ID: "1", TokenSymbol: "FDLT", TokenName: "Fidolity Token", ContractAddress: "soon", Blockchain: "SOLANA", IsActive: true,
	}))
	require.NoError(t, s.InsertTokenInfo(ctx, &models.TokenInfo{ID: "2", TokenSymbol: "OLD", IsActive: false}))
	assert.ErrorIs(t, s.InsertTokenInfo(ctx, &models.TokenInfo{TokenSymbol: "FDLT"}), models.ErrDuplicate)

	t.Run("ActiveFilter", func(t *testing.T) {
		active := true
		rows, err := s.ListTokenInfo(ctx, &active)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "FDLT", rows[0].TokenSymbol)

		all, err := s.ListTokenInfo(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("InactiveIsNotFound", func(t *testing.T) {
		_, err := s.TokenInfo(ctx, "OLD")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		addr := "So11111111111111111111111111111111111111112"
		before, err := s.TokenInfo(ctx, "FDLT")
		require.NoError(t, err)

		updated, err := s.UpdateTokenInfo(ctx, "FDLT", models.TokenInfoUpdate{ContractAddress: &addr})
		require.NoError(t, err)
		assert.Equal(t, addr, updated.ContractAddress)
		assert.Equal(t, "Fidolity Token", updated.TokenName)
		assert.True(t, updated.Contract().IsLive())
		assert.False(t, updated.UpdatedAt.Before(before.UpdatedAt.Time))

		_, err = s.UpdateTokenInfo(ctx, "NOPE", models.TokenInfoUpdate{ContractAddress: &addr})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("UpsertKeepsIdentity", func(t *testing.T) {
		row, err := s.UpsertTokenInfo(ctx, &models.TokenInfo{
			TokenSymbol: "FDLT", TokenName: "Fidolity", ContractAddress: "soon", Blockchain: "SOLANA", IsActive: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "1", row.ID)
		assert.False(t, row.Contract().IsLive())

		created, err := s.UpsertTokenInfo(ctx, &models.TokenInfo{TokenSymbol: "NEW", Blockchain: "SOLANA", IsActive: true})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
	})
}

func TestMemoryStoreStaking(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.UpsertStakingConfig(ctx, &models.StakingConfig{ID: "c", TokenSymbol: "FDLT", BaseAPY: 26.18}))
	require.NoError(t, s.SetTotalValueLocked(ctx, "FDLT", 42))
	assert.ErrorIs(t, s.SetTotalValueLocked(ctx, "NOPE", 1), models.ErrNotFound)

	configs, err := s.StakingConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, 42.0, configs[0].TotalValueLocked)

	addStake := func(t *testing.T, id, wallet string, amount float64, minute int) *models.StakeRecord {
		t.Helper()
		stake, err := s.AddStake(ctx, &models.StakeRecord{
			ID: id, WalletAddress: wallet, TokenSymbol: "FDLT", StakedAmount: amount,
			StakeDate: at(minute), TransactionSignature: "sig-" + id,
		})
		require.NoError(t, err)
		return stake
	}

	t.Run("RepeatStakesTopUpOneRow", func(t *testing.T) {
		first := addStake(t, "a", "w1", 10, 1)
		assert.Equal(t, 10.0, first.StakedAmount)

		second := addStake(t, "b", "w1", 5, 2)
		assert.Equal(t, "a", second.ID)
		assert.Equal(t, 15.0, second.StakedAmount)
		assert.Equal(t, "sig-b", second.TransactionSignature)

		addStake(t, "c", "w2", 1, 3)

		all, err := s.StakesByWallet(ctx, "w1")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("UnstakeLeavesRemainder", func(t *testing.T) {
		stake, err := s.Unstake(ctx, models.UnstakeCreate{WalletAddress: "w1", TokenSymbol: "FDLT", Amount: 10})
		require.NoError(t, err)
		assert.Equal(t, "a", stake.ID)
		assert.Equal(t, 5.0, stake.StakedAmount)
		assert.True(t, stake.Active())

		active, err := s.StakesBySymbol(ctx, "FDLT")
		require.NoError(t, err)
		var tvl float64
		for _, st := range active {
			tvl += st.StakedAmount
		}
		assert.Equal(t, 6.0, tvl)
	})

	t.Run("UnstakeAboveStakeRejected", func(t *testing.T) {
		_, err := s.Unstake(ctx, models.UnstakeCreate{WalletAddress: "w1", TokenSymbol: "FDLT", Amount: 5.5})
		assert.ErrorIs(t, err, models.ErrInsufficientStake)

		all, err := s.StakesByWallet(ctx, "w1")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, 5.0, all[0].StakedAmount)
	})

	t.Run("FullUnstakeCloses", func(t *testing.T) {
		stake, err := s.Unstake(ctx, models.UnstakeCreate{WalletAddress: "w1", TokenSymbol: "FDLT", Amount: 5})
		require.NoError(t, err)
		assert.False(t, stake.Active())

		active, err := s.StakesBySymbol(ctx, "FDLT")
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("StakeAfterCloseOpensNewRow", func(t *testing.T) {
		stake := addStake(t, "d", "w1", 2, 4)
		assert.Equal(t, "d", stake.ID)
		assert.Equal(t, 2.0, stake.StakedAmount)

		all, err := s.StakesByWallet(ctx, "w1")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("NothingActive", func(t *testing.T) {
		_, err := s.Unstake(ctx, models.UnstakeCreate{WalletAddress: "w3", TokenSymbol: "FDLT"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestApplyUnstake(t *testing.T) {
	tests := []struct {
		name      string
		staked    float64
		amount    float64
		remaining float64
		closed    bool
		err       error
	}{
		{"partial", 15, 10, 5, false, nil},
		{"decimal remainder", 0.3, 0.1, 0.2, false, nil},
		{"exact", 5, 5, 5, true, nil},
		{"zero closes", 5, 0, 5, true, nil},
		{"above stake", 5, 5.01, 5, false, models.ErrInsufficientStake},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stake := &models.StakeRecord{StakedAmount: tt.staked}
			err := applyUnstake(stake, models.UnstakeCreate{Amount: tt.amount})
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.remaining, stake.StakedAmount)
			assert.Equal(t, tt.closed, !stake.Active())
		})
	}
}

func TestUnstakeWriteGuardsOnReadAmount(t *testing.T) {
	stake := &models.StakeRecord{ID: "a", StakedAmount: 15}
	require.NoError(t, applyUnstake(stake, models.UnstakeCreate{Amount: 10}))

	guard, update := unstakeWrite(stake, 15)
	assert.Equal(t, "a", guard["id"])
	assert.Equal(t, 15.0, guard["staked_amount"])
	assert.Contains(t, guard, "unstake_date")
	assert.Nil(t, guard["unstake_date"])

	set := update["$set"].(bson.M)
	assert.Equal(t, 5.0, set["staked_amount"])
}

func TestMemoryStoreMarketplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.InsertMarketplaceItem(ctx, &models.MarketplaceItem{ID: "i1", Name: "Aggregator", IsActive: true}))
	require.NoError(t, s.InsertMarketplaceItem(ctx, &models.MarketplaceItem{ID: "i2", Name: "Retired", IsActive: false}))
	require.NoError(t, s.InsertReview(ctx, &models.AgentReview{ID: "r1", ItemID: "i1", Rating: 5}))
	require.NoError(t, s.InsertPurchase(ctx, &models.MarketplacePurchase{ID: "p1", ItemID: "i1", BuyerWallet: "w1"}))

	items, err := s.MarketplaceItems(ctx, true, 100)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "i1", items[0].ID)

	_, err = s.MarketplaceItem(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	reviews, err := s.Reviews(ctx, "i1")
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	purchases, err := s.Purchases(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, purchases, 1)

	require.NoError(t, s.InsertAgentDraft(ctx, &models.AgentDraft{ID: "d1", CreatorWallet: "w1"}))
	drafts, err := s.AgentDrafts(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	require.NoError(t, s.InsertListingFee(ctx, &models.ListingFee{ID: "f1", CreatorWallet: "w1", FeeAmount: 0.1}))
	assert.Len(t, s.ListingFees(), 1)
}
