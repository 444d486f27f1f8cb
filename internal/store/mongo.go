package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fidolity-token-api/internal/config"
	"fidolity-token-api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens a pooled MongoDB client and verifies it with a ping
func Connect(ctx context.Context, cfg *config.MongoDBConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)

	// Connection pool
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetMinPoolSize(cfg.MaxPoolSize / 4)
	clientOptions.SetMaxConnIdleTime(30 * time.Minute)
	clientOptions.SetMaxConnecting(cfg.MaxPoolSize / 2)

	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)
	clientOptions.SetSocketTimeout(30 * time.Second)
	clientOptions.SetServerSelectionTimeout(5 * time.Second)
	clientOptions.SetHeartbeatInterval(10 * time.Second)

	clientOptions.SetCompressors([]string{"snappy", "zlib", "zstd"})

	// Ledger reads must observe the write that preceded them
	clientOptions.SetReadPreference(readpref.Primary())

	clientOptions.SetRetryWrites(true)
	clientOptions.SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// MongoStore implements Store on a MongoDB database
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a store backed by db
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// Database returns the underlying database handle
func (s *MongoStore) Database() *mongo.Database {
	return s.db
}

func (s *MongoStore) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Ping verifies the server is reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	_, err := coll.InsertOne(ctx, doc)
	return mapError(err)
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", models.ErrDuplicate, err)
	default:
		return err
	}
}

func capped(limit int64) int64 {
	if limit <= 0 || limit > MaxListSize {
		return MaxListSize
	}
	return limit
}

// ChatHistory returns the oldest limit messages of a wallet in chronological order
func (s *MongoStore) ChatHistory(ctx context.Context, wallet string, limit int64) ([]models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(capped(limit))
	return findAll[models.ChatMessage](ctx, s.collection(CollectionChatMessages), bson.M{"wallet_address": wallet}, opts)
}

func (s *MongoStore) InsertChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	return insert(ctx, s.collection(CollectionChatMessages), msg)
}

func (s *MongoStore) DeleteChatHistory(ctx context.Context, wallet string) (int64, error) {
	res, err := s.collection(CollectionChatMessages).DeleteMany(ctx, bson.M{"wallet_address": wallet})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// WalletActivity returns the newest limit transactions of a wallet
func (s *MongoStore) WalletActivity(ctx context.Context, wallet string, limit int64) ([]models.WalletActivity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(capped(limit))
	return findAll[models.WalletActivity](ctx, s.collection(CollectionWalletActivity), bson.M{"wallet_address": wallet}, opts)
}

func (s *MongoStore) InsertWalletActivity(ctx context.Context, activity *models.WalletActivity) error {
	return insert(ctx, s.collection(CollectionWalletActivity), activity)
}

func (s *MongoStore) UpdateTransactionStatus(ctx context.Context, signature string, update models.TransactionStatusUpdate) error {
	set := bson.M{"status": update.Status}
	if update.ConfirmedAt != nil {
		set["confirmed_at"] = *update.ConfirmedAt
	}

	res, err := s.collection(CollectionWalletActivity).UpdateOne(ctx,
		bson.M{"transaction_signature": signature},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UserSpending returns the wallet's spending record, creating an empty one on first access
func (s *MongoStore) UserSpending(ctx context.Context, wallet string) (*models.UserSpending, error) {
	now := models.Now()
	fresh := models.UserSpending{
		ID:            models.NewID(),
		WalletAddress: wallet,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out models.UserSpending
	err := s.collection(CollectionUserSpending).FindOneAndUpdate(ctx,
		bson.M{"wallet_address": wallet},
		bson.M{"$setOnInsert": fresh},
		opts,
	).Decode(&out)
	if err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

// ListTokenInfo returns token rows filtered by is_active; a nil filter returns every row
func (s *MongoStore) ListTokenInfo(ctx context.Context, active *bool) ([]models.TokenInfo, error) {
	filter := bson.M{}
	if active != nil {
		filter["is_active"] = *active
	}
	opts := options.Find().SetSort(bson.D{{Key: "token_symbol", Value: 1}})
	return findAll[models.TokenInfo](ctx, s.collection(CollectionTokenInfo), filter, opts)
}

// TokenInfo returns the active row for symbol
func (s *MongoStore) TokenInfo(ctx context.Context, symbol string) (*models.TokenInfo, error) {
	return findOne[models.TokenInfo](ctx, s.collection(CollectionTokenInfo), bson.M{"token_symbol": symbol, "is_active": true})
}

func (s *MongoStore) InsertTokenInfo(ctx context.Context, info *models.TokenInfo) error {
	return insert(ctx, s.collection(CollectionTokenInfo), info)
}

func (s *MongoStore) UpdateTokenInfo(ctx context.Context, symbol string, update models.TokenInfoUpdate) (*models.TokenInfo, error) {
	set := bson.M{"updated_at": models.Now()}
	if update.ContractAddress != nil {
		set["contract_address"] = *update.ContractAddress
	}
	if update.TokenName != nil {
		set["token_name"] = *update.TokenName
	}
	if update.IsActive != nil {
		set["is_active"] = *update.IsActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.TokenInfo
	err := s.collection(CollectionTokenInfo).FindOneAndUpdate(ctx,
		bson.M{"token_symbol": symbol},
		bson.M{"$set": set},
		opts,
	).Decode(&out)
	if err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

// UpsertTokenInfo writes info keyed on token_symbol, keeping the id and created_at of an existing row
func (s *MongoStore) UpsertTokenInfo(ctx context.Context, info *models.TokenInfo) (*models.TokenInfo, error) {
	now := models.Now()
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out models.TokenInfo
	err := s.collection(CollectionTokenInfo).FindOneAndUpdate(ctx,
		bson.M{"token_symbol": info.TokenSymbol},
		bson.M{
			"$set": bson.M{
				"token_name":       info.TokenName,
				"contract_address": info.ContractAddress,
				"blockchain":       info.Blockchain,
				"is_active":        info.IsActive,
				"updated_at":       now,
			},
			"$setOnInsert": bson.M{
				"id":         models.NewID(),
				"created_at": now,
			},
		},
		opts,
	).Decode(&out)
	if err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func (s *MongoStore) StakingConfigs(ctx context.Context) ([]models.StakingConfig, error) {
	return findAll[models.StakingConfig](ctx, s.collection(CollectionStakingConfig), bson.M{}, options.Find().SetLimit(MaxListSize))
}

func (s *MongoStore) UpsertStakingConfig(ctx context.Context, cfg *models.StakingConfig) error {
	_, err := s.collection(CollectionStakingConfig).ReplaceOne(ctx,
		bson.M{"token_symbol": cfg.TokenSymbol},
		cfg,
		options.Replace().SetUpsert(true),
	)
	return mapError(err)
}

func (s *MongoStore) SetTotalValueLocked(ctx context.Context, symbol string, tvl float64) error {
	res, err := s.collection(CollectionStakingConfig).UpdateOne(ctx,
		bson.M{"token_symbol": symbol},
		bson.M{"$set": bson.M{"total_value_locked": tvl, "updated_at": models.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *MongoStore) StakesByWallet(ctx context.Context, wallet string) ([]models.StakeRecord, error) {
	return findAll[models.StakeRecord](ctx, s.collection(CollectionUserStakes), bson.M{"wallet_address": wallet}, options.Find().SetLimit(MaxListSize))
}

// StakesBySymbol returns every active stake of a token
func (s *MongoStore) StakesBySymbol(ctx context.Context, symbol string) ([]models.StakeRecord, error) {
	return findAll[models.StakeRecord](ctx, s.collection(CollectionUserStakes), bson.M{"token_symbol": symbol, "unstake_date": nil})
}

// AddStake increments the active stake of the wallet and token, inserting it on first stake
func (s *MongoStore) AddStake(ctx context.Context, stake *models.StakeRecord) (*models.StakeRecord, error) {
	filter := bson.M{
		"wallet_address": stake.WalletAddress,
		"token_symbol":   stake.TokenSymbol,
		"unstake_date":   nil,
	}
	update := bson.M{
		"$inc": bson.M{"staked_amount": stake.StakedAmount},
		"$set": bson.M{"transaction_signature": stake.TransactionSignature},
		"$setOnInsert": bson.M{
			"id":             stake.ID,
			"rewards_earned": stake.RewardsEarned,
			"stake_date":     stake.StakeDate,
			"created_at":     stake.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "stake_date", Value: -1}})

	var out models.StakeRecord
	if err := s.collection(CollectionUserStakes).FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

// unstakeAttempts bounds the re-reads when the active stake changes between read and write
const unstakeAttempts = 3

// Unstake applies req to the wallet's active stake of the token. The write only lands if
// staked_amount still holds the value it was computed from.
func (s *MongoStore) Unstake(ctx context.Context, req models.UnstakeCreate) (*models.StakeRecord, error) {
	coll := s.collection(CollectionUserStakes)
	filter := bson.M{
		"wallet_address": req.WalletAddress,
		"token_symbol":   req.TokenSymbol,
		"unstake_date":   nil,
	}

	for attempt := 0; attempt < unstakeAttempts; attempt++ {
		stake, err := findOne[models.StakeRecord](ctx, coll, filter,
			options.FindOne().SetSort(bson.D{{Key: "stake_date", Value: -1}}))
		if err != nil {
			return nil, err
		}

		read := stake.StakedAmount
		if err := applyUnstake(stake, req); err != nil {
			return nil, err
		}

		guard, update := unstakeWrite(stake, read)
		res, err := coll.UpdateOne(ctx, guard, update)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return stake, nil
		}
	}
	return nil, fmt.Errorf("unstake %s/%s: stake changed concurrently %d times", req.WalletAddress, req.TokenSymbol, unstakeAttempts)
}

// unstakeWrite builds the compare-and-set update for a stake whose amount was read as read
func unstakeWrite(stake *models.StakeRecord, read float64) (bson.M, bson.M) {
	guard := bson.M{"id": stake.ID, "unstake_date": nil, "staked_amount": read}
	update := bson.M{"$set": bson.M{"staked_amount": stake.StakedAmount, "unstake_date": stake.UnstakeDate}}
	return guard, update
}

func (s *MongoStore) MarketplaceItems(ctx context.Context, active bool, limit int64) ([]models.MarketplaceItem, error) {
	opts := options.Find().SetLimit(capped(limit))
	return findAll[models.MarketplaceItem](ctx, s.collection(CollectionMarketItems), bson.M{"is_active": active}, opts)
}

func (s *MongoStore) MarketplaceItem(ctx context.Context, id string) (*models.MarketplaceItem, error) {
	return findOne[models.MarketplaceItem](ctx, s.collection(CollectionMarketItems), bson.M{"id": id})
}

func (s *MongoStore) InsertMarketplaceItem(ctx context.Context, item *models.MarketplaceItem) error {
	return insert(ctx, s.collection(CollectionMarketItems), item)
}

func (s *MongoStore) Purchases(ctx context.Context, wallet string) ([]models.MarketplacePurchase, error) {
	return findAll[models.MarketplacePurchase](ctx, s.collection(CollectionPurchases), bson.M{"buyer_wallet": wallet}, options.Find().SetLimit(MaxListSize))
}

func (s *MongoStore) AgentDrafts(ctx context.Context, wallet string) ([]models.AgentDraft, error) {
	return findAll[models.AgentDraft](ctx, s.collection(CollectionAgentDrafts), bson.M{"creator_wallet": wallet}, options.Find().SetLimit(MaxListSize))
}

func (s *MongoStore) InsertAgentDraft(ctx context.Context, draft *models.AgentDraft) error {
	return insert(ctx, s.collection(CollectionAgentDrafts), draft)
}

func (s *MongoStore) Reviews(ctx context.Context, itemID string) ([]models.AgentReview, error) {
	return findAll[models.AgentReview](ctx, s.collection(CollectionAgentReviews), bson.M{"item_id": itemID}, options.Find().SetLimit(MaxListSize))
}

func (s *MongoStore) InsertListingFee(ctx context.Context, fee *models.ListingFee) error {
	return insert(ctx, s.collection(CollectionListingFees), fee)
}

var _ Store = (*MongoStore)(nil)
