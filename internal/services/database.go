package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"

	"go.uber.org/zap"
)

// Default page sizes of the read endpoints
const (
	DefaultChatHistoryLimit    = 50
	DefaultWalletActivityLimit = 20
	DefaultRecentPurchaseLimit = 5
)

// DatabaseService maps chat, wallet activity and token metadata calls onto the backend API.
// Reads degrade to empty values; writes return the backend error.
type DatabaseService struct {
	api    API
	logger *logger.Logger
}

// NewDatabaseService creates a DatabaseService
func NewDatabaseService(api API) *DatabaseService {
	return &DatabaseService{api: api, logger: logger.GetLogger().Component("database_service")}
}

// GetChatHistory returns up to limit messages of the wallet, oldest first
func (d *DatabaseService) GetChatHistory(ctx context.Context, walletAddress string, limit int) []models.ChatMessage {
	if limit <= 0 {
		limit = DefaultChatHistoryLimit
	}
	var messages []models.ChatMessage
	path := "/chat/history/" + url.PathEscape(walletAddress) + "?limit=" + strconv.Itoa(limit)
	if err := d.api.Get(ctx, path, &messages); err != nil {
		d.logger.WithContext(ctx).Error("Error fetching chat history", zap.String("wallet_address", walletAddress), zap.Error(err))
		return []models.ChatMessage{}
	}
	return nonNil(messages)
}

// SaveChatMessage stores one chat message
func (d *DatabaseService) SaveChatMessage(ctx context.Context, walletAddress string, messageType models.MessageType, content string, metadata map[string]interface{}) (*models.ChatMessage, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	var msg models.ChatMessage
	err := d.api.Post(ctx, "/chat/message", models.ChatMessageCreate{
		WalletAddress: walletAddress,
		MessageType:   messageType,
		Content:       content,
		Metadata:      metadata,
	}, &msg)
	if err != nil {
		return nil, fmt.Errorf("save chat message: %w", err)
	}
	return &msg, nil
}

// DeleteChatHistory removes the wallet's chat history and reports success
func (d *DatabaseService) DeleteChatHistory(ctx context.Context, walletAddress string) bool {
	if err := d.api.Delete(ctx, "/chat/history/"+url.PathEscape(walletAddress), nil); err != nil {
		d.logger.WithContext(ctx).Error("Error deleting chat history", zap.String("wallet_address", walletAddress), zap.Error(err))
		return false
	}
	return true
}

// GetUserSpending returns the wallet's spending summary, or nil when unavailable
func (d *DatabaseService) GetUserSpending(ctx context.Context, walletAddress string) *models.UserSpending {
	var spending models.UserSpending
	if err := d.api.Get(ctx, "/user/spending/"+url.PathEscape(walletAddress), &spending); err != nil {
		d.logger.WithContext(ctx).Error("Error fetching user spending", zap.String("wallet_address", walletAddress), zap.Error(err))
		return nil
	}
	return &spending
}

// GetWalletActivity returns up to limit transactions of the wallet, newest first
func (d *DatabaseService) GetWalletActivity(ctx context.Context, walletAddress string, limit int) []models.WalletActivity {
	if limit <= 0 {
		limit = DefaultWalletActivityLimit
	}
	var activity []models.WalletActivity
	path := "/wallet/activity/" + url.PathEscape(walletAddress) + "?limit=" + strconv.Itoa(limit)
	if err := d.api.Get(ctx, path, &activity); err != nil {
		d.logger.WithContext(ctx).Error("Error fetching wallet activity", zap.String("wallet_address", walletAddress), zap.Error(err))
		return []models.WalletActivity{}
	}
	return nonNil(activity)
}

// RecordTransaction stores a wallet transaction as pending
func (d *DatabaseService) RecordTransaction(ctx context.Context, tx models.WalletActivityCreate) (*models.WalletActivity, error) {
	if tx.Metadata == nil {
		tx.Metadata = map[string]interface{}{}
	}
	var activity models.WalletActivity
	if err := d.api.Post(ctx, "/wallet/transaction", tx, &activity); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	return &activity, nil
}

// UpdateTransactionStatus sets the status of a recorded transaction. A nil confirmedAt means now.
func (d *DatabaseService) UpdateTransactionStatus(ctx context.Context, signature string, status models.TransactionStatus, confirmedAt *models.Timestamp) bool {
	if confirmedAt == nil {
		now := models.Now()
		confirmedAt = &now
	}
	err := d.api.Patch(ctx, "/wallet/transaction/"+url.PathEscape(signature), models.TransactionStatusUpdate{
		Status:      status,
		ConfirmedAt: confirmedAt,
	}, nil)
	if err != nil {
		d.logger.WithContext(ctx).Error("Error updating transaction status", zap.String("signature", signature), zap.Error(err))
		return false
	}
	return true
}

// GetRecentPurchases returns the confirmed service purchases among the wallet's latest activity
func (d *DatabaseService) GetRecentPurchases(ctx context.Context, walletAddress string, limit int) []models.WalletActivity {
	if limit <= 0 {
		limit = DefaultRecentPurchaseLimit
	}
	purchases := []models.WalletActivity{}
	for _, a := range d.GetWalletActivity(ctx, walletAddress, limit) {
		if a.TransactionType == models.TransactionTypeServicePurchase && a.Status == models.TransactionStatusConfirmed {
			purchases = append(purchases, a)
		}
	}
	return purchases
}

// GetTokenInfo returns the token row for symbol, or nil when unavailable
func (d *DatabaseService) GetTokenInfo(ctx context.Context, symbol string) *models.TokenInfo {
	var info models.TokenInfo
	if err := d.api.Get(ctx, "/token/info/"+url.PathEscape(symbol), &info); err != nil {
		d.logger.WithContext(ctx).Error("Error fetching token info", zap.String("token_symbol", symbol), zap.Error(err))
		return nil
	}
	return &info
}

// ListTokenInfo returns every token row
func (d *DatabaseService) ListTokenInfo(ctx context.Context) []models.TokenInfo {
	var infos []models.TokenInfo
	if err := d.api.Get(ctx, "/token/info", &infos); err != nil {
		d.logger.WithContext(ctx).Error("Error fetching token info", zap.Error(err))
		return []models.TokenInfo{}
	}
	return nonNil(infos)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
