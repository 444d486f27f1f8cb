package handlers

import (
	"errors"
	"net/http"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WalletHandler serves wallet activity and spending records
type WalletHandler struct {
	store store.Store
}

// NewWalletHandler creates a WalletHandler over s
func NewWalletHandler(s store.Store) *WalletHandler {
	return &WalletHandler{store: s}
}

// GetActivity handles GET /api/wallet/activity/:wallet
func (h *WalletHandler) GetActivity(c *gin.Context) {
	log := requestLogger(c, "wallet")

	activity, err := h.store.WalletActivity(c.Request.Context(), c.Param("wallet"), queryLimit(c, DefaultWalletActivityLimit))
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load wallet activity", err), log)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// RecordTransaction handles POST /api/wallet/transaction
func (h *WalletHandler) RecordTransaction(c *gin.Context) {
	log := requestLogger(c, "wallet")

	var req models.WalletActivityCreate
	if !bindJSON(c, &req, log) ||
		!requireField(c, "wallet_address", req.WalletAddress, log) ||
		!requireField(c, "transaction_signature", req.TransactionSignature, log) {
		return
	}
	if !req.TransactionType.Valid() {
		models.HandleError(c, models.NewValidationError("Invalid transaction_type", string(req.TransactionType)), log)
		return
	}
	if req.Metadata == nil {
		req.Metadata = map[string]interface{}{}
	}

	activity := &models.WalletActivity{
		ID:                   models.NewID(),
		WalletAddress:        req.WalletAddress,
		TransactionSignature: req.TransactionSignature,
		TransactionType:      req.TransactionType,
		Amount:               req.Amount,
		TokenMint:            req.TokenMint,
		Status:               models.TransactionStatusPending,
		ServiceName:          req.ServiceName,
		Metadata:             req.Metadata,
		CreatedAt:            models.Now(),
	}
	if err := h.store.InsertWalletActivity(c.Request.Context(), activity); err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to record transaction", err), log)
		return
	}

	log.Info("Transaction recorded",
		zap.String("wallet_address", activity.WalletAddress),
		zap.String("signature", activity.TransactionSignature),
		zap.String("type", string(activity.TransactionType)),
	)
	c.JSON(http.StatusOK, activity)
}

// UpdateTransactionStatus handles PATCH /api/wallet/transaction/:signature.
// The status may arrive as a JSON body or as status/confirmed_at query parameters.
func (h *WalletHandler) UpdateTransactionStatus(c *gin.Context) {
	log := requestLogger(c, "wallet")

	var update models.TransactionStatusUpdate
	if status := c.Query("status"); status != "" {
		update.Status = models.TransactionStatus(status)
		if raw := c.Query("confirmed_at"); raw != "" {
			ts, err := models.ParseTimestamp(raw)
			if err != nil {
				models.HandleError(c, models.NewValidationError("Invalid confirmed_at", err.Error()), log)
				return
			}
			update.ConfirmedAt = &ts
		}
	} else if !bindJSON(c, &update, log) {
		return
	}

	if !update.Status.Valid() {
		models.HandleError(c, models.NewValidationError("Invalid status", string(update.Status)), log)
		return
	}

	err := h.store.UpdateTransactionStatus(c.Request.Context(), c.Param("signature"), update)
	if errors.Is(err, models.ErrNotFound) {
		models.HandleError(c, models.NewNotFoundError("Transaction not found"), log)
		return
	}
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to update transaction", err), log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSpending handles GET /api/user/spending/:wallet
func (h *WalletHandler) GetSpending(c *gin.Context) {
	log := requestLogger(c, "wallet")

	spending, err := h.store.UserSpending(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load spending", err), log)
		return
	}
	c.JSON(http.StatusOK, spending)
}
