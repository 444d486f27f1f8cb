package handlers

import (
	"errors"
	"net/http"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StakingHandler serves staking configuration and the stake ledger
type StakingHandler struct {
	store store.Store
}

// NewStakingHandler creates a StakingHandler over s
func NewStakingHandler(s store.Store) *StakingHandler {
	return &StakingHandler{store: s}
}

// GetConfig handles GET /api/staking/config
func (h *StakingHandler) GetConfig(c *gin.Context) {
	log := requestLogger(c, "staking")

	configs, err := h.store.StakingConfigs(c.Request.Context())
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load staking config", err), log)
		return
	}
	c.JSON(http.StatusOK, configs)
}

// GetWalletStakes handles GET /api/staking/stakes/:wallet
func (h *StakingHandler) GetWalletStakes(c *gin.Context) {
	log := requestLogger(c, "staking")

	stakes, err := h.store.StakesByWallet(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load stakes", err), log)
		return
	}
	c.JSON(http.StatusOK, stakes)
}

// GetTokenStakes handles GET /api/staking/stakes?token_symbol=X and returns the token's active stakes
func (h *StakingHandler) GetTokenStakes(c *gin.Context) {
	log := requestLogger(c, "staking")

	symbol := c.Query("token_symbol")
	if !requireField(c, "token_symbol", symbol, log) {
		return
	}

	stakes, err := h.store.StakesBySymbol(c.Request.Context(), symbol)
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load stakes", err), log)
		return
	}
	c.JSON(http.StatusOK, stakes)
}

// CreateStake handles POST /api/staking/stakes. A wallet holds one active stake per token;
// repeat stakes add to it.
func (h *StakingHandler) CreateStake(c *gin.Context) {
	log := requestLogger(c, "staking")

	var req models.StakeCreate
	if !bindJSON(c, &req, log) ||
		!requireField(c, "wallet_address", req.WalletAddress, log) ||
		!requireField(c, "token_symbol", req.TokenSymbol, log) {
		return
	}
	if req.Amount <= 0 {
		models.HandleError(c, models.NewValidationError("Invalid amount", "amount must be positive"), log)
		return
	}

	now := models.Now()
	stake := &models.StakeRecord{
		ID:                   models.NewID(),
		WalletAddress:        req.WalletAddress,
		TokenSymbol:          req.TokenSymbol,
		StakedAmount:         req.Amount,
		StakeDate:            now,
		TransactionSignature: req.TransactionSignature,
		CreatedAt:            now,
	}
	stake, err := h.store.AddStake(c.Request.Context(), stake)
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to record stake", err), log)
		return
	}

	log.Info("Stake recorded",
		zap.String("wallet_address", stake.WalletAddress),
		zap.String("token_symbol", stake.TokenSymbol),
		zap.Float64("amount", req.Amount),
		zap.Float64("staked_amount", stake.StakedAmount),
		zap.String("signature", stake.TransactionSignature),
	)
	c.JSON(http.StatusOK, stake)
}

// Unstake handles POST /api/staking/unstake
func (h *StakingHandler) Unstake(c *gin.Context) {
	log := requestLogger(c, "staking")

	var req models.UnstakeCreate
	if !bindJSON(c, &req, log) ||
		!requireField(c, "wallet_address", req.WalletAddress, log) ||
		!requireField(c, "token_symbol", req.TokenSymbol, log) {
		return
	}
	if req.Amount < 0 {
		models.HandleError(c, models.NewValidationError("Invalid amount", "amount must not be negative"), log)
		return
	}

	stake, err := h.store.Unstake(c.Request.Context(), req)
	if errors.Is(err, models.ErrNotFound) {
		models.HandleError(c, models.NewNotFoundError("No active stake found"), log)
		return
	}
	if errors.Is(err, models.ErrInsufficientStake) {
		models.HandleError(c, models.NewValidationError("Invalid amount", err.Error()), log)
		return
	}
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to record unstake", err), log)
		return
	}

	log.Info("Unstake recorded",
		zap.String("wallet_address", req.WalletAddress),
		zap.String("token_symbol", req.TokenSymbol),
		zap.Float64("amount", req.Amount),
		zap.Bool("closed", !stake.Active()),
		zap.String("signature", req.TransactionSignature),
	)
	c.JSON(http.StatusOK, stake)
}
