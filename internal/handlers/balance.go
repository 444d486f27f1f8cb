package handlers

import (
	"net/http"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxBalanceWallets caps the number of wallets in one batch balance request
const MaxBalanceWallets = 100

// BalanceHandler serves native SOL balances
type BalanceHandler struct {
	balanceService services.BalanceServiceInterface
}

// NewBalanceHandler creates a new BalanceHandler instance
func NewBalanceHandler(balanceService services.BalanceServiceInterface) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

// GetBalances handles POST /api/wallet/balances
func (h *BalanceHandler) GetBalances(c *gin.Context) {
	log := requestLogger(c, "balance")

	var req models.BalanceRequest
	if !bindJSON(c, &req, log) {
		return
	}

	if len(req.Wallets) == 0 || len(req.Wallets) > MaxBalanceWallets {
		models.HandleError(c, models.NewValidationError(
			"Invalid wallets array",
			"Between 1 and 100 wallet addresses must be provided",
		), log)
		return
	}

	for i, wallet := range req.Wallets {
		if !isValidSolanaAddress(wallet) {
			models.HandleError(c, models.NewAppErrorWithDetails(
				models.ErrorCodeInvalidWallet,
				"Invalid wallet address format",
				"Wallet address: "+wallet,
			).WithContext("wallet_index", i).WithContext("wallet_address", wallet), log)
			return
		}
	}

	response, err := h.balanceService.GetBalances(c.Request.Context(), req.Wallets)
	if err != nil {
		models.HandleError(c, models.NewAppErrorWithCause(
			models.ErrorCodeInternalError,
			"Failed to fetch balances",
			err,
		).WithContext("wallet_addresses", req.Wallets), log)
		return
	}

	log.Info("Balance request completed",
		zap.Int("balance_count", len(response.Balances)),
		zap.Bool("all_cached", response.Cached),
	)
	c.JSON(http.StatusOK, response)
}

// GetBalance handles GET /api/wallet/balance/:wallet
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	log := requestLogger(c, "balance")
	wallet := c.Param("wallet")
	if !requireWallet(c, wallet, log) {
		return
	}

	balance, err := h.balanceService.GetBalance(c.Request.Context(), wallet)
	if err != nil {
		models.HandleError(c, models.NewRPCError("Failed to fetch balance", err), log)
		return
	}
	if balance.Error != "" {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeRPCUnavailable,
			"Failed to fetch balance",
			balance.Error,
		), log)
		return
	}
	c.JSON(http.StatusOK, balance)
}
