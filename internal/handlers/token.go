package handlers

import (
	"errors"
	"net/http"
	"strings"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/store"
	"fidolity-token-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenHandler serves the token metadata table
type TokenHandler struct {
	store store.Store
}

// NewTokenHandler creates a TokenHandler over s
func NewTokenHandler(s store.Store) *TokenHandler {
	return &TokenHandler{store: s}
}

// ListTokens handles GET /api/token/info. is_active defaults to true; is_active=all lists every row.
func (h *TokenHandler) ListTokens(c *gin.Context) {
	log := requestLogger(c, "token")

	var active *bool
	if c.Query("is_active") != "all" {
		v := queryBool(c, "is_active", true)
		active = &v
	}

	tokens, err := h.store.ListTokenInfo(c.Request.Context(), active)
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load token info", err), log)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// GetToken handles GET /api/token/info/:symbol
func (h *TokenHandler) GetToken(c *gin.Context) {
	log := requestLogger(c, "token")

	token, err := h.store.TokenInfo(c.Request.Context(), c.Param("symbol"))
	if errors.Is(err, models.ErrNotFound) {
		models.HandleError(c, models.NewNotFoundError("Token not found"), log)
		return
	}
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load token info", err), log)
		return
	}
	c.JSON(http.StatusOK, token)
}

// CreateToken handles POST /api/token/info
func (h *TokenHandler) CreateToken(c *gin.Context) {
	log := requestLogger(c, "token")

	var req models.TokenInfo
	if !bindJSON(c, &req, log) || !requireField(c, "token_symbol", req.TokenSymbol, log) {
		return
	}
	contract, ok := validContract(c, req.ContractAddress, log)
	if !ok {
		return
	}

	now := models.Now()
	token := &models.TokenInfo{
		ID:              models.NewID(),
		TokenSymbol:     req.TokenSymbol,
		TokenName:       req.TokenName,
		ContractAddress: contract,
		Blockchain:      strings.ToUpper(req.Blockchain),
		IsActive:        req.IsActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if token.Blockchain == "" {
		token.Blockchain = "SOLANA"
	}

	err := h.store.InsertTokenInfo(c.Request.Context(), token)
	if errors.Is(err, models.ErrDuplicate) {
		models.HandleError(c, models.NewAppErrorWithDetails(models.ErrorCodeConflict, "Token already exists", token.TokenSymbol), log)
		return
	}
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to create token info", err), log)
		return
	}

	log.Info("Token info created", zap.String("symbol", token.TokenSymbol), zap.String("contract_address", token.ContractAddress))
	c.JSON(http.StatusOK, token)
}

// UpdateToken handles PATCH /api/token/info/:symbol. Only the fields present in the body change.
func (h *TokenHandler) UpdateToken(c *gin.Context) {
	log := requestLogger(c, "token")

	var update models.TokenInfoUpdate
	if !bindJSON(c, &update, log) {
		return
	}
	if update.ContractAddress != nil {
		contract, ok := validContract(c, *update.ContractAddress, log)
		if !ok {
			return
		}
		update.ContractAddress = &contract
	}

	token, err := h.store.UpdateTokenInfo(c.Request.Context(), c.Param("symbol"), update)
	if errors.Is(err, models.ErrNotFound) {
		models.HandleError(c, models.NewNotFoundError("Token not found"), log)
		return
	}
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to update token info", err), log)
		return
	}

	log.Info("Token info updated", zap.String("symbol", token.TokenSymbol), zap.String("contract_address", token.ContractAddress))
	c.JSON(http.StatusOK, token)
}

// validContract normalises a contract address to its wire form. Live addresses must be base58 public keys.
func validContract(c *gin.Context, raw string, log *logger.Logger) (string, bool) {
	contract := models.ParseContractAddress(raw)
	if addr, live := contract.Address(); live && !isValidSolanaAddress(addr) {
		models.HandleError(c, models.NewValidationError("Invalid contract address", addr), log)
		return "", false
	}
	return contract.String(), true
}
