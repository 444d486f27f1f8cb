package handlers

import (
	"strconv"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger returns the component logger bound to the request's correlation ids
func requestLogger(c *gin.Context, component string) *logger.Logger {
	return logger.GetLogger().Component(component).WithContext(c.Request.Context())
}

// bindJSON decodes the request body into dst, writing a MALFORMED_JSON response on failure
func bindJSON(c *gin.Context, dst interface{}, log *logger.Logger) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Warn("Invalid JSON in request",
			zap.Error(err),
			zap.String("content_type", c.GetHeader("Content-Type")),
		)
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		), log)
		return false
	}
	return true
}

// queryLimit parses the "limit" query parameter, falling back to def when it is absent or invalid
func queryLimit(c *gin.Context, def int64) int64 {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// queryBool parses a boolean query parameter, falling back to def
func queryBool(c *gin.Context, name string, def bool) bool {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

// isValidSolanaAddress reports whether address decodes to a 32-byte base58 public key
func isValidSolanaAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

func requireWallet(c *gin.Context, wallet string, log *logger.Logger) bool {
	if isValidSolanaAddress(wallet) {
		return true
	}
	models.HandleError(c, models.NewAppErrorWithDetails(
		models.ErrorCodeInvalidWallet,
		"Invalid wallet address format",
		"Wallet address: "+wallet,
	).WithContext("wallet_address", wallet), log)
	return false
}

func requireField(c *gin.Context, name, value string, log *logger.Logger) bool {
	if value != "" {
		return true
	}
	models.HandleError(c, models.NewValidationError("Missing required field", name+" is required"), log)
	return false
}
