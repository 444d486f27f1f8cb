package middleware

import (
	"errors"
	"strings"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/services"
	"fidolity-token-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextKeyAPIKey is the gin context key holding the validated *models.APIKey
const ContextKeyAPIKey = "api_key"

// AuthMiddleware authenticates requests by the API key in the Authorization header
func AuthMiddleware(authService services.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger().WithContext(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing API key in Authorization header",
				zap.String("client_ip", c.ClientIP()),
				zap.String("user_agent", c.Request.UserAgent()),
			)
			abort(c, log, models.NewAppErrorWithDetails(
				models.ErrorCodeMissingAPIKey,
				"API key is required",
				"Provide API key in Authorization header",
			))
			return
		}

		apiKey := parseAPIKey(authHeader)
		if apiKey == "" {
			abort(c, log, models.NewAppErrorWithDetails(
				models.ErrorCodeInvalidAPIKey,
				"Invalid API key format",
				"API key cannot be empty",
			))
			return
		}

		validatedKey, err := authService.ValidateAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			log.Warn("API key validation failed", zap.Error(err), zap.String("client_ip", c.ClientIP()))

			var appErr *models.AppError
			switch {
			case errors.Is(err, services.ErrInvalidAPIKey):
				appErr = models.NewAppError(models.ErrorCodeInvalidAPIKey, "Invalid API key")
			case errors.Is(err, services.ErrInactiveAPIKey):
				appErr = models.NewAppError(models.ErrorCodeInactiveAPIKey, "API key is inactive")
			case errors.Is(err, services.ErrDatabaseError):
				appErr = models.NewAppErrorWithCause(models.ErrorCodeDatabaseError, "Authentication service unavailable", err)
			default:
				appErr = models.NewAppErrorWithCause(models.ErrorCodeInvalidAPIKey, "Authentication failed", err)
			}
			abort(c, log, appErr)
			return
		}

		c.Set(ContextKeyAPIKey, validatedKey)

		ctx := logger.ContextWithUserID(c.Request.Context(), validatedKey.ID.Hex())
		c.Request = c.Request.WithContext(ctx)

		log.Info("Authentication successful",
			zap.String("api_key_id", validatedKey.ID.Hex()),
			zap.String("api_key_name", validatedKey.Name),
		)

		c.Next()
	}
}

// RequireScope rejects requests whose authenticated key lacks scope. It must run after AuthMiddleware.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger().WithContext(c.Request.Context())

		value, _ := c.Get(ContextKeyAPIKey)
		key, ok := value.(*models.APIKey)
		if !ok || !key.HasScope(scope) {
			abort(c, log, models.NewAppErrorWithDetails(
				models.ErrorCodeForbidden,
				"API key is not allowed to perform this action",
				"Required scope: "+scope,
			))
			return
		}
		c.Next()
	}
}

// parseAPIKey accepts "Bearer <key>", "Bearer<key>" or a bare key
func parseAPIKey(header string) string {
	key := strings.TrimSpace(header)
	if strings.HasPrefix(strings.ToLower(key), "bearer") {
		key = strings.TrimSpace(key[len("bearer"):])
	}
	return key
}

func abort(c *gin.Context, log *logger.Logger, err *models.AppError) {
	models.HandleError(c, err, log)
	c.Abort()
}
