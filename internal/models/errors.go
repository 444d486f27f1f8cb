package models

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fidolity-token-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Authentication errors
	ErrorCodeMissingAPIKey  ErrorCode = "MISSING_API_KEY"
	ErrorCodeInvalidAPIKey  ErrorCode = "INVALID_API_KEY"
	ErrorCodeInactiveAPIKey ErrorCode = "INACTIVE_API_KEY"
	ErrorCodeForbidden      ErrorCode = "FORBIDDEN"

	// Rate limiting errors
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Validation errors
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidWallet  ErrorCode = "INVALID_WALLET_ADDRESS"
	ErrorCodeMalformedJSON  ErrorCode = "MALFORMED_JSON"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeConflict       ErrorCode = "CONFLICT"

	// Wallet and chain errors
	ErrorCodeWalletNotConnected ErrorCode = "WALLET_NOT_CONNECTED"
	ErrorCodeRPCUnavailable     ErrorCode = "RPC_UNAVAILABLE"
	ErrorCodeTransferFailed     ErrorCode = "TRANSFER_FAILED"

	// Internal errors
	ErrorCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

var (
	// ErrNotFound is returned by stores when no record matches
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned by stores when a unique key already exists
	ErrDuplicate = errors.New("record already exists")
	// ErrWalletNotConnected is returned before any network call when no wallet key is available
	ErrWalletNotConnected = errors.New("wallet not connected")
	// ErrInsufficientStake is returned when an unstake asks for more than the active stake
	ErrInsufficientStake = errors.New("amount exceeds active stake")
)

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	Error         ErrorDetail `json:"error"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// HTTPStatusCode returns the appropriate HTTP status code for each error type
func (e ErrorCode) HTTPStatusCode() int {
	switch e {
	case ErrorCodeMissingAPIKey, ErrorCodeInvalidAPIKey, ErrorCodeInactiveAPIKey:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrorCodeInvalidRequest, ErrorCodeInvalidWallet, ErrorCodeMalformedJSON, ErrorCodeWalletNotConnected:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeRPCUnavailable, ErrorCodeTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse creates a new error response with timestamp
func NewErrorResponse(code ErrorCode, message, details, correlationID string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// AppError represents an application error with context
type AppError struct {
	Code       ErrorCode
	Message    string
	Details    string
	Cause      error
	Context    map[string]interface{}
	StatusCode int
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: code.HTTPStatusCode(),
		Context:    make(map[string]interface{}),
	}
}

// NewAppErrorWithCause creates a new application error with underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	e := NewAppError(code, message)
	e.Cause = cause
	return e
}

// NewAppErrorWithDetails creates a new application error with details
func NewAppErrorWithDetails(code ErrorCode, message, details string) *AppError {
	e := NewAppError(code, message)
	e.Details = details
	return e
}

// HandleError logs err and writes the matching JSON error response.
// Store sentinels are mapped to their HTTP codes; anything else becomes INTERNAL_ERROR.
func HandleError(c *gin.Context, err error, log *logger.Logger) {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, ErrNotFound):
		appErr = NewAppErrorWithCause(ErrorCodeNotFound, "Resource not found", err)
	case errors.Is(err, ErrDuplicate):
		appErr = NewAppErrorWithCause(ErrorCodeConflict, "Resource already exists", err)
	default:
		appErr = NewAppErrorWithCause(ErrorCodeInternalError, "Internal server error", err)
	}

	appErr.WithContext("method", c.Request.Method).
		WithContext("path", c.Request.URL.Path).
		WithContext("client_ip", c.ClientIP())

	correlationID := logger.GetCorrelationIDFromContext(c.Request.Context())

	if log != nil {
		logFields := []zap.Field{
			zap.String("error_code", string(appErr.Code)),
			zap.String("error_message", appErr.Message),
			zap.Any("error_context", appErr.Context),
		}
		if appErr.Cause != nil {
			logFields = append(logFields, zap.Error(appErr.Cause))
		}
		if appErr.StatusCode >= 500 {
			log.Error("Application error", logFields...)
		} else {
			log.Warn("Client error", logFields...)
		}
	}

	c.JSON(appErr.StatusCode, NewErrorResponse(appErr.Code, appErr.Message, appErr.Details, correlationID))
}

// NewValidationError creates a validation error
func NewValidationError(message, details string) *AppError {
	return NewAppErrorWithDetails(ErrorCodeInvalidRequest, message, details)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrorCodeNotFound, message)
}

// NewRPCError creates an RPC error
func NewRPCError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeRPCUnavailable, message, cause)
}

// NewDatabaseError creates a database error
func NewDatabaseError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeDatabaseError, message, cause)
}
