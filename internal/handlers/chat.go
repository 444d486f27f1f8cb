package handlers

import (
	"net/http"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/store"

	"github.com/gin-gonic/gin"
)

// Default list sizes of the chat and wallet activity routes
const (
	DefaultChatHistoryLimit    = 50
	DefaultWalletActivityLimit = 20
)

// ChatHandler serves a wallet's chat history
type ChatHandler struct {
	store store.Store
}

// NewChatHandler creates a ChatHandler over s
func NewChatHandler(s store.Store) *ChatHandler {
	return &ChatHandler{store: s}
}

// GetHistory handles GET /api/chat/history/:wallet
func (h *ChatHandler) GetHistory(c *gin.Context) {
	log := requestLogger(c, "chat")

	messages, err := h.store.ChatHistory(c.Request.Context(), c.Param("wallet"), queryLimit(c, DefaultChatHistoryLimit))
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load chat history", err), log)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SaveMessage handles POST /api/chat/message
func (h *ChatHandler) SaveMessage(c *gin.Context) {
	log := requestLogger(c, "chat")

	var req models.ChatMessageCreate
	if !bindJSON(c, &req, log) || !requireField(c, "wallet_address", req.WalletAddress, log) {
		return
	}
	if req.MessageType != models.MessageTypeUser && req.MessageType != models.MessageTypeAgent {
		models.HandleError(c, models.NewValidationError("Invalid message_type", "message_type must be user or agent"), log)
		return
	}

	msg := newChatMessage(req.WalletAddress, req.MessageType, req.Content, req.Metadata)
	if err := h.store.InsertChatMessage(c.Request.Context(), msg); err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to save chat message", err), log)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// DeleteHistory handles DELETE /api/chat/history/:wallet
func (h *ChatHandler) DeleteHistory(c *gin.Context) {
	log := requestLogger(c, "chat")

	deleted, err := h.store.DeleteChatHistory(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to delete chat history", err), log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func newChatMessage(wallet string, kind models.MessageType, content string, metadata map[string]interface{}) *models.ChatMessage {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	now := models.Now()
	return &models.ChatMessage{
		ID:            models.NewID(),
		WalletAddress: wallet,
		MessageType:   kind,
		Content:       content,
		Metadata:      metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
