package handlers

import (
	"net/http"
	"strings"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AIHandler serves the assistant chat endpoint. Replies are keyword based until a model is wired in.
type AIHandler struct {
	store store.Store
}

// NewAIHandler creates an AIHandler over s
func NewAIHandler(s store.Store) *AIHandler {
	return &AIHandler{store: s}
}

// Chat handles POST /api/ai/chat. It always answers 200; failures set success=false.
func (h *AIHandler) Chat(c *gin.Context) {
	log := requestLogger(c, "ai")

	var req models.AIChatRequest
	if !bindJSON(c, &req, log) {
		return
	}

	ctx := c.Request.Context()
	fail := func(err error) {
		log.Error("AI chat error", zap.Error(err))
		c.JSON(http.StatusOK, models.AIChatResponse{Success: false, Response: "", Error: err.Error()})
	}

	if err := h.store.InsertChatMessage(ctx, newChatMessage(req.WalletAddress, models.MessageTypeUser, req.Message, nil)); err != nil {
		fail(err)
		return
	}

	reply := MockReply(req.Message)

	if err := h.store.InsertChatMessage(ctx, newChatMessage(req.WalletAddress, models.MessageTypeAgent, reply, nil)); err != nil {
		fail(err)
		return
	}

	c.JSON(http.StatusOK, models.AIChatResponse{
		Success:    true,
		Response:   reply,
		TokensUsed: len(strings.Fields(reply)),
	})
}

// Canned assistant replies
const (
	replyAbout       = "Fidolity is a decentralized AI agent marketplace built on Solana. It lets users create, deploy and monetize AI agents through a marketplace with staking and wallet integration."
	replyMarketplace = "The Fidolity Marketplace is where you discover and purchase AI agents from the community. Browse agents, check their ratings and integrate them into your applications."
	replyStaking     = "Fidolity Staking lets you stake FDLT tokens to earn rewards and unlock premium features. Staked tokens also give you a voice in platform governance."
	replyGreeting    = "Hello! I'm the Fidolity AI assistant. I can help you understand the platform, navigate the marketplace and answer questions about AI agents and staking. What would you like to know?"
	replyDefault     = "I'm here to help you with Fidolity! Ask me about the marketplace, staking, creating agents or any other feature. What would you like to know more about?"
)

// MockReply picks a canned reply by keyword. Checks run in order and the first match wins.
func MockReply(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "fidolity") || strings.Contains(m, "what"):
		return replyAbout
	case strings.Contains(m, "marketplace"):
		return replyMarketplace
	case strings.Contains(m, "staking"):
		return replyStaking
	case strings.Contains(m, "hello") || strings.Contains(m, "hi"):
		return replyGreeting
	default:
		return replyDefault
	}
}
