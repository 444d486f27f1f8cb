package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"

	"go.uber.org/zap"
)

// MaxHistoryMessages is how many previous turns are sent with each message
const MaxHistoryMessages = 10

// DefaultStreamInterval is the delay between streamed chunks
const DefaultStreamInterval = 30 * time.Millisecond

// Per-token prices used by CalculateCost
const (
	ModelGPT4      = "gpt-4"
	ModelGPT35     = "gpt-3.5-turbo"
	costPerTokenG4 = 0.00003
	costPerToken35 = 0.000002
)

// AIService sends chat turns to the backend AI endpoint
type AIService struct {
	api            API
	streamInterval time.Duration
	logger         *logger.Logger
}

// NewAIService creates an AIService
func NewAIService(api API) *AIService {
	return &AIService{
		api:            api,
		streamInterval: DefaultStreamInterval,
		logger:         logger.GetLogger().Component("ai_service"),
	}
}

// SendMessage posts message with the last MaxHistoryMessages turns of history.
// Failures are reported in the response rather than as an error.
func (s *AIService) SendMessage(ctx context.Context, message, walletAddress string, history []models.AIMessage) *models.AIChatResponse {
	if len(history) > MaxHistoryMessages {
		history = history[len(history)-MaxHistoryMessages:]
	}
	if history == nil {
		history = []models.AIMessage{}
	}

	var resp models.AIChatResponse
	err := s.api.Post(ctx, "/ai/chat", models.AIChatRequest{
		Message:             message,
		WalletAddress:       walletAddress,
		ConversationHistory: history,
	}, &resp)
	if err != nil {
		s.logger.WithContext(ctx).Error("Error calling AI service", zap.Error(err))
		return &models.AIChatResponse{Success: false, Error: err.Error()}
	}
	return &resp
}

// SendMessageStreaming sends message and replays the reply word by word: onChunk receives
// the cumulative text after each word, then onComplete the full reply. Any failure,
// including ctx cancellation, goes to onError instead.
func (s *AIService) SendMessageStreaming(
	ctx context.Context,
	message, walletAddress string,
	history []models.AIMessage,
	onChunk func(text string),
	onComplete func(full string),
	onError func(err error),
) {
	resp := s.SendMessage(ctx, message, walletAddress, history)
	if !resp.Success || resp.Response == "" {
		msg := resp.Error
		if msg == "" {
			msg = "no response received"
		}
		onError(errors.New(msg))
		return
	}

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	words := strings.Split(resp.Response, " ")
	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		onChunk(b.String())

		select {
		case <-ctx.Done():
			onError(ctx.Err())
			return
		case <-ticker.C:
		}
	}
	onComplete(resp.Response)
}

// ChatTurn is a message as displayed in the chat view
type ChatTurn struct {
	Type    models.MessageType
	Content string
}

// ConvertToAIMessages maps displayed chat turns to AI conversation roles
func ConvertToAIMessages(turns []ChatTurn) []models.AIMessage {
	out := make([]models.AIMessage, len(turns))
	for i, t := range turns {
		role := models.AIRoleUser
		if t.Type == models.MessageTypeAgent {
			role = models.AIRoleAssistant
		}
		out[i] = models.AIMessage{Role: role, Content: t.Content}
	}
	return out
}

// EstimateTokens approximates the token count of text at four characters per token
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}

// CalculateCost prices tokens for model. Unknown models are priced as gpt-3.5-turbo.
func CalculateCost(tokens int, model string) float64 {
	if model == "" || model == ModelGPT4 {
		return float64(tokens) * costPerTokenG4
	}
	return float64(tokens) * costPerToken35
}
