package models

// AIRole is the speaker of a conversation turn sent to the AI endpoint
type AIRole string

const (
	AIRoleUser      AIRole = "user"
	AIRoleAssistant AIRole = "assistant"
)

// AIMessage is one conversation turn
type AIMessage struct {
	Role    AIRole `json:"role"`
	Content string `json:"content"`
}

// AIChatRequest is the payload of POST /ai/chat
type AIChatRequest struct {
	Message             string      `json:"message"`
	WalletAddress       string      `json:"wallet_address"`
	ConversationHistory []AIMessage `json:"conversation_history"`
}

// AIChatResponse is the result of an AI chat call
type AIChatResponse struct {
	Success    bool   `json:"success"`
	Response   string `json:"response"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	Error      string `json:"error,omitempty"`
}
