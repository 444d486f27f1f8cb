package models

import "github.com/google/uuid"

// MessageType identifies the author of a chat message
type MessageType string

const (
	MessageTypeUser  MessageType = "user"
	MessageTypeAgent MessageType = "agent"
)

// TransactionType classifies a wallet activity row
type TransactionType string

const (
	TransactionTypePayment         TransactionType = "payment"
	TransactionTypeServicePurchase TransactionType = "service_purchase"
	TransactionTypeTransfer        TransactionType = "transfer"
	TransactionTypeOther           TransactionType = "other"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeServicePurchase, TransactionTypeTransfer, TransactionTypeOther:
		return true
	}
	return false
}

// TransactionStatus is the confirmation state of a recorded transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Valid reports whether s is a known status
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusConfirmed, TransactionStatusFailed:
		return true
	}
	return false
}

// NewID returns a fresh record identifier
func NewID() string {
	return uuid.New().String()
}

// ChatMessage is one turn of a wallet's chat history
type ChatMessage struct {
	ID            string                 `bson:"id" json:"id"`
	WalletAddress string                 `bson:"wallet_address" json:"wallet_address"`
	MessageType   MessageType            `bson:"message_type" json:"message_type"`
	Content       string                 `bson:"content" json:"content"`
	Metadata      map[string]interface{} `bson:"metadata" json:"metadata,omitempty"`
	CreatedAt     Timestamp              `bson:"created_at" json:"created_at"`
	UpdatedAt     Timestamp              `bson:"updated_at" json:"updated_at"`
}

// ChatMessageCreate is the payload of POST /chat/message
type ChatMessageCreate struct {
	WalletAddress string                 `json:"wallet_address"`
	MessageType   MessageType            `json:"message_type"`
	Content       string                 `json:"content"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// WalletActivity is a transaction recorded against a wallet
type WalletActivity struct {
	ID                   string                 `bson:"id" json:"id"`
	WalletAddress        string                 `bson:"wallet_address" json:"wallet_address"`
	TransactionSignature string                 `bson:"transaction_signature" json:"transaction_signature"`
	TransactionType      TransactionType        `bson:"transaction_type" json:"transaction_type"`
	Amount               float64                `bson:"amount" json:"amount"`
	TokenMint            string                 `bson:"token_mint,omitempty" json:"token_mint,omitempty"`
	Status               TransactionStatus      `bson:"status" json:"status"`
	ServiceName          string                 `bson:"service_name,omitempty" json:"service_name,omitempty"`
	Metadata             map[string]interface{} `bson:"metadata" json:"metadata,omitempty"`
	CreatedAt            Timestamp              `bson:"created_at" json:"created_at"`
	ConfirmedAt          *Timestamp             `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
}

// WalletActivityCreate is the payload of POST /wallet/transaction
type WalletActivityCreate struct {
	WalletAddress        string                 `json:"wallet_address"`
	TransactionSignature string                 `json:"transaction_signature"`
	TransactionType      TransactionType        `json:"transaction_type"`
	Amount               float64                `json:"amount"`
	TokenMint            string                 `json:"token_mint,omitempty"`
	ServiceName          string                 `json:"service_name,omitempty"`
	Metadata             map[string]interface{} `json:"metadata"`
}

// TransactionStatusUpdate is the payload of PATCH /wallet/transaction/:signature
type TransactionStatusUpdate struct {
	Status      TransactionStatus `json:"status"`
	ConfirmedAt *Timestamp        `json:"confirmed_at,omitempty"`
}

// UserSpending aggregates what a wallet has spent
type UserSpending struct {
	ID               string     `bson:"id" json:"id"`
	WalletAddress    string     `bson:"wallet_address" json:"wallet_address"`
	TotalSpentSOL    float64    `bson:"total_spent_sol" json:"total_spent_sol"`
	TotalSpentUSDC   float64    `bson:"total_spent_usdc" json:"total_spent_usdc"`
	TransactionCount int        `bson:"transaction_count" json:"transaction_count"`
	ServicesUsed     int        `bson:"services_used" json:"services_used"`
	LastActivityAt   *Timestamp `bson:"last_activity_at,omitempty" json:"last_activity_at,omitempty"`
	CreatedAt        Timestamp  `bson:"created_at" json:"created_at"`
	UpdatedAt        Timestamp  `bson:"updated_at" json:"updated_at"`
}

// TokenInfo is a row of the token metadata table
type TokenInfo struct {
	ID              string    `bson:"id" json:"id"`
	TokenSymbol     string    `bson:"token_symbol" json:"token_symbol"`
	TokenName       string    `bson:"token_name" json:"token_name"`
	ContractAddress string    `bson:"contract_address" json:"contract_address"`
	Blockchain      string    `bson:"blockchain" json:"blockchain"`
	IsActive        bool      `bson:"is_active" json:"is_active"`
	CreatedAt       Timestamp `bson:"created_at" json:"created_at"`
	UpdatedAt       Timestamp `bson:"updated_at" json:"updated_at"`
}

// Contract returns the tagged contract address of the row
func (t *TokenInfo) Contract() ContractAddress {
	return ParseContractAddress(t.ContractAddress)
}

// TokenInfoUpdate is the payload of PATCH /token/info/:symbol; nil fields are left unchanged
type TokenInfoUpdate struct {
	ContractAddress *string `json:"contract_address,omitempty"`
	TokenName       *string `json:"token_name,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

// StakingConfig describes a stakeable token as stored by the backend
type StakingConfig struct {
	ID                    string    `bson:"id" json:"id"`
	TokenName             string    `bson:"token_name" json:"token_name"`
	TokenSymbol           string    `bson:"token_symbol" json:"token_symbol"`
	TokenAddress          string    `bson:"token_address" json:"token_address"`
	TokenDecimals         int       `bson:"token_decimals" json:"token_decimals"`
	BaseAPY               float64   `bson:"base_apy" json:"base_apy"`
	BoostedAPY            float64   `bson:"boosted_apy" json:"boosted_apy"`
	BoostAmount           float64   `bson:"boost_amount" json:"boost_amount"`
	BoostSource           string    `bson:"boost_source" json:"boost_source"`
	CampaignProgress      float64   `bson:"campaign_progress" json:"campaign_progress"`
	TotalValueLocked      float64   `bson:"total_value_locked" json:"total_value_locked"`
	StakeEnabled          bool      `bson:"stake_enabled" json:"stake_enabled"`
	UnstakeEnabled        bool      `bson:"unstake_enabled" json:"unstake_enabled"`
	LockDurationDays      int       `bson:"lock_duration_days" json:"lock_duration_days"`
	StakingProgramAddress string    `bson:"staking_program_address" json:"staking_program_address"`
	CreatedAt             Timestamp `bson:"created_at" json:"created_at"`
	UpdatedAt             Timestamp `bson:"updated_at" json:"updated_at"`
}

// StakeRecord is one ledger row of a wallet's stake. A nil UnstakeDate means the stake is active.
type StakeRecord struct {
	ID                   string     `bson:"id" json:"id"`
	WalletAddress        string     `bson:"wallet_address" json:"wallet_address"`
	TokenSymbol          string     `bson:"token_symbol" json:"token_symbol"`
	StakedAmount         float64    `bson:"staked_amount" json:"staked_amount"`
	RewardsEarned        float64    `bson:"rewards_earned" json:"rewards_earned"`
	StakeDate            Timestamp  `bson:"stake_date" json:"stake_date"`
	LastClaimDate        *Timestamp `bson:"last_claim_date,omitempty" json:"last_claim_date,omitempty"`
	UnstakeDate          *Timestamp `bson:"unstake_date" json:"unstake_date"`
	TransactionSignature string     `bson:"transaction_signature,omitempty" json:"transaction_signature,omitempty"`
	CreatedAt            Timestamp  `bson:"created_at" json:"created_at"`
}

// Active reports whether the stake has not been withdrawn
func (s *StakeRecord) Active() bool {
	return s.UnstakeDate == nil
}

// StakeCreate is the payload of POST /staking/stakes
type StakeCreate struct {
	WalletAddress        string  `json:"wallet_address"`
	TokenSymbol          string  `json:"token_symbol"`
	Amount               float64 `json:"amount"`
	TransactionSignature string  `json:"transaction_signature"`
}

// UnstakeCreate is the payload of POST /staking/unstake
type UnstakeCreate struct {
	WalletAddress        string  `json:"wallet_address"`
	TokenSymbol          string  `json:"token_symbol"`
	Amount               float64 `json:"amount"`
	TransactionSignature string  `json:"transaction_signature"`
}

// MarketplaceItem is an agent or service listed on the marketplace
type MarketplaceItem struct {
	ID              string    `bson:"id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Description     string    `bson:"description" json:"description"`
	FullDescription string    `bson:"full_description" json:"full_description"`
	Category        string    `bson:"category" json:"category"`
	Type            string    `bson:"type" json:"type"`
	Price           float64   `bson:"price" json:"price"`
	Currency        string    `bson:"currency" json:"currency"`
	Blockchain      string    `bson:"blockchain" json:"blockchain"`
	X402Ready       bool      `bson:"x402_ready" json:"x402_ready"`
	PreviewImage    string    `bson:"preview_image,omitempty" json:"preview_image,omitempty"`
	HasPreview      bool      `bson:"has_preview" json:"has_preview"`
	APIEndpoint     string    `bson:"api_endpoint,omitempty" json:"api_endpoint,omitempty"`
	Executions      int       `bson:"executions" json:"executions"`
	Revenue         float64   `bson:"revenue" json:"revenue"`
	Score           float64   `bson:"score" json:"score"`
	Tags            []string  `bson:"tags" json:"tags"`
	CreatedBy       string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
	IsActive        bool      `bson:"is_active" json:"is_active"`
	AverageRating   float64   `bson:"average_rating" json:"average_rating"`
	ReviewCount     int       `bson:"review_count" json:"review_count"`
	DraftID         string    `bson:"draft_id,omitempty" json:"draft_id,omitempty"`
	CreatedAt       Timestamp `bson:"created_at" json:"created_at"`
	UpdatedAt       Timestamp `bson:"updated_at" json:"updated_at"`
}

// MarketplaceItemCreate is the payload of POST /marketplace/items
type MarketplaceItemCreate struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	FullDescription string   `json:"full_description"`
	Category        string   `json:"category"`
	Price           *float64 `json:"price,omitempty"`
	APIEndpoint     string   `json:"api_endpoint,omitempty"`
	Tags            []string `json:"tags"`
	CreatedBy       string   `json:"created_by,omitempty"`
}

// MarketplacePurchase records a wallet buying a marketplace item
type MarketplacePurchase struct {
	ID                   string    `bson:"id" json:"id"`
	ItemID               string    `bson:"item_id" json:"item_id"`
	BuyerWallet          string    `bson:"buyer_wallet" json:"buyer_wallet"`
	Amount               float64   `bson:"amount" json:"amount"`
	TransactionSignature string    `bson:"transaction_signature,omitempty" json:"transaction_signature,omitempty"`
	Status               string    `bson:"status" json:"status"`
	CreatedAt            Timestamp `bson:"created_at" json:"created_at"`
}

// AgentDraft is an unpublished agent being edited in the agent builder
type AgentDraft struct {
	ID              string    `bson:"id" json:"id"`
	CreatorWallet   string    `bson:"creator_wallet" json:"creator_wallet"`
	Name            string    `bson:"name" json:"name"`
	Description     string    `bson:"description" json:"description"`
	FullDescription string    `bson:"full_description" json:"full_description"`
	Category        string    `bson:"category" json:"category"`
	Price           float64   `bson:"price" json:"price"`
	APIEndpoint     string    `bson:"api_endpoint" json:"api_endpoint"`
	Tags            []string  `bson:"tags" json:"tags"`
	Capabilities    []string  `bson:"capabilities" json:"capabilities"`
	PreviewImages   []string  `bson:"preview_images" json:"preview_images"`
	LastSavedAt     Timestamp `bson:"last_saved_at" json:"last_saved_at"`
	CreatedAt       Timestamp `bson:"created_at" json:"created_at"`
	UpdatedAt       Timestamp `bson:"updated_at" json:"updated_at"`
}

// Default draft values used when a creation payload leaves them out
const (
	DefaultDraftCategory = "AI Agent"
	DefaultDraftPrice    = 0.01
)

// AgentDraftCreate is the payload of POST /agents/drafts
type AgentDraftCreate struct {
	CreatorWallet string   `json:"creator_wallet"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Price         *float64 `json:"price,omitempty"`
}

// AgentReview is a rating left on a marketplace item
type AgentReview struct {
	ID             string    `bson:"id" json:"id"`
	ItemID         string    `bson:"item_id" json:"item_id"`
	ReviewerWallet string    `bson:"reviewer_wallet" json:"reviewer_wallet"`
	Rating         float64   `bson:"rating" json:"rating"`
	ReviewText     string    `bson:"review_text" json:"review_text"`
	HelpfulCount   int       `bson:"helpful_count" json:"helpful_count"`
	CreatedAt      Timestamp `bson:"created_at" json:"created_at"`
	UpdatedAt      Timestamp `bson:"updated_at" json:"updated_at"`
}

// ListingFee records the fee paid to publish a draft to the marketplace
type ListingFee struct {
	ID                   string            `bson:"id" json:"id"`
	ItemID               string            `bson:"item_id,omitempty" json:"item_id,omitempty"`
	CreatorWallet        string            `bson:"creator_wallet" json:"creator_wallet"`
	FeeAmount            float64           `bson:"fee_amount" json:"fee_amount"`
	TransactionSignature string            `bson:"transaction_signature" json:"transaction_signature"`
	RecipientAddress     string            `bson:"recipient_address" json:"recipient_address"`
	Status               TransactionStatus `bson:"status" json:"status"`
	CreatedAt            Timestamp         `bson:"created_at" json:"created_at"`
	ConfirmedAt          *Timestamp        `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
}

// ItemDetail bundles a marketplace item with its reviews
type ItemDetail struct {
	Item    *MarketplaceItem `json:"item"`
	Reviews []AgentReview    `json:"reviews"`
}
