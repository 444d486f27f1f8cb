package services

import (
	"context"

	"fidolity-token-api/internal/models"

	"github.com/gagliardetto/solana-go"
)

// AuthServiceInterface defines the interface for authentication services
type AuthServiceInterface interface {
	ValidateAPIKey(ctx context.Context, key string) (*models.APIKey, error)
}

// ChainClient is the subset of Solana JSON-RPC used by the balance and staking services
type ChainClient interface {
	GetBalance(ctx context.Context, address string) (float64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature) error
}

// Wallet holds the user's key and signs transactions on their behalf
type Wallet interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// BalanceServiceInterface defines the interface for balance operations
type BalanceServiceInterface interface {
	GetBalances(ctx context.Context, addresses []string) (*models.BalanceResponse, error)
	GetBalance(ctx context.Context, address string) (*models.WalletBalance, error)
}

// API is the backend REST surface the domain services consume. *apiclient.Client implements it.
type API interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Patch(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string, out interface{}) error
}
