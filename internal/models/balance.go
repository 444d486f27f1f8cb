package models

// BalanceRequest represents the incoming request for wallet balances
type BalanceRequest struct {
	Wallets []string `json:"wallets"`
}

// BalanceResponse represents the response containing wallet balances
type BalanceResponse struct {
	Balances []WalletBalance `json:"balances"`
	Cached   bool            `json:"cached"`
}

// WalletBalance represents the native balance of a single wallet in SOL
type WalletBalance struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
	Error   string  `json:"error,omitempty"`
}
