package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fidolity-token-api/internal/config"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

var lamportsPerSOL = decimal.NewFromInt(LamportsPerSOL)

// ErrTransactionFailed is returned when a submitted transaction lands with an error
var ErrTransactionFailed = errors.New("transaction failed on chain")

// SolanaClient wraps the Solana RPC client with configuration
type SolanaClient struct {
	client *rpc.Client
	config *config.RPCConfig
}

// NewSolanaClient creates a client for the configured endpoint. A non-positive timeout or
// confirmation poll interval is replaced by its default.
func NewSolanaClient(cfg *config.RPCConfig) *SolanaClient {
	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = config.DefaultRPCTimeout
	}
	if c.ConfirmPollInterval <= 0 {
		c.ConfirmPollInterval = config.DefaultConfirmPollInterval
	}
	return &SolanaClient{
		client: rpc.New(c.Endpoint),
		config: &c,
	}
}

// GetBalance fetches the native balance of address in SOL, retrying transient failures
func (s *SolanaClient) GetBalance(ctx context.Context, address string) (float64, error) {
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid wallet address: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		balance, err := s.client.GetBalance(attemptCtx, pubKey, rpc.CommitmentConfirmed)
		cancel()

		if err == nil {
			return LamportsToSOL(balance.Value), nil
		}
		lastErr = err

		if attempt < s.config.MaxRetries {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(s.config.RetryDelay * time.Duration(attempt+1)):
			}
		}
	}

	return 0, fmt.Errorf("failed to get balance from RPC after %d attempts: %w", s.config.MaxRetries+1, lastErr)
}

// GetLatestBlockhash returns a recent blockhash at confirmed commitment
func (s *SolanaClient) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	res, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return res.Value.Blockhash, nil
}

// SendRawTransaction submits a signed, serialized transaction
func (s *SolanaClient) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	sig, err := s.client.SendRawTransaction(ctx, raw)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls the signature status until it reaches confirmed commitment,
// the transaction reports an error, or ctx ends. Without a deadline on ctx the RPC
// timeout bounds the wait.
func (s *SolanaClient) ConfirmTransaction(ctx context.Context, sig solana.Signature) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(s.config.ConfirmPollInterval)
	defer ticker.Stop()

	for {
		res, err := s.client.GetSignatureStatuses(ctx, true, sig)
		if err == nil && res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("confirmation of %s timed out: %w", sig, err)
			}
			return fmt.Errorf("confirmation of %s timed out: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// IsHealthy checks if the RPC endpoint is responsive
func (s *SolanaClient) IsHealthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized); err != nil {
		return fmt.Errorf("RPC health check failed: %w", err)
	}
	return nil
}

// LamportsToSOL converts a lamport amount to SOL
func LamportsToSOL(lamports uint64) float64 {
	f, _ := decimal.New(int64(lamports), -9).Float64()
	return f
}

// SOLToLamports converts a SOL amount to lamports, rounding down
func SOLToLamports(amount float64) (uint64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %v", amount)
	}
	lamports := decimal.NewFromFloat(amount).Mul(lamportsPerSOL).Floor()
	if !lamports.IsPositive() {
		return 0, fmt.Errorf("amount %v is below one lamport", amount)
	}
	return lamports.BigInt().Uint64(), nil
}
