package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"
	"fidolity-token-api/pkg/metrics"
	"fidolity-token-api/pkg/mutex"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Signature prefixes of the simulated path
const (
	SimulatedStakePrefix   = "simulated_stake_"
	SimulatedUnstakePrefix = "simulated_unstake_"
)

// LedgerError reports a transfer that landed on chain but could not be recorded by the backend.
// The transfer is not rolled back.
type LedgerError struct {
	Signature string
	Err       error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("transfer %s succeeded but recording failed: %v", e.Signature, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

// StakingOptions configures a StakingService
type StakingOptions struct {
	// TokenSymbol is the symbol stake and unstake records are written under
	TokenSymbol string
	// SimulateDelay is how long the simulated path waits before returning
	SimulateDelay time.Duration
	Metrics       *metrics.MetricsCollector
}

// StakingService moves native tokens between a wallet and the staking program
// and keeps the backend stake ledger in step
type StakingService struct {
	chain         ChainClient
	api           API
	tokenSymbol   string
	simulateDelay time.Duration
	locks         *mutex.KeyedMutex
	metrics       *metrics.MetricsCollector
	logger        *logger.Logger
	now           func() time.Time
}

// NewStakingService creates a StakingService
func NewStakingService(chain ChainClient, api API, opts StakingOptions) *StakingService {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMetricsCollector()
	}
	return &StakingService{
		chain:         chain,
		api:           api,
		tokenSymbol:   opts.TokenSymbol,
		simulateDelay: opts.SimulateDelay,
		locks:         mutex.New(5 * time.Minute),
		metrics:       opts.Metrics,
		logger:        logger.GetLogger().Component("staking"),
		now:           time.Now,
	}
}

// Stop releases background resources
func (s *StakingService) Stop() {
	s.locks.Stop()
}

// GetTokenBalance returns the wallet's balance. Placeholder tokens report a fixed demo
// balance; lookup failures degrade to zero.
func (s *StakingService) GetTokenBalance(ctx context.Context, walletAddress, tokenAddress string) float64 {
	if tokenAddress == models.TokenPlaceholder {
		return models.PlaceholderBalance
	}

	balance, err := s.chain.GetBalance(ctx, walletAddress)
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to get token balance",
			zap.String("wallet_address", walletAddress),
			zap.Error(err),
		)
		return 0
	}
	return balance
}

// GetStakedAmount returns the total of the wallet's active stakes of symbol, or zero
func (s *StakingService) GetStakedAmount(ctx context.Context, walletAddress, symbol string) float64 {
	var stakes []models.StakeRecord
	if err := s.api.Get(ctx, "/staking/stakes/"+url.PathEscape(walletAddress), &stakes); err != nil {
		s.logger.WithContext(ctx).Error("Failed to get staked amount",
			zap.String("wallet_address", walletAddress),
			zap.Error(err),
		)
		return 0
	}

	matching := stakes[:0]
	for _, stake := range stakes {
		if stake.TokenSymbol == symbol {
			matching = append(matching, stake)
		}
	}
	return SumActiveStakes(matching)
}

// GetTotalValueLocked sums the active stakes of symbol across all wallets
func (s *StakingService) GetTotalValueLocked(ctx context.Context, symbol string) float64 {
	var stakes []models.StakeRecord
	path := "/staking/stakes?token_symbol=" + url.QueryEscape(symbol)
	if err := s.api.Get(ctx, path, &stakes); err != nil {
		s.logger.WithContext(ctx).Error("Failed to get TVL", zap.String("token_symbol", symbol), zap.Error(err))
		return 0
	}
	return SumActiveStakes(stakes)
}

// SumActiveStakes adds up the amounts of stakes with no unstake date
func SumActiveStakes(stakes []models.StakeRecord) float64 {
	total := decimal.Zero
	for _, stake := range stakes {
		if stake.Active() {
			total = total.Add(decimal.NewFromFloat(stake.StakedAmount))
		}
	}
	f, _ := total.Float64()
	return f
}

// StakeTokens transfers amount from the wallet to the staking program and records the stake.
// Placeholder addresses select the simulated path, which only waits and returns a fake signature.
func (s *StakingService) StakeTokens(ctx context.Context, wallet Wallet, tokenAddress string, amount float64, programAddress string) (string, error) {
	return s.move(ctx, wallet, tokenAddress, amount, programAddress, true)
}

// UnstakeTokens transfers amount from the staking program back to the wallet and records it
func (s *StakingService) UnstakeTokens(ctx context.Context, wallet Wallet, tokenAddress string, amount float64, programAddress string) (string, error) {
	return s.move(ctx, wallet, tokenAddress, amount, programAddress, false)
}

func (s *StakingService) move(ctx context.Context, wallet Wallet, tokenAddress string, amount float64, programAddress string, stake bool) (string, error) {
	op := "unstake"
	if stake {
		op = "stake"
	}

	if !walletConnected(wallet) {
		return "", fmt.Errorf("%s failed: %w", op, models.ErrWalletNotConnected)
	}
	if amount <= 0 {
		return "", fmt.Errorf("%s failed: amount must be positive", op)
	}

	owner := wallet.PublicKey()
	log := s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"operation":      op,
		"wallet_address": owner.String(),
		"amount":         amount,
	})

	var signature string
	err := s.locks.WithLock(owner.String(), func() error {
		var err error
		if models.ResolveEnvironment(tokenAddress, programAddress) == models.SimulatedEnvironment {
			signature, err = s.simulate(ctx, op)
			if err == nil {
				s.metrics.RecordSimulatedStake()
			}
		} else {
			signature, err = s.transfer(ctx, wallet, programAddress, amount, stake)
			s.metrics.RecordTransfer(err == nil)
		}
		if err != nil {
			return err
		}

		if err := s.record(ctx, owner.String(), amount, signature, stake); err != nil {
			s.metrics.RecordLedgerWriteError()
			return &LedgerError{Signature: signature, Err: err}
		}
		return nil
	})
	if err != nil {
		log.Error("Staking operation failed", zap.Error(err))
		var ledgerErr *LedgerError
		if errors.As(err, &ledgerErr) {
			return signature, fmt.Errorf("%s failed: %w", op, err)
		}
		return "", fmt.Errorf("%s failed: %w", op, err)
	}

	log.Info("Staking operation completed", zap.String("signature", signature))
	return signature, nil
}

func (s *StakingService) simulate(ctx context.Context, op string) (string, error) {
	prefix := SimulatedUnstakePrefix
	if op == "stake" {
		prefix = SimulatedStakePrefix
	}
	signature := prefix + strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + randomSuffix(6)

	if s.simulateDelay > 0 {
		timer := time.NewTimer(s.simulateDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return signature, nil
}

// transfer builds, signs, submits and confirms a system transfer. The wallet pays fees in both
// directions. Order is fixed: blockhash, sign, submit, confirm.
func (s *StakingService) transfer(ctx context.Context, wallet Wallet, programAddress string, amount float64, stake bool) (string, error) {
	program, err := solana.PublicKeyFromBase58(programAddress)
	if err != nil {
		return "", fmt.Errorf("invalid staking program address: %w", err)
	}
	lamports, err := SOLToLamports(amount)
	if err != nil {
		return "", err
	}

	owner := wallet.PublicKey()
	from, to := owner, program
	if !stake {
		from, to = program, owner
	}

	blockhash, err := s.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return "", err
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, from, to).Build()},
		blockhash,
		solana.TransactionPayer(owner),
	)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	if err := wallet.SignTransaction(ctx, tx); err != nil {
		return "", err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}

	sig, err := s.chain.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", err
	}

	if err := s.chain.ConfirmTransaction(ctx, sig); err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (s *StakingService) record(ctx context.Context, walletAddress string, amount float64, signature string, stake bool) error {
	if stake {
		return s.api.Post(ctx, "/staking/stakes", models.StakeCreate{
			WalletAddress:        walletAddress,
			TokenSymbol:          s.tokenSymbol,
			Amount:               amount,
			TransactionSignature: signature,
		}, nil)
	}
	return s.api.Post(ctx, "/staking/unstake", models.UnstakeCreate{
		WalletAddress:        walletAddress,
		TokenSymbol:          s.tokenSymbol,
		Amount:               amount,
		TransactionSignature: signature,
	}, nil)
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}
