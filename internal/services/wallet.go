package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// KeypairWallet signs with a local private key. Co-signers cover accounts the
// wallet moves funds out of on its behalf, such as the staking program on unstake.
type KeypairWallet struct {
	key       solana.PrivateKey
	coSigners map[solana.PublicKey]solana.PrivateKey
}

// NewKeypairWallet creates a wallet from key and any co-signing keys
func NewKeypairWallet(key solana.PrivateKey, coSigners ...solana.PrivateKey) *KeypairWallet {
	w := &KeypairWallet{
		key:       key,
		coSigners: make(map[solana.PublicKey]solana.PrivateKey, len(coSigners)),
	}
	for _, k := range coSigners {
		k := k
		w.coSigners[k.PublicKey()] = k
	}
	return w
}

// LoadKeypairWallet reads a base58 private key, or a solana-keygen JSON keypair file path
func LoadKeypairWallet(keyOrPath string, coSigners ...string) (*KeypairWallet, error) {
	key, err := parsePrivateKey(keyOrPath)
	if err != nil {
		return nil, err
	}
	extra := make([]solana.PrivateKey, 0, len(coSigners))
	for _, s := range coSigners {
		k, err := parsePrivateKey(s)
		if err != nil {
			return nil, fmt.Errorf("co-signer: %w", err)
		}
		extra = append(extra, k)
	}
	return NewKeypairWallet(key, extra...), nil
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty private key")
	}
	if _, err := os.Stat(s); err == nil {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(s)
		if err != nil {
			return nil, fmt.Errorf("read keypair file: %w", err)
		}
		return key, nil
	}
	key, err := solana.PrivateKeyFromBase58(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// PublicKey returns the wallet address, or the zero key when no private key is loaded
func (w *KeypairWallet) PublicKey() solana.PublicKey {
	if w == nil || len(w.key) == 0 {
		return solana.PublicKey{}
	}
	return w.key.PublicKey()
}

// SignTransaction signs every required signer slot the wallet holds a key for
func (w *KeypairWallet) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	owner := w.PublicKey()
	_, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(owner) {
			return &w.key
		}
		if k, ok := w.coSigners[pk]; ok {
			return &k
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}

// walletConnected reports whether w can act for a user
func walletConnected(w Wallet) bool {
	if w == nil {
		return false
	}
	if kw, ok := w.(*KeypairWallet); ok && kw == nil {
		return false
	}
	return w.PublicKey() != (solana.PublicKey{})
}
