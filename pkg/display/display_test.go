package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateAddress(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		prefix   int
		suffix   int
		expected string
	}{
		{"wrapped SOL mint", "So11111111111111111111111111111111111111112", 6, 6, "So1111...111112"},
		{"four char suffix", "So11111111111111111111111111111111111111112", 6, 4, "So1111...1112"},
		{"exactly prefix plus suffix", "abcdefghijkl", 6, 6, "abcdefghijkl"},
		{"short", "abc", 6, 6, "abc"},
		{"empty", "", 6, 6, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateAddress(tt.address, tt.prefix, tt.suffix))
		})
	}
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "So1111...111112", ShortAddress("So11111111111111111111111111111111111111112"))
}

func TestExplorerURL(t *testing.T) {
	assert.Equal(t, "https://solscan.io/token/abc", ExplorerURL("SOLANA", "abc"))
	assert.Equal(t, "https://solscan.io/token/abc", ExplorerURL("solana", "abc"))
	assert.Empty(t, ExplorerURL("ETHEREUM", "abc"))
	assert.Empty(t, ExplorerURL("SOLANA", ""))
}

func TestFormatTokenAmount(t *testing.T) {
	assert.Equal(t, "1.5", FormatTokenAmount(1.5, 9))
	assert.Equal(t, "10000", FormatTokenAmount(10000, 9))
	assert.Equal(t, "0.12", FormatTokenAmount(0.129, 2))
	assert.Equal(t, "3", FormatTokenAmount(3.7, 0))
}
