// Package display formats addresses and token amounts for human-readable output.
package display

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Default truncation widths used by ShortAddress
const (
	DefaultPrefix = 6
	DefaultSuffix = 6
)

// TruncateAddress keeps the first prefix and last suffix characters of address
// joined by "...". Addresses no longer than prefix+suffix are returned unchanged.
func TruncateAddress(address string, prefix, suffix int) string {
	if prefix < 0 || suffix < 0 || len(address) <= prefix+suffix {
		return address
	}
	return address[:prefix] + "..." + address[len(address)-suffix:]
}

// ShortAddress truncates address with the default 6/6 widths
func ShortAddress(address string) string {
	return TruncateAddress(address, DefaultPrefix, DefaultSuffix)
}

// ExplorerURL links address on the block explorer of blockchain, or "" when none is known
func ExplorerURL(blockchain, address string) string {
	if address == "" {
		return ""
	}
	switch strings.ToUpper(blockchain) {
	case "SOLANA":
		return "https://solscan.io/token/" + address
	default:
		return ""
	}
}

// FormatTokenAmount renders amount with at most decimals fractional digits, trailing zeros trimmed
func FormatTokenAmount(amount float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return decimal.NewFromFloat(amount).Truncate(int32(decimals)).String()
}
