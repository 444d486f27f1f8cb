package models

import (
	"encoding/json"
	"strings"
)

const (
	// UnlaunchedSentinel is the wire value of a contract address before launch
	UnlaunchedSentinel = "soon"

	// TokenPlaceholder marks a demo token address that routes staking through the simulated path
	TokenPlaceholder = "DevnetTokenPlaceholder"
	// StakingProgramPlaceholder marks a demo staking program address
	StakingProgramPlaceholder = "DevnetStakingPlaceholder"

	// PlaceholderBalance is reported for any wallet when the token address is a placeholder
	PlaceholderBalance = 10000
)

// ContractAddress is either Unlaunched or Live(address).
type ContractAddress struct {
	address string
}

// Unlaunched returns the contract address of a token that is not live yet
func Unlaunched() ContractAddress { return ContractAddress{} }

// Live returns the contract address of a launched token
func Live(address string) ContractAddress {
	return ContractAddress{address: strings.TrimSpace(address)}
}

// ParseContractAddress maps the wire representation to a ContractAddress.
// The sentinel "soon" (any case) and the empty string are Unlaunched.
func ParseContractAddress(s string) ContractAddress {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, UnlaunchedSentinel) {
		return Unlaunched()
	}
	return Live(s)
}

// IsLive reports whether the token has a real on-chain address
func (c ContractAddress) IsLive() bool { return c.address != "" }

// Address returns the on-chain address and whether the token is live
func (c ContractAddress) Address() (string, bool) { return c.address, c.IsLive() }

// String returns the wire representation
func (c ContractAddress) String() string {
	if !c.IsLive() {
		return UnlaunchedSentinel
	}
	return c.address
}

func (c ContractAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ContractAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseContractAddress(s)
	return nil
}

// Environment selects between the simulated and live staking paths
type Environment int

const (
	LiveEnvironment Environment = iota
	SimulatedEnvironment
)

func (e Environment) String() string {
	if e == SimulatedEnvironment {
		return "simulated"
	}
	return "live"
}

// ResolveEnvironment returns SimulatedEnvironment when either address is a known placeholder
func ResolveEnvironment(tokenAddress, programAddress string) Environment {
	if IsPlaceholderAddress(tokenAddress) || IsPlaceholderAddress(programAddress) {
		return SimulatedEnvironment
	}
	return LiveEnvironment
}

// IsPlaceholderAddress reports whether address is one of the demo sentinels
func IsPlaceholderAddress(address string) bool {
	return address == TokenPlaceholder || address == StakingProgramPlaceholder
}

// TokenConfig describes the token identity shown to users
type TokenConfig struct {
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	ContractAddress ContractAddress `json:"contractAddress"`
	Blockchain      string          `json:"blockchain"`
	Decimals        int             `json:"decimals"`
}

// Links holds the project's external links
type Links struct {
	Website string `json:"website"`
	Twitter string `json:"twitter"`
	GitHub  string `json:"github"`
	Discord string `json:"discord"`
	Docs    string `json:"docs"`
}

// StakingParams holds the staking parameters shown on the staking page
type StakingParams struct {
	Enabled    bool    `json:"enabled"`
	BaseAPY    float64 `json:"baseAPY"`
	BoostedAPY float64 `json:"boostedAPY"`
}

// AppConfig is the document served as config.json
type AppConfig struct {
	Token   TokenConfig   `json:"token"`
	Links   Links         `json:"links"`
	Staking StakingParams `json:"staking"`
}

// Clone returns a copy safe to hand to callers. AppConfig holds no references.
func (a *AppConfig) Clone() *AppConfig {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// DefaultAppConfig is returned whenever the config resource cannot be loaded
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Token: TokenConfig{
			Symbol:          "FDLT",
			Name:            "Fidolity Token",
			ContractAddress: Unlaunched(),
			Blockchain:      "SOLANA",
			Decimals:        9,
		},
		Links: Links{
			Website: "https://fidolity.com",
			Twitter: "https://x.com/fidolity",
			GitHub:  "https://github.com/fidolity",
			Discord: "https://discord.gg/fidolity",
			Docs:    "https://docs.fidolity.com",
		},
		Staking: StakingParams{
			Enabled:    false,
			BaseAPY:    26.18,
			BoostedAPY: 45.42,
		},
	}
}
