package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fidolity-token-api/internal/models"

	"github.com/joho/godotenv"
)

// DefaultRPCEndpoint is the public JSON-RPC endpoint used when SOLANA_RPC_ENDPOINT is unset
const DefaultRPCEndpoint = "https://api.mainnet-beta.solana.com"

// RPC timing defaults, also applied when a configured value is not positive
const (
	DefaultRPCTimeout          = 30 * time.Second
	DefaultConfirmPollInterval = 500 * time.Millisecond
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	MongoDB   MongoDBConfig   `json:"mongodb"`
	RPC       RPCConfig       `json:"rpc"`
	Cache     CacheConfig     `json:"cache"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
	Token     TokenConfig     `json:"token"`
	Links     LinksConfig     `json:"links"`
	Staking   StakingConfig   `json:"staking"`
	Client    ClientConfig    `json:"client"`
	Profile   ProfileConfig   `json:"profile"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	TVLSchedule  string        `json:"tvl_schedule"`
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI              string        `json:"uri"`
	Database         string        `json:"database"`
	APIKeyCollection string        `json:"api_key_collection"`
	ConnectTimeout   time.Duration `json:"connect_timeout"`
	MaxPoolSize      uint64        `json:"max_pool_size"`
}

// RPCConfig holds Solana RPC configuration
type RPCConfig struct {
	Endpoint            string        `json:"endpoint"`
	Timeout             time.Duration `json:"timeout"`
	MaxRetries          int           `json:"max_retries"`
	RetryDelay          time.Duration `json:"retry_delay"`
	ConfirmPollInterval time.Duration `json:"confirm_poll_interval"`
}

// CacheConfig holds balance cache configuration
type CacheConfig struct {
	TTL             time.Duration `json:"ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	WindowSize        time.Duration `json:"window_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string   `json:"level"`
	Environment string   `json:"environment"`
	OutputPaths []string `json:"output_paths"`
}

// TokenConfig holds the token identity published in config.json
type TokenConfig struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	ContractAddress string `json:"contract_address"`
	Blockchain      string `json:"blockchain"`
	Decimals        int    `json:"decimals"`
}

// LinksConfig holds the external links published in config.json
type LinksConfig struct {
	Website string `json:"website"`
	Twitter string `json:"twitter"`
	GitHub  string `json:"github"`
	Discord string `json:"discord"`
	Docs    string `json:"docs"`
}

// StakingConfig holds staking parameters and the addresses used by the staking flow
type StakingConfig struct {
	Enabled        bool          `json:"enabled"`
	BaseAPY        float64       `json:"base_apy"`
	BoostedAPY     float64       `json:"boosted_apy"`
	TokenAddress   string        `json:"token_address"`
	ProgramAddress string        `json:"program_address"`
	SimulateDelay  time.Duration `json:"simulate_delay"`
}

// ClientConfig holds settings for talking to the backend API and config resource
type ClientConfig struct {
	APIBaseURL string        `json:"api_base_url"`
	ConfigURL  string        `json:"config_url"`
	Timeout    time.Duration `json:"timeout"`
}

// ProfileConfig holds the location of the local profile file
type ProfileConfig struct {
	Path string `json:"path"`
}

// LoadDotEnv loads variables from the given .env files (default ".env") without
// overriding variables already present in the environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8001"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			TVLSchedule:  getEnv("SERVER_TVL_SCHEDULE", "@every 5m"),
		},
		MongoDB: MongoDBConfig{
			URI:              getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:         getEnv("MONGODB_DATABASE", "fidolity_db"),
			APIKeyCollection: getEnv("MONGODB_APIKEY_COLLECTION", "api_keys"),
			ConnectTimeout:   getPositiveDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			MaxPoolSize:      getUint64Env("MONGODB_MAX_POOL_SIZE", 100),
		},
		RPC: RPCConfig{
			Endpoint:            getEnv("SOLANA_RPC_ENDPOINT", DefaultRPCEndpoint),
			Timeout:             getPositiveDurationEnv("SOLANA_RPC_TIMEOUT", DefaultRPCTimeout),
			MaxRetries:          getIntEnv("SOLANA_RPC_MAX_RETRIES", 3),
			RetryDelay:          getDurationEnv("SOLANA_RPC_RETRY_DELAY", 1*time.Second),
			ConfirmPollInterval: getPositiveDurationEnv("SOLANA_RPC_CONFIRM_POLL_INTERVAL", DefaultConfirmPollInterval),
		},
		Cache: CacheConfig{
			TTL:             getPositiveDurationEnv("CACHE_TTL", 10*time.Second),
			CleanupInterval: getPositiveDurationEnv("CACHE_CLEANUP_INTERVAL", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getIntEnv("RATE_LIMIT_REQUESTS_PER_MINUTE", 120),
			WindowSize:        getPositiveDurationEnv("RATE_LIMIT_WINDOW_SIZE", time.Minute),
			CleanupInterval:   getPositiveDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("LOG_ENVIRONMENT", "development"),
			OutputPaths: getStringSliceEnv("LOG_OUTPUT_PATHS", []string{"stdout"}),
		},
		Token: TokenConfig{
			Symbol:          getEnv("TOKEN_SYMBOL", "FDLT"),
			Name:            getEnv("TOKEN_NAME", "Fidolity Token"),
			ContractAddress: getEnv("CONTRACT_ADDRESS", models.UnlaunchedSentinel),
			Blockchain:      getEnv("BLOCKCHAIN", "SOLANA"),
			Decimals:        getIntEnv("TOKEN_DECIMALS", 9),
		},
		Links: LinksConfig{
			Website: getEnv("WEBSITE_URL", "https://fidolity.com"),
			Twitter: getEnv("TWITTER_URL", "https://x.com/fidolity"),
			GitHub:  getEnv("GITHUB_URL", "https://github.com/fidolity"),
			Discord: getEnv("DISCORD_URL", "https://discord.gg/fidolity"),
			Docs:    getEnv("DOCS_URL", "https://docs.fidolity.com"),
		},
		Staking: StakingConfig{
			Enabled:        getBoolEnv("STAKING_ENABLED", false),
			BaseAPY:        getFloatEnv("BASE_APY", 26.18),
			BoostedAPY:     getFloatEnv("BOOSTED_APY", 45.42),
			TokenAddress:   getEnv("STAKING_TOKEN_ADDRESS", models.TokenPlaceholder),
			ProgramAddress: getEnv("STAKING_PROGRAM_ADDRESS", models.StakingProgramPlaceholder),
			SimulateDelay:  getDurationEnv("STAKING_SIMULATE_DELAY", 1500*time.Millisecond),
		},
		Client: ClientConfig{
			APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8001/api"),
			ConfigURL:  getEnv("CONFIG_URL", "http://localhost:8001/config.json"),
			Timeout:    getPositiveDurationEnv("API_TIMEOUT", 15*time.Second),
		},
		Profile: ProfileConfig{
			Path: getEnv("PROFILE_PATH", defaultProfilePath()),
		},
	}
}

// AppConfig renders the public config document served as config.json
func (c *Config) AppConfig() *models.AppConfig {
	return &models.AppConfig{
		Token: models.TokenConfig{
			Symbol:          c.Token.Symbol,
			Name:            c.Token.Name,
			ContractAddress: models.ParseContractAddress(c.Token.ContractAddress),
			Blockchain:      c.Token.Blockchain,
			Decimals:        c.Token.Decimals,
		},
		Links: models.Links{
			Website: c.Links.Website,
			Twitter: c.Links.Twitter,
			GitHub:  c.Links.GitHub,
			Discord: c.Links.Discord,
			Docs:    c.Links.Docs,
		},
		Staking: models.StakingParams{
			Enabled:    c.Staking.Enabled,
			BaseAPY:    c.Staking.BaseAPY,
			BoostedAPY: c.Staking.BoostedAPY,
		},
	}
}

func defaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "fidolity-profile.yaml")
	}
	return filepath.Join(dir, "fidolity", "profile.yaml")
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getUint64Env(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uint64Value, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uint64Value
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getBoolEnv only treats the literal "true" as enabled
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getPositiveDurationEnv is getDurationEnv for values that feed tickers and deadlines,
// where zero or a negative duration is rejected in favor of the default
func getPositiveDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if d := getDurationEnv(key, defaultValue); d > 0 {
		return d
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
