// Package config handles configuration loading for TradeWallet.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Wallet  WalletConfig  `mapstructure:"wallet"  yaml:"wallet"`
	Pricing PricingConfig `mapstructure:"pricing" yaml:"pricing"`
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// WalletConfig holds the ledger's persistence location and starter allocation.
type WalletConfig struct {
	File            string             `mapstructure:"file"             yaml:"file"`
	InitialCash     float64            `mapstructure:"initial_cash"     yaml:"initial_cash"`
	InitialHoldings map[string]float64 `mapstructure:"initial_holdings" yaml:"initial_holdings"`
}

// PricingConfig holds price oracle settings.
type PricingConfig struct {
	Source         string             `mapstructure:"source"          yaml:"source"` // "yahoo" or "static"
	CacheTTL       int                `mapstructure:"cache_ttl"       yaml:"cache_ttl"`       // seconds
	RequestTimeout int                `mapstructure:"request_timeout" yaml:"request_timeout"` // seconds
	FallbackPrices map[string]float64 `mapstructure:"fallback_prices" yaml:"fallback_prices"`
	DefaultPrice   float64            `mapstructure:"default_price"   yaml:"default_price"`
}

// LLMConfig holds settings for the upstream decision model.
type LLMConfig struct {
	OpenAIKey   string  `mapstructure:"openai_key"  yaml:"openai_key"`
	BaseURL     string  `mapstructure:"base_url"    yaml:"base_url"` // for Azure OpenAI or proxies
	Model       string  `mapstructure:"model"       yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
}

// NewsConfig holds RSS feed settings for the advisor's headline context.
type NewsConfig struct {
	Feeds        []string `mapstructure:"feeds"         yaml:"feeds"`
	MaxHeadlines int      `mapstructure:"max_headlines" yaml:"max_headlines"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.tradewallet/config.yaml (home directory)
//  3. /etc/tradewallet/config.yaml (system)
//
// Environment variables override config file values.
// Format: TRADEWALLET_<SECTION>_<KEY>, e.g., TRADEWALLET_LLM_OPENAI_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".tradewallet"))
	v.AddConfigPath("/etc/tradewallet")

	v.SetEnvPrefix("TRADEWALLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("TRADEWALLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Wallet defaults: the fixed starter allocation.
	v.SetDefault("wallet.file", "wallet_state.json")
	v.SetDefault("wallet.initial_cash", 50000.0)
	v.SetDefault("wallet.initial_holdings", map[string]float64{
		"BTC":  0.1,
		"ETH":  1.0,
		"SOL":  10.0,
		"NVDA": 5.0,
	})

	// Pricing defaults: live Yahoo quotes, last-known reference prices as
	// fallback, fixed default for entirely unknown symbols.
	v.SetDefault("pricing.source", "yahoo")
	v.SetDefault("pricing.cache_ttl", 300) // 5 minutes
	v.SetDefault("pricing.request_timeout", 30)
	v.SetDefault("pricing.fallback_prices", map[string]float64{
		"BTC":  45000.0,
		"ETH":  3000.0,
		"SOL":  100.0,
		"NVDA": 500.0,
		"TSLA": 250.0,
		"AAPL": 150.0,
	})
	v.SetDefault("pricing.default_price", 100.0)

	// LLM defaults
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1024)

	// News defaults
	v.SetDefault("news.feeds", []string{
		"https://www.coindesk.com/arc/outboundfeeds/rss/",
		"https://finance.yahoo.com/news/rssindex",
	})
	v.SetDefault("news.max_headlines", 5)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("TRADEWALLET_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if cfg.LLM.OpenAIKey == "" {
		// Honor the conventional variable as a fallback.
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.OpenAIKey = key
		}
	}
}

// homeDir returns the user's home directory, or "." if it can't be determined.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
