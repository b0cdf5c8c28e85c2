// Package config provides configuration management for the portfolio analyst.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Pipeline    PipelineConfig `mapstructure:"pipeline"`
	Schedule    ScheduleConfig `mapstructure:"schedule"`
	Server      ServerConfig   `mapstructure:"server"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
}

// PipelineConfig holds research pipeline configuration.
type PipelineConfig struct {
	PortfolioPath    string        `mapstructure:"portfolio_path"`
	MaxConcurrent    int           `mapstructure:"max_concurrent"`
	NewsLookbackDays int           `mapstructure:"news_lookback_days"`
	NewsLimit        int           `mapstructure:"news_limit"`
	ProviderTimeout  time.Duration `mapstructure:"provider_timeout"`
}

// ScheduleConfig holds cron scheduling configuration.
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
	ChatID   string `mapstructure:"chat_id"`
}

// ServerConfig holds webhook server configuration.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI  OpenAICredentials  `mapstructure:"openai"`
	Finnhub FinnhubCredentials `mapstructure:"finnhub"`
	Feishu  FeishuCredentials  `mapstructure:"feishu"`
}

// OpenAICredentials holds reasoning-model credentials. BaseURL supports
// Azure-OpenAI-compatible endpoints.
type OpenAICredentials struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// FinnhubCredentials holds the Finnhub API key.
type FinnhubCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// FeishuCredentials holds Feishu bot credentials. EncryptKey is optional;
// webhook signature verification is skipped when it is empty.
type FeishuCredentials struct {
	AppID      string `mapstructure:"app_id"`
	AppSecret  string `mapstructure:"app_secret"`
	EncryptKey string `mapstructure:"encrypt_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/portfolio-analyst"
	}
	return filepath.Join(home, ".config", "portfolio-analyst")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	// Load main config
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadConfigFile(configDir, "credentials", &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			PortfolioPath:    "portfolio.json",
			MaxConcurrent:    5,
			NewsLookbackDays: 7,
			NewsLimit:        6,
			ProviderTimeout:  30 * time.Second,
		},
		Schedule: ScheduleConfig{
			Cron:     "0 9 * * 1-5",
			Timezone: "Asia/Shanghai",
		},
		Server: ServerConfig{
			ListenAddr: ":8000",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		// Missing files are fine; defaults and env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return v.Unmarshal(target)
}

// applyEnvOverrides applies environment variable overrides. Variable names
// follow the service's original deployment conventions.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AOAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Credentials.OpenAI.APIKey == "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("AOAI_ENDPOINT"); v != "" {
		cfg.Credentials.OpenAI.BaseURL = v
	}
	if v := os.Getenv("AOAI_DEPLOYMENT"); v != "" {
		cfg.Credentials.OpenAI.Model = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Credentials.Finnhub.APIKey = v
	}
	if v := os.Getenv("FEISHU_APP_ID"); v != "" {
		cfg.Credentials.Feishu.AppID = v
	}
	if v := os.Getenv("FEISHU_APP_SECRET"); v != "" {
		cfg.Credentials.Feishu.AppSecret = v
	}
	if v := os.Getenv("FEISHU_ENCRYPT_KEY"); v != "" {
		cfg.Credentials.Feishu.EncryptKey = v
	}
	if v := os.Getenv("FEISHU_CHAT_ID"); v != "" {
		cfg.Schedule.ChatID = v
	}
	if v := os.Getenv("SCHEDULE_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("SCHEDULE_TZ"); v != "" {
		cfg.Schedule.Timezone = v
	}
	if v := os.Getenv("PORTFOLIO_PATH"); v != "" {
		cfg.Pipeline.PortfolioPath = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Pipeline.MaxConcurrent <= 0 {
		return fmt.Errorf("pipeline.max_concurrent must be positive, got %d", c.Pipeline.MaxConcurrent)
	}
	if c.Pipeline.NewsLookbackDays <= 0 {
		return fmt.Errorf("pipeline.news_lookback_days must be positive, got %d", c.Pipeline.NewsLookbackDays)
	}
	if c.Pipeline.NewsLimit <= 0 {
		return fmt.Errorf("pipeline.news_limit must be positive, got %d", c.Pipeline.NewsLimit)
	}
	if c.Pipeline.ProviderTimeout <= 0 {
		return fmt.Errorf("pipeline.provider_timeout must be positive, got %s", c.Pipeline.ProviderTimeout)
	}
	if c.Pipeline.PortfolioPath == "" {
		return fmt.Errorf("pipeline.portfolio_path is required")
	}
	if c.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is required")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return nil
}
