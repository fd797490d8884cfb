package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

type Config struct {
	Server struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Subpath   string `json:"subpath"`
		JWTSecret string `json:"jwtSecret"`
	} `json:"server"`
	Database struct {
		Driver string `json:"driver"` // "sqlite" or "postgres"; empty disables transcripts
		DSN    string `json:"dsn"`
	} `json:"database"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	Bot struct {
		Name       string `json:"name"`        // display name used in transcripts and the CLI
		ScriptPath string `json:"script_path"` // empty = built-in script
		TopicsPath string `json:"topics_path"` // empty = built-in registry
	} `json:"bot"`
	History struct {
		URL            string `json:"url"` // empty disables history seeding
		Token          string `json:"token"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	} `json:"history"`
	Recommend struct {
		URL             string `json:"url"`      // empty disables recommendations
		ItemURL         string `json:"item_url"` // template with {itemId} and {locator}
		TimeoutSeconds  int    `json:"timeout_seconds"`
		CacheTTLMinutes int    `json:"cache_ttl_minutes"`
		FetchTitles     bool   `json:"fetch_titles"`
	} `json:"recommend"`
}

// BotName returns the configured display name, defaulting to SuperFlowBot.
func (c *Config) BotName() string {
	if c.Bot.Name == "" {
		return "SuperFlowBot"
	}
	return c.Bot.Name
}

// HistoryTimeout returns the history gateway timeout, defaulting to 10s.
func (c *Config) HistoryTimeout() time.Duration {
	if c.History.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.History.TimeoutSeconds) * time.Second
}

// RecommendTimeout returns the recommendation gateway timeout, defaulting to 10s.
func (c *Config) RecommendTimeout() time.Duration {
	if c.Recommend.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Recommend.TimeoutSeconds) * time.Second
}

// RecommendCacheTTL returns the per-topic cache lifetime, defaulting to 30m.
func (c *Config) RecommendCacheTTL() time.Duration {
	if c.Recommend.CacheTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Recommend.CacheTTLMinutes) * time.Minute
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton)
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		// Minimal validation
		if c.Server.JWTSecret == "" {
			cfgErr = errors.New("jwtSecret must be set in config")
			return
		}
		if c.Database.Driver != "" && c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
			cfgErr = fmt.Errorf("unsupported database driver %q", c.Database.Driver)
			return
		}
		cfg = &c
	})
	return cfg, cfgErr
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
