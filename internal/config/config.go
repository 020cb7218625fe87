// Package config holds application settings loaded from a TOML file, with
// a few paths and ports overridable from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file settings.
const (
	EnvDBPath    = "DOOMSDAY_DB_PATH"
	EnvRulesPath = "DOOMSDAY_RULES_PATH"
	EnvDecksDir  = "DOOMSDAY_DECKS_DIR"
	EnvAPIPort   = "DOOMSDAY_API_PORT"
)

// Config represents the application configuration.
type Config struct {
	Rules    RulesConfig    `toml:"rules"`
	Cache    CacheConfig    `toml:"cache"`
	Database DatabaseConfig `toml:"database"`
	Scryfall ScryfallConfig `toml:"scryfall"`
	Engine   EngineConfig   `toml:"engine"`
	API      APIConfig      `toml:"api"`
	Decks    DecksConfig    `toml:"decks"`
	App      AppConfig      `toml:"app"`
}

// RulesConfig locates the rule tables.
type RulesConfig struct {
	Path string `toml:"path"` // Empty uses the built-in tables
}

// CacheConfig contains card cost caching settings.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`  // Resolve costs through the cache and Scryfall
	TTL     string `toml:"ttl"`      // How long a fetched cost is trusted (e.g., "168h")
	MaxSize int    `toml:"max_size"` // In-memory entries (0 = default)
}

// DatabaseConfig locates the SQLite cost cache.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ScryfallConfig configures the card data client.
type ScryfallConfig struct {
	BaseURL   string  `toml:"base_url"`
	UserAgent string  `toml:"user_agent"`
	RateLimit float64 `toml:"rate_limit"` // Requests per second
}

// EngineConfig contains pile enumeration settings.
type EngineConfig struct {
	PileSize int `toml:"pile_size"`
	TopN     int `toml:"top_n"`
	Workers  int `toml:"workers"` // 0 = one per CPU
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DecksConfig locates decklist files.
type DecksConfig struct {
	Dir string `toml:"dir"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "168h",
			MaxSize: 1024,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "costs.db"),
		},
		Scryfall: ScryfallConfig{
			BaseURL:   "https://api.scryfall.com",
			UserAgent: "Doomsday-Companion/1.0",
			RateLimit: 10,
		},
		Engine: EngineConfig{
			PileSize: 5,
			TopN:     10,
		},
		API: APIConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Decks: DecksConfig{
			Dir: filepath.Join(dataDir, "decks"),
		},
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".doomsday"
	}
	return filepath.Join(homeDir, ".doomsday")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.toml")
}

// Load reads the configuration at path on top of the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadEnv loads .env files (missing files are ignored) and applies the
// DOOMSDAY_* overrides. Variables already set in the process win over .env.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvRulesPath); v != "" {
		c.Rules.Path = v
	}
	if v := os.Getenv(EnvDecksDir); v != "" {
		c.Decks.Dir = v
	}
	if v := os.Getenv(EnvAPIPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvAPIPort, v, err)
		}
		c.API.Port = port
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache TTL %q: %w", c.Cache.TTL, err)
	}
	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("cache max size cannot be negative: %d", c.Cache.MaxSize)
	}
	if c.Scryfall.RateLimit < 0 {
		return fmt.Errorf("scryfall rate limit cannot be negative: %v", c.Scryfall.RateLimit)
	}
	if c.Engine.PileSize <= 0 {
		return fmt.Errorf("pile size must be positive: %d", c.Engine.PileSize)
	}
	if c.Engine.TopN <= 0 {
		return fmt.Errorf("top N must be positive: %d", c.Engine.TopN)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("workers cannot be negative: %d", c.Engine.Workers)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", c.API.Port)
	}
	return nil
}

// GetCacheTTL returns the cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}
