package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	History    HistoryConfig    `mapstructure:"history"`
	UI         UIConfig         `mapstructure:"ui"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// APIConfig holds the photo search API configuration
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	ClientID string        `mapstructure:"client_id"` // Unsplash access key
	PerPage  int           `mapstructure:"per_page"`  // 0 = server default
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds image cache configuration
type CacheConfig struct {
	Dir            string `mapstructure:"dir"` // "" disables the disk tier
	MemoryCapacity int    `mapstructure:"memory_capacity"`
}

// PaginationConfig holds pagination tuning
type PaginationConfig struct {
	Debounce       time.Duration `mapstructure:"debounce"`
	DefaultRowSize int           `mapstructure:"default_row_size"`
}

// HistoryConfig holds search history configuration
type HistoryConfig struct {
	Dir string `mapstructure:"dir"` // "" keeps history in memory only
}

// UIConfig holds UI configuration
type UIConfig struct {
	ThumbnailVariant string `mapstructure:"thumbnail_variant"`
	HistorySize      int    `mapstructure:"history_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.unsplash.com",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Dir:            defaultCachePath(),
			MemoryCapacity: 100,
		},
		Pagination: PaginationConfig{
			Debounce:       100 * time.Millisecond,
			DefaultRowSize: 10,
		},
		History: HistoryConfig{
			Dir: filepath.Join(defaultDataPath(), "history"),
		},
		UI: UIConfig{
			ThumbnailVariant: "thumb",
			HistorySize:      8,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// flagKeys maps command line flags onto config keys
var flagKeys = map[string]string{
	"client-id": "api.client_id",
	"per-page":  "api.per_page",
	"cache-dir": "cache.dir",
	"log-level": "logging.level",
}

// RegisterFlags adds the flags that override config keys
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("client-id", "", "Unsplash access key (overrides api.client_id)")
	flags.Int("per-page", 0, "results per page (overrides api.per_page)")
	flags.String("cache-dir", "", "image cache directory (overrides cache.dir)")
	flags.String("log-level", "", "DEBUG, INFO, WARN or ERROR (overrides logging.level)")
}

// defaultDataPath returns the directory for logs and history on the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shutter")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shutter")
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	return filepath.Join(defaultDataPath(), "shutter.log")
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shutter")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shutter")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "shutter", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shutter", "cache")
	}
}

// LoadConfig loads configuration from file, .env files, the environment
// and flags, in increasing order of precedence. flags may be nil.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	if err := loadDotEnv(".env", ".env.local"); err != nil {
		return nil, err
	}
	return loadConfig(viper.GetViper(), defaultConfigPath(), flags)
}

func loadConfig(v *viper.Viper, configDir string, flags *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Environment variable overrides: SHUTTER_API_CLIENT_ID etc.
	v.SetEnvPrefix("SHUTTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.client_id", cfg.API.ClientID)
	v.SetDefault("api.per_page", cfg.API.PerPage)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.memory_capacity", cfg.Cache.MemoryCapacity)
	v.SetDefault("pagination.debounce", cfg.Pagination.Debounce)
	v.SetDefault("pagination.default_row_size", cfg.Pagination.DefaultRowSize)
	v.SetDefault("history.dir", cfg.History.Dir)
	v.SetDefault("ui.thumbnail_variant", cfg.UI.ThumbnailVariant)
	v.SetDefault("ui.history_size", cfg.UI.HistorySize)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// loadDotEnv loads the given .env files, skipping the ones that do not exist
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// SaveConfig saves the configuration to the default config file
func SaveConfig(cfg *Config) error {
	return saveConfig(viper.GetViper(), defaultConfigPath(), cfg)
}

func saveConfig(v *viper.Viper, configDir string, cfg *Config) error {
	// Ensure config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.client_id", cfg.API.ClientID)
	v.Set("api.per_page", cfg.API.PerPage)
	v.Set("api.timeout", cfg.API.Timeout.String())

	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("cache.memory_capacity", cfg.Cache.MemoryCapacity)

	v.Set("pagination.debounce", cfg.Pagination.Debounce.String())
	v.Set("pagination.default_row_size", cfg.Pagination.DefaultRowSize)

	v.Set("history.dir", cfg.History.Dir)

	v.Set("ui.thumbnail_variant", cfg.UI.ThumbnailVariant)
	v.Set("ui.history_size", cfg.UI.HistorySize)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configDir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if an API access key is set
func (c *Config) IsConfigured() bool {
	return c.API.ClientID != ""
}
