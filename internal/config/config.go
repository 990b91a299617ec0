package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	ImageStoreFile = "file"
	ImageStoreBolt = "bolt"

	EnvPrefix = "CLIPBOARD_PLUS"
)

type Config struct {
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	MonitorInterval  int      `json:"monitor_interval_ms" mapstructure:"monitor_interval_ms"`
	SourceAppCommand []string `json:"source_app_command" mapstructure:"source_app_command"`

	ImageStore  string `json:"image_store" mapstructure:"image_store"`
	PruneImages bool   `json:"prune_images" mapstructure:"prune_images"`

	// Retention settings. RetentionDays <= 0 disables automatic purging.
	RetentionDays          int `json:"retention_days" mapstructure:"retention_days"`
	CleanupIntervalMinutes int `json:"cleanup_interval_minutes" mapstructure:"cleanup_interval_minutes"`

	CheckUpdatesOnStartup bool `json:"check_updates_on_startup" mapstructure:"check_updates_on_startup"`
	Verbose               bool `json:"verbose" mapstructure:"verbose"`
}

func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),

		MonitorInterval:  500,
		SourceAppCommand: []string{},

		ImageStore:  ImageStoreFile,
		PruneImages: true,

		RetentionDays:          0,
		CleanupIntervalMinutes: 60,

		CheckUpdatesOnStartup: false,
		Verbose:               false,
	}
}

func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return ".clipboard-plus"
	}
	return filepath.Join(homeDir, ".clipboard-plus")
}

// DefaultPath is where the config lives when no path is given.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.json")
}

// Load reads the JSON config at path on top of the defaults. A missing file is
// not an error. Environment variables prefixed with CLIPBOARD_PLUS_ override
// file values, e.g. CLIPBOARD_PLUS_RETENTION_DAYS=30.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.validate()

	return config, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("data_dir", c.DataDir)
	v.SetDefault("monitor_interval_ms", c.MonitorInterval)
	v.SetDefault("source_app_command", c.SourceAppCommand)
	v.SetDefault("image_store", c.ImageStore)
	v.SetDefault("prune_images", c.PruneImages)
	v.SetDefault("retention_days", c.RetentionDays)
	v.SetDefault("cleanup_interval_minutes", c.CleanupIntervalMinutes)
	v.SetDefault("check_updates_on_startup", c.CheckUpdatesOnStartup)
	v.SetDefault("verbose", c.Verbose)
}

func (c *Config) Save(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) validate() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = 500
	}
	switch strings.ToLower(strings.TrimSpace(c.ImageStore)) {
	case ImageStoreBolt:
		c.ImageStore = ImageStoreBolt
	default:
		c.ImageStore = ImageStoreFile
	}
	if c.RetentionDays < 0 {
		c.RetentionDays = 0
	}
	if c.CleanupIntervalMinutes <= 0 {
		c.CleanupIntervalMinutes = 60
	}
}

func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "clipboard.db")
}

func (c *Config) ImagesDir() string {
	return filepath.Join(c.DataDir, "images")
}

func (c *Config) ImagesDBPath() string {
	return filepath.Join(c.DataDir, "images.db")
}
