// Package config loads console configuration from file and environment.
//
// Configuration is read from siteadmin.yaml, searched in the working
// directory and in ~/.config/siteadmin/. Every key can be overridden with
// a SITEADMIN_ environment variable; in particular the write token is
// normally supplied as SITEADMIN_WRITE_TOKEN rather than stored in a file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all console settings.
type Config struct {
	// Endpoint is the document store's base URL.
	Endpoint string `mapstructure:"endpoint"`

	// Dataset selects the content dataset (default "production").
	Dataset string `mapstructure:"dataset"`

	// WriteToken authorizes saves. Empty means read-only: loads work,
	// every save is rejected before any network call.
	WriteToken string `mapstructure:"write_token"`

	// DraftsDir is the directory the watch daemon scans for draft files.
	DraftsDir string `mapstructure:"drafts_dir"`

	// JournalPath is the save journal database file.
	JournalPath string `mapstructure:"journal_path"`

	// PreviewPort is the preview WebSocket server port.
	PreviewPort int `mapstructure:"preview_port"`

	// LogFile receives daemon logs. Empty logs to stderr only.
	LogFile string `mapstructure:"log_file"`
}

// Load reads configuration. When path is non-empty that exact file is
// used; otherwise the standard search locations apply. A missing config
// file is not an error as long as the endpoint is supplied some other way.
// A non-empty endpoint argument (the --endpoint flag) wins over both file
// and environment.
func Load(path, endpoint string) (*Config, error) {
	v := viper.New()

	v.SetDefault("dataset", "production")
	v.SetDefault("drafts_dir", "drafts")
	v.SetDefault("journal_path", defaultJournalPath())
	v.SetDefault("preview_port", 7777)
	v.SetDefault("write_token", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("log_file", "")

	if endpoint != "" {
		v.Set("endpoint", endpoint)
	}

	v.SetEnvPrefix("SITEADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("siteadmin")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "siteadmin"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint configured (set endpoint in siteadmin.yaml or SITEADMIN_ENDPOINT)")
	}
	return &cfg, nil
}

func defaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".siteadmin", "journal.db")
	}
	return filepath.Join(home, ".siteadmin", "journal.db")
}
