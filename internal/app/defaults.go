package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bsdata-go/internal/config"
	"bsdata-go/internal/repodata"
)

// Defaults holds the settings bsdata uses before a config file exists.
// Environment variables:
//   - BSDATA_CONFIG_PATH: config file location (default: ~/.config/bsdata.toml)
//   - BSDATA_HOME: base directory for logs and the run history (default: ~/.local/share/bsdata)
//   - BSDATA_CACHE_TTL: how long a built repository stays fresh (default: 24h)
//   - BSDATA_BASE_URL: URL repositories are served under (default: none)
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
	DBDir      string
	CacheTTL   time.Duration
	BaseURL    string
}

// GetDefaults resolves Defaults from the environment and the home directory.
func GetDefaults() (*Defaults, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	ttl, err := getCacheTTL()
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		DBDir:      filepath.Join(baseDir, "db"),
		CacheTTL:   ttl,
		BaseURL:    os.Getenv("BSDATA_BASE_URL"),
	}, nil
}

// NewConfig returns the config `bsdata config init` writes for a new instance.
func (d *Defaults) NewConfig(instanceID string) *config.Config {
	cfg := config.NewConfig(instanceID, d.BaseDir)
	cfg.LogDir = d.LogDir
	cfg.Database.DataDir = d.DBDir
	cfg.Cache.TTL = d.CacheTTL.String()
	cfg.Repository.BaseURL = d.BaseURL
	return cfg
}

// getConfigPath returns the config file path, checking BSDATA_CONFIG_PATH env var first,
// then falling back to the default ~/.config/bsdata.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("BSDATA_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "bsdata.toml"), nil
}

// getBaseDir returns the base directory for bsdata state, checking BSDATA_HOME env var first,
// then falling back to the XDG default ~/.local/share/bsdata.
func getBaseDir() (string, error) {
	if path := os.Getenv("BSDATA_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "bsdata"), nil
}

// getCacheTTL parses BSDATA_CACHE_TTL with the same rules as the [cache]
// config section.
func getCacheTTL() (time.Duration, error) {
	ttl, err := config.CacheConfig{TTL: os.Getenv("BSDATA_CACHE_TTL")}.Duration(repodata.DefaultCacheTTL)
	if err != nil {
		return 0, fmt.Errorf("BSDATA_CACHE_TTL: %w", err)
	}
	return ttl, nil
}
