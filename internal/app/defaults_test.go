package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bsdata-go/internal/repodata"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("BSDATA_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("BSDATA_HOME", "/custom/bsdata")
		t.Setenv("BSDATA_CACHE_TTL", "90m")
		t.Setenv("BSDATA_BASE_URL", "https://data.example.com")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if d.ConfigPath != "/custom/config.toml" {
			t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, "/custom/config.toml")
		}
		if d.BaseDir != "/custom/bsdata" {
			t.Errorf("BaseDir = %q, want %q", d.BaseDir, "/custom/bsdata")
		}
		if d.LogDir != "/custom/bsdata/log" {
			t.Errorf("LogDir = %q, want %q", d.LogDir, "/custom/bsdata/log")
		}
		if d.DBDir != "/custom/bsdata/db" {
			t.Errorf("DBDir = %q, want %q", d.DBDir, "/custom/bsdata/db")
		}
		if d.CacheTTL != 90*time.Minute {
			t.Errorf("CacheTTL = %v, want %v", d.CacheTTL, 90*time.Minute)
		}
		if d.BaseURL != "https://data.example.com" {
			t.Errorf("BaseURL = %q, want %q", d.BaseURL, "https://data.example.com")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("BSDATA_CONFIG_PATH", "")
		t.Setenv("BSDATA_HOME", "")
		t.Setenv("BSDATA_CACHE_TTL", "")
		t.Setenv("BSDATA_BASE_URL", "")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "bsdata.toml")
		if d.ConfigPath != wantConfig {
			t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "bsdata")
		if d.BaseDir != wantBase {
			t.Errorf("BaseDir = %q, want %q", d.BaseDir, wantBase)
		}
		if d.LogDir != filepath.Join(wantBase, "log") {
			t.Errorf("LogDir = %q", d.LogDir)
		}
		if d.CacheTTL != repodata.DefaultCacheTTL {
			t.Errorf("CacheTTL = %v, want %v", d.CacheTTL, repodata.DefaultCacheTTL)
		}
		if d.BaseURL != "" {
			t.Errorf("BaseURL = %q, want empty", d.BaseURL)
		}
	})

	t.Run("rejects an invalid cache ttl", func(t *testing.T) {
		t.Setenv("BSDATA_CACHE_TTL", "tomorrow")

		if _, err := GetDefaults(); err == nil {
			t.Error("GetDefaults() expected error for invalid BSDATA_CACHE_TTL")
		}
	})
}

func TestDefaults_NewConfig(t *testing.T) {
	d := &Defaults{
		BaseDir:  "/srv/bsdata",
		LogDir:   "/var/log/bsdata",
		DBDir:    "/srv/bsdata/db",
		CacheTTL: 2 * time.Hour,
		BaseURL:  "https://data.example.com",
	}

	cfg := d.NewConfig("instance-1")

	if cfg.InstanceID != "instance-1" || cfg.BaseDir != "/srv/bsdata" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogDir != "/var/log/bsdata" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/var/log/bsdata")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/srv/bsdata/db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	ttl, err := cfg.Cache.Duration(time.Minute)
	if err != nil || ttl != 2*time.Hour {
		t.Errorf("Cache.Duration() = %v, %v, want 2h", ttl, err)
	}
	if cfg.Repository.BaseURL != "https://data.example.com" {
		t.Errorf("Repository.BaseURL = %q", cfg.Repository.BaseURL)
	}
}
