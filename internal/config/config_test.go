package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Detection.FuzzyThreshold != 0.8 {
		t.Errorf("FuzzyThreshold = %v, want 0.8", cfg.Detection.FuzzyThreshold)
	}
	if cfg.Storage.PlaybackTTLSeconds != 3600 {
		t.Errorf("PlaybackTTLSeconds = %d, want 3600", cfg.Storage.PlaybackTTLSeconds)
	}
	if !cfg.Sweeper.Enabled {
		t.Error("sweeper disabled by default")
	}
	if cfg.Listener.Enabled {
		t.Error("listener enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090

[detection]
custom_keywords = ["chor", "bachao jaldi"]
fuzzy_threshold = 0.9

[listener]
enabled = true
source_url = "http://mic.local/stream"
owner_id = "user-1"
window_seconds = 15
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want default", cfg.Server.Host)
	}
	if len(cfg.Detection.CustomKeywords) != 2 {
		t.Errorf("CustomKeywords = %v", cfg.Detection.CustomKeywords)
	}
	if cfg.Detection.FuzzyThreshold != 0.9 {
		t.Errorf("FuzzyThreshold = %v, want 0.9", cfg.Detection.FuzzyThreshold)
	}
	if !cfg.Listener.Enabled || cfg.Listener.WindowSeconds != 15 {
		t.Errorf("Listener = %+v", cfg.Listener)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NAARIGUARD_SIGNING_SECRET", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transcription.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.Transcription.APIKey)
	}
	if cfg.Storage.SigningSecret != "env-secret" {
		t.Errorf("SigningSecret = %q", cfg.Storage.SigningSecret)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"empty sqlite path", func(c *Config) { c.Storage.SQLitePath = "" }},
		{"empty audio dir", func(c *Config) { c.Storage.AudioDir = "" }},
		{"bad ttl", func(c *Config) { c.Storage.PlaybackTTLSeconds = -1 }},
		{"bad fuzzy threshold", func(c *Config) { c.Detection.FuzzyThreshold = 1.5 }},
		{"listener without source", func(c *Config) { c.Listener.Enabled = true }},
		{"bad sweeper interval", func(c *Config) { c.Sweeper.IntervalSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
