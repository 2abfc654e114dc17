// Package config provides the TOML configuration schema and loader for the
// NaariGuard server.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Logging       LoggingConfig       `toml:"logging"`
	Storage       StorageConfig       `toml:"storage"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Detection     DetectionConfig     `toml:"detection"`
	Escalation    EscalationConfig    `toml:"escalation"`
	Listener      ListenerConfig      `toml:"listener"`
	Sweeper       SweeperConfig       `toml:"sweeper"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ReadTimeoutSec     int      `toml:"read_timeout_seconds"`
	WriteTimeoutSec    int      `toml:"write_timeout_seconds"`
}

// Addr returns the listen address in host:port form
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StorageConfig holds metadata and audio artifact storage settings
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"`
	// AudioDir is the root directory for stored audio artifacts
	AudioDir string `toml:"audio_dir"`
	// SigningSecret signs playback locators. Overridable via NAARIGUARD_SIGNING_SECRET.
	SigningSecret string `toml:"signing_secret"`
	// PlaybackTTLSeconds is the lifetime of a signed playback locator
	PlaybackTTLSeconds int `toml:"playback_ttl_seconds"`
}

// TranscriptionConfig holds speech-to-text client settings
type TranscriptionConfig struct {
	// APIKey authenticates against the transcription gateway.
	// Overridable via OPENAI_API_KEY.
	APIKey string `toml:"api_key"`
	// BaseURL points at an OpenAI-compatible transcription endpoint
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DetectionConfig holds keyword matching settings
type DetectionConfig struct {
	// CustomKeywords extends the built-in safety keyword catalogue.
	// Applied between sessions only; a running detection pass never
	// observes a mutation.
	CustomKeywords []string `toml:"custom_keywords"`
	// FuzzyThreshold is the minimum character-overlap similarity for
	// single-word fuzzy matches
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	// PhoneticEnabled turns on the experimental phonetic matching pass.
	// Disabled by default to keep detection behavior unchanged.
	PhoneticEnabled bool `toml:"phonetic_enabled"`
	// PhoneticThreshold is the minimum Jaro-Winkler score for the
	// phonetic pass
	PhoneticThreshold float64 `toml:"phonetic_threshold"`
}

// EscalationConfig holds emergency notification settings
type EscalationConfig struct {
	// Message is the alert text sent to emergency contacts when no
	// caller-supplied message is present
	Message string `toml:"message"`
}

// ListenerConfig holds passive listener settings
type ListenerConfig struct {
	Enabled bool `toml:"enabled"`
	// SourceURL is the audio feed to monitor (e.g. an IP microphone)
	SourceURL string `toml:"source_url"`
	// OwnerID is the user the monitored recordings belong to
	OwnerID        string `toml:"owner_id"`
	WindowSeconds  int    `toml:"window_seconds"`
	ChunkMs        int    `toml:"chunk_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SweeperConfig holds orphan cleanup settings
type SweeperConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
	// GraceSeconds is how long a recording may stay flagged for deletion
	// before the sweeper reaps it
	GraceSeconds int `toml:"grace_seconds"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			SQLitePath:         "naariguard.db",
			AudioDir:           "audio_recordings",
			PlaybackTTLSeconds: 3600,
		},
		Transcription: TranscriptionConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "whisper-1",
			TimeoutSeconds: 60,
		},
		Detection: DetectionConfig{
			FuzzyThreshold:    0.8,
			PhoneticThreshold: 0.85,
		},
		Escalation: EscalationConfig{
			Message: "Emergency keywords were detected in an audio recording.",
		},
		Listener: ListenerConfig{
			WindowSeconds:  30,
			ChunkMs:        1000,
			TimeoutSeconds: 30,
		},
		Sweeper: SweeperConfig{
			Enabled:         true,
			IntervalSeconds: 300,
			GraceSeconds:    600,
		},
	}
}

// Load reads the configuration file at path, applies defaults for missing
// fields and environment overrides for secrets
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Transcription.APIKey = v
	}
	if v := os.Getenv("NAARIGUARD_SIGNING_SECRET"); v != "" {
		cfg.Storage.SigningSecret = v
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path must not be empty")
	}
	if c.Storage.AudioDir == "" {
		return fmt.Errorf("storage.audio_dir must not be empty")
	}
	if c.Storage.PlaybackTTLSeconds <= 0 {
		return fmt.Errorf("storage.playback_ttl_seconds must be positive")
	}
	if c.Detection.FuzzyThreshold <= 0 || c.Detection.FuzzyThreshold > 1 {
		return fmt.Errorf("detection.fuzzy_threshold must be in (0, 1]")
	}
	if c.Detection.PhoneticEnabled && (c.Detection.PhoneticThreshold <= 0 || c.Detection.PhoneticThreshold > 1) {
		return fmt.Errorf("detection.phonetic_threshold must be in (0, 1]")
	}
	if c.Listener.Enabled {
		if c.Listener.SourceURL == "" {
			return fmt.Errorf("listener.source_url is required when the listener is enabled")
		}
		if c.Listener.OwnerID == "" {
			return fmt.Errorf("listener.owner_id is required when the listener is enabled")
		}
		if c.Listener.WindowSeconds <= 0 {
			return fmt.Errorf("listener.window_seconds must be positive")
		}
	}
	if c.Sweeper.Enabled && c.Sweeper.IntervalSeconds <= 0 {
		return fmt.Errorf("sweeper.interval_seconds must be positive")
	}
	return nil
}
