// Package config provides configuration loading and validation for the
// pipeline, scheduler, and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// ChannelConfig describes one target channel: where its source videos
// come from and how its batches are shaped.
type ChannelConfig struct {
	// Code is the short channel identifier used in paths and job payloads.
	Code string `json:"code" validate:"required,alphanum"`

	// SourceChannelID is the upstream channel to pull candidates from.
	SourceChannelID string `json:"source_channel_id" validate:"required"`

	// Username owns the channel's numbering sequence.
	Username string `json:"username" validate:"required"`

	// DailyVideoCount caps how many videos the scheduler processes for
	// this channel per calendar day.
	DailyVideoCount int `json:"daily_video_count" validate:"min=0"`

	// MinDurationSec and MaxDurationSec bound candidate video length.
	// Zero MaxDurationSec means unbounded.
	MinDurationSec int `json:"min_duration_sec" validate:"min=0"`
	MaxDurationSec int `json:"max_duration_sec" validate:"min=0"`

	// Instruction is prepended to every rewrite prompt for this channel.
	Instruction string `json:"instruction,omitempty"`

	// RefAudio names the voice reference the queue host should use.
	RefAudio string `json:"ref_audio,omitempty"`
}

// Config is the full application configuration, loaded from a JSON file
// with API keys optionally overridden from the environment.
type Config struct {
	// Queue host
	QueueURL    string `json:"queue_url" validate:"required,url"`
	QueueAPIKey string `json:"queue_api_key,omitempty"`

	// Transcript provider
	TranscriptAPIURL string `json:"transcript_api_url,omitempty" validate:"omitempty,url"`
	TranscriptAPIKey string `json:"transcript_api_key,omitempty"`

	// Rewrite backend
	GeminiAPIKey string  `json:"gemini_api_key,omitempty"`
	GeminiModel  string  `json:"gemini_model,omitempty"`
	Temperature  float64 `json:"temperature,omitempty" validate:"min=0,max=2"`

	// Pipeline pacing
	MaxChunkChars int `json:"max_chunk_chars,omitempty" validate:"min=0"`
	ChunkDelayMs  int `json:"chunk_delay_ms,omitempty" validate:"min=0"`
	ItemDelaySec  int `json:"item_delay_sec,omitempty" validate:"min=0"`

	// PriorityUsers submit high-priority jobs; everyone else is normal.
	PriorityUsers []string `json:"priority_users,omitempty"`

	Channels []ChannelConfig `json:"channels" validate:"required,min=1,dive"`

	// Persistence: DatabaseURL selects the Postgres store, otherwise the
	// file store under DataDir is used.
	DataDir     string `json:"data_dir,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`

	// HTTP server
	ServerAddr   string `json:"server_addr,omitempty"`
	ServerAPIKey string `json:"server_api_key,omitempty"`

	// AutoIntervalMin is the scheduler tick interval in minutes.
	AutoIntervalMin int `json:"auto_interval_min,omitempty" validate:"min=0"`
}

// Defaults applied when the config file leaves a field unset.
const (
	DefaultDataDir         = "data"
	DefaultServerAddr      = ":8090"
	DefaultAutoIntervalMin = 60
)

// LoadConfig loads configuration from a JSON file, applies environment
// overrides and defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv fills secrets from the environment when the file omits them.
// The config file stays checked in; keys stay out of it.
func (c *Config) applyEnv() {
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.QueueAPIKey == "" {
		c.QueueAPIKey = os.Getenv("QUEUE_API_KEY")
	}
	if c.TranscriptAPIKey == "" {
		c.TranscriptAPIKey = os.Getenv("TRANSCRIPT_API_KEY")
	}
	if c.ServerAPIKey == "" {
		c.ServerAPIKey = os.Getenv("SERVER_API_KEY")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
	if c.AutoIntervalMin == 0 {
		c.AutoIntervalMin = DefaultAutoIntervalMin
	}
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	seen := make(map[string]bool, len(c.Channels))
	for _, ch := range c.Channels {
		if seen[ch.Code] {
			return fmt.Errorf("config error: duplicate channel code %q", ch.Code)
		}
		seen[ch.Code] = true

		if ch.MaxDurationSec > 0 && ch.MinDurationSec > ch.MaxDurationSec {
			return fmt.Errorf("config error: channel %q min_duration_sec exceeds max_duration_sec", ch.Code)
		}
	}
	return nil
}

// Channel returns the channel config for a code, or nil.
func (c *Config) Channel(code string) *ChannelConfig {
	for i := range c.Channels {
		if c.Channels[i].Code == code {
			return &c.Channels[i]
		}
	}
	return nil
}

// IsPriorityUser reports whether a user's jobs submit at high priority.
func (c *Config) IsPriorityUser(username string) bool {
	for _, u := range c.PriorityUsers {
		if u == username {
			return true
		}
	}
	return false
}
