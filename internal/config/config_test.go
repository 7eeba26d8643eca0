package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))
	return tmpFile
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfigFile(t, `{
		"queue_url": "http://localhost:8000",
		"queue_api_key": "qk",
		"priority_users": ["alice"],
		"max_chunk_chars": 5000,
		"channels": [
			{
				"code": "newsdaily",
				"source_channel_id": "UC123",
				"username": "alice",
				"daily_video_count": 3,
				"min_duration_sec": 120,
				"max_duration_sec": 1800,
				"instruction": "Keep it calm."
			}
		]
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "http://localhost:8000", cfg.QueueURL)
	assert.Equal(t, 5000, cfg.MaxChunkChars)
	require.Len(t, cfg.Channels, 1)
	assert.Equal(t, "newsdaily", cfg.Channels[0].Code)
	assert.Equal(t, 3, cfg.Channels[0].DailyVideoCount)

	// Defaults applied for unset fields.
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultServerAddr, cfg.ServerAddr)
	assert.Equal(t, DefaultAutoIntervalMin, cfg.AutoIntervalMin)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_MissingChannels(t *testing.T) {
	path := writeConfigFile(t, `{"queue_url": "http://localhost:8000"}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_DuplicateChannelCode(t *testing.T) {
	cfg := &Config{
		QueueURL: "http://localhost:8000",
		Channels: []ChannelConfig{
			{Code: "newsdaily", SourceChannelID: "UC1", Username: "alice"},
			{Code: "newsdaily", SourceChannelID: "UC2", Username: "bob"},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate channel code")
}

func TestValidate_DurationBounds(t *testing.T) {
	cfg := &Config{
		QueueURL: "http://localhost:8000",
		Channels: []ChannelConfig{
			{Code: "newsdaily", SourceChannelID: "UC1", Username: "alice",
				MinDurationSec: 600, MaxDurationSec: 120},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_duration_sec exceeds max_duration_sec")
}

func TestIsPriorityUser(t *testing.T) {
	cfg := &Config{PriorityUsers: []string{"alice", "carol"}}

	assert.True(t, cfg.IsPriorityUser("alice"))
	assert.False(t, cfg.IsPriorityUser("bob"))
	assert.False(t, cfg.IsPriorityUser(""))
}

func TestChannel_Lookup(t *testing.T) {
	cfg := &Config{
		Channels: []ChannelConfig{
			{Code: "newsdaily", SourceChannelID: "UC1", Username: "alice"},
		},
	}

	require.NotNil(t, cfg.Channel("newsdaily"))
	assert.Equal(t, "UC1", cfg.Channel("newsdaily").SourceChannelID)
	assert.Nil(t, cfg.Channel("missing"))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")
	t.Setenv("QUEUE_API_KEY", "env-queue-key")

	path := writeConfigFile(t, `{
		"queue_url": "http://localhost:8000",
		"channels": [{"code": "newsdaily", "source_channel_id": "UC1", "username": "alice"}]
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-gemini-key", cfg.GeminiAPIKey)
	assert.Equal(t, "env-queue-key", cfg.QueueAPIKey)
}

func TestLoadConfig_FileKeyWinsOverEnv(t *testing.T) {
	t.Setenv("QUEUE_API_KEY", "env-queue-key")

	path := writeConfigFile(t, `{
		"queue_url": "http://localhost:8000",
		"queue_api_key": "file-queue-key",
		"channels": [{"code": "newsdaily", "source_channel_id": "UC1", "username": "alice"}]
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "file-queue-key", cfg.QueueAPIKey)
}
