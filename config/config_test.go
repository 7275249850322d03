package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5005", cfg.Dialogue.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Dialogue.Timeout)
	assert.Equal(t, 10, *cfg.Dialogue.MaxActionsPerTurn)
	assert.Equal(t, []string{"talk to rasa", "chat with rasa"}, cfg.Conversation.TriggerPhrases)
	assert.Equal(t, 0.85, cfg.Conversation.TriggerThreshold)
	assert.Equal(t, 0.6, cfg.Conversation.MatchThreshold)
	assert.Equal(t, 3, *cfg.Conversation.MaxAttempts)
	assert.Equal(t, "http", cfg.Audio.Source)
	assert.Equal(t, "http", cfg.Speaker.Backend)
	assert.Equal(t, ":8081", cfg.Server.HealthAddr)
	assert.Equal(t, "info", cfg.Log.Level)

	settings := cfg.ConversationSettings()
	assert.Equal(t, 3, settings.MaxAttempts)
	assert.Equal(t, 10, settings.MaxActionsPerTurn)
	assert.False(t, settings.ExecuteListen)
	assert.Equal(t, "disconnecting from rasa", settings.Phrases.Closing)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RASA_TOKEN", "s3cret")

	cfg, err := Load(writeConfig(t, `
dialogue:
  base_url: http://rasa.internal:5005/
  token: ${RASA_TOKEN}
  conversation_id: kitchen
  timeout: 3s
  max_actions_per_turn: 0
  execute_listen: true
  retry:
    max_attempts: 5
    initial_delay: 50ms
conversation:
  trigger_phrases: ["hey bot"]
  match_threshold: 0.7
  max_attempts: 0
  listen_timeout: 5s
  phrases:
    closing: "bye for now"
audio:
  source: console
`))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Dialogue.Token)
	assert.Equal(t, "kitchen", cfg.Dialogue.ConversationID)
	assert.Equal(t, 3*time.Second, cfg.Dialogue.Timeout)
	assert.Equal(t, "console", cfg.Speaker.Backend)

	retry := cfg.RetryConfig()
	assert.Equal(t, 5, retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, retry.InitialDelay)
	assert.Equal(t, 5*time.Second, retry.MaxDelay)

	settings := cfg.ConversationSettings()
	assert.Equal(t, 0, settings.MaxActionsPerTurn)
	assert.Equal(t, 0, settings.MaxAttempts)
	assert.True(t, settings.ExecuteListen)
	assert.Equal(t, 0.7, settings.MatchThreshold)
	assert.Equal(t, 5*time.Second, settings.ListenTimeout)
	assert.Equal(t, "bye for now", settings.Phrases.Closing)
	assert.Equal(t, "Or", settings.Phrases.Separator)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "relative dialogue url",
			content: "dialogue:\n  base_url: localhost:5005/api\n",
			wantErr: "dialogue.base_url",
		},
		{
			name:    "unknown audio source",
			content: "audio:\n  source: bluetooth\n",
			wantErr: "audio.source",
		},
		{
			name:    "http speaker without http source",
			content: "audio:\n  source: file\nspeaker:\n  backend: http\n",
			wantErr: "speaker.backend http",
		},
		{
			name:    "pushover without credentials",
			content: "speaker:\n  backend: pushover\n",
			wantErr: "pushover.token",
		},
		{
			name:    "threshold out of range",
			content: "conversation:\n  match_threshold: 1.5\n",
			wantErr: "conversation.match_threshold",
		},
		{
			name:    "negative action cap",
			content: "dialogue:\n  max_actions_per_turn: -1\n",
			wantErr: "dialogue.max_actions_per_turn",
		},
		{
			name:    "microphone without speech endpoint",
			content: "audio:\n  source: microphone\n",
			wantErr: "openai.api_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "dialogue: [unterminated\n"))
	assert.ErrorContains(t, err, "parsing config")
}
