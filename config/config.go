package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"voice-bridge/internal/application"
	"voice-bridge/internal/infra"
)

type Config struct {
	Dialogue     DialogueConfig     `yaml:"dialogue"`
	Conversation ConversationConfig `yaml:"conversation"`
	Audio        AudioConfig        `yaml:"audio"`
	OpenAI       OpenAIConfig       `yaml:"openai"`
	Speaker      SpeakerConfig      `yaml:"speaker"`
	Pushover     PushoverConfig     `yaml:"pushover"`
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
}

// DialogueConfig points at the Rasa-compatible dialogue service.
type DialogueConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Token          string        `yaml:"token"`
	ConversationID string        `yaml:"conversation_id"`
	Timeout        time.Duration `yaml:"timeout"`
	// MaxActionsPerTurn defaults to 10 when unset; 0 disables the cap.
	MaxActionsPerTurn *int        `yaml:"max_actions_per_turn"`
	ExecuteListen     bool        `yaml:"execute_listen"`
	Retry             RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

type ConversationConfig struct {
	TriggerPhrases   []string      `yaml:"trigger_phrases"`
	TriggerThreshold float64       `yaml:"trigger_threshold"`
	MatchThreshold   float64       `yaml:"match_threshold"`
	MaxAttempts      *int          `yaml:"max_attempts"`
	ListenTimeout    time.Duration `yaml:"listen_timeout"`
	Phrases          PhrasesConfig `yaml:"phrases"`
}

// PhrasesConfig overrides individual spoken phrases; empty fields keep the
// built-in wording.
type PhrasesConfig struct {
	Connecting    string `yaml:"connecting"`
	Closing       string `yaml:"closing"`
	NoResponse    string `yaml:"no_response"`
	Goodbye       string `yaml:"goodbye"`
	OptionHint    string `yaml:"option_hint"`
	ConfirmIntro  string `yaml:"confirm_intro"`
	ChoiceIntro   string `yaml:"choice_intro"`
	Separator     string `yaml:"separator"`
	NotUnderstood string `yaml:"not_understood"`
}

type AudioConfig struct {
	Source           string        `yaml:"source"`
	HTTPAddr         string        `yaml:"http_addr"`
	FileDir          string        `yaml:"file_dir"`
	SampleRate       int           `yaml:"sample_rate"`
	SilenceThreshold int           `yaml:"silence_threshold"`
	SilenceDuration  time.Duration `yaml:"silence_duration"`
	MaxDuration      time.Duration `yaml:"max_duration"`
	AuthToken        string        `yaml:"auth_token"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

type SpeakerConfig struct {
	// Backend is console, http or pushover. Empty follows the audio source:
	// http sources answer over /replies, everything else prints to stdout.
	Backend string `yaml:"backend"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Title   string `yaml:"title"`
}

type ServerConfig struct {
	HealthAddr string `yaml:"health_addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func intPtr(v int) *int { return &v }

func (c *Config) setDefaults() {
	defaults := application.DefaultConversationConfig()
	retry := infra.DefaultRetryConfig()

	if c.Dialogue.BaseURL == "" {
		c.Dialogue.BaseURL = "http://localhost:5005"
	}
	if c.Dialogue.Timeout == 0 {
		c.Dialogue.Timeout = 10 * time.Second
	}
	if c.Dialogue.MaxActionsPerTurn == nil {
		c.Dialogue.MaxActionsPerTurn = intPtr(defaults.MaxActionsPerTurn)
	}
	if c.Dialogue.Retry.MaxAttempts == 0 {
		c.Dialogue.Retry.MaxAttempts = retry.MaxAttempts
	}
	if c.Dialogue.Retry.InitialDelay == 0 {
		c.Dialogue.Retry.InitialDelay = retry.InitialDelay
	}
	if c.Dialogue.Retry.MaxDelay == 0 {
		c.Dialogue.Retry.MaxDelay = retry.MaxDelay
	}

	if len(c.Conversation.TriggerPhrases) == 0 {
		c.Conversation.TriggerPhrases = []string{"talk to rasa", "chat with rasa"}
	}
	if c.Conversation.TriggerThreshold == 0 {
		c.Conversation.TriggerThreshold = 0.85
	}
	if c.Conversation.MatchThreshold == 0 {
		c.Conversation.MatchThreshold = defaults.MatchThreshold
	}
	if c.Conversation.MaxAttempts == nil {
		c.Conversation.MaxAttempts = intPtr(defaults.MaxAttempts)
	}
	if c.Conversation.ListenTimeout == 0 {
		c.Conversation.ListenTimeout = defaults.ListenTimeout
	}

	if c.Audio.Source == "" {
		c.Audio.Source = "http"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}

	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}

	if c.Speaker.Backend == "" {
		if c.Audio.Source == "http" {
			c.Speaker.Backend = "http"
		} else {
			c.Speaker.Backend = "console"
		}
	}

	if c.Pushover.Title == "" {
		c.Pushover.Title = "rasa"
	}

	if c.Server.HealthAddr == "" {
		c.Server.HealthAddr = ":8081"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Dialogue.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("dialogue.base_url %q must be an absolute URL", c.Dialogue.BaseURL))
	}
	if c.Dialogue.MaxActionsPerTurn != nil && *c.Dialogue.MaxActionsPerTurn < 0 {
		errs = append(errs, errors.New("dialogue.max_actions_per_turn must not be negative"))
	}
	if c.Dialogue.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("dialogue.retry.max_attempts must not be negative"))
	}

	if !inUnitRange(c.Conversation.MatchThreshold) {
		errs = append(errs, errors.New("conversation.match_threshold must be within [0, 1)"))
	}
	if !inUnitRange(c.Conversation.TriggerThreshold) {
		errs = append(errs, errors.New("conversation.trigger_threshold must be within [0, 1)"))
	}
	if c.Conversation.MaxAttempts != nil && *c.Conversation.MaxAttempts < 0 {
		errs = append(errs, errors.New("conversation.max_attempts must not be negative"))
	}

	switch c.Audio.Source {
	case "http", "file", "microphone", "console":
	default:
		errs = append(errs, fmt.Errorf("audio.source %q is not one of http, file, microphone, console", c.Audio.Source))
	}

	switch c.Speaker.Backend {
	case "console":
	case "http":
		if c.Audio.Source != "http" {
			errs = append(errs, errors.New("speaker.backend http requires audio.source http"))
		}
	case "pushover":
		if c.Pushover.Token == "" || c.Pushover.UserKey == "" {
			errs = append(errs, errors.New("speaker.backend pushover requires pushover.token and pushover.user_key"))
		}
	default:
		errs = append(errs, fmt.Errorf("speaker.backend %q is not one of console, http, pushover", c.Speaker.Backend))
	}

	if c.Audio.Source == "microphone" && !c.SpeechEnabled() {
		errs = append(errs, errors.New("audio.source microphone requires openai.api_key or openai.base_url"))
	}

	return errors.Join(errs...)
}

func inUnitRange(v float64) bool {
	return v >= 0 && v < 1
}

// SpeechEnabled reports whether a transcription endpoint is configured.
func (c *Config) SpeechEnabled() bool {
	return c.OpenAI.APIKey != "" || c.OpenAI.BaseURL != ""
}

func (c *Config) RetryConfig() infra.RetryConfig {
	retry := infra.DefaultRetryConfig()
	retry.MaxAttempts = c.Dialogue.Retry.MaxAttempts
	retry.InitialDelay = c.Dialogue.Retry.InitialDelay
	retry.MaxDelay = c.Dialogue.Retry.MaxDelay
	return retry
}

// ConversationSettings merges the conversation and dialogue sections into
// the settings the session controller runs with.
func (c *Config) ConversationSettings() application.ConversationConfig {
	settings := application.DefaultConversationConfig()
	settings.MatchThreshold = c.Conversation.MatchThreshold
	settings.ListenTimeout = c.Conversation.ListenTimeout
	settings.ExecuteListen = c.Dialogue.ExecuteListen
	if c.Conversation.MaxAttempts != nil {
		settings.MaxAttempts = *c.Conversation.MaxAttempts
	}
	if c.Dialogue.MaxActionsPerTurn != nil {
		settings.MaxActionsPerTurn = *c.Dialogue.MaxActionsPerTurn
	}
	settings.Phrases = c.Conversation.Phrases.apply(settings.Phrases)
	return settings
}

func (p PhrasesConfig) apply(base application.Phrases) application.Phrases {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&base.Connecting, p.Connecting)
	override(&base.Closing, p.Closing)
	override(&base.NoResponse, p.NoResponse)
	override(&base.Goodbye, p.Goodbye)
	override(&base.OptionHint, p.OptionHint)
	override(&base.ConfirmIntro, p.ConfirmIntro)
	override(&base.ChoiceIntro, p.ChoiceIntro)
	override(&base.Separator, p.Separator)
	override(&base.NotUnderstood, p.NotUnderstood)
	return base
}
