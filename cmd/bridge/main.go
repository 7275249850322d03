package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"voice-bridge/config"
	"voice-bridge/internal/application"
	"voice-bridge/internal/health"
	"voice-bridge/internal/infra/audio"
	"voice-bridge/internal/infra/console"
	"voice-bridge/internal/infra/openai"
	"voice-bridge/internal/infra/pushover"
	"voice-bridge/internal/infra/rasa"
	"voice-bridge/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audioSource := createAudioSource(cfg.Audio, logger)
	speaker := createSpeaker(cfg, audioSource, logger)
	stt := createSpeechToText(cfg.OpenAI, logger)

	dialogue := rasa.NewClient(cfg.Dialogue.BaseURL, cfg.Dialogue.Token, cfg.Dialogue.Timeout, cfg.RetryConfig())
	trigger := application.NewTrigger(cfg.Conversation.TriggerPhrases, cfg.Conversation.TriggerThreshold)
	promMetrics := metrics.NewMetrics()

	assistant := application.NewAssistant(
		audioSource,
		stt,
		speaker,
		dialogue,
		trigger,
		cfg.Dialogue.ConversationID,
		cfg.ConversationSettings(),
		promMetrics,
		logger,
	)

	if httpSource, ok := audioSource.(*audio.HTTPSource); ok {
		httpSource.OnStop(assistant.Stop)
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		assistant.Stop()
		cancel()
	}()

	healthServer := health.New(cfg.Server.HealthAddr, promMetrics.Handler(), logger)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			logger.Error("health server error", "error", err)
		}
	}()
	go func() {
		select {
		case <-assistant.Ready():
			healthServer.SetReady(true)
		case <-ctx.Done():
		}
	}()

	logger.Info("starting voice bridge",
		"audio_source", cfg.Audio.Source,
		"speaker", cfg.Speaker.Backend,
		"dialogue_url", cfg.Dialogue.BaseURL,
	)

	if err := assistant.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case "file":
		return audio.NewFileSource(cfg.FileDir)
	case "microphone":
		return audio.NewMicrophoneSource(audio.MicrophoneConfig{
			SampleRate:       cfg.SampleRate,
			SilenceThreshold: int16(cfg.SilenceThreshold),
			SilenceDuration:  cfg.SilenceDuration,
			MaxDuration:      cfg.MaxDuration,
		}, logger)
	case "console":
		return console.NewSource(os.Stdin)
	default:
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	}
}

func createSpeaker(cfg *config.Config, source application.AudioSource, logger *slog.Logger) application.Speaker {
	switch cfg.Speaker.Backend {
	case "http":
		if httpSource, ok := source.(*audio.HTTPSource); ok {
			return httpSource
		}
		logger.Warn("http speaker needs the http audio source, using console")
		return console.NewSpeaker(os.Stdout)
	case "pushover":
		return pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey, cfg.Pushover.Title)
	default:
		return console.NewSpeaker(os.Stdout)
	}
}

func createSpeechToText(cfg config.OpenAIConfig, logger *slog.Logger) application.SpeechToText {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		logger.Info("speech-to-text disabled, only text commands are understood")
		return &application.NoopSTT{}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openai.DefaultBaseURL
	}
	return openai.NewWhisperClientWithURL(cfg.APIKey, cfg.Language, baseURL, cfg.Model)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
