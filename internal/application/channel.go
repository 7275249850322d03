package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voice-bridge/internal/domain"
)

// PromptOptions controls how a spoken reply is accepted.
type PromptOptions struct {
	// Validate rejects replies; nil accepts any non-empty reply.
	Validate func(utterance string) bool
	// MaxRetries is the number of extra listens after a rejected reply.
	MaxRetries int
	// OnFail returns the phrase spoken after a rejected reply.
	OnFail func(utterance string) string
}

// SpeechChannel is the spoken prompt/response primitive used by a
// conversation. Prompt reports ok=false when no acceptable reply was heard.
type SpeechChannel interface {
	Prompt(ctx context.Context, text string, opts PromptOptions) (string, bool, error)
	Speak(ctx context.Context, text string)
}

// VoiceChannel implements SpeechChannel on top of an audio source, a
// transcriber and a speaker.
type VoiceChannel struct {
	audio         AudioSource
	stt           SpeechToText
	speaker       Speaker
	listenTimeout time.Duration
	logger        *slog.Logger
}

func NewVoiceChannel(audio AudioSource, stt SpeechToText, speaker Speaker, listenTimeout time.Duration, logger *slog.Logger) *VoiceChannel {
	return &VoiceChannel{
		audio:         audio,
		stt:           stt,
		speaker:       speaker,
		listenTimeout: listenTimeout,
		logger:        logger,
	}
}

func (c *VoiceChannel) Speak(ctx context.Context, text string) {
	if text == "" {
		return
	}
	c.logger.Debug("speaking", "text", text)
	if err := c.speaker.Speak(ctx, text); err != nil {
		c.logger.Warn("speaking failed", "error", err)
	}
}

func (c *VoiceChannel) Prompt(ctx context.Context, text string, opts PromptOptions) (string, bool, error) {
	c.Speak(ctx, text)

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		utterance, heard, err := c.listen(ctx)
		if err != nil {
			return "", false, err
		}
		if !heard {
			return "", false, nil
		}

		if opts.Validate == nil || opts.Validate(utterance) {
			return utterance, true, nil
		}

		c.logger.Info("reply rejected", "utterance", utterance, "attempt", attempt)
		if opts.OnFail != nil {
			c.Speak(ctx, opts.OnFail(utterance))
		}
	}

	return "", false, nil
}

// Transcribe turns one captured command into text.
func (c *VoiceChannel) Transcribe(ctx context.Context, data []byte) (string, error) {
	if text, ok := isTextCommand(data); ok {
		return strings.TrimSpace(text), nil
	}
	text, err := c.stt.Transcribe(ctx, data)
	if err != nil {
		return "", fmt.Errorf("transcribing: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (c *VoiceChannel) listen(ctx context.Context) (string, bool, error) {
	listenCtx := ctx
	if c.listenTimeout > 0 {
		var cancel context.CancelFunc
		listenCtx, cancel = context.WithTimeout(ctx, c.listenTimeout)
		defer cancel()
	}

	data, err := c.audio.NextCommand(listenCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			c.logger.Info("no reply before timeout", "timeout", c.listenTimeout)
			return "", false, nil
		}
		return "", false, fmt.Errorf("listening: %w", err)
	}

	text, err := c.Transcribe(ctx, data)
	if err != nil {
		return "", false, err
	}
	if text == "" {
		return "", false, nil
	}

	c.logger.Info("heard", "text", text)
	return text, true, nil
}

func isTextCommand(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}
