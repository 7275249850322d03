package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Assistant waits for a trigger utterance and then hands the audio channel to
// a SessionController until that conversation ends.
type Assistant struct {
	audio          AudioSource
	channel        *VoiceChannel
	dialogue       DialogueService
	trigger        *Trigger
	conversationID string
	cfg            ConversationConfig
	metrics        Metrics
	logger         *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	current *SessionController
}

// NewAssistant builds the host loop. An empty conversationID gives every
// conversation its own freshly generated id.
func NewAssistant(
	audio AudioSource,
	stt SpeechToText,
	speaker Speaker,
	dialogue DialogueService,
	trigger *Trigger,
	conversationID string,
	cfg ConversationConfig,
	metrics Metrics,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		audio:          audio,
		channel:        NewVoiceChannel(audio, stt, speaker, cfg.ListenTimeout, logger),
		dialogue:       dialogue,
		trigger:        trigger,
		conversationID: conversationID,
		cfg:            cfg,
		metrics:        metrics,
		logger:         logger,
		ready:          make(chan struct{}),
	}
}

func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting audio source", "source", a.audio.Name())
	if err := a.audio.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer a.audio.Stop()

	a.logger.Info("assistant ready, waiting for trigger phrase")
	a.readyOnce.Do(func() { close(a.ready) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneCommand(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, io.EOF) {
					a.logger.Info("audio source exhausted")
					return nil
				}
				a.logger.Error("processing command", "error", err)
			}
		}
	}
}

// Ready is closed once the audio source is started and the assistant is
// waiting for a trigger phrase.
func (a *Assistant) Ready() <-chan struct{} {
	return a.ready
}

// Stop asks the live conversation, if any, to end after its current turn.
func (a *Assistant) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		a.logger.Info("stopping conversation", "conversation_id", a.current.Session().ID())
		a.current.Stop()
	}
}

func (a *Assistant) processOneCommand(ctx context.Context) error {
	data, err := a.audio.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting audio: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	text, err := a.channel.Transcribe(ctx, data)
	if err != nil {
		return err
	}

	if !a.trigger.Matches(text) {
		a.logger.Debug("ignoring utterance without trigger", "text", text)
		return nil
	}

	a.logger.Info("trigger detected", "text", text)
	return a.converse(ctx)
}

func (a *Assistant) converse(ctx context.Context) error {
	id := a.conversationID
	if id == "" {
		id = uuid.NewString()
	}

	controller := NewSessionController(id, a.channel, a.dialogue, a.cfg, a.metrics, a.logger)

	a.mu.Lock()
	a.current = controller
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.current = nil
		a.mu.Unlock()
	}()

	if err := controller.Run(ctx); err != nil {
		return fmt.Errorf("conversation %s: %w", id, err)
	}
	return nil
}
