package application

import (
	"context"
	"fmt"
	"log/slog"

	"voice-bridge/internal/domain"
)

// SessionController runs one conversation: it relays each user utterance to
// the dialogue service, speaks the replies and collects the next utterance,
// until the session is stopped or no further reply is available.
type SessionController struct {
	session       *Session
	channel       SpeechChannel
	loop          *ActionLoop
	disambiguator *Disambiguator
	phrases       Phrases
	metrics       Metrics
	logger        *slog.Logger
}

func NewSessionController(
	conversationID string,
	channel SpeechChannel,
	dialogue DialogueService,
	cfg ConversationConfig,
	metrics Metrics,
	logger *slog.Logger,
) *SessionController {
	session := NewSession(conversationID)
	logger = logger.With("conversation_id", conversationID)

	return &SessionController{
		session:       session,
		channel:       channel,
		loop:          NewActionLoop(dialogue, session, cfg, metrics, logger),
		disambiguator: NewDisambiguator(channel, cfg, metrics, logger),
		phrases:       cfg.Phrases,
		metrics:       metrics,
		logger:        logger,
	}
}

func (c *SessionController) Session() *Session { return c.session }

// Stop ends the conversation after the turn in flight completes.
func (c *SessionController) Stop() {
	c.session.Stop()
}

func (c *SessionController) Run(ctx context.Context) error {
	c.metrics.ConversationStarted()

	prompt, ok, err := c.channel.Prompt(ctx, c.phrases.Connecting, PromptOptions{})
	if err != nil {
		c.metrics.ConversationEnded(EndReasonError)
		return fmt.Errorf("opening conversation: %w", err)
	}
	c.session.Activate()
	c.logger.Info("conversation started")

	turn := 0
	for ok && c.session.Active() {
		turn++
		prompt, ok, err = c.runTurn(ctx, prompt)
		if err != nil {
			c.metrics.ConversationEnded(EndReasonError)
			return fmt.Errorf("turn %d: %w", turn, err)
		}
		c.metrics.TurnCompleted()
	}

	c.session.Stop()
	c.channel.Speak(ctx, c.phrases.Closing)
	c.metrics.ConversationEnded(EndReasonCompleted)
	c.logger.Info("conversation finished", "turns", turn)
	return nil
}

func (c *SessionController) runTurn(ctx context.Context, utterance string) (string, bool, error) {
	messages, err := c.loop.Run(ctx, utterance)
	if err != nil {
		return "", false, err
	}

	if len(messages) > 1 {
		for _, m := range messages[:len(messages)-1] {
			c.channel.Speak(ctx, m.Content())
		}
	}
	if len(messages) == 0 {
		messages = []domain.Message{domain.TextMessage{Text: c.phrases.NoResponse}}
	}

	return c.disambiguator.Resolve(ctx, messages[len(messages)-1])
}
