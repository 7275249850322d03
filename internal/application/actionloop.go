package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"voice-bridge/internal/domain"
)

var ErrNoPrediction = errors.New("dialogue service returned no action scores")

// ActionLoop runs one user turn against the dialogue service: append the
// utterance, then execute predicted actions until the service wants to listen.
type ActionLoop struct {
	dialogue DialogueService
	session  *Session
	cfg      ConversationConfig
	metrics  Metrics
	logger   *slog.Logger
}

func NewActionLoop(dialogue DialogueService, session *Session, cfg ConversationConfig, metrics Metrics, logger *slog.Logger) *ActionLoop {
	return &ActionLoop{
		dialogue: dialogue,
		session:  session,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

func (l *ActionLoop) Run(ctx context.Context, utterance string) ([]domain.Message, error) {
	if strings.Contains(strings.ToLower(utterance), "stop") {
		l.logger.Info("stop requested by user", "conversation_id", l.session.ID())
		l.session.Stop()
		return []domain.Message{domain.TextMessage{Text: l.cfg.Phrases.Goodbye}}, nil
	}

	if err := l.dialogue.Append(ctx, l.session.ID(), utterance); err != nil {
		return nil, fmt.Errorf("appending utterance: %w", err)
	}

	var outputs []domain.Message
	for executed := 0; ; executed++ {
		if l.cfg.MaxActionsPerTurn > 0 && executed >= l.cfg.MaxActionsPerTurn {
			l.logger.Warn("action limit reached without listen",
				"conversation_id", l.session.ID(),
				"limit", l.cfg.MaxActionsPerTurn,
			)
			l.metrics.ActionLimitReached()
			return outputs, nil
		}

		scores, err := l.dialogue.Predict(ctx, l.session.ID())
		if err != nil {
			return nil, fmt.Errorf("predicting next action: %w", err)
		}
		action, ok := domain.BestAction(scores)
		if !ok {
			return nil, ErrNoPrediction
		}

		l.logger.Debug("next action", "conversation_id", l.session.ID(), "action", action)

		if action == domain.ActionListen && !l.cfg.ExecuteListen {
			return outputs, nil
		}

		messages, err := l.dialogue.Execute(ctx, l.session.ID(), action)
		if err != nil {
			return nil, fmt.Errorf("executing %s: %w", action, err)
		}
		l.metrics.ActionExecuted(action)
		outputs = append(outputs, messages...)

		if action == domain.ActionListen {
			return outputs, nil
		}
	}
}
