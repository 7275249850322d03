package application

import (
	"context"

	"voice-bridge/internal/domain"
)

// DialogueService is the conversation API of the dialogue manager. Every call
// is addressed to one conversation transcript.
type DialogueService interface {
	Append(ctx context.Context, conversationID, text string) error
	Predict(ctx context.Context, conversationID string) ([]domain.ActionScore, error)
	Execute(ctx context.Context, conversationID, action string) ([]domain.Message, error)
}
