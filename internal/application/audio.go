package application

import "context"

// AudioSource delivers one captured utterance per NextCommand call, either as
// raw audio or as a TextCommandPrefix-marked transcript.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}
