package application

import (
	"context"
	"log/slog"

	"voice-bridge/internal/domain"
)

// Disambiguator turns the last message of a turn into the user's next
// utterance. Button messages are read out and the spoken reply is mapped to
// a button payload; plain messages take any free-form reply.
type Disambiguator struct {
	channel SpeechChannel
	cfg     ConversationConfig
	metrics Metrics
	logger  *slog.Logger
}

func NewDisambiguator(channel SpeechChannel, cfg ConversationConfig, metrics Metrics, logger *slog.Logger) *Disambiguator {
	return &Disambiguator{
		channel: channel,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve returns ok=false when no reply was obtained within the attempt budget.
func (d *Disambiguator) Resolve(ctx context.Context, msg domain.Message) (string, bool, error) {
	phrases := d.cfg.Phrases

	for attempt := 0; attempt <= d.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			d.channel.Speak(ctx, phrases.OptionHint)
		}

		options, ok := msg.(domain.OptionsMessage)
		if !ok || len(options.Buttons) == 0 {
			d.metrics.Disambiguation(OutcomeFreeText)
			return d.channel.Prompt(ctx, msg.Content(), PromptOptions{})
		}

		reply, heard, err := d.askForButton(ctx, options)
		if err != nil {
			return "", false, err
		}
		if heard {
			d.metrics.Disambiguation(OutcomeMatched)
			return d.payloadFor(reply, options.Buttons), true, nil
		}

		d.logger.Info("no valid button reply", "attempt", attempt, "max_attempts", d.cfg.MaxAttempts)
		d.metrics.Disambiguation(OutcomeRetry)
	}

	d.metrics.Disambiguation(OutcomeGaveUp)
	return "", false, nil
}

func (d *Disambiguator) askForButton(ctx context.Context, msg domain.OptionsMessage) (string, bool, error) {
	phrases := d.cfg.Phrases
	buttons := msg.Buttons

	d.channel.Speak(ctx, msg.Text)

	if len(buttons) == 1 {
		d.channel.Speak(ctx, phrases.ConfirmIntro)
	} else {
		d.channel.Speak(ctx, phrases.ChoiceIntro)
	}
	for _, b := range buttons[:len(buttons)-1] {
		d.channel.Speak(ctx, b.Title)
		d.channel.Speak(ctx, phrases.Separator)
	}

	validator := NewButtonValidator(ValidationOptions(buttons), d.cfg.MatchThreshold)
	return d.channel.Prompt(ctx, buttons[len(buttons)-1].Title, PromptOptions{
		Validate:   validator.Validate,
		MaxRetries: 0,
		OnFail:     func(string) string { return phrases.NotUnderstood },
	})
}

// payloadFor maps a validated reply onto a button. Positional labels sit after
// the titles in the option list, so the index wraps around the button count.
func (d *Disambiguator) payloadFor(reply string, buttons []domain.Button) string {
	match := BestMatch(reply, ValidationOptions(buttons))
	index := match.Index % len(buttons)

	d.logger.Info("button selected",
		"reply", reply,
		"matched", match.Candidate,
		"score", match.Score,
		"button", buttons[index].Title,
	)
	return buttons[index].Payload
}
