package application

import "time"

// Phrases are the fixed sentences spoken around the dialogue service output.
type Phrases struct {
	Connecting    string
	Closing       string
	NoResponse    string
	Goodbye       string
	OptionHint    string
	ConfirmIntro  string
	ChoiceIntro   string
	Separator     string
	NotUnderstood string
}

func DefaultPhrases() Phrases {
	return Phrases{
		Connecting:    "Connecting to rasa. What would you like to say?",
		Closing:       "disconnecting from rasa",
		NoResponse:    "no response from rasa",
		Goodbye:       "goodbye from rasa",
		OptionHint:    "You can also say Option 1, Option 2, etc",
		ConfirmIntro:  "To confirm, say",
		ChoiceIntro:   "You can say",
		Separator:     "Or",
		NotUnderstood: "Sorry I didn't catch that.",
	}
}

// ConversationConfig tunes one conversation with the dialogue service.
type ConversationConfig struct {
	// MatchThreshold is the similarity a reply must exceed to select a button.
	MatchThreshold float64
	// MaxAttempts bounds button re-prompts; MaxAttempts+1 prompts at most.
	MaxAttempts int
	// MaxActionsPerTurn caps executed actions per utterance, 0 means no cap.
	MaxActionsPerTurn int
	// ExecuteListen also executes the listen action before returning a turn.
	ExecuteListen bool
	ListenTimeout time.Duration
	Phrases       Phrases
}

func DefaultConversationConfig() ConversationConfig {
	return ConversationConfig{
		MatchThreshold:    0.6,
		MaxAttempts:       3,
		MaxActionsPerTurn: 10,
		ListenTimeout:     30 * time.Second,
		Phrases:           DefaultPhrases(),
	}
}
