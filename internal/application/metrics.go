package application

// Conversation end reasons reported to Metrics.
const (
	EndReasonCompleted = "completed"
	EndReasonError     = "error"
)

// Disambiguation outcomes reported to Metrics.
const (
	OutcomeMatched  = "matched"
	OutcomeRetry    = "retry"
	OutcomeGaveUp   = "gave_up"
	OutcomeFreeText = "free_text"
)

type Metrics interface {
	ConversationStarted()
	ConversationEnded(reason string)
	TurnCompleted()
	ActionExecuted(action string)
	ActionLimitReached()
	Disambiguation(outcome string)
}

type NoopMetrics struct{}

func (NoopMetrics) ConversationStarted()     {}
func (NoopMetrics) ConversationEnded(string) {}
func (NoopMetrics) TurnCompleted()           {}
func (NoopMetrics) ActionExecuted(string)    {}
func (NoopMetrics) ActionLimitReached()      {}
func (NoopMetrics) Disambiguation(string)    {}
