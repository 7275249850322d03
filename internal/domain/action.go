package domain

// ActionListen is the action the dialogue service predicts once it is done
// acting and waits for the next user utterance.
const ActionListen = "action_listen"

// SenderUser identifies utterances appended on behalf of the speaker.
const SenderUser = "user"

// TextCommandPrefix is the marker used to indicate text commands (vs audio)
const TextCommandPrefix = "__TEXT__:"

type ActionScore struct {
	Action string
	Score  float64
}

// BestAction returns the highest scored action. Ties keep the earliest entry,
// so a list that is already ranked best-first yields its head.
func BestAction(scores []ActionScore) (string, bool) {
	if len(scores) == 0 {
		return "", false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best.Action, true
}
