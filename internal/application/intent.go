package application

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// minNameSimilarity is how close the last word of an utterance must be to the
// last word of a trigger phrase, which names who to talk to.
const minNameSimilarity = 0.75

var editSimilarity strutil.StringMetric = metrics.NewLevenshtein()

// Trigger decides whether an utterance asks to open a conversation.
type Trigger struct {
	phrases   []string
	threshold float64
}

func NewTrigger(phrases []string, threshold float64) *Trigger {
	return &Trigger{phrases: phrases, threshold: threshold}
}

// Matches accepts utterances containing a trigger phrase, or close enough to
// one by edit distance that a transcription slip is the likely cause. Fuzzy
// matches must also end on the phrase's last word, so "talk to mom" does not
// open a conversation meant for "talk to rasa".
func (t *Trigger) Matches(text string) bool {
	utterance := normalize(text)
	if utterance == "" {
		return false
	}

	for _, phrase := range t.phrases {
		p := normalize(phrase)
		if p == "" {
			continue
		}
		if strings.Contains(utterance, p) {
			return true
		}
		if strutil.Similarity(utterance, p, editSimilarity) > t.threshold &&
			strutil.Similarity(lastWord(utterance), lastWord(p), editSimilarity) >= minNameSimilarity {
			return true
		}
	}
	return false
}

func lastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
