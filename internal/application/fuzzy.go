package application

import (
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"voice-bridge/internal/domain"
)

var similarity strutil.StringMetric = metrics.NewJaroWinkler()

// Match is the closest candidate to an utterance.
type Match struct {
	Candidate string
	Index     int
	Score     float64
}

// BestMatch scores every candidate against the utterance and keeps the first
// one with the highest score. Index is -1 when there are no candidates.
func BestMatch(utterance string, candidates []string) Match {
	best := Match{Index: -1}
	query := normalize(utterance)

	for i, candidate := range candidates {
		score := 0.0
		if query != "" {
			score = strutil.Similarity(query, normalize(candidate), similarity)
		}
		if best.Index < 0 || score > best.Score {
			best = Match{Candidate: candidate, Index: i, Score: score}
		}
	}

	return best
}

var numberWords = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
}

// normalize lower-cases s, collapses whitespace and spells spoken numbers as
// digits, so "Option two" and "option 2" compare equal.
func normalize(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	for i, f := range fields {
		if digit, ok := numberWords[f]; ok {
			fields[i] = digit
		}
	}
	return strings.Join(fields, " ")
}

// ButtonValidator accepts utterances that are close enough to one of a fixed
// set of options.
type ButtonValidator struct {
	options   []string
	threshold float64
}

func NewButtonValidator(options []string, threshold float64) *ButtonValidator {
	return &ButtonValidator{options: options, threshold: threshold}
}

func (v *ButtonValidator) Validate(utterance string) bool {
	return BestMatch(utterance, v.options).Score > v.threshold
}

// ValidationOptions lists the button titles followed by the positional labels
// "option 1" … "option N", so both forms can select a button.
func ValidationOptions(buttons []domain.Button) []string {
	options := make([]string, 0, 2*len(buttons))
	for _, b := range buttons {
		options = append(options, b.Title)
	}
	for i := range buttons {
		options = append(options, fmt.Sprintf("option %d", i+1))
	}
	return options
}
