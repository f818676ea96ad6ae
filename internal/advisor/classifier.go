package advisor

import (
	"strings"
	"unicode"

	"github.com/finchat/advisor/consts"
)

// goalKeywords maps each goal to the lemmas that signal it. The table is
// immutable after init and shared across sessions without locking.
var goalKeywords = map[string][]string{
	consts.GoalRetirement: {"retirement", "retire", "pension", "401k", "ira"},
	consts.GoalHome:       {"home", "house", "mortgage", "property", "apartment", "condo"},
	consts.GoalVacation:   {"vacation", "trip", "travel", "holiday", "getaway"},
	consts.GoalEducation:  {"education", "college", "university", "school", "tuition", "degree"},
}

// Classifier maps free text to one of the fixed financial goals.
type Classifier struct {
	// lemma -> goal, resolved at construction so ties between goals for the
	// same lemma already follow canonical goal order.
	index map[string]string
}

func NewClassifier() *Classifier {
	index := make(map[string]string)
	for _, goal := range consts.Goals {
		for _, kw := range goalKeywords[goal] {
			if _, ok := index[kw]; !ok {
				index[kw] = goal
			}
		}
	}
	return &Classifier{index: index}
}

// Classify returns the goal of the first token, in message order, whose lemma
// appears in the keyword table, or GoalUnspecified when nothing matches.
// Deterministic for a fixed table.
func (c *Classifier) Classify(message string) string {
	for _, token := range Tokenize(message) {
		if goal, ok := c.index[Lemma(token)]; ok {
			return goal
		}
	}
	return consts.GoalUnspecified
}

// Tokenize lowercases the message and splits it on anything that is not a
// letter, digit, or the characters that matter inside monetary tokens ($ . ,).
func Tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
		switch r {
		case '$', '.', ',':
			return false
		}
		return true
	})
}

// Lemma reduces a token to a crude dictionary form: trailing sentence
// punctuation is dropped, then common plural endings. "savings" and "homes"
// both reduce to their singular lemma; short words are left alone.
func Lemma(token string) string {
	token = strings.TrimRight(token, ".,")
	if len(token) > 4 && strings.HasSuffix(token, "ies") {
		return token[:len(token)-3] + "y"
	}
	if len(token) > 3 && strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") {
		return token[:len(token)-1]
	}
	return token
}
