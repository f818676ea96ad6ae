package advisor

import (
	"strconv"
	"strings"

	"github.com/finchat/advisor/consts"
	"github.com/finchat/advisor/models"
)

// Outcome reports what an extraction attempt produced. Distinguishing "nothing
// extracted" from "user asked us to slow down" keeps the controller honest.
type Outcome int

const (
	// OutcomeNone means no fact was found; the turn proceeds unchanged.
	OutcomeNone Outcome = iota
	// OutcomeFound means at least one fact was extracted.
	OutcomeFound
	// OutcomeClarify means the user signalled uncertainty; the turn should
	// answer with a fixed clarifying question instead of a profile update.
	OutcomeClarify
)

// Extraction is the result of running the extractor over one message.
type Extraction struct {
	Facts models.FactSet
	// Ambiguous is set when a number qualified for extraction but could not
	// be attributed to a single field. Such numbers are dropped, never
	// guessed; the flag is logged upstream, not surfaced.
	Ambiguous bool
	Outcome   Outcome
}

// Extractor pulls candidate numeric facts (age, income, savings, debt) out of
// free text. It is a heuristic scanner, not an NLP pipeline: it never errors
// on malformed tokens, it just skips them.
type Extractor struct {
	classifier *Classifier
}

func NewExtractor(classifier *Classifier) *Extractor {
	return &Extractor{classifier: classifier}
}

// Cue phrases that make a small integer plausible as an age.
var agePhrases = []string{"years old", "year old", "i am", "i'm", "my age"}

// Uncertainty shortcuts. A message containing one yields a clarifying
// question instead of a profile update.
var uncertainPhrases = []string{"not sure", "idk", "no idea", "don't know", "dont know"}

// moneyKeywords attributes a bare number to a profile field when the keyword
// lemma appears within the attribution window around the number.
var moneyKeywords = map[string]string{
	"income": "income", "earn": "income", "make": "income", "making": "income",
	"salary": "income", "wage": "income", "paid": "income",

	"saving": "savings", "saved": "savings", "save": "savings",

	"debt": "debt", "owe": "debt", "loan": "debt",

	"expense": "expenses", "spend": "expenses", "spent": "expenses", "spending": "expenses",
}

// moneyWindow is how many tokens away a keyword may sit from a number and
// still claim it.
const moneyWindow = 3

// Extract scans one message against the current profile. The profile is read
// only for context (which monetary fields are still unset); it is never
// mutated here.
func (e *Extractor) Extract(message string, profile *models.UserProfile) Extraction {
	lower := strings.ToLower(message)

	for _, phrase := range uncertainPhrases {
		if strings.Contains(lower, phrase) {
			return Extraction{Outcome: OutcomeClarify}
		}
	}

	var out Extraction
	tokens := Tokenize(message)

	if goal := e.classifier.Classify(message); goal != consts.GoalUnspecified {
		out.Facts.FinancialGoal = goal
	}

	ageClaimed := e.extractAge(lower, tokens, &out)
	e.extractMoney(tokens, ageClaimed, profile, &out)

	if !out.Facts.Empty() {
		out.Outcome = OutcomeFound
	}
	return out
}

// extractAge looks for an integer strictly between 10 and 100 co-occurring
// with an age cue phrase. Returns the index of the claimed token, or -1.
func (e *Extractor) extractAge(lower string, tokens []string, out *Extraction) int {
	cued := false
	for _, phrase := range agePhrases {
		if strings.Contains(lower, phrase) {
			cued = true
			break
		}
	}
	if !cued {
		return -1
	}

	for i, token := range tokens {
		if strings.HasPrefix(token, "$") {
			continue
		}
		// Trailing punctuation survives tokenization ("28," in "I'm 28, making").
		// Trim it here so the age claims its token before the money scan sees it.
		n, err := strconv.Atoi(strings.TrimRight(token, ".,"))
		if err != nil {
			continue
		}
		if n > 10 && n < 100 {
			age := n
			out.Facts.Age = &age
			return i
		}
	}
	return -1
}

// extractMoney assigns qualifying monetary tokens to profile fields. A token
// qualifies if it carries a currency marker or sits within the attribution
// window of a money keyword. Attribution policy, in order:
//  1. a number claimed by exactly one keyword goes to that keyword's field,
//     falling back to rule 2's queue when that field is already taken this turn;
//  2. a $-prefixed number with no keyword goes to the first still-unset field
//     in the order income, savings, debt; an order-of-encounter heuristic,
//     since nothing else disambiguates which number means what;
//  3. a number claimed by two different keywords is dropped as ambiguous.
func (e *Extractor) extractMoney(tokens []string, ageIdx int, profile *models.UserProfile, out *Extraction) {
	// Fields still open for order-of-encounter assignment.
	unattributed := make([]string, 0, 3)
	if profile.Income == nil {
		unattributed = append(unattributed, "income")
	}
	if profile.ExistingSavings == nil {
		unattributed = append(unattributed, "savings")
	}
	if profile.MonthlyDebt == nil {
		unattributed = append(unattributed, "debt")
	}

	for i, token := range tokens {
		if i == ageIdx {
			continue
		}

		hasMarker := strings.HasPrefix(token, "$")
		value, ok := parseMoney(token)
		if !ok {
			continue
		}

		field, ambiguous := e.nearestKeywordField(tokens, i)
		if ambiguous {
			out.Ambiguous = true
			continue
		}

		switch {
		case field != "":
			if !e.assign(field, value, out) {
				// The claiming keyword's fact is already taken this turn;
				// treat the number like an unattributed mention instead of
				// dropping it.
				unattributed, _ = e.assignUnset(unattributed, value, out)
			}
		case hasMarker:
			var placed bool
			unattributed, placed = e.assignUnset(unattributed, value, out)
			if !placed {
				// A currency-marked number with nowhere left to go.
				out.Ambiguous = true
			}
		}
	}
}

// assignUnset pops queue slots until one accepts the value, returning the
// remaining queue and whether the value found a home.
func (e *Extractor) assignUnset(fields []string, value float64, out *Extraction) ([]string, bool) {
	for len(fields) > 0 {
		field := fields[0]
		fields = fields[1:]
		if e.assign(field, value, out) {
			return fields, true
		}
	}
	return fields, false
}

// nearestKeywordField scans the attribution window around tokens[i]. It
// returns the field of the single claiming keyword, or ambiguous=true when
// two different fields compete for the same number.
func (e *Extractor) nearestKeywordField(tokens []string, i int) (field string, ambiguous bool) {
	lo := i - moneyWindow
	if lo < 0 {
		lo = 0
	}
	hi := i + moneyWindow
	if hi >= len(tokens) {
		hi = len(tokens) - 1
	}

	for j := lo; j <= hi; j++ {
		if j == i {
			continue
		}
		f, ok := moneyKeywords[Lemma(tokens[j])]
		if !ok {
			continue
		}
		if field != "" && field != f {
			return "", true
		}
		field = f
	}
	return field, false
}

// assign sets the field's fact if it is still open this turn, reporting
// whether the value was applied.
func (e *Extractor) assign(field string, value float64, out *Extraction) bool {
	v := value
	switch field {
	case "income":
		if out.Facts.Income == nil {
			out.Facts.Income = &v
			return true
		}
	case "savings":
		if out.Facts.ExistingSavings == nil {
			out.Facts.ExistingSavings = &v
			return true
		}
	case "debt":
		if out.Facts.MonthlyDebt == nil {
			out.Facts.MonthlyDebt = &v
			return true
		}
	case "expenses":
		if out.Facts.Expenses == nil {
			out.Facts.Expenses = &v
			return true
		}
	}
	return false
}

// parseMoney parses a token as a monetary amount, tolerating a leading
// currency marker, thousands separators, and a k/m suffix. Malformed tokens
// are skipped, not errors.
func parseMoney(token string) (float64, bool) {
	t := strings.TrimPrefix(token, "$")
	t = strings.ReplaceAll(t, ",", "")
	t = strings.TrimRight(t, ".")
	if t == "" {
		return 0, false
	}

	mult := 1.0
	switch strings.ToLower(t[len(t)-1:]) {
	case "k":
		mult = 1_000
		t = t[:len(t)-1]
	case "m":
		mult = 1_000_000
		t = t[:len(t)-1]
	}

	value, err := strconv.ParseFloat(t, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value * mult, true
}

// ClarifyReply is the fixed response for an uncertain user. It satisfies the
// advisor rule that every reply ends with a follow-up question.
const ClarifyReply = "No problem. To tailor advice I need a rough picture of your finances. " +
	"Could you share an estimate of your annual income, current savings, or monthly debt?"
