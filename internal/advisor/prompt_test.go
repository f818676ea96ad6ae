package advisor

import (
	"strings"
	"testing"

	"github.com/finchat/advisor/consts"
	"github.com/finchat/advisor/models"
)

func TestSynthesizePromptPure(t *testing.T) {
	age := 28
	income := 52000.0
	profile := &models.UserProfile{Age: &age, Income: &income, FinancialGoal: consts.GoalRetirement}
	snippet := "index funds remain stable"

	first := SynthesizePrompt(profile, snippet)
	for i := 0; i < 5; i++ {
		if got := SynthesizePrompt(profile, snippet); got != first {
			t.Fatal("synthesize is not pure: output changed across calls")
		}
	}
}

func TestSynthesizePromptFieldOrderAndOmission(t *testing.T) {
	age := 40
	savings := 10000.0
	profile := &models.UserProfile{Age: &age, ExistingSavings: &savings, RiskTolerance: "low"}

	prompt := SynthesizePrompt(profile, "snippet text")

	ageIdx := strings.Index(prompt, "Age: 40")
	savingsIdx := strings.Index(prompt, "Existing savings: $10000")
	riskIdx := strings.Index(prompt, "Risk tolerance: low")
	if ageIdx < 0 || savingsIdx < 0 || riskIdx < 0 {
		t.Fatalf("missing profile fields in prompt:\n%s", prompt)
	}
	if !(ageIdx < savingsIdx && savingsIdx < riskIdx) {
		t.Fatal("profile fields not in canonical order")
	}

	if strings.Contains(prompt, "Annual income") {
		t.Fatal("unset fields must be omitted, not rendered")
	}
}

func TestSynthesizePromptSections(t *testing.T) {
	prompt := SynthesizePrompt(&models.UserProfile{}, "market is calm")

	personaIdx := strings.Index(prompt, "AI financial advisor")
	marketIdx := strings.Index(prompt, "Here is a snapshot of current market context: market is calm")
	rulesIdx := strings.Index(prompt, "Never state or assume financial facts")
	followUpIdx := strings.Index(prompt, "End every reply with a follow-up question")

	if personaIdx < 0 || marketIdx < 0 || rulesIdx < 0 || followUpIdx < 0 {
		t.Fatalf("prompt missing a fixed section:\n%s", prompt)
	}
	if !(personaIdx < marketIdx && marketIdx < rulesIdx) {
		t.Fatal("prompt sections out of order")
	}
	if !strings.Contains(prompt, "Nothing is known about the user yet.") {
		t.Fatal("empty profile should render the explicit empty marker")
	}
}
