package advisor

import (
	"fmt"
	"strings"

	"github.com/finchat/advisor/models"
)

// Persona and rule text are fixed. The rule block is what keeps the gateway
// from inventing financial facts the user never gave us.
const (
	personaText = "You are a sharp, straightforward AI financial advisor. " +
		"Give practical budgeting and investing advice based on the user's profile."

	ruleText = "Rules you must always follow:\n" +
		"- Never state or assume financial facts the user has not provided.\n" +
		"- If information you need is missing, ask one clarifying question.\n" +
		"- End every reply with a follow-up question."
)

// SynthesizePrompt composes the system instruction for one gateway call. It is
// a pure function of the profile snapshot and market snippet: fixed section
// order, canonical field order, no clock, no network, no hidden state.
func SynthesizePrompt(profile *models.UserProfile, marketSnippet string) string {
	var b strings.Builder

	b.WriteString(personaText)
	b.WriteString("\n\n")

	if summary := profileSummary(profile); summary != "" {
		b.WriteString("What is known about the user so far:\n")
		b.WriteString(summary)
		b.WriteString("\n\n")
	} else {
		b.WriteString("Nothing is known about the user yet.\n\n")
	}

	if marketSnippet != "" {
		b.WriteString("Here is a snapshot of current market context: ")
		b.WriteString(marketSnippet)
		b.WriteString("\n\n")
	}

	b.WriteString(ruleText)
	return b.String()
}

// profileSummary renders set fields as "Field: value" lines in canonical
// order. Unset fields are omitted, never rendered as placeholders.
func profileSummary(p *models.UserProfile) string {
	var lines []string

	if p.Age != nil {
		lines = append(lines, fmt.Sprintf("Age: %d", *p.Age))
	}
	if p.Income != nil {
		lines = append(lines, fmt.Sprintf("Annual income: $%s", formatAmount(*p.Income)))
	}
	if p.Expenses != nil {
		lines = append(lines, fmt.Sprintf("Annual expenses: $%s", formatAmount(*p.Expenses)))
	}
	if p.SavingsGoal != nil {
		lines = append(lines, fmt.Sprintf("Savings goal: $%s", formatAmount(*p.SavingsGoal)))
	}
	if p.MonthlyDebt != nil {
		lines = append(lines, fmt.Sprintf("Monthly debt: $%s", formatAmount(*p.MonthlyDebt)))
	}
	if p.ExistingSavings != nil {
		lines = append(lines, fmt.Sprintf("Existing savings: $%s", formatAmount(*p.ExistingSavings)))
	}
	if p.FinancialGoal != "" {
		lines = append(lines, "Financial goal: "+p.FinancialGoal)
	}
	if p.RiskTolerance != "" {
		lines = append(lines, "Risk tolerance: "+p.RiskTolerance)
	}

	return strings.Join(lines, "\n")
}

// formatAmount prints whole-dollar amounts without a decimal tail and
// fractional ones with two places.
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
