package advisor

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/finchat/advisor/consts"
	"github.com/finchat/advisor/internal/gateway"
	"github.com/finchat/advisor/internal/market"
	"github.com/finchat/advisor/internal/session"
	"github.com/finchat/advisor/models"
)

// Engine orchestrates one conversational turn: classify, extract, merge,
// short-circuit price queries, synthesize the system prompt, and delegate to
// the LLM gateway. Components never call each other directly; everything goes
// through here.
type Engine struct {
	sessions   session.Repository
	market     market.Provider
	chat       gateway.Chat
	classifier *Classifier
	extractor  *Extractor
	logger     *log.Logger
}

func NewEngine(sessions session.Repository, provider market.Provider, chat gateway.Chat, logger *log.Logger) *Engine {
	classifier := NewClassifier()
	return &Engine{
		sessions:   sessions,
		market:     provider,
		chat:       chat,
		classifier: classifier,
		extractor:  NewExtractor(classifier),
		logger:     logger,
	}
}

// HandleTurn processes one request for a session and returns the reply text.
// The caller is expected to serialize turns per session; the engine itself
// holds no cross-turn state outside the repository.
func (e *Engine) HandleTurn(ctx context.Context, sessionID string, req *models.TurnRequest) (string, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" && !req.HasStructured() {
		return "", ErrMalformedInput
	}

	state, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}

	// Classify and extract from free text. Structured fields bypass
	// extraction and merge directly.
	var facts models.FactSet
	if message != "" {
		extraction := e.extractor.Extract(message, &state.Profile)
		if extraction.Outcome == OutcomeClarify {
			return e.clarifyTurn(ctx, sessionID, state, message)
		}
		if extraction.Ambiguous {
			e.logger.Debug("ambiguous extraction, fields left unset",
				"session", sessionID, "message_len", len(message))
		}
		facts = extraction.Facts
	}
	e.foldStructured(req, &state.Profile, &facts)

	// The merge for this turn is all-or-nothing and always precedes prompt
	// synthesis.
	facts.Merge(&state.Profile)

	// Price-quote queries bypass the LLM gateway entirely.
	if symbol, ok := e.quoteSymbol(req, message); ok {
		return e.quoteTurn(ctx, sessionID, state, message, symbol)
	}

	goal := state.Profile.FinancialGoal
	if goal == "" {
		goal = consts.GoalUnspecified
	}
	systemPrompt := SynthesizePrompt(&state.Profile, e.market.Advisory(goal))

	state.Append(consts.RoleUser, e.userTurnContent(req, message))
	if err := e.sessions.Put(ctx, sessionID, state); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	turns := make([]models.Turn, 0, len(state.History)+1)
	turns = append(turns, models.Turn{Role: consts.RoleSystem, Content: systemPrompt})
	turns = append(turns, state.History...)

	reply, err := e.chat.Complete(ctx, turns)
	if err != nil {
		// Fail loud, and leave history without an assistant turn for this
		// call.
		return "", err
	}

	state.Append(consts.RoleAssistant, reply)
	if err := e.sessions.Put(ctx, sessionID, state); err != nil {
		return "", fmt.Errorf("save reply: %w", err)
	}
	return reply, nil
}

// clarifyTurn answers an uncertain user with the fixed clarifying question.
// No facts are merged.
func (e *Engine) clarifyTurn(ctx context.Context, sessionID string, state *session.State, message string) (string, error) {
	state.Append(consts.RoleUser, message)
	state.Append(consts.RoleAssistant, ClarifyReply)
	if err := e.sessions.Put(ctx, sessionID, state); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return ClarifyReply, nil
}

// quoteTurn resolves a live quote and appends it as the assistant reply. The
// LLM gateway is not invoked on this path.
func (e *Engine) quoteTurn(ctx context.Context, sessionID string, state *session.State, message, symbol string) (string, error) {
	reply := e.market.QuoteText(ctx, symbol)

	if message == "" {
		message = "stock: " + symbol
	}
	state.Append(consts.RoleUser, message)
	state.Append(consts.RoleAssistant, reply)
	if err := e.sessions.Put(ctx, sessionID, state); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return reply, nil
}

// quoteSymbol decides whether this turn is a price-quote query. An explicit
// stock field always wins; otherwise the message must name a company or
// ticker alongside a quote cue.
func (e *Engine) quoteSymbol(req *models.TurnRequest, message string) (string, bool) {
	if req.Stock != "" {
		return market.Normalize(req.Stock), true
	}
	if message == "" {
		return "", false
	}
	return market.DetectSymbol(message)
}

// foldStructured validates structured fields into the fact set. Malformed
// values were already rejected by JSON decoding; here only semantics remain.
func (e *Engine) foldStructured(req *models.TurnRequest, profile *models.UserProfile, facts *models.FactSet) {
	if req.Income != nil {
		facts.Income = req.Income
	}
	if req.Expenses != nil {
		facts.Expenses = req.Expenses
	}
	if req.SavingsGoal != nil {
		facts.SavingsGoal = req.SavingsGoal
	}
	if req.Age != nil {
		facts.Age = req.Age
	}
	if req.MonthlyDebt != nil {
		facts.MonthlyDebt = req.MonthlyDebt
	}
	if req.ExistingSavings != nil {
		facts.ExistingSavings = req.ExistingSavings
	}
	if req.FinancialGoal != "" {
		if goal := e.classifier.Classify(req.FinancialGoal); goal != consts.GoalUnspecified {
			facts.FinancialGoal = goal
		} else {
			facts.FinancialGoal = strings.ToLower(strings.TrimSpace(req.FinancialGoal))
		}
	}
	if req.RiskTolerance != "" {
		facts.RiskTolerance = strings.ToLower(strings.TrimSpace(req.RiskTolerance))
	} else if req.HasStructured() && profile.RiskTolerance == "" && facts.RiskTolerance == "" {
		facts.RiskTolerance = consts.DefaultRiskTolerance
	}
}

// userTurnContent renders the turn that goes into history. Structured bundles
// become a budget summary in sentence form.
func (e *Engine) userTurnContent(req *models.TurnRequest, message string) string {
	if !req.HasStructured() {
		return message
	}

	summary := e.budgetSummary(req)
	if message != "" {
		return message + "\n" + summary
	}
	return summary
}

// budgetSummary turns the structured bundle into sentence form, including the
// derived metrics: disposable income, savings rate, and debt-to-income ratio.
func (e *Engine) budgetSummary(req *models.TurnRequest) string {
	income := floatOrZero(req.Income)
	expenses := floatOrZero(req.Expenses)
	savingsGoal := floatOrZero(req.SavingsGoal)

	disposable := income - expenses
	savingsRate := 0.0
	if income != 0 {
		savingsRate = round2(disposable / income * 100)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User earns $%s annually, spends $%s, with a savings goal of $%s. ",
		formatAmount(income), formatAmount(expenses), formatAmount(savingsGoal))
	fmt.Fprintf(&b, "Their disposable income is $%s and savings rate is %s%%. ",
		formatAmount(disposable), formatAmount(savingsRate))

	if req.Age != nil {
		fmt.Fprintf(&b, "They are %d years old. ", *req.Age)
	}
	if req.MonthlyDebt != nil && income != 0 {
		dti := round2(*req.MonthlyDebt / (income / 12) * 100)
		fmt.Fprintf(&b, "Their debt-to-income ratio is %s%%. ", formatAmount(dti))
	}
	if req.ExistingSavings != nil {
		fmt.Fprintf(&b, "They have $%s in current savings. ", formatAmount(*req.ExistingSavings))
	}
	if req.FinancialGoal != "" {
		fmt.Fprintf(&b, "Their financial goal is: %s. ", req.FinancialGoal)
	}

	risk := req.RiskTolerance
	if risk == "" {
		risk = consts.DefaultRiskTolerance
	}
	fmt.Fprintf(&b, "Risk tolerance is %s. Provide detailed, goal-specific, blunt financial advice.", risk)

	return b.String()
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
