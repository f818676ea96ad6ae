package advisor

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finchat/advisor/consts"
	"github.com/finchat/advisor/internal/gateway"
	"github.com/finchat/advisor/internal/session"
	"github.com/finchat/advisor/models"
)

type fakeChat struct {
	calls     int
	lastTurns []models.Turn
	reply     string
	err       error
}

func (f *fakeChat) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	f.calls++
	f.lastTurns = turns
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeMarket struct {
	advisoryCalls []string
	quoteCalls    []string
	quoteReply    string
}

func (f *fakeMarket) Advisory(goal string) string {
	f.advisoryCalls = append(f.advisoryCalls, goal)
	return "ADVISORY[" + goal + "]"
}

func (f *fakeMarket) QuoteText(ctx context.Context, symbol string) string {
	f.quoteCalls = append(f.quoteCalls, symbol)
	return f.quoteReply
}

func newTestEngine(chat *fakeChat, mkt *fakeMarket) (*Engine, session.Repository) {
	store := newMemoryRepo()
	logger := log.New(io.Discard)
	return NewEngine(store, mkt, chat, logger), store
}

// newMemoryRepo uses a long TTL so the sweeper never fires mid-test.
func newMemoryRepo() session.Repository {
	return session.NewMemoryStore(time.Hour)
}

func floatPtr(v float64) *float64 { return &v }

func TestHandleTurnFreeTextExtraction(t *testing.T) {
	chat := &fakeChat{reply: "Solid start. What is your goal?"}
	mkt := &fakeMarket{}
	engine, store := newTestEngine(chat, mkt)

	ctx := context.Background()
	reply, err := engine.HandleTurn(ctx, "s1", &models.TurnRequest{
		Message: "I am 28 years old and make $52000 a year",
	})
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if reply != chat.reply {
		t.Fatalf("unexpected reply: %q", reply)
	}

	state, _ := store.Get(ctx, "s1")
	if state.Profile.Age == nil || *state.Profile.Age != 28 {
		t.Fatalf("expected age 28 in profile, got %v", state.Profile.Age)
	}
	if state.Profile.Income == nil || *state.Profile.Income != 52000 {
		t.Fatalf("expected income 52000 in profile, got %v", state.Profile.Income)
	}
	if state.Profile.FinancialGoal != "" {
		t.Fatalf("expected unspecified goal, got %q", state.Profile.FinancialGoal)
	}

	if len(mkt.advisoryCalls) != 1 || mkt.advisoryCalls[0] != consts.GoalUnspecified {
		t.Fatalf("expected advisory lookup for unspecified, got %v", mkt.advisoryCalls)
	}

	if len(state.History) != 2 {
		t.Fatalf("expected user+assistant turns, got %d", len(state.History))
	}
	if state.History[0].Role != consts.RoleUser || state.History[1].Role != consts.RoleAssistant {
		t.Fatalf("unexpected history roles: %+v", state.History)
	}
}

func TestHandleTurnGoalDetection(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	mkt := &fakeMarket{}
	engine, store := newTestEngine(chat, mkt)

	ctx := context.Background()
	if _, err := engine.HandleTurn(ctx, "s1", &models.TurnRequest{Message: "saving for retirement"}); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	state, _ := store.Get(ctx, "s1")
	if state.Profile.FinancialGoal != consts.GoalRetirement {
		t.Fatalf("expected retirement goal, got %q", state.Profile.FinancialGoal)
	}
	if len(mkt.advisoryCalls) != 1 || mkt.advisoryCalls[0] != consts.GoalRetirement {
		t.Fatalf("expected advisory lookup for retirement, got %v", mkt.advisoryCalls)
	}

	system := chat.lastTurns[0]
	if system.Role != consts.RoleSystem {
		t.Fatalf("first gateway turn must be the system prompt, got %q", system.Role)
	}
	if !strings.Contains(system.Content, "ADVISORY[retirement]") {
		t.Fatal("system prompt missing the goal's market snippet")
	}
}

func TestHandleTurnStructuredBundle(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	mkt := &fakeMarket{}
	engine, store := newTestEngine(chat, mkt)

	ctx := context.Background()
	if _, err := engine.HandleTurn(ctx, "s1", &models.TurnRequest{
		Income:      floatPtr(60000),
		Expenses:    floatPtr(40000),
		SavingsGoal: floatPtr(5000),
	}); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	state, _ := store.Get(ctx, "s1")
	user := state.History[0].Content
	if !strings.Contains(user, "disposable income is $20000") {
		t.Fatalf("missing disposable income in summary: %q", user)
	}
	if !strings.Contains(user, "savings rate is 33.33%") {
		t.Fatalf("missing savings rate in summary: %q", user)
	}
	if state.Profile.Income == nil || *state.Profile.Income != 60000 {
		t.Fatal("structured income not merged")
	}
	if state.Profile.RiskTolerance != consts.DefaultRiskTolerance {
		t.Fatalf("expected default risk tolerance, got %q", state.Profile.RiskTolerance)
	}
	if chat.calls != 1 {
		t.Fatalf("expected one gateway call, got %d", chat.calls)
	}
}

func TestHandleTurnQuoteShortCircuit(t *testing.T) {
	chat := &fakeChat{reply: "should not be used"}
	mkt := &fakeMarket{quoteReply: "AAPL is trading at $189.44 as of Jan 2 15:04 EST."}
	engine, store := newTestEngine(chat, mkt)

	ctx := context.Background()
	reply, err := engine.HandleTurn(ctx, "s1", &models.TurnRequest{Message: "what's apple stock at"})
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if reply != mkt.quoteReply {
		t.Fatalf("expected quote text reply, got %q", reply)
	}
	if len(mkt.quoteCalls) != 1 || mkt.quoteCalls[0] != "AAPL" {
		t.Fatalf("expected quote call for AAPL, got %v", mkt.quoteCalls)
	}
	if chat.calls != 0 {
		t.Fatalf("LLM gateway must not be invoked on quote path, got %d calls", chat.calls)
	}

	state, _ := store.Get(ctx, "s1")
	if len(state.History) != 2 || state.History[1].Content != mkt.quoteReply {
		t.Fatalf("quote reply not appended to history: %+v", state.History)
	}
}

func TestHandleTurnExplicitStockField(t *testing.T) {
	chat := &fakeChat{reply: "unused"}
	mkt := &fakeMarket{quoteReply: "TSLA is trading at $250.00 as of Jan 2 15:04 EST."}
	engine, _ := newTestEngine(chat, mkt)

	reply, err := engine.HandleTurn(context.Background(), "s1", &models.TurnRequest{
		Message: "how is it doing",
		Stock:   "tsla",
	})
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if reply != mkt.quoteReply {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(mkt.quoteCalls) != 1 || mkt.quoteCalls[0] != "TSLA" {
		t.Fatalf("expected normalized TSLA quote call, got %v", mkt.quoteCalls)
	}
}

func TestHandleTurnMalformedInput(t *testing.T) {
	chat := &fakeChat{}
	mkt := &fakeMarket{}
	engine, store := newTestEngine(chat, mkt)

	ctx := context.Background()
	_, err := engine.HandleTurn(ctx, "s1", &models.TurnRequest{})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}

	state, _ := store.Get(ctx, "s1")
	if len(state.History) != 0 {
		t.Fatal("malformed input must not mutate history")
	}
	if chat.calls != 0 {
		t.Fatal("malformed input must not reach the gateway")
	}
}

func TestHandleTurnGatewayFailure(t *testing.T) {
	chat := &fakeChat{err: gateway.ErrGateway}
	mkt := &fakeMarket{}
	engine, store := newTestEngine(chat, mkt)

	ctx := context.Background()
	_, err := engine.HandleTurn(ctx, "s1", &models.TurnRequest{Message: "I am 30 years old"})
	if !errors.Is(err, gateway.ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	state, _ := store.Get(ctx, "s1")
	// Profile merge and user turn survive; no assistant turn is appended for
	// the failed call.
	if state.Profile.Age == nil || *state.Profile.Age != 30 {
		t.Fatal("profile merge must precede the gateway call")
	}
	if len(state.History) != 1 || state.History[0].Role != consts.RoleUser {
		t.Fatalf("expected only the user turn in history, got %+v", state.History)
	}
}

func TestHandleTurnClarify(t *testing.T) {
	chat := &fakeChat{}
	mkt := &fakeMarket{}
	engine, store := newTestEngine(chat, mkt)

	ctx := context.Background()
	reply, err := engine.HandleTurn(ctx, "s1", &models.TurnRequest{Message: "not sure about my income"})
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if reply != ClarifyReply {
		t.Fatalf("expected fixed clarify reply, got %q", reply)
	}
	if chat.calls != 0 {
		t.Fatal("clarify must not reach the gateway")
	}

	state, _ := store.Get(ctx, "s1")
	if state.Profile.Income != nil {
		t.Fatal("clarify must not update the profile")
	}
}

func TestHandleTurnProfileAccumulatesAcrossTurns(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	mkt := &fakeMarket{}
	engine, store := newTestEngine(chat, mkt)

	ctx := context.Background()
	if _, err := engine.HandleTurn(ctx, "s1", &models.TurnRequest{Message: "I am 28 years old"}); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if _, err := engine.HandleTurn(ctx, "s1", &models.TurnRequest{Message: "saving for retirement"}); err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	state, _ := store.Get(ctx, "s1")
	if state.Profile.Age == nil || *state.Profile.Age != 28 {
		t.Fatal("age from turn 1 must survive turn 2")
	}
	if state.Profile.FinancialGoal != consts.GoalRetirement {
		t.Fatal("goal from turn 2 must be merged")
	}
	if len(state.History) != 4 {
		t.Fatalf("expected 4 turns of history, got %d", len(state.History))
	}
}
