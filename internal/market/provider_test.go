package market

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/finchat/advisor/consts"
)

func newTestService() *Service {
	return NewService(time.Second, log.New(io.Discard))
}

func TestAdvisoryLookup(t *testing.T) {
	s := newTestService()

	for _, goal := range consts.Goals {
		if s.Advisory(goal) == "" {
			t.Errorf("no advisory text for goal %q", goal)
		}
	}

	if s.Advisory(consts.GoalRetirement) == s.Advisory(consts.GoalHome) {
		t.Fatal("goals must have distinct advisory text")
	}
}

func TestAdvisoryUnknownGoalFallsBack(t *testing.T) {
	s := newTestService()

	fallback := s.Advisory(consts.GoalUnspecified)
	if got := s.Advisory("space travel"); got != fallback {
		t.Fatalf("unknown goal must resolve to the unspecified entry, got %q", got)
	}
	if !strings.Contains(fallback, "index funds") {
		t.Fatalf("unexpected fallback text: %q", fallback)
	}
}

func TestQuoteTextFormatsPrice(t *testing.T) {
	asOf := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	s := newTestService().WithFetch(func(symbol string) (*Quote, error) {
		return &Quote{Symbol: symbol, Price: decimal.NewFromFloat(189.44), AsOf: asOf}, nil
	})

	got := s.QuoteText(context.Background(), "aapl")
	if !strings.HasPrefix(got, "AAPL is trading at $189.44 as of ") {
		t.Fatalf("unexpected quote text: %q", got)
	}
}

func TestQuoteTextFallbackOnFailure(t *testing.T) {
	s := newTestService().WithFetch(func(symbol string) (*Quote, error) {
		return nil, errors.New("connection reset")
	})
	s.retry.BaseDelay = time.Millisecond

	got := s.QuoteText(context.Background(), "AAPL")
	if got != "Sorry, I couldn't fetch data for AAPL" {
		t.Fatalf("unexpected fallback text: %q", got)
	}
}

func TestQuoteTextRecoversOnRetry(t *testing.T) {
	calls := 0
	s := newTestService().WithFetch(func(symbol string) (*Quote, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return &Quote{Symbol: symbol, Price: decimal.NewFromInt(100), AsOf: time.Now()}, nil
	})
	s.retry.BaseDelay = time.Millisecond

	got := s.QuoteText(context.Background(), "MSFT")
	if !strings.HasPrefix(got, "MSFT is trading at $100.00") {
		t.Fatalf("expected recovered quote, got %q", got)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
}

func TestDetectSymbol(t *testing.T) {
	cases := []struct {
		message string
		symbol  string
		ok      bool
	}{
		{"what's apple stock at", "AAPL", true},
		{"TSLA price today?", "TSLA", true},
		{"how many shares of microsoft should I buy", "MSFT", true},
		{"should I save for retirement", "", false},
		// Company mention without a quote cue is a generic advice turn.
		{"I work at apple", "", false},
		// Cue without a resolvable symbol.
		{"what's the stock market doing", "", false},
	}

	for _, tc := range cases {
		symbol, ok := DetectSymbol(tc.message)
		if ok != tc.ok || symbol != tc.symbol {
			t.Errorf("DetectSymbol(%q) = (%q, %v), want (%q, %v)",
				tc.message, symbol, ok, tc.symbol, tc.ok)
		}
	}
}

func TestValidateAndNormalize(t *testing.T) {
	if err := Validate(" aapl "); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := Validate(""); err == nil {
		t.Fatal("empty symbol must fail validation")
	}
	if err := Validate("WAYTOOLONGSYMBOL"); err == nil {
		t.Fatal("overlong symbol must fail validation")
	}
	if got := Normalize(" aapl "); got != "AAPL" {
		t.Fatalf("Normalize: got %q", got)
	}
}
