// Package market resolves a classified goal or an explicit ticker to advisory
// text. Canned mode is a fixed table lookup and always succeeds; live mode
// fetches a quote and degrades to a deterministic fallback string.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"github.com/finchat/advisor/consts"
	"github.com/finchat/advisor/internal/retry"
)

// ErrUnavailable marks a failed live fetch. It never leaves this package as
// an error; callers of QuoteText get the fallback string instead.
var ErrUnavailable = errors.New("market data unavailable")

// Quote is one live price observation.
type Quote struct {
	Symbol string
	Price  decimal.Decimal
	AsOf   time.Time
}

// Provider is what the conversation engine sees.
type Provider interface {
	// Advisory returns the canned market snippet for a goal. Total: unknown
	// goals resolve to the unspecified entry.
	Advisory(goal string) string
	// QuoteText returns a formatted price line for a symbol, or the
	// deterministic fallback when the fetch fails. It never errors.
	QuoteText(ctx context.Context, symbol string) string
}

// advisories is the canned goal -> snippet table, immutable after init.
var advisories = map[string]string{
	consts.GoalRetirement: "Interest rates are high, so bonds and fixed-income funds are paying " +
		"again; broad index funds remain the steady core of long-horizon retirement portfolios.",
	consts.GoalHome: "Mortgage rates are elevated and housing inventory is tight; larger down " +
		"payments are doing more work than usual.",
	consts.GoalVacation: "Short-horizon savings belong in high-yield savings accounts or " +
		"money-market funds, not in volatile equities.",
	consts.GoalEducation: "Education costs keep outpacing inflation; tax-advantaged education " +
		"accounts compound that advantage over a long runway.",
	consts.GoalUnspecified: "Interest rates are high, tech stocks are volatile, and index funds " +
		"remain stable.",
}

// FetchFunc fetches one quote. Swappable so tests never touch the network.
type FetchFunc func(symbol string) (*Quote, error)

// Service implements Provider on top of the Yahoo Finance quote API.
type Service struct {
	fetch   FetchFunc
	timeout time.Duration
	retry   *retry.Config
	logger  *log.Logger
}

func NewService(timeout time.Duration, logger *log.Logger) *Service {
	return &Service{
		fetch:   yahooFetch,
		timeout: timeout,
		retry:   retry.DefaultConfig(),
		logger:  logger,
	}
}

// WithFetch replaces the fetch function; used by tests and offline mode.
func (s *Service) WithFetch(fn FetchFunc) *Service {
	s.fetch = fn
	return s
}

func (s *Service) Advisory(goal string) string {
	if text, ok := advisories[goal]; ok {
		return text
	}
	return advisories[consts.GoalUnspecified]
}

func (s *Service) QuoteText(ctx context.Context, symbol string) string {
	symbol = Normalize(symbol)

	q, err := s.getQuote(ctx, symbol)
	if err != nil {
		s.logger.Warn("live quote failed, using fallback", "symbol", symbol, "error", err)
		return "Sorry, I couldn't fetch data for " + symbol
	}

	return fmt.Sprintf("%s is trading at $%s as of %s.",
		q.Symbol, q.Price.StringFixed(2), q.AsOf.Format("Jan 2 15:04 MST"))
}

func (s *Service) getQuote(ctx context.Context, symbol string) (*Quote, error) {
	if err := Validate(symbol); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *Quote
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		q, err := s.fetch(symbol)
		if err != nil {
			return fmt.Errorf("fetch quote for %s: %w", symbol, err)
		}
		result = q
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	return result, nil
}

func yahooFetch(symbol string) (*Quote, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("no quote returned for %s", symbol)
	}

	return &Quote{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(q.RegularMarketPrice),
		AsOf:   time.Unix(int64(q.RegularMarketTime), 0),
	}, nil
}
