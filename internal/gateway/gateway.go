// Package gateway is the chat-completion boundary. The engine only sees the
// Chat interface; concrete clients (eino openai binding, raw Groq HTTP) and
// the retry/timeout discipline live here.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finchat/advisor/config"
	"github.com/finchat/advisor/consts"
	"github.com/finchat/advisor/internal/retry"
	"github.com/finchat/advisor/models"
)

// ErrGateway marks a chat completion that failed after retry exhaustion.
// Callers surface this to the client; history is not updated for the turn.
var ErrGateway = errors.New("llm gateway error")

// Chat produces an assistant reply for an ordered list of role-tagged turns
// (system first, then history).
type Chat interface {
	Complete(ctx context.Context, turns []models.Turn) (string, error)
}

// New builds the configured provider wrapped with the call discipline every
// gateway call gets: a fixed timeout and at most one jittered retry.
func New(ctx context.Context, cfg *config.Config) (Chat, error) {
	var inner Chat
	var err error

	switch cfg.LLMProvider {
	case consts.ProviderOpenAI:
		inner, err = NewEinoChat(ctx, cfg)
	case consts.ProviderGroq:
		inner = NewGroqChat(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
	if err != nil {
		return nil, err
	}

	return Bounded(inner, cfg.GatewayTimeout()), nil
}

// Bounded wraps a Chat with a per-call timeout and a single jittered retry.
func Bounded(inner Chat, timeout time.Duration) Chat {
	return &bounded{inner: inner, timeout: timeout, retry: retry.DefaultConfig()}
}

type bounded struct {
	inner   Chat
	timeout time.Duration
	retry   *retry.Config
}

func (b *bounded) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	var reply string
	err := retry.Do(ctx, b.retry, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		out, err := b.inner.Complete(callCtx, turns)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrGateway, err)
	}
	return reply, nil
}
