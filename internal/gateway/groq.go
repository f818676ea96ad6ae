package gateway

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/finchat/advisor/config"
	"github.com/finchat/advisor/models"
)

// GroqChat talks to Groq's OpenAI-compatible chat-completions endpoint
// directly, without an SDK in between.
type GroqChat struct {
	client *resty.Client
	model  string
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []models.Turn `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewGroqChat(cfg *config.Config) *GroqChat {
	client := resty.New()
	client.SetBaseURL(cfg.LLMBaseURL)
	client.SetAuthToken(cfg.LLMAPIKey)
	client.SetHeader("Content-Type", "application/json")

	return &GroqChat{
		client: client,
		model:  cfg.LLMModel,
	}
}

func (c *GroqChat) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	var result chatCompletionResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&chatCompletionRequest{Model: c.model, Messages: turns}).
		SetResult(&result).
		SetError(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}

	if resp.IsError() {
		if result.Error != nil {
			return "", fmt.Errorf("chat completion failed: %s (%s)", result.Error.Message, result.Error.Type)
		}
		return "", fmt.Errorf("chat completion failed: status %d", resp.StatusCode())
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}
