package gateway

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"github.com/finchat/advisor/config"
	"github.com/finchat/advisor/consts"
	"github.com/finchat/advisor/models"
)

// EinoChat completes turns through the eino openai chat-model binding. Any
// OpenAI-compatible backend works by pointing BaseURL at it.
type EinoChat struct {
	model *openai.ChatModel
}

func NewEinoChat(ctx context.Context, cfg *config.Config) (*EinoChat, error) {
	maxTokens := 2048
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   cfg.LLMBaseURL,
		APIKey:    cfg.LLMAPIKey,
		Model:     cfg.LLMModel,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &EinoChat{model: chatModel}, nil
}

func (c *EinoChat) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case consts.RoleSystem:
			messages = append(messages, schema.SystemMessage(turn.Content))
		case consts.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(turn.Content))
		}
	}

	out, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return out.Content, nil
}
