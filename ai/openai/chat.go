package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/medassist/ai"
	"github.com/poiesic/medassist/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyCompletion indicates the model returned no choices.
var ErrEmptyCompletion = errors.New("model returned no completion choices")

// Chat implements ai.ChatModel using OpenAI-compatible chat APIs.
type Chat struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newChat is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChat(config *ai.Config) (*Chat, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Chat{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChat creates a new chat completion client using the provided
// configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChat(config *ai.Config) (ai.ChatModel, error) {
	return newChat(config)
}

// Generate invokes the chat model with the ordered turn list and returns
// the assistant reply text.
func (c *Chat) Generate(ctx context.Context, turns []core.Turn) (string, error) {
	content := make([]llms.MessageContent, 0, len(turns))
	for _, turn := range turns {
		content = append(content, llms.MessageContent{
			Role:  messageTypeForRole(turn.Role),
			Parts: []llms.ContentPart{llms.TextPart(turn.Content)},
		})
	}

	c.logger.Debug("generating completion", "turns", len(content))
	response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(c.temperature))
	if err != nil {
		c.logger.Error("failed to generate completion", "err", err)
		return "", err
	}

	if len(response.Choices) == 0 {
		c.logger.Warn("no choices returned from model")
		return "", ErrEmptyCompletion
	}

	return response.Choices[0].Content, nil
}

// messageTypeForRole maps domain roles onto the wire-level message types.
func messageTypeForRole(role core.Role) llms.ChatMessageType {
	switch role {
	case core.RoleSystem:
		return llms.ChatMessageTypeSystem
	case core.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
