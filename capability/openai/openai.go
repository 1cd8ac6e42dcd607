// Package openai implements capability.Capability using the OpenAI Chat
// Completions API. It adapts the engine's normalized request into the SDK's
// message format and extracts the single follow-up message from the response.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/presentable/feedback/capability"
	"github.com/presentable/feedback/core"
)

// Options configure the OpenAI capability adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Capability wraps the OpenAI Chat Completions API behind the generic
// capability.Capability interface.
type Capability struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI capability using the official client (API key
// taken from the environment).
func New(optFns ...func(o *Options)) *Capability {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI capability from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Capability {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Capability{client: client, opts: opts}
}

// FollowUp requests a single clarifying question for the current exchange.
func (c *Capability) FollowUp(ctx context.Context, req capability.Request) (capability.Response, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	})
	if err != nil {
		return capability.Response{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return capability.Response{}, fmt.Errorf("no choices returned")
	}
	message := strings.TrimSpace(resp.Choices[0].Message.Content)
	if message == "" {
		return capability.Response{}, fmt.Errorf("empty completion")
	}
	return capability.Response{Message: message}, nil
}

// buildMessages converts the normalized request into OpenAI chat messages:
// one system message carrying the question and its reference context, then
// the exchange trail in order.
func buildMessages(req capability.Request) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(capability.Instructions(req)),
	}
	for _, msg := range req.Trail {
		switch msg.Role {
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	return messages
}
