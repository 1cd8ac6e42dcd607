// Package anthropic implements capability.Capability using the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/presentable/feedback/capability"
	"github.com/presentable/feedback/core"
)

// Options configure the Anthropic capability adapter (model id, temperature,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Capability wraps the Anthropic Messages API behind the generic
// capability.Capability interface.
type Capability struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic capability using the official client.
func New(optFns ...func(o *Options)) *Capability {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Capability{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic capability from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Capability {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Capability{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   512,
	}
}

// FollowUp requests a single clarifying question for the current exchange.
func (c *Capability) FollowUp(ctx context.Context, req capability.Request) (capability.Response, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		System:      []anthropic.TextBlockParam{{Text: capability.Instructions(req)}},
		Messages:    buildMessages(req),
	})
	if err != nil {
		return capability.Response{}, fmt.Errorf("anthropic api error: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	message := strings.TrimSpace(b.String())
	if message == "" {
		return capability.Response{}, fmt.Errorf("empty completion")
	}
	return capability.Response{Message: message}, nil
}

// buildMessages converts the exchange trail to the Anthropic message format.
// The Messages API requires the conversation to start with a user turn, which
// the trail guarantees (an exchange always opens with the user's answer).
func buildMessages(req capability.Request) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, msg := range req.Trail {
		switch msg.Role {
		case core.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return messages
}
