// Copyright 2026 Loupe Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package anthropic implements the llm.Provider interface on the official
// Anthropic SDK.
package anthropic

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/loupe-labs/loupe/pkg/llm"
)

const (
	// DefaultModel is the default Claude model.
	DefaultModel = "claude-sonnet-4-5-20250929"
	// DefaultMaxTokens is the default maximum tokens per request.
	DefaultMaxTokens = 4096
	// DefaultTemperature is the default sampling temperature.
	DefaultTemperature = 1.0
)

// Config holds configuration for the Anthropic client.
type Config struct {
	APIKey      string
	Model       string  // Default: claude-sonnet-4-5-20250929
	MaxTokens   int     // Default: 4096
	Temperature float64 // Default: 1.0
}

// Client implements llm.Provider for Anthropic's Messages API.
type Client struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewClient creates a new Anthropic client.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		if envModel := os.Getenv("ANTHROPIC_DEFAULT_MODEL"); envModel != "" {
			cfg.Model = envModel
		} else {
			cfg.Model = DefaultModel
		}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	return &Client{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "anthropic"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// ChatStream sends the conversation and streams text deltas through onToken.
func (c *Client) ChatStream(ctx context.Context, messages []llm.Message, onToken llm.TokenCallback) (*llm.Response, error) {
	systemPrompt, sdkMessages := convertMessages(messages)
	if len(sdkMessages) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		Messages:    sdkMessages,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)

	var content strings.Builder
	var usage llm.Usage
	var stopReason string

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			usage.InputTokens = int(event.Message.Usage.InputTokens)

		case "content_block_delta":
			if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				content.WriteString(event.Delta.Text)
				if onToken != nil {
					onToken(event.Delta.Text)
				}
			}

		case "message_delta":
			if event.Delta.StopReason != "" {
				stopReason = string(event.Delta.StopReason)
			}
			if event.Usage.OutputTokens > 0 {
				usage.OutputTokens = int(event.Usage.OutputTokens)
			}
		}
	}

	// EOF is the normal end of the event stream.
	if err := stream.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("stream error: %w", err)
	}

	return &llm.Response{
		Content:    content.String(),
		StopReason: stopReason,
		Usage:      usage,
	}, nil
}

var _ llm.Provider = (*Client)(nil)

// convertMessages splits out system messages (the Messages API takes them as
// a separate field) and converts the rest to SDK params.
func convertMessages(messages []llm.Message) (string, []anthropic.MessageParam) {
	var systemParts []string
	var sdkMessages []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case llm.RoleAssistant:
			sdkMessages = append(sdkMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			sdkMessages = append(sdkMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}
	return strings.Join(systemParts, "\n\n"), sdkMessages
}
