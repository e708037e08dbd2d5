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
// Package chat runs the request pipeline: validate, assemble the
// conversation, call the model, stream the answer. Every step is an
// instrumented operation, so the client sees the pipeline unfold span by
// span while the response streams.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/loupe-labs/loupe/pkg/llm"
	"github.com/loupe-labs/loupe/pkg/trace"
)

// DefaultSystemPrompt is used when neither the pipeline nor the request
// provides one.
const DefaultSystemPrompt = "You are a helpful assistant. Answer clearly and concisely."

// ErrInvalidAPIKey indicates a missing or malformed provider API key.
var ErrInvalidAPIKey = fmt.Errorf("invalid API key format")

// Request is one chat turn from the client.
type Request struct {
	UserMessage string `json:"user_message"`
	// DeveloperMessage overrides the pipeline's system prompt for this
	// request.
	DeveloperMessage string `json:"developer_message,omitempty"`
	// MessageChain carries prior turns or few-shot examples, in order.
	MessageChain []llm.Message `json:"message_chain,omitempty"`
}

// Pipeline orchestrates one request against a provider.
type Pipeline struct {
	provider     llm.Provider
	apiKey       string
	systemPrompt string
	logger       *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAPIKey sets the key checked by the validation step.
func WithAPIKey(key string) Option {
	return func(p *Pipeline) { p.apiKey = key }
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(p *Pipeline) { p.systemPrompt = prompt }
}

// WithPipelineLogger sets the pipeline logger.
func WithPipelineLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline around the given provider.
func NewPipeline(provider llm.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider:     provider,
		systemPrompt: DefaultSystemPrompt,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stream processes one request, emitting response chunks as they are
// generated. Spans are recorded on the recorder carried in ctx; errors
// propagate to the caller after being recorded.
func (p *Pipeline) Stream(ctx context.Context, req Request, emit func(chunk string)) error {
	rec := trace.FromContext(ctx)
	if rec != nil {
		rec.Log("Processing Chat Message", trace.StatusSuccess,
			trace.WithData(map[string]any{"user_message": req.UserMessage}),
			trace.WithFunctionName("Stream"))
	}

	validate := trace.Instrument(func(ctx context.Context) (bool, error) {
		return true, p.validateKey()
	}, trace.WithTitle("Validating API Key"), trace.WithoutInputs())
	if _, err := validate(ctx); err != nil {
		return err
	}

	prepare := trace.Instrument(func(ctx context.Context) ([]llm.Message, error) {
		return p.prepareMessages(req)
	},
		trace.WithTitle("Preparing Messages"),
		trace.WithInputs(map[string]any{
			"user_message":  req.UserMessage,
			"chain_length":  len(req.MessageChain),
			"custom_prompt": req.DeveloperMessage != "",
		}))
	messages, err := prepare(ctx)
	if err != nil {
		return err
	}

	callModel := trace.Instrument(func(ctx context.Context) (*llm.Response, error) {
		return p.provider.ChatStream(ctx, messages, func(token string) {
			emit(token)
		})
	},
		trace.WithTitle("Calling "+p.provider.Name()+" API"),
		trace.WithInputs(map[string]any{
			"model":         p.provider.Model(),
			"message_count": len(messages),
		}),
		// The response streams chunk by chunk; embedding it again in the
		// span would duplicate the whole answer.
		trace.WithoutResult())
	resp, err := callModel(ctx)
	if err != nil {
		return err
	}

	if rec != nil {
		rec.Log("Chat Processing Complete", trace.StatusSuccess,
			trace.WithData(map[string]any{
				"response_length": len(resp.Content),
				"stop_reason":     resp.StopReason,
				"input_tokens":    resp.Usage.InputTokens,
				"output_tokens":   resp.Usage.OutputTokens,
			}),
			trace.WithFunctionName("Stream"))
	}

	p.logger.Debug("chat request complete",
		zap.Int("response_length", len(resp.Content)),
		zap.Int("output_tokens", resp.Usage.OutputTokens))
	return nil
}

// validateKey rejects obviously malformed provider keys before any call is
// attempted.
func (p *Pipeline) validateKey() error {
	if p.apiKey == "" || !strings.HasPrefix(p.apiKey, "sk-") {
		return ErrInvalidAPIKey
	}
	return nil
}

// prepareMessages assembles the conversation: system prompt first, then the
// prior chain, then the current user message. Empty chain turns are skipped.
func (p *Pipeline) prepareMessages(req Request) ([]llm.Message, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return nil, fmt.Errorf("user message is empty")
	}

	prompt := p.systemPrompt
	if req.DeveloperMessage != "" {
		prompt = req.DeveloperMessage
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: prompt}}
	for _, turn := range req.MessageChain {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		role := turn.Role
		if role == "" {
			role = llm.RoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: req.UserMessage}), nil
}
