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
// Package llm defines the provider boundary of the chat pipeline. The
// pipeline treats a completion call as an ordinary instrumented operation:
// it either streams text back or fails, and the tracing layer records
// whichever happens.
package llm

import "context"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to the provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenCallback receives each streamed token as it is generated.
type TokenCallback func(token string)

// Usage reports token consumption of one completion call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the final result of a completion call.
type Response struct {
	Content    string `json:"content"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      Usage  `json:"usage"`
}

// Provider is a streaming completion backend.
type Provider interface {
	// Name returns the provider identifier (e.g. "anthropic").
	Name() string
	// Model returns the configured model identifier.
	Model() string
	// ChatStream sends the conversation and streams tokens through
	// onToken as they arrive, returning the assembled response.
	ChatStream(ctx context.Context, messages []Message, onToken TokenCallback) (*Response, error)
}
