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
// Package client consumes the louped SSE chat stream.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loupe-labs/loupe/pkg/chat"
	"github.com/loupe-labs/loupe/pkg/stream"
	"github.com/loupe-labs/loupe/pkg/trace"
)

// DefaultTimeout bounds one whole streaming request.
const DefaultTimeout = 5 * time.Minute

// maxLineSize accommodates spans carrying full tracebacks.
const maxLineSize = 1024 * 1024

// Config configures the stream client.
type Config struct {
	// ServerAddr is the louped base URL, e.g. "http://localhost:5173".
	ServerAddr string
	// Timeout for one whole request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Client talks to a louped server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a stream client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.ServerAddr, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Stream sends one chat request and invokes onMessage for every stream
// message, in order, until the server closes the stream. Returns when the
// stream ends; a non-nil error means the transport failed, not the request
// (request failures arrive as an error-typed message).
func (c *Client) Stream(ctx context.Context, req chat.Request, onMessage func(stream.Message)) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(respBody))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		jsonData := strings.TrimPrefix(line, "data: ")

		msg, err := decodeMessage([]byte(jsonData))
		if err != nil {
			// Skip malformed events but keep the stream alive.
			continue
		}
		onMessage(msg)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}
	return nil
}

// decodeMessage parses one envelope, resolving Data to a trace.Span for
// debug messages and to a string otherwise.
func decodeMessage(data []byte) (stream.Message, error) {
	var raw struct {
		Type stream.MessageType `json:"type"`
		Data json.RawMessage    `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return stream.Message{}, fmt.Errorf("invalid envelope: %w", err)
	}

	msg := stream.Message{Type: raw.Type}
	switch raw.Type {
	case stream.MessageDebug:
		var span trace.Span
		if err := json.Unmarshal(raw.Data, &span); err != nil {
			return stream.Message{}, fmt.Errorf("invalid span payload: %w", err)
		}
		msg.Data = span
	case stream.MessageChat, stream.MessageError:
		var s string
		if err := json.Unmarshal(raw.Data, &s); err != nil {
			return stream.Message{}, fmt.Errorf("invalid text payload: %w", err)
		}
		msg.Data = s
	default:
		return stream.Message{}, fmt.Errorf("unknown message type %q", raw.Type)
	}
	return msg, nil
}
