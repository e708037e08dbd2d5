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
// Package stream interleaves a request's primary output with its span
// notifications on one ordered channel.
package stream

import "github.com/loupe-labs/loupe/pkg/trace"

// MessageType tags a stream envelope.
type MessageType string

const (
	// MessageChat carries a chunk of the primary response text.
	MessageChat MessageType = "chat"
	// MessageDebug carries a span lifecycle notification.
	MessageDebug MessageType = "debug"
	// MessageError is the terminal message of a failed request.
	MessageError MessageType = "error"
)

// Message is the wire envelope, one per transport event. Data is a string
// for chat and error messages and a trace.Span for debug messages.
type Message struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

// Chat wraps a content chunk.
func Chat(chunk string) Message {
	return Message{Type: MessageChat, Data: chunk}
}

// Debug wraps a span notification.
func Debug(span trace.Span) Message {
	return Message{Type: MessageDebug, Data: span}
}

// Error wraps the terminal failure text.
func Error(msg string) Message {
	return Message{Type: MessageError, Data: msg}
}
