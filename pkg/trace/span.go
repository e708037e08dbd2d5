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
// Package trace records the execution of a single request as a tree of spans
// and streams them to subscribers as they begin and complete.
//
// A Recorder is scoped to one request. Operations are wrapped with Instrument,
// which begins a span before the operation runs and completes it afterwards;
// nesting is derived from the recorder's open-call stack. Every span is
// emitted twice: once as pending when it begins, and once more under the same
// id with its terminal status and content.
package trace

import (
	"time"
)

// Status is the lifecycle state of a span. A span starts pending and
// transitions exactly once, to either success or error.
type Status string

const (
	// StatusPending marks a span whose operation is still running.
	StatusPending Status = "pending"
	// StatusSuccess marks a span whose operation returned normally.
	StatusSuccess Status = "success"
	// StatusError marks a span whose operation returned an error.
	StatusError Status = "error"
)

// ContentType distinguishes plain text content from structured payloads.
type ContentType string

const (
	// ContentInline is plain text rendered directly in the trace list.
	ContentInline ContentType = "inline"
	// ContentStructured is a payload the client can open in the inspector.
	// The wire tag is "clickable" for compatibility with the web client.
	ContentStructured ContentType = "clickable"
)

// Content is the two-variant payload of a span.
type Content struct {
	Type ContentType `json:"type"`
	Data any         `json:"data"`
}

// SourceLocation describes where the instrumented function is defined.
type SourceLocation struct {
	FilePath     string `json:"file_path,omitempty"`
	StartLine    int    `json:"start_line,omitempty"`
	FunctionName string `json:"function_name,omitempty"`
	Signature    string `json:"signature,omitempty"`
	Docstring    string `json:"docstring,omitempty"`
}

// Span is one recorded operation within a request. Ids increase
// monotonically; ParentID references an earlier span of the same request and
// Level is always one more than the parent's.
type Span struct {
	ID           int             `json:"id"`
	ParentID     *int            `json:"parent_id"`
	Level        int             `json:"level"`
	Timestamp    string          `json:"timestamp"`
	Title        string          `json:"title"`
	Status       Status          `json:"status"`
	Content      Content         `json:"content"`
	FunctionName string          `json:"function_name,omitempty"`
	Source       *SourceLocation `json:"source_location,omitempty"`
}

// Structured reports whether the span carries an inspectable payload.
func (s *Span) Structured() bool {
	return s.Content.Type == ContentStructured
}

// Failed reports whether the span completed with an error.
func (s *Span) Failed() bool {
	return s.Status == StatusError
}

// clone returns a copy safe to hand to another goroutine. ParentID and
// Source are duplicated; Content.Data is guard-validated before it is ever
// attached, so sharing it is fine.
func (s *Span) clone() Span {
	c := *s
	if s.ParentID != nil {
		id := *s.ParentID
		c.ParentID = &id
	}
	if s.Source != nil {
		src := *s.Source
		c.Source = &src
	}
	return c
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
