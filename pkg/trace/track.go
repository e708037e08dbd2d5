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
package trace

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
	"unicode"
)

// Operation is a unit of work that can be instrumented.
type Operation[T any] func(ctx context.Context) (T, error)

// Config controls how an operation is recorded.
type Config struct {
	// Title is the human label of the span. Derived from the wrapped
	// function's name when empty.
	Title string
	// ContentType of the recorded payload. Structured by default.
	ContentType ContentType
	// TrackInputs attaches the guarded Inputs map to the span.
	TrackInputs bool
	// TrackResult attaches the guarded result on success.
	TrackResult bool
	// Inputs are the operation's named inputs, captured at the call site.
	Inputs map[string]any
	// FunctionName overrides the reflected name of the wrapped function.
	FunctionName string
}

// Option configures instrumentation.
type Option func(*Config)

// WithTitle sets the span title.
func WithTitle(title string) Option {
	return func(c *Config) { c.Title = title }
}

// Inline records the span with inline instead of structured content.
func Inline() Option {
	return func(c *Config) { c.ContentType = ContentInline }
}

// WithInputs captures the operation's named inputs.
func WithInputs(inputs map[string]any) Option {
	return func(c *Config) { c.Inputs = inputs }
}

// WithoutInputs disables input capture.
func WithoutInputs() Option {
	return func(c *Config) { c.TrackInputs = false }
}

// WithoutResult disables result capture. Use for operations whose result is
// streamed separately or too large to embed.
func WithoutResult() Option {
	return func(c *Config) { c.TrackResult = false }
}

// Instrument wraps op so that running it begins a span on the recorder in
// ctx, records the guarded inputs and result, and completes the span with
// success or error. The wrapped operation's result and error pass through
// unchanged; in particular an error is recorded and then returned, never
// swallowed. Without a recorder in ctx the operation runs untraced.
func Instrument[T any](op Operation[T], opts ...Option) Operation[T] {
	cfg := Config{
		ContentType: ContentStructured,
		TrackInputs: true,
		TrackResult: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	name, source := describe(op)
	if cfg.FunctionName == "" {
		cfg.FunctionName = name
	}
	if cfg.Title == "" {
		cfg.Title = "Executing " + humanize(cfg.FunctionName)
	}

	return func(ctx context.Context) (T, error) {
		rec := FromContext(ctx)
		if rec == nil {
			return op(ctx)
		}

		var inputs map[string]any
		if cfg.TrackInputs {
			inputs = GuardMap(cfg.Inputs)
		}

		spanOpts := []SpanOption{
			WithContentType(cfg.ContentType),
			WithFunctionName(cfg.FunctionName),
		}
		if source != nil {
			spanOpts = append(spanOpts, WithSource(*source))
		}
		if inputs != nil {
			spanOpts = append(spanOpts, WithData(inputs))
		}
		h := rec.Begin(cfg.Title, spanOpts...)

		result, err := op(ctx)
		if err != nil {
			rec.Complete(h, StatusError, failurePayload(err, inputs, cfg.FunctionName))
			return result, err
		}

		payload := make(map[string]any, len(inputs)+1)
		for k, v := range inputs {
			payload[k] = v
		}
		if cfg.TrackResult && !isNil(result) {
			payload["result"] = GuardResult(result)
		}
		var data any
		if len(payload) > 0 {
			data = payload
		}
		rec.Complete(h, StatusSuccess, data)
		return result, nil
	}
}

// failurePayload assembles the diagnostic content of an error span: the
// captured inputs plus message, error kind, and the full stack trace.
func failurePayload(err error, inputs map[string]any, funcName string) map[string]any {
	payload := make(map[string]any, len(inputs)+4)
	for k, v := range inputs {
		payload[k] = v
	}
	payload["error_message"] = err.Error()
	payload["error_type"] = fmt.Sprintf("%T", err)
	payload["full_traceback"] = string(debug.Stack())
	if funcName != "" {
		payload["function_name"] = funcName
	}
	return payload
}

// describe resolves the wrapped function's short name and definition site.
func describe(op any) (string, *SourceLocation) {
	pc := reflect.ValueOf(op).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "", nil
	}
	file, line := fn.FileLine(pc)
	name := shortFuncName(fn.Name())
	return name, &SourceLocation{
		FilePath:     file,
		StartLine:    line,
		FunctionName: name,
	}
}

// shortFuncName strips the package path and any closure suffixes from a
// runtime function name like "pkg/chat.(*Pipeline).prepare.func1".
func shortFuncName(full string) string {
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.Index(full, "."); i >= 0 {
		full = full[i+1:]
	}
	full = strings.TrimPrefix(full, "(*")
	full = strings.ReplaceAll(full, ")", "")
	// Drop trailing .funcN closure markers.
	parts := strings.Split(full, ".")
	for len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "func") {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

// humanize turns an identifier like "PrepareMessages" or
// "prepare_messages" into "Prepare Messages".
func humanize(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, "_", " ")
	var b strings.Builder
	var prev rune
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(prev) && prev != ' ' {
			b.WriteRune(' ')
		}
		if i == 0 || prev == ' ' {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
