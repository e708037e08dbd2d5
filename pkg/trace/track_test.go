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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracedContext(t *testing.T) (context.Context, *Recorder) {
	t.Helper()
	r := NewRecorder()
	return NewContext(t.Context(), r), r
}

func TestInstrument_SuccessRecordsResult(t *testing.T) {
	ctx, rec := tracedContext(t)

	op := Instrument(func(ctx context.Context) (string, error) {
		return "done", nil
	}, WithTitle("Doing Work"), WithInputs(map[string]any{"message": "hi"}))

	out, err := op(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", out, "result passes through unchanged")

	spans := rec.Spans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "Doing Work", span.Title)
	assert.Equal(t, StatusSuccess, span.Status)

	payload, ok := span.Content.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", payload["message"])
	assert.Equal(t, "done", payload["result"])
}

func TestInstrument_ErrorIsRecordedAndReturned(t *testing.T) {
	ctx, rec := tracedContext(t)
	boom := errors.New("api unreachable")

	op := Instrument(func(ctx context.Context) (string, error) {
		return "", boom
	}, WithTitle("Calling Model"))

	_, err := op(ctx)
	require.ErrorIs(t, err, boom, "the original error must not be swallowed")

	spans := rec.Spans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, StatusError, span.Status)
	assert.True(t, span.Structured())

	payload, ok := span.Content.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "api unreachable", payload["error_message"])
	assert.Equal(t, "*errors.errorString", payload["error_type"])
	trace, _ := payload["full_traceback"].(string)
	assert.NotEmpty(t, trace)
	assert.Contains(t, trace, "goroutine")
}

func TestInstrument_NestedOperations(t *testing.T) {
	ctx, rec := tracedContext(t)

	inner := Instrument(func(ctx context.Context) (int, error) {
		return 7, nil
	}, WithTitle("B"))

	outer := Instrument(func(ctx context.Context) (int, error) {
		return inner(ctx)
	}, WithTitle("A"))

	_, err := outer(ctx)
	require.NoError(t, err)

	spans := rec.Spans()
	require.Len(t, spans, 2)
	a, b := spans[0], spans[1]
	assert.Equal(t, "A", a.Title)
	assert.Equal(t, "B", b.Title)
	require.NotNil(t, b.ParentID)
	assert.Equal(t, a.ID, *b.ParentID)
	assert.Equal(t, a.Level+1, b.Level)
}

func TestInstrument_LongStringResultIsSummarized(t *testing.T) {
	ctx, rec := tracedContext(t)

	op := Instrument(func(ctx context.Context) (string, error) {
		return strings.Repeat("a", 5000), nil
	}, WithTitle("Generating"))

	out, err := op(ctx)
	require.NoError(t, err)
	assert.Len(t, out, 5000, "the caller still gets the verbatim result")

	payload := rec.Spans()[0].Content.Data.(map[string]any)
	assert.Equal(t, "<string: 5000 chars>", payload["result"])
}

func TestInstrument_NonSerializableResultBecomesPlaceholder(t *testing.T) {
	ctx, rec := tracedContext(t)

	op := Instrument(func(ctx context.Context) (chan int, error) {
		return make(chan int), nil
	}, WithTitle("Opening Channel"))

	_, err := op(ctx)
	require.NoError(t, err, "an unserializable result must not fail the operation")

	payload := rec.Spans()[0].Content.Data.(map[string]any)
	assert.Equal(t, "<chan int object>", payload["result"])
}

func TestInstrument_WithoutResult(t *testing.T) {
	ctx, rec := tracedContext(t)

	op := Instrument(func(ctx context.Context) (string, error) {
		return "streamed elsewhere", nil
	}, WithTitle("Calling Model"), WithoutResult())

	_, err := op(ctx)
	require.NoError(t, err)

	span := rec.Spans()[0]
	assert.Equal(t, StatusSuccess, span.Status)
	if payload, ok := span.Content.Data.(map[string]any); ok {
		assert.NotContains(t, payload, "result")
	}
}

func TestInstrument_WithoutInputs(t *testing.T) {
	ctx, rec := tracedContext(t)

	op := Instrument(func(ctx context.Context) (int, error) {
		return 1, nil
	}, WithTitle("Quiet"), WithInputs(map[string]any{"secret": "key"}), WithoutInputs())

	_, err := op(ctx)
	require.NoError(t, err)

	if payload, ok := rec.Spans()[0].Content.Data.(map[string]any); ok {
		assert.NotContains(t, payload, "secret")
	}
}

func TestInstrument_NoRecorderRunsUntraced(t *testing.T) {
	op := Instrument(func(ctx context.Context) (string, error) {
		return "plain", nil
	})

	out, err := op(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}

func TestInstrument_DerivesTitleFromFunction(t *testing.T) {
	ctx, rec := tracedContext(t)

	op := Instrument(prepareGreeting)
	_, err := op(ctx)
	require.NoError(t, err)

	span := rec.Spans()[0]
	assert.Equal(t, "Executing Prepare Greeting", span.Title)
	assert.Equal(t, "prepareGreeting", span.FunctionName)
	require.NotNil(t, span.Source)
	assert.Contains(t, span.Source.FilePath, "track_test.go")
}

func prepareGreeting(ctx context.Context) (string, error) {
	return "hello", nil
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PrepareMessages", "Prepare Messages"},
		{"prepareGreeting", "Prepare Greeting"},
		{"call_model", "Call Model"},
		{"Pipeline.validateKey", "Validate Key"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanize(tt.in), tt.in)
	}
}
