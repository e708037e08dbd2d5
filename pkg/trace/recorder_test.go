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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain collects everything currently queued on the notification channel.
func drain(r *Recorder) []Span {
	var out []Span
	for {
		select {
		case s := <-r.Notifications():
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestRecorder_BeginAssignsIncreasingIDs(t *testing.T) {
	r := NewRecorder()

	h1 := r.Begin("first")
	r.Complete(h1, StatusSuccess, nil)
	h2 := r.Begin("second")
	r.Complete(h2, StatusSuccess, nil)
	h3 := r.Begin("third")
	r.Complete(h3, StatusSuccess, nil)

	spans := r.Spans()
	require.Len(t, spans, 3)
	for i := 1; i < len(spans); i++ {
		assert.Greater(t, spans[i].ID, spans[i-1].ID)
	}
}

func TestRecorder_NestingDerivesParentAndLevel(t *testing.T) {
	r := NewRecorder()

	outer := r.Begin("outer")
	inner := r.Begin("inner")
	innermost := r.Begin("innermost")
	r.Complete(innermost, StatusSuccess, nil)
	r.Complete(inner, StatusSuccess, nil)
	r.Complete(outer, StatusSuccess, nil)

	spans := r.Spans()
	require.Len(t, spans, 3)

	assert.Nil(t, spans[0].ParentID)
	assert.Equal(t, 0, spans[0].Level)

	require.NotNil(t, spans[1].ParentID)
	assert.Equal(t, spans[0].ID, *spans[1].ParentID)
	assert.Equal(t, spans[0].Level+1, spans[1].Level)

	require.NotNil(t, spans[2].ParentID)
	assert.Equal(t, spans[1].ID, *spans[2].ParentID)
	assert.Equal(t, spans[1].Level+1, spans[2].Level)
}

func TestRecorder_SiblingsShareParent(t *testing.T) {
	r := NewRecorder()

	parent := r.Begin("parent")
	a := r.Begin("a")
	r.Complete(a, StatusSuccess, nil)
	b := r.Begin("b")
	r.Complete(b, StatusSuccess, nil)
	r.Complete(parent, StatusSuccess, nil)

	spans := r.Spans()
	require.Len(t, spans, 3)
	require.NotNil(t, spans[1].ParentID)
	require.NotNil(t, spans[2].ParentID)
	assert.Equal(t, *spans[1].ParentID, *spans[2].ParentID)
	assert.Equal(t, spans[1].Level, spans[2].Level)
}

func TestRecorder_EmitsPendingThenTerminal(t *testing.T) {
	r := NewRecorder()

	h := r.Begin("op")
	pending := drain(r)
	require.Len(t, pending, 1)
	assert.Equal(t, StatusPending, pending[0].Status)

	r.Complete(h, StatusSuccess, map[string]any{"result": 42})
	done := drain(r)
	require.Len(t, done, 1)
	assert.Equal(t, pending[0].ID, done[0].ID, "completion re-emits the same id")
	assert.Equal(t, StatusSuccess, done[0].Status)
}

func TestRecorder_StatusTransitionsOnlyOnce(t *testing.T) {
	r := NewRecorder()

	h := r.Begin("op")
	r.Complete(h, StatusError, nil)
	r.Complete(h, StatusSuccess, nil)

	spans := r.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, StatusError, spans[0].Status, "second completion must not reverse status")
}

func TestRecorder_StackMismatchDoesNotPanic(t *testing.T) {
	r := NewRecorder()

	outer := r.Begin("outer")
	inner := r.Begin("inner")

	// Completing the outer span while the inner one is still open is an
	// internal inconsistency; the recorder must repair, not crash.
	require.NotPanics(t, func() {
		r.Complete(outer, StatusSuccess, nil)
		r.Complete(inner, StatusSuccess, nil)
	})
	assert.Equal(t, 0, r.Depth())
}

func TestRecorder_ErrorCompletionForcesStructuredContent(t *testing.T) {
	r := NewRecorder()

	h := r.Begin("op", WithContentType(ContentInline))
	r.Complete(h, StatusError, map[string]any{"error_message": "boom"})

	spans := r.Spans()
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Structured(), "failures must open in the inspector")
}

func TestRecorder_ResetStartsFresh(t *testing.T) {
	r := NewRecorder()

	h := r.Begin("first request work")
	r.Complete(h, StatusSuccess, nil)
	drain(r)

	r.Reset()
	assert.Empty(t, r.Spans())
	assert.Equal(t, 0, r.Depth())

	h = r.Begin("second request work")
	r.Complete(h, StatusSuccess, nil)
	spans := r.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, 1, spans[0].ID, "ids restart at 1 after reset")
	assert.Equal(t, 0, spans[0].Level)
}

func TestRecorder_EmitNeverBlocks(t *testing.T) {
	r := NewRecorder(WithBufferSize(2))

	// Nobody consumes; the third emit overflows the buffer and is dropped
	// instead of blocking the request.
	for i := 0; i < 5; i++ {
		h := r.Begin("op")
		r.Complete(h, StatusSuccess, nil)
	}
	assert.Len(t, r.Spans(), 5, "registry keeps every span even when notifications drop")
}

func TestRecorder_LogRecordsCompletedEntry(t *testing.T) {
	r := NewRecorder()

	id := r.Log("Processing Chat Message", StatusSuccess,
		WithData(map[string]any{"user_message": "hi"}))

	spans := r.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, id, spans[0].ID)
	assert.Equal(t, StatusSuccess, spans[0].Status)

	emitted := drain(r)
	require.Len(t, emitted, 1, "one-shot entries are emitted exactly once")
}

func TestFromContext_RoundTrip(t *testing.T) {
	r := NewRecorder()
	ctx := NewContext(t.Context(), r)
	assert.Same(t, r, FromContext(ctx))
	assert.Nil(t, FromContext(t.Context()))
}
