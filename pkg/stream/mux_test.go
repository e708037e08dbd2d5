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
package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loupe-labs/loupe/pkg/trace"
)

func collect(t *testing.T, out <-chan Message) []Message {
	t.Helper()
	var msgs []Message
	for {
		select {
		case msg, ok := <-out:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

func byType(msgs []Message, mt MessageType) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Type == mt {
			out = append(out, m)
		}
	}
	return out
}

func TestMux_InterleavesChatAndDebug(t *testing.T) {
	rec := trace.NewRecorder()
	mux := New(rec)

	out := mux.Run(t.Context(), func(ctx context.Context, emit func(string)) error {
		h := rec.Begin("step")
		emit("hello ")
		emit("world")
		rec.Complete(h, trace.StatusSuccess, nil)
		return nil
	})

	msgs := collect(t, out)

	chat := byType(msgs, MessageChat)
	require.Len(t, chat, 2)
	assert.Equal(t, "hello ", chat[0].Data)
	assert.Equal(t, "world", chat[1].Data, "chat chunks keep generation order")

	debug := byType(msgs, MessageDebug)
	require.Len(t, debug, 2, "pending and completed notifications both arrive")
	first := debug[0].Data.(trace.Span)
	second := debug[1].Data.(trace.Span)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, trace.StatusPending, first.Status)
	assert.Equal(t, trace.StatusSuccess, second.Status)

	assert.Empty(t, byType(msgs, MessageError))
}

func TestMux_FinalDrainCatchesLateNotifications(t *testing.T) {
	rec := trace.NewRecorder()
	mux := New(rec)

	out := mux.Run(t.Context(), func(ctx context.Context, emit func(string)) error {
		// Record everything at the very end; only the final drain can
		// deliver these.
		for i := 0; i < 10; i++ {
			h := rec.Begin("late")
			rec.Complete(h, trace.StatusSuccess, nil)
		}
		return nil
	})

	msgs := collect(t, out)
	assert.Len(t, byType(msgs, MessageDebug), 20, "no notification may be lost at shutdown")
}

func TestMux_PrimaryFailureEmitsTerminalErrorLast(t *testing.T) {
	rec := trace.NewRecorder()
	mux := New(rec)

	out := mux.Run(t.Context(), func(ctx context.Context, emit func(string)) error {
		h := rec.Begin("doomed")
		rec.Complete(h, trace.StatusError, map[string]any{"error_message": "boom"})
		return errors.New("boom")
	})

	msgs := collect(t, out)
	require.NotEmpty(t, msgs)

	last := msgs[len(msgs)-1]
	assert.Equal(t, MessageError, last.Type, "the error message terminates the stream")
	assert.Equal(t, "boom", last.Data)

	// The error span still arrived before the terminal message.
	debug := byType(msgs, MessageDebug)
	require.Len(t, debug, 2)
	assert.Equal(t, trace.StatusError, debug[1].Data.(trace.Span).Status)
}

func TestMux_CancellationStopsStream(t *testing.T) {
	rec := trace.NewRecorder()
	mux := New(rec)

	ctx, cancel := context.WithCancel(t.Context())
	started := make(chan struct{})
	release := make(chan struct{})

	out := mux.Run(ctx, func(ctx context.Context, emit func(string)) error {
		close(started)
		<-release
		// Work recorded after disconnect must never reach the client.
		h := rec.Begin("after disconnect")
		rec.Complete(h, trace.StatusSuccess, nil)
		return nil
	})

	<-started
	cancel()

	msgs := collect(t, out)
	close(release)

	assert.Empty(t, byType(msgs, MessageDebug))
	assert.Empty(t, byType(msgs, MessageError), "cancellation is not attributable as a primary failure")
}

func TestMux_CancelledPrimaryErrorNotEmitted(t *testing.T) {
	rec := trace.NewRecorder()
	mux := New(rec)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	out := mux.Run(ctx, func(ctx context.Context, emit func(string)) error {
		return ctx.Err()
	})

	msgs := collect(t, out)
	assert.Empty(t, msgs, "nothing is emitted after cancellation")
}
