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

	"go.uber.org/zap"

	"github.com/loupe-labs/loupe/pkg/trace"
)

// DefaultChunkBuffer is the capacity of the internal chunk channel between
// the primary operation and the multiplexer loop.
const DefaultChunkBuffer = 64

// Primary is the content-producing operation of a request. Chunks passed to
// emit are forwarded as chat messages in generation order.
type Primary func(ctx context.Context, emit func(chunk string)) error

// Mux runs the primary operation in the background and merges its chat
// chunks with the recorder's span notifications into one ordered output
// channel. The mux is the only consumer of the recorder's notifications.
//
// Guarantees: chat chunks keep their generation order and span notifications
// keep their emission order; the relative interleaving of the two is
// best-effort. After the primary finishes, one final drain runs so no
// notification is lost, then the terminal message (if any) is emitted and
// the channel is closed. Nothing is emitted after the terminal message, and
// cancellation stops the loop immediately.
type Mux struct {
	rec    *trace.Recorder
	logger *zap.Logger
}

// Option configures a Mux.
type Option func(*Mux)

// WithLogger sets the mux logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Mux) { m.logger = l }
}

// New creates a Mux draining the given recorder.
func New(rec *trace.Recorder, opts ...Option) *Mux {
	m := &Mux{
		rec:    rec,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the primary operation and returns the merged output channel.
// The channel is closed when the stream ends, whether by completion,
// failure, or cancellation of ctx.
func (m *Mux) Run(ctx context.Context, primary Primary) <-chan Message {
	out := make(chan Message, DefaultChunkBuffer)
	chunks := make(chan string, DefaultChunkBuffer)
	done := make(chan error, 1)

	go func() {
		done <- primary(ctx, func(chunk string) {
			select {
			case chunks <- chunk:
			case <-ctx.Done():
			}
		})
	}()

	go m.drive(ctx, out, chunks, done)
	return out
}

func (m *Mux) drive(ctx context.Context, out chan<- Message, chunks <-chan string, done <-chan error) {
	defer close(out)

	send := func(msg Message) bool {
		select {
		case out <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("stream cancelled", zap.Error(ctx.Err()))
			return

		case span := <-m.rec.Notifications():
			if !send(Debug(span)) {
				return
			}

		case chunk := <-chunks:
			if !send(Chat(chunk)) {
				return
			}

		case err := <-done:
			// Primary finished. Flush buffered chunks, then drain the
			// notification queue exactly once so completions recorded at
			// the very end still reach the client.
		flush:
			for {
				select {
				case chunk := <-chunks:
					if !send(Chat(chunk)) {
						return
					}
				default:
					break flush
				}
			}
		drain:
			for {
				select {
				case span := <-m.rec.Notifications():
					if !send(Debug(span)) {
						return
					}
				default:
					break drain
				}
			}
			if err != nil && ctx.Err() == nil {
				m.logger.Error("primary operation failed", zap.Error(err))
				send(Error(err.Error()))
			}
			return
		}
	}
}
