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

	"go.uber.org/zap"
)

// DefaultBufferSize is the notification channel capacity. Producers never
// block on a slow consumer; overflowing notifications are dropped with a
// warning instead.
const DefaultBufferSize = 256

// Recorder assigns span ids, tracks the open-call stack, and emits lifecycle
// notifications for one request. Create a fresh Recorder per request; two
// concurrent requests must never share one.
type Recorder struct {
	// no mutex: span production happens on the request's own execution
	// path, and the notification channel handles the one consumer.
	logger *zap.Logger
	nextID int
	stack  []int
	spans  map[int]*Span
	order  []int
	notify chan Span
}

// Handle identifies an open span returned by Begin.
type Handle struct {
	id int
}

// ID returns the span id the handle refers to.
func (h *Handle) ID() int { return h.id }

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger used for internal inconsistency warnings.
func WithLogger(l *zap.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// WithBufferSize overrides the notification channel capacity.
func WithBufferSize(n int) RecorderOption {
	return func(r *Recorder) { r.notify = make(chan Span, n) }
}

// NewRecorder creates an empty per-request recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		logger: zap.NewNop(),
		spans:  make(map[int]*Span),
		notify: make(chan Span, DefaultBufferSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SpanOption configures a span at Begin or Log time.
type SpanOption func(*Span)

// WithContentType sets the span's content variant.
func WithContentType(ct ContentType) SpanOption {
	return func(s *Span) { s.Content.Type = ct }
}

// WithData attaches guard-validated data to the span.
func WithData(data any) SpanOption {
	return func(s *Span) { s.Content.Data = Guard(data) }
}

// WithFunctionName records the name of the function behind the span.
func WithFunctionName(name string) SpanOption {
	return func(s *Span) { s.FunctionName = name }
}

// WithSource records where the instrumented function is defined.
func WithSource(src SourceLocation) SpanOption {
	return func(s *Span) { s.Source = &src }
}

// Begin opens a new span: the id is pushed onto the call stack, parentage and
// depth come from the current stack top, and the span is emitted immediately
// with pending status. Nested Begin calls while a parent is open attach to
// that parent.
func (r *Recorder) Begin(title string, opts ...SpanOption) *Handle {
	r.nextID++
	span := &Span{
		ID:        r.nextID,
		Level:     len(r.stack),
		Timestamp: timestamp(),
		Title:     title,
		Status:    StatusPending,
		Content:   Content{Type: ContentStructured},
	}
	if top := r.top(); top != 0 {
		parent := top
		span.ParentID = &parent
	}
	for _, opt := range opts {
		opt(span)
	}
	r.stack = append(r.stack, span.ID)
	r.spans[span.ID] = span
	r.order = append(r.order, span.ID)
	r.emit(span)
	return &Handle{id: span.ID}
}

// Complete closes the span behind the handle: the stack is popped, the
// guard-validated content is attached, the terminal status is set, and the
// same id is re-emitted. A stack/handle mismatch is an internal
// inconsistency; it is logged and repaired but never fails the request.
func (r *Recorder) Complete(h *Handle, status Status, data any) {
	if h == nil {
		return
	}
	r.pop(h.id)

	span, ok := r.spans[h.id]
	if !ok {
		r.logger.Warn("completing unknown span", zap.Int("id", h.id))
		return
	}
	if span.Status != StatusPending {
		// Status transitions at most once; a second Complete is a bug
		// in the caller, not a reason to kill the request.
		r.logger.Warn("span already completed",
			zap.Int("id", h.id),
			zap.String("status", string(span.Status)))
		return
	}

	span.Status = status
	if data != nil {
		span.Content.Data = Guard(data)
	}
	if status == StatusError {
		// Failures always open in the inspector.
		span.Content.Type = ContentStructured
	}
	r.emit(span)
}

// Log records a one-shot entry at the current depth, already completed with
// the given status. Used for request start and completion markers that have
// no separate begin/complete phases.
func (r *Recorder) Log(title string, status Status, opts ...SpanOption) int {
	r.nextID++
	span := &Span{
		ID:        r.nextID,
		Level:     len(r.stack),
		Timestamp: timestamp(),
		Title:     title,
		Status:    status,
		Content:   Content{Type: ContentStructured},
	}
	if top := r.top(); top != 0 {
		parent := top
		span.ParentID = &parent
	}
	for _, opt := range opts {
		opt(span)
	}
	r.spans[span.ID] = span
	r.order = append(r.order, span.ID)
	r.emit(span)
	return span.ID
}

// Reset clears all per-request bookkeeping: ids, the call stack, and the
// recorded spans. Call it before reusing a recorder for a new request.
func (r *Recorder) Reset() {
	r.nextID = 0
	r.stack = r.stack[:0]
	r.spans = make(map[int]*Span)
	r.order = r.order[:0]
}

// Notifications returns the channel lifecycle events are delivered on.
// There must be exactly one consumer.
func (r *Recorder) Notifications() <-chan Span {
	return r.notify
}

// Spans returns the recorded spans in creation order.
func (r *Recorder) Spans() []Span {
	out := make([]Span, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.spans[id].clone())
	}
	return out
}

// Depth returns the number of currently open spans.
func (r *Recorder) Depth() int {
	return len(r.stack)
}

func (r *Recorder) top() int {
	if len(r.stack) == 0 {
		return 0
	}
	return r.stack[len(r.stack)-1]
}

// pop removes id from the call stack. The expected case is id on top;
// anything else is logged and repaired by removing id wherever it sits.
func (r *Recorder) pop(id int) {
	n := len(r.stack)
	if n == 0 {
		r.logger.Warn("span stack empty on complete", zap.Int("id", id))
		return
	}
	if r.stack[n-1] == id {
		r.stack = r.stack[:n-1]
		return
	}
	r.logger.Warn("span stack mismatch",
		zap.Int("expected", r.stack[n-1]),
		zap.Int("got", id))
	for i := n - 1; i >= 0; i-- {
		if r.stack[i] == id {
			r.stack = append(r.stack[:i], r.stack[i+1:]...)
			return
		}
	}
}

// emit sends a copy of the span to the consumer without ever blocking the
// request's execution path.
func (r *Recorder) emit(s *Span) {
	select {
	case r.notify <- s.clone():
	default:
		r.logger.Warn("span notification dropped",
			zap.Int("id", s.ID),
			zap.String("title", s.Title))
	}
}

type contextKey string

const recorderContextKey contextKey = "loupe.recorder"

// NewContext returns a context carrying the recorder. The recorder travels
// explicitly with the request instead of living in a process-wide global, so
// concurrent requests stay isolated.
func NewContext(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderContextKey, r)
}

// FromContext returns the recorder attached to ctx, or nil.
func FromContext(ctx context.Context) *Recorder {
	if r, ok := ctx.Value(recorderContextKey).(*Recorder); ok {
		return r
	}
	return nil
}
