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
package tui

import (
	"github.com/loupe-labs/loupe/pkg/trace"
)

// entryStore keeps the trace entries for one request, keyed by span id.
// Entries appear in first-emission order; a completion event for a known id
// updates the entry in place rather than appending a new row.
type entryStore struct {
	byID  map[int]*trace.Span
	order []int
}

func newEntryStore() *entryStore {
	return &entryStore{byID: make(map[int]*trace.Span)}
}

// Upsert records a span event. New ids append to the display order; known
// ids replace the stored entry so pending rows flip to their terminal state
// without moving.
func (s *entryStore) Upsert(sp trace.Span) {
	if _, ok := s.byID[sp.ID]; !ok {
		s.order = append(s.order, sp.ID)
	}
	s.byID[sp.ID] = &sp
}

// Get returns the entry for id, or nil if the id was never seen.
func (s *entryStore) Get(id int) *trace.Span {
	return s.byID[id]
}

// Len returns the number of distinct entries.
func (s *entryStore) Len() int { return len(s.order) }

// All returns the entries in first-emission order.
func (s *entryStore) All() []*trace.Span {
	out := make([]*trace.Span, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// StructuredIDs returns, in display order, the ids of entries whose payload
// is inspectable. Inline entries never qualify.
func (s *entryStore) StructuredIDs() []int {
	var ids []int
	for _, id := range s.order {
		if s.byID[id].Structured() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Reset drops all entries, ready for the next request.
func (s *entryStore) Reset() {
	s.byID = make(map[int]*trace.Span)
	s.order = nil
}
