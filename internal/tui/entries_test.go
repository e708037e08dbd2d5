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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loupe-labs/loupe/pkg/trace"
)

func span(id int, status trace.Status, ct trace.ContentType) trace.Span {
	return trace.Span{
		ID:      id,
		Title:   "step",
		Status:  status,
		Content: trace.Content{Type: ct},
	}
}

func TestEntryStore_UpsertInPlace(t *testing.T) {
	s := newEntryStore()
	s.Upsert(span(1, trace.StatusPending, trace.ContentStructured))
	s.Upsert(span(2, trace.StatusPending, trace.ContentStructured))
	s.Upsert(span(1, trace.StatusSuccess, trace.ContentStructured))

	require.Equal(t, 2, s.Len(), "the completion must not add a row")
	all := s.All()
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, trace.StatusSuccess, all[0].Status, "entry 1 flipped in place")
	assert.Equal(t, 2, all[1].ID)
	assert.Equal(t, trace.StatusPending, all[1].Status)
}

func TestEntryStore_OrderIsFirstEmission(t *testing.T) {
	s := newEntryStore()
	s.Upsert(span(3, trace.StatusPending, trace.ContentInline))
	s.Upsert(span(1, trace.StatusPending, trace.ContentInline))
	s.Upsert(span(3, trace.StatusSuccess, trace.ContentInline))
	s.Upsert(span(2, trace.StatusSuccess, trace.ContentInline))

	var ids []int
	for _, e := range s.All() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int{3, 1, 2}, ids)
}

func TestEntryStore_StructuredIDs(t *testing.T) {
	s := newEntryStore()
	s.Upsert(span(1, trace.StatusSuccess, trace.ContentStructured))
	s.Upsert(span(2, trace.StatusSuccess, trace.ContentInline))
	s.Upsert(span(3, trace.StatusError, trace.ContentStructured))

	assert.Equal(t, []int{1, 3}, s.StructuredIDs())
}

func TestEntryStore_Reset(t *testing.T) {
	s := newEntryStore()
	s.Upsert(span(1, trace.StatusPending, trace.ContentInline))
	s.Reset()

	assert.Zero(t, s.Len())
	assert.Nil(t, s.Get(1))
	assert.Empty(t, s.StructuredIDs())
}
