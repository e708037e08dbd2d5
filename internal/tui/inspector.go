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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/loupe-labs/loupe/internal/tui/highlight"
	"github.com/loupe-labs/loupe/internal/tui/styles"
	"github.com/loupe-labs/loupe/pkg/trace"
)

// Failure payload keys set by the instrumentation wrapper. The inspector
// pulls these out into their own layout sections.
const (
	keyErrorMessage = "error_message"
	keyErrorType    = "error_type"
	keyTraceback    = "full_traceback"
)

// inspector is the detail view over a single trace entry. It is either
// closed or open on one entry, and while open it owns the main content
// surface. The view that was on screen before the first open is captured
// once and handed back verbatim on close.
type inspector struct {
	open      bool
	currentID int

	snapshot    string
	snapshotSet bool

	store    *entryStore
	viewport viewport.Model
	width    int
	height   int
}

func newInspector(store *entryStore) *inspector {
	return &inspector{
		store:    store,
		viewport: viewport.New(),
	}
}

// IsOpen reports whether the detail view currently owns the screen.
func (i *inspector) IsOpen() bool { return i.open }

// CurrentID returns the id of the entry on display. Only meaningful while
// open.
func (i *inspector) CurrentID() int { return i.currentID }

// Open shows the detail view for id, capturing priorView the first time.
// Ids without structured content are refused.
func (i *inspector) Open(id int, priorView string) bool {
	entry := i.store.Get(id)
	if entry == nil || !entry.Structured() {
		return false
	}
	if !i.snapshotSet {
		i.snapshot = priorView
		i.snapshotSet = true
	}
	i.open = true
	i.currentID = id
	i.refresh()
	return true
}

// Close leaves the detail view and returns the captured prior view exactly
// as it was given, clearing the capture for the next open.
func (i *inspector) Close() string {
	i.open = false
	snap := i.snapshot
	i.snapshot = ""
	i.snapshotSet = false
	return snap
}

// Next moves to the following structured entry, wrapping at the end.
func (i *inspector) Next() { i.move(1) }

// Prev moves to the preceding structured entry, wrapping at the start.
func (i *inspector) Prev() { i.move(-1) }

func (i *inspector) move(step int) {
	if !i.open {
		return
	}
	ids := i.store.StructuredIDs()
	if len(ids) == 0 {
		return
	}
	pos := 0
	for idx, id := range ids {
		if id == i.currentID {
			pos = idx
			break
		}
	}
	pos = (pos + step + len(ids)) % len(ids)
	i.currentID = ids[pos]
	i.refresh()
}

func (i *inspector) SetSize(width, height int) {
	i.width = width
	i.height = height
	i.viewport.SetWidth(width)
	i.viewport.SetHeight(height)
	if i.open {
		i.refresh()
	}
}

func (i *inspector) Update(msg tea.Msg) tea.Cmd {
	if !i.open {
		return nil
	}
	var cmd tea.Cmd
	i.viewport, cmd = i.viewport.Update(msg)
	return cmd
}

func (i *inspector) View() string {
	return i.viewport.View()
}

func (i *inspector) refresh() {
	entry := i.store.Get(i.currentID)
	if entry == nil {
		i.viewport.SetContent("")
		return
	}
	i.viewport.SetContent(i.render(entry))
	i.viewport.GotoTop()
}

func (i *inspector) render(entry *trace.Span) string {
	t := styles.CurrentTheme()
	var b strings.Builder

	pos := i.position()
	header := fmt.Sprintf("%s %s", statusIcon(entry.Status), entry.Title)
	b.WriteString(t.InspectorTitle.Render(header))
	if pos != "" {
		b.WriteString("  " + t.InspectorLabel.Render(pos))
	}
	b.WriteString("\n\n")

	b.WriteString(t.InspectorLabel.Render("Status: "))
	b.WriteString(string(entry.Status) + "\n")
	if entry.FunctionName != "" {
		b.WriteString(t.InspectorLabel.Render("Function: "))
		b.WriteString(entry.FunctionName + "\n")
	}
	if src := entry.Source; src != nil {
		b.WriteString(t.InspectorLabel.Render("Source: "))
		b.WriteString(fmt.Sprintf("%s:%d\n", src.FilePath, src.StartLine))
		if src.Signature != "" {
			b.WriteString(t.InspectorLabel.Render("Signature: "))
			b.WriteString(src.Signature + "\n")
		}
	}
	b.WriteString("\n")

	fields, failure := splitFailure(entry)
	if failure != nil {
		b.WriteString(t.ErrorText.Render("Error") + "\n")
		if failure.kind != "" {
			b.WriteString(t.InspectorLabel.Render("Kind: "))
			b.WriteString(failure.kind + "\n")
		}
		if failure.message != "" {
			b.WriteString(t.InspectorLabel.Render("Message: "))
			b.WriteString(failure.message + "\n")
		}
		if failure.traceback != "" {
			b.WriteString("\n" + t.InspectorLabel.Render("Traceback") + "\n")
			b.WriteString(failure.traceback + "\n")
		}
		if len(fields) > 0 {
			b.WriteString("\n" + t.InspectorLabel.Render("Captured Fields") + "\n")
		}
	}
	if len(fields) > 0 {
		b.WriteString(renderFields(fields))
	} else if failure == nil {
		b.WriteString(t.InspectorLabel.Render("No captured data."))
	}

	return b.String()
}

func (i *inspector) position() string {
	ids := i.store.StructuredIDs()
	for idx, id := range ids {
		if id == i.currentID {
			return fmt.Sprintf("(%d/%d)", idx+1, len(ids))
		}
	}
	return ""
}

type failurePayload struct {
	message   string
	kind      string
	traceback string
}

// splitFailure separates the wrapper's diagnostic keys from the entry's
// ordinary captured fields. Non-error entries pass through untouched.
func splitFailure(entry *trace.Span) (map[string]any, *failurePayload) {
	data, ok := entry.Content.Data.(map[string]any)
	if !ok {
		if entry.Content.Data == nil {
			return nil, nil
		}
		return map[string]any{"data": entry.Content.Data}, nil
	}
	if entry.Status != trace.StatusError {
		return data, nil
	}

	fp := &failurePayload{}
	fields := make(map[string]any, len(data))
	for k, v := range data {
		s, _ := v.(string)
		switch k {
		case keyErrorMessage:
			fp.message = s
		case keyErrorType:
			fp.kind = s
		case keyTraceback:
			fp.traceback = s
		default:
			fields[k] = v
		}
	}
	if fp.message == "" && fp.kind == "" && fp.traceback == "" {
		return data, nil
	}
	return fields, fp
}

func renderFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := styles.CurrentTheme()
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(t.InspectorLabel.Render(k) + "\n")
		b.WriteString(renderValue(fields[k]) + "\n")
	}
	return b.String()
}

func renderValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	default:
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return highlight.JSON(string(raw))
	}
}

func statusIcon(s trace.Status) string {
	t := styles.CurrentTheme()
	switch s {
	case trace.StatusSuccess:
		return t.TraceSuccess.Render(styles.TraceSuccess)
	case trace.StatusError:
		return t.TraceError.Render(styles.TraceError)
	default:
		return t.TracePending.Render(styles.TracePending)
	}
}
