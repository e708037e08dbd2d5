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

// Package tui is the terminal client: a chat surface on the left, the live
// execution trace on the right, and an inspector that takes over the main
// surface for structured trace payloads.
package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/loupe-labs/loupe/internal/tui/client"
	"github.com/loupe-labs/loupe/internal/tui/styles"
	"github.com/loupe-labs/loupe/pkg/chat"
	"github.com/loupe-labs/loupe/pkg/llm"
	"github.com/loupe-labs/loupe/pkg/stream"
	"github.com/loupe-labs/loupe/pkg/trace"
)

const (
	inputHeight     = 3
	headerHeight    = 1
	helpHeight      = 1
	tracePanelWidth = 44
)

type chatTurn struct {
	role llm.Role
	text string
}

// streamEventMsg carries one server stream message into the update loop.
type streamEventMsg struct {
	msg stream.Message
}

// streamDoneMsg signals the end of a request stream.
type streamDoneMsg struct {
	err error
}

// Model is the root bubbletea model.
type Model struct {
	keys KeyMap
	help help.Model

	input     textinput.Model
	spin      spinner.Model
	chatView  viewport.Model
	traceView viewport.Model

	entries   *entryStore
	inspector *inspector
	client    *client.Client

	turns     []chatTurn
	reply     string
	streaming bool
	selected  int
	lastErr   string

	events chan tea.Msg

	width  int
	height int

	// surface caches the rendered main area so the inspector can capture
	// and later hand back exactly what was on screen.
	surface string
}

func New(c *client.Client) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask something..."
	ti.Focus()
	ti.CharLimit = 4000

	entries := newEntryStore()

	return &Model{
		keys:      DefaultKeyMap(),
		help:      help.New(),
		input:     ti,
		spin:      spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		chatView:  viewport.New(),
		traceView: viewport.New(),
		entries:   entries,
		inspector: newInspector(entries),
		client:    c,
		events:    make(chan tea.Msg, 64),
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.renderSurface()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		m.renderSurface()
		return m, cmd

	case streamEventMsg:
		m.handleStreamMessage(msg.msg)
		m.renderSurface()
		return m, m.nextEvent()

	case streamDoneMsg:
		m.streaming = false
		if m.reply != "" {
			m.turns = append(m.turns, chatTurn{role: llm.RoleAssistant, text: m.reply})
			m.reply = ""
		}
		if msg.err != nil && m.lastErr == "" {
			m.lastErr = msg.err.Error()
		}
		m.renderSurface()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.inspector.IsOpen() {
		switch {
		case key.Matches(msg, m.keys.CloseView):
			m.surface = m.inspector.Close()
			m.input.Focus()
			return m, textinput.Blink
		case key.Matches(msg, m.keys.NextEntry):
			m.inspector.Next()
		case key.Matches(msg, m.keys.PrevEntry):
			m.inspector.Prev()
		default:
			return m, m.inspector.Update(msg)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Send):
		return m, m.send()
	case key.Matches(msg, m.keys.TraceUp):
		if m.selected > 0 {
			m.selected--
			m.renderSurface()
		}
		return m, nil
	case key.Matches(msg, m.keys.TraceDown):
		if m.selected < m.entries.Len()-1 {
			m.selected++
			m.renderSurface()
		}
		return m, nil
	case key.Matches(msg, m.keys.Inspect):
		return m, m.openInspector()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) send() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.streaming {
		return nil
	}

	req := chat.Request{
		UserMessage:  text,
		MessageChain: m.history(),
	}

	m.turns = append(m.turns, chatTurn{role: llm.RoleUser, text: text})
	m.input.SetValue("")
	m.entries.Reset()
	m.selected = 0
	m.reply = ""
	m.lastErr = ""
	m.streaming = true
	m.renderSurface()

	return tea.Batch(m.startStream(req), m.spin.Tick)
}

func (m *Model) history() []llm.Message {
	msgs := make([]llm.Message, 0, len(m.turns))
	for _, turn := range m.turns {
		msgs = append(msgs, llm.Message{Role: turn.role, Content: turn.text})
	}
	return msgs
}

func (m *Model) startStream(req chat.Request) tea.Cmd {
	events := m.events
	c := m.client
	go func() {
		err := c.Stream(context.Background(), req, func(sm stream.Message) {
			events <- streamEventMsg{msg: sm}
		})
		events <- streamDoneMsg{err: err}
	}()
	return m.nextEvent()
}

func (m *Model) nextEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg { return <-events }
}

func (m *Model) handleStreamMessage(sm stream.Message) {
	switch sm.Type {
	case stream.MessageChat:
		if text, ok := sm.Data.(string); ok {
			m.reply += text
		}
	case stream.MessageDebug:
		sp, ok := sm.Data.(trace.Span)
		if !ok {
			return
		}
		m.entries.Upsert(sp)
		if m.inspector.IsOpen() && m.inspector.CurrentID() == sp.ID {
			m.inspector.refresh()
		}
	case stream.MessageError:
		if text, ok := sm.Data.(string); ok {
			m.lastErr = text
		}
	}
}

func (m *Model) openInspector() tea.Cmd {
	all := m.entries.All()
	if m.selected < 0 || m.selected >= len(all) {
		return nil
	}
	if m.inspector.Open(all[m.selected].ID, m.surface) {
		m.input.Blur()
	}
	return nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	mainHeight := max(height-headerHeight-inputHeight-helpHeight, 1)
	traceWidth := min(tracePanelWidth, width/3)
	chatWidth := max(width-traceWidth, 1)

	m.chatView.SetWidth(chatWidth)
	m.chatView.SetHeight(mainHeight)
	m.traceView.SetWidth(traceWidth)
	m.traceView.SetHeight(mainHeight)
	m.inspector.SetSize(width, mainHeight)
	m.input.SetWidth(max(width-4, 10))
}

func (m *Model) View() tea.View {
	t := styles.CurrentTheme()

	header := t.AppTitle.Render(" Loupe ")
	if m.streaming {
		header += " " + m.spin.View()
	}

	main := m.surface
	if m.inspector.IsOpen() {
		main = m.inspector.View()
	}

	inputLine := m.input.View()
	if m.inspector.IsOpen() {
		inputLine = t.HelpText.Render("input disabled while inspecting")
	}

	sections := []string{
		header,
		main,
		inputLine,
		m.help.View(m.keys),
	}

	view := tea.NewView(strings.Join(sections, "\n"))
	view.AltScreen = true
	return view
}

// renderSurface rebuilds the cached main area from current state. The
// inspector swaps this out wholesale, so it must never be regenerated
// while the inspector owns the screen.
func (m *Model) renderSurface() {
	if m.inspector.IsOpen() {
		return
	}
	m.chatView.SetContent(m.renderChat())
	m.chatView.GotoBottom()
	m.traceView.SetContent(m.renderTrace())
	m.surface = lipgloss.JoinHorizontal(lipgloss.Top, m.chatView.View(), m.traceView.View())
}

func (m *Model) renderChat() string {
	t := styles.CurrentTheme()
	var b strings.Builder
	for _, turn := range m.turns {
		label := t.AssistantLabel.Render("assistant")
		if turn.role == llm.RoleUser {
			label = t.UserLabel.Render("you")
		}
		b.WriteString(label + "\n")
		b.WriteString(t.ChatText.Render(turn.text) + "\n\n")
	}
	if m.reply != "" {
		b.WriteString(t.AssistantLabel.Render("assistant") + "\n")
		b.WriteString(t.ChatText.Render(m.reply) + "\n")
	}
	if m.lastErr != "" {
		b.WriteString("\n" + t.ErrorText.Render(styles.ErrorIcon+" "+m.lastErr) + "\n")
	}
	return b.String()
}

func (m *Model) renderTrace() string {
	t := styles.CurrentTheme()
	var b strings.Builder
	b.WriteString(t.PanelTitle.Render("Trace") + "\n")
	for idx, e := range m.entries.All() {
		line := fmt.Sprintf("%s%s %s",
			strings.Repeat("  ", e.Level),
			statusIcon(e.Status),
			e.Title,
		)
		if e.Structured() {
			line += " " + t.TraceMuted.Render("▸")
		}
		if idx == m.selected {
			line = t.TraceFocused.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	if m.entries.Len() == 0 {
		b.WriteString(t.TraceMuted.Render("no activity yet"))
	}
	return b.String()
}
