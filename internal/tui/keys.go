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
	"charm.land/bubbles/v2/key"
)

type KeyMap struct {
	Send key.Binding
	Quit key.Binding
	Help key.Binding

	TraceUp   key.Binding
	TraceDown key.Binding
	Inspect   key.Binding

	NextEntry key.Binding
	PrevEntry key.Binding
	CloseView key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "more"),
		),
		TraceUp: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "trace up"),
		),
		TraceDown: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "trace down"),
		),
		Inspect: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "inspect"),
		),
		NextEntry: key.NewBinding(
			key.WithKeys("right", "n"),
			key.WithHelp("→", "next"),
		),
		PrevEntry: key.NewBinding(
			key.WithKeys("left", "p"),
			key.WithHelp("←", "prev"),
		),
		CloseView: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "close"),
		),
	}
}

// ShortHelp lists the bindings shown on the always-visible help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Inspect, k.Help, k.Quit}
}

// FullHelp lists every binding for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Quit, k.Help},
		{k.TraceUp, k.TraceDown, k.Inspect},
		{k.NextEntry, k.PrevEntry, k.CloseView},
	}
}
