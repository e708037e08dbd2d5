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

// Package styles holds the shared lipgloss styles and glyphs for the
// terminal client.
package styles

import "charm.land/lipgloss/v2"

const (
	CheckIcon   string = "✓"
	ErrorIcon   string = "×"
	WarningIcon string = "⚠"
	ModelIcon   string = "◇"

	// Trace entry icons
	TracePending string = "●"
	TraceSuccess string = "✓"
	TraceError   string = "×"

	BorderThin string = "│"
)

// Theme groups the styles used across the client so panels stay visually
// consistent without each component picking its own colors.
type Theme struct {
	AppTitle   lipgloss.Style
	PanelTitle lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ChatText       lipgloss.Style

	TracePending lipgloss.Style
	TraceSuccess lipgloss.Style
	TraceError   lipgloss.Style
	TraceMuted   lipgloss.Style
	TraceFocused lipgloss.Style

	InspectorTitle  lipgloss.Style
	InspectorLabel  lipgloss.Style
	InspectorBorder lipgloss.Style

	ErrorText lipgloss.Style
	HelpText  lipgloss.Style
}

var defaultTheme = Theme{
	AppTitle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
	PanelTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),

	UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
	AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
	ChatText:       lipgloss.NewStyle(),

	TracePending: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	TraceSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	TraceError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	TraceMuted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	TraceFocused: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("236")),

	InspectorTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
	InspectorLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	InspectorBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1),

	ErrorText: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	HelpText:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

// CurrentTheme returns the active theme.
func CurrentTheme() *Theme { return &defaultTheme }
