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
package main

import (
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/loupe-labs/loupe/internal/tui"
	"github.com/loupe-labs/loupe/internal/tui/client"
	"github.com/loupe-labs/loupe/internal/version"
)

var (
	serverAddr string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "loupe",
	Short: "Loupe - chat with a live execution trace",
	Long: heredoc.Doc(`
		Terminal client for the Loupe server.

		Chat responses stream on the left while the server's execution trace
		builds on the right. Select any structured trace entry to inspect its
		full payload, including failure diagnostics.
	`),
	Version: version.Get(),
	RunE:    runTUI,
}

func init() {
	rootCmd.Flags().StringVar(&serverAddr, "server", "http://localhost:5006", "Loupe server address")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "per-request stream timeout")
}

func runTUI(cmd *cobra.Command, args []string) error {
	c := client.NewClient(client.Config{
		ServerAddr: serverAddr,
		Timeout:    timeout,
	})

	p := tea.NewProgram(
		tui.New(c),
		tea.WithEnvironment(os.Environ()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
