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
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loupe-labs/loupe/internal/log"
	"github.com/loupe-labs/loupe/internal/server"
	"github.com/loupe-labs/loupe/pkg/chat"
	"github.com/loupe-labs/loupe/pkg/llm/anthropic"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Loupe HTTP server",
	Long: heredoc.Doc(`
		Start the Loupe server.

		The server exposes a single SSE endpoint, POST /v1/chat/stream, that
		streams the LLM response interleaved with a live execution trace of
		the request. Every instrumented step appears as a debug event the
		moment it begins and again when it completes.

		Press Ctrl+C to gracefully shutdown.
	`),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := log.Setup(config.Logging.Level, config.Logging.Format); err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	defer log.Sync()

	if config.LLM.AnthropicAPIKey == "" {
		return fmt.Errorf("no Anthropic API key configured (set --anthropic-key, ANTHROPIC_API_KEY, or `louped key set`)")
	}

	provider := anthropic.NewClient(anthropic.Config{
		APIKey:      config.LLM.AnthropicAPIKey,
		Model:       config.LLM.AnthropicModel,
		MaxTokens:   config.LLM.MaxTokens,
		Temperature: config.LLM.Temperature,
	})

	opts := []chat.Option{
		chat.WithAPIKey(config.LLM.AnthropicAPIKey),
		chat.WithPipelineLogger(log.Logger()),
	}
	if config.Chat.SystemPrompt != "" {
		opts = append(opts, chat.WithSystemPrompt(config.Chat.SystemPrompt))
	}
	pipeline := chat.NewPipeline(provider, opts...)

	srv := server.New(server.Config{
		Host: config.Server.Host,
		Port: config.Server.Port,
	}, pipeline, log.Logger())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting server",
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("model", config.LLM.AnthropicModel),
	)
	return srv.Run(ctx)
}
