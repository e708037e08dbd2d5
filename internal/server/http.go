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
// Package server exposes the chat pipeline over HTTP with SSE streaming.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/loupe-labs/loupe/pkg/chat"
	"github.com/loupe-labs/loupe/pkg/stream"
	"github.com/loupe-labs/loupe/pkg/trace"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Config holds the HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server streams chat responses and their execution traces over SSE. Every
// request gets a fresh trace recorder; nothing is shared between requests.
type Server struct {
	cfg      Config
	pipeline *chat.Pipeline
	logger   *zap.Logger
}

// New creates a Server around the given pipeline.
func New(cfg Config, pipeline *chat.Pipeline, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("/healthz", s.handleHealth)
	return corsHandler(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// handleChatStream streams one chat request: chat chunks, span
// notifications, and on failure a single terminal error message, each as one
// SSE data event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	flusher.Flush()

	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID))
	logger.Info("chat stream started")

	// Per-request isolation: the recorder, its call stack, and the mux all
	// live and die with this request.
	rec := trace.NewRecorder(trace.WithLogger(logger))
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	ctx = trace.NewContext(ctx, rec)

	mux := stream.New(rec, stream.WithLogger(logger))
	out := mux.Run(ctx, func(ctx context.Context, emit func(string)) error {
		return s.pipeline.Stream(ctx, req, emit)
	})

	for msg := range out {
		data, err := json.Marshal(msg)
		if err != nil {
			logger.Error("failed to marshal stream message", zap.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			// Transport failure: stop the mux and let it close the channel.
			logger.Warn("client disconnected", zap.Error(err))
			cancel()
			for range out {
			}
			return
		}
		flusher.Flush()
	}
	logger.Info("chat stream finished")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// corsHandler allows browser clients from any origin. The server carries no
// credentials, so a permissive policy is safe.
func corsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
