// Package server serves a directory of numbered frames over HTTP, in the
// layout the HTTP source reads.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tessro/flipbook/internal/core"
	"github.com/tessro/flipbook/internal/source"
)

// Server serves frames 0..n-1 of a directory source.
type Server struct {
	dir      *source.Dir
	manifest core.Manifest
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
}

// New creates a server for dir listening on addr. The manifest bounds the
// frames that are served.
func New(addr string, dir *source.Dir, manifest core.Manifest, logger *slog.Logger) (*Server, error) {
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if manifest.Extension == "" {
		manifest.Extension = dir.Extension()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &Server{
		dir:      dir,
		manifest: manifest,
		listener: listener,
		logger:   logger,
	}
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler serving frames and the manifest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /"+source.ManifestName, s.handleManifest)
	mux.HandleFunc("GET /{name}", s.handleFrame)
	return mux
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start() {
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server: serve failed", "error", err)
		}
	}()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// URL returns the base URL clients should fetch frames from.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.Port())
}

// Manifest returns the manifest being served.
func (s *Server) Manifest() core.Manifest {
	return s.manifest
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.manifest); err != nil {
		s.logger.Warn("server: write manifest", "error", err)
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	index, ok := s.parseName(r.PathValue("name"))
	if !ok {
		s.logger.Debug("server: not found", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	content, err := os.ReadFile(s.dir.Path(index))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.logger.Warn("server: read frame", "frame", index, "error", err)
		http.Error(w, "failed to read frame", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", source.ContentType(s.manifest.Extension))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
	s.logger.Debug("server: served", "frame", index, "bytes", len(content))
}

// parseName maps "<index>.<ext>" to a frame index within the manifest.
func (s *Server) parseName(name string) (int, bool) {
	stem, ext, found := strings.Cut(name, ".")
	if !found || ext != s.manifest.Extension {
		return 0, false
	}
	index, err := strconv.Atoi(stem)
	if err != nil || index < 0 || index >= s.manifest.Frames {
		return 0, false
	}
	// Reject aliases such as "007.svg" or "+1.svg".
	if strconv.Itoa(index) != stem {
		return 0, false
	}
	return index, true
}
