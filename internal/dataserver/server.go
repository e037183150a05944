// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package dataserver serves an export tree over HTTP with byte-range
// support, alongside optional viewer assets and health endpoints.
package dataserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultPort = 8000

type Status int32

const (
	StatusStarting Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

type Config struct {
	Port int `mapstructure:"port"`

	// DataPath is the export tree served under /data/.
	DataPath string `mapstructure:"data_path"`

	// UIPath, when set, is served under /ui/.
	UIPath string `mapstructure:"ui_path"`

	// BrowserPath, when set, is a local STAC browser build served at /.
	// Otherwise / redirects to the public STAC browser.
	BrowserPath string `mapstructure:"browser_path"`
}

type Server struct {
	cfg    Config
	root   *os.Root
	status atomic.Int32
	ready  atomic.Bool
	server *http.Server
}

// NewServer opens cfg.DataPath. Files are only ever opened through that
// root, so requests cannot reach outside it.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DataPath == "" {
		cfg.DataPath = "."
	}
	root, err := os.OpenRoot(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open data path %s: %w", cfg.DataPath, err)
	}
	for _, dir := range []string{cfg.UIPath, cfg.BrowserPath} {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			_ = root.Close()
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
	}
	return &Server{cfg: cfg, root: root}, nil
}

func (s *Server) SetStatus(status Status) {
	s.status.Store(int32(status))
	slog.Debug("Data server status updated", slog.String("status", status.String()))
}

func (s *Server) GetStatus() Status {
	return Status(s.status.Load())
}

func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) IsReady() bool {
	return s.ready.Load()
}

// Handler returns the instrumented handler for every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthzHandler)
	mux.HandleFunc("GET /readyz", s.readyzHandler)
	mux.HandleFunc("GET /data/{path...}", s.dataHandler)

	if s.cfg.UIPath != "" {
		mux.Handle("GET /ui/", http.StripPrefix("/ui/", http.FileServerFS(os.DirFS(s.cfg.UIPath))))
	}
	if s.cfg.BrowserPath != "" {
		mux.Handle("GET /", http.FileServerFS(os.DirFS(s.cfg.BrowserPath)))
	} else {
		mux.HandleFunc("GET /{$}", s.browserRedirect)
	}

	return otelhttp.NewHandler(withCORS(mux), "isamples-data-server")
}

// Start serves until ctx is done, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.SetStatus(StatusStarting)
	slog.Info("Starting data server",
		slog.String("addr", ln.Addr().String()),
		slog.String("dataPath", s.cfg.DataPath))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()
	s.SetStatus(StatusHealthy)
	s.SetReady(true)

	select {
	case err := <-errCh:
		s.SetStatus(StatusUnhealthy)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

func (s *Server) Stop() error {
	defer func() { _ = s.root.Close() }()
	s.SetReady(false)
	if s.server == nil {
		return nil
	}

	slog.Info("Stopping data server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
