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

package dataserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/isamples-export/internal/stac"
)

// publicBrowserURL is the hosted STAC browser; %d is the local port.
const publicBrowserURL = "https://radiantearth.github.io/stac-browser/#/external/http:/localhost:%d/data/stac.json?.language=en"

type Response struct {
	Healthy bool `json:"healthy"`
}

func (s *Server) dataHandler(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.PathValue("path"))[1:]
	if name == "" {
		s.notFound(w, r)
		return
	}

	f, err := s.root.Open(filepath.FromSlash(name))
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			countRequest(r, "forbidden")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		// includes paths escaping the root
		s.notFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.notFound(w, r)
		return
	}

	w.Header().Set("Content-Type", stac.MediaType(name))
	countRequest(r, "served")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	countRequest(r, "not_found")
	http.NotFound(w, r)
}

func countRequest(r *http.Request, result string) {
	dataRequests.Add(r.Context(), 1, metric.WithAttributes(
		attribute.String("result", result),
		attribute.Bool("range", r.Header.Get("Range") != ""),
	))
}

func (s *Server) browserRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, fmt.Sprintf(publicBrowserURL, s.cfg.Port), http.StatusFound)
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, s.GetStatus() == StatusHealthy)
}

func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, s.IsReady())
}

func writeHealth(w http.ResponseWriter, ok bool) {
	w.Header().Set("Content-Type", "application/json")
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(Response{Healthy: ok}); err != nil {
		slog.Error("Failed to encode health check response", slog.Any("error", err))
	}
}

// withCORS lets browser-based viewers on other origins fetch ranges.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Range, If-Match, If-None-Match, If-Modified-Since, If-Range")
		h.Set("Access-Control-Expose-Headers", "Accept-Ranges, Content-Length, Content-Range, Content-Type, ETag, Last-Modified")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
