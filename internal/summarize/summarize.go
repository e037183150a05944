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

// Package summarize computes the spatial and temporal extent of a
// downloaded JSON lines export.
package summarize

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardinalhq/isamples-export/internal/duckdbx"
	"github.com/cardinalhq/isamples-export/internal/stac"
)

// Default JSON paths into an iSamples core record.
const (
	DefaultLongitudePath = "$.produced_by.sampling_site.sample_location.longitude"
	DefaultLatitudePath  = "$.produced_by.sampling_site.sample_location.latitude"
	DefaultTimePath      = "$.produced_by.result_time"
)

// Summarizer runs the extent query on a local DuckDB.
type Summarizer struct {
	db            *duckdbx.LocalDB
	longitudePath string
	latitudePath  string
	timePath      string
}

type Option func(*Summarizer)

// WithLocationPaths overrides where coordinates are read from.
func WithLocationPaths(longitude, latitude string) Option {
	return func(s *Summarizer) {
		s.longitudePath = longitude
		s.latitudePath = latitude
	}
}

// WithTimePath overrides where the sampling time is read from.
func WithTimePath(path string) Option {
	return func(s *Summarizer) { s.timePath = path }
}

func New(db *duckdbx.LocalDB, opts ...Option) *Summarizer {
	s := &Summarizer{
		db:            db,
		longitudePath: DefaultLongitudePath,
		latitudePath:  DefaultLatitudePath,
		timePath:      DefaultTimePath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary is the raw result of the extent query.
type Summary struct {
	Records int64
	Located int64
	MinLon  sql.NullFloat64
	MinLat  sql.NullFloat64
	MaxLon  sql.NullFloat64
	MaxLat  sql.NullFloat64
	MinTime sql.NullTime
	MaxTime sql.NullTime
}

// Extents converts s into item extents. The bbox is nil when no record had
// both coordinates.
func (s Summary) Extents() stac.Extents {
	var ext stac.Extents
	if s.Located > 0 && s.MinLon.Valid && s.MinLat.Valid && s.MaxLon.Valid && s.MaxLat.Valid {
		ext.BBox = []float64{s.MinLon.Float64, s.MinLat.Float64, s.MaxLon.Float64, s.MaxLat.Float64}
	}
	if s.MinTime.Valid {
		t := s.MinTime.Time.UTC()
		ext.Start = &t
	}
	if s.MaxTime.Valid {
		t := s.MaxTime.Time.UTC()
		ext.End = &t
	}
	return ext
}

// Summarize reads path and returns its extents.
func (s *Summarizer) Summarize(ctx context.Context, path string) (stac.Extents, error) {
	sum, err := s.Query(ctx, path)
	if err != nil {
		return stac.Extents{}, err
	}
	return sum.Extents(), nil
}

// Query runs the extent query over path.
func (s *Summarizer) Query(ctx context.Context, path string) (*Summary, error) {
	start := time.Now()
	conn, release, err := s.db.GetConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize: get connection: %w", err)
	}
	defer release()

	var sum Summary
	row := conn.QueryRowContext(ctx, s.buildQuery(path))
	if err := row.Scan(
		&sum.Records, &sum.Located,
		&sum.MinLon, &sum.MinLat, &sum.MaxLon, &sum.MaxLat,
		&sum.MinTime, &sum.MaxTime,
	); err != nil {
		return nil, fmt.Errorf("summarize %s: %w", path, err)
	}

	s.db.RecordMemoryStats(ctx)
	slog.Info("Summarized export",
		slog.String("path", path),
		slog.Int64("records", sum.Records),
		slog.Int64("located", sum.Located),
		slog.Duration("elapsed", time.Since(start)))
	return &sum, nil
}

func (s *Summarizer) buildQuery(path string) string {
	return fmt.Sprintf(`WITH src AS (
  SELECT json AS j FROM read_json_objects('%s', format = 'newline_delimited')
), pts AS (
  SELECT
    TRY_CAST(json_extract_string(j, '%s') AS DOUBLE) AS lon,
    TRY_CAST(json_extract_string(j, '%s') AS DOUBLE) AS lat,
    TRY_CAST(json_extract_string(j, '%s') AS TIMESTAMP) AS ts
  FROM src
)
SELECT
  count(*),
  count(*) FILTER (WHERE lon IS NOT NULL AND lat IS NOT NULL),
  min(lon) FILTER (WHERE lon IS NOT NULL AND lat IS NOT NULL),
  min(lat) FILTER (WHERE lon IS NOT NULL AND lat IS NOT NULL),
  max(lon) FILTER (WHERE lon IS NOT NULL AND lat IS NOT NULL),
  max(lat) FILTER (WHERE lon IS NOT NULL AND lat IS NOT NULL),
  min(ts),
  max(ts)
FROM pts`,
		duckdbx.EscapeString(path),
		duckdbx.EscapeString(s.longitudePath),
		duckdbx.EscapeString(s.latitudePath),
		duckdbx.EscapeString(s.timePath))
}
