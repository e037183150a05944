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

// Package geoparquet converts a JSON lines export of iSamples records into a
// GeoParquet file with a WKB point geometry column.
package geoparquet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/cardinalhq/isamples-export/internal/jsonl"
)

const (
	// Extension replaces the source file's extension.
	Extension = ".parquet"

	GeometryColumn = "geometry"

	// MetadataKey is the file metadata key holding the GeoParquet document.
	MetadataKey = "geo"

	DefaultLongitudePath = "produced_by.sampling_site.sample_location.longitude"
	DefaultLatitudePath  = "produced_by.sampling_site.sample_location.latitude"
	DefaultTimePath      = "produced_by.result_time"
)

// Row is one output record.
type Row struct {
	SampleIdentifier *string  `parquet:"sample_identifier,optional"`
	Label            *string  `parquet:"label,optional"`
	Description      *string  `parquet:"description,optional"`
	Latitude         *float64 `parquet:"latitude,optional"`
	Longitude        *float64 `parquet:"longitude,optional"`
	ResultTime       *string  `parquet:"result_time,optional"`
	Geometry         []byte   `parquet:"geometry,optional"`
	Record           string   `parquet:"record,json"`
}

// Metadata is the GeoParquet 1.0.0 file metadata document.
type Metadata struct {
	Version       string                    `json:"version"`
	PrimaryColumn string                    `json:"primary_column"`
	Columns       map[string]ColumnMetadata `json:"columns"`
}

type ColumnMetadata struct {
	Encoding      string    `json:"encoding"`
	GeometryTypes []string  `json:"geometry_types"`
	BBox          []float64 `json:"bbox,omitempty"`
}

// Converter writes GeoParquet copies of JSON lines files.
type Converter struct {
	batchSize     int
	longitudePath string
	latitudePath  string
	timePath      string
}

type Option func(*Converter)

// WithBatchSize sets how many records are read and written at a time.
func WithBatchSize(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLocationPaths sets the dotted paths of the coordinates.
func WithLocationPaths(longitude, latitude string) Option {
	return func(c *Converter) {
		c.longitudePath = longitude
		c.latitudePath = latitude
	}
}

// WithTimePath sets the dotted path of the sampling time.
func WithTimePath(path string) Option {
	return func(c *Converter) { c.timePath = path }
}

func New(opts ...Option) *Converter {
	c := &Converter{
		batchSize:     1000,
		longitudePath: DefaultLongitudePath,
		latitudePath:  DefaultLatitudePath,
		timePath:      DefaultTimePath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OutputPath is where Convert writes the copy of src.
func OutputPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + Extension
}

// Convert writes OutputPath(src) and returns it.
func (c *Converter) Convert(ctx context.Context, src string) (string, error) {
	start := time.Now()
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("geoparquet: open source: %w", err)
	}
	reader := jsonl.NewReader(in, c.batchSize)
	defer func() { _ = reader.Close() }()

	dst := OutputPath(src)
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return "", fmt.Errorf("geoparquet: create output: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", err
	}

	writer := parquet.NewGenericWriter[Row](tmp,
		parquet.Compression(&parquet.Zstd),
		parquet.PageBufferSize(32*1024),
		parquet.MaxRowsPerRowGroup(80_000),
		parquet.CreatedBy("isamples-export", "", ""),
	)

	var (
		bound   orb.Bound
		located int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		batch, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("geoparquet: read %s: %w", src, err))
		}

		rows := make([]Row, 0, len(batch))
		for _, rec := range batch {
			row, point, err := c.toRow(rec)
			if err != nil {
				return fail(err)
			}
			if point != nil {
				if located == 0 {
					bound = point.Bound()
				} else {
					bound = bound.Extend(*point)
				}
				located++
			}
			rows = append(rows, row)
		}
		if _, err := writer.Write(rows); err != nil {
			return fail(fmt.Errorf("geoparquet: write rows: %w", err))
		}
	}

	var bbox []float64
	if located > 0 {
		bbox = []float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()}
	}
	geo, err := json.Marshal(NewMetadata(bbox))
	if err != nil {
		return fail(fmt.Errorf("geoparquet: encode metadata: %w", err))
	}
	writer.SetKeyValueMetadata(MetadataKey, string(geo))

	if err := writer.Close(); err != nil {
		return fail(fmt.Errorf("geoparquet: close writer: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("geoparquet: close output: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("geoparquet: rename output: %w", err)
	}

	slog.Info("Converted export to GeoParquet",
		slog.String("path", dst),
		slog.Int64("rows", reader.TotalRowsReturned()),
		slog.Int64("located", located),
		slog.Duration("elapsed", time.Since(start)))
	return dst, nil
}

// NewMetadata builds the geo metadata for a point column with the given
// bbox, which may be nil.
func NewMetadata(bbox []float64) Metadata {
	return Metadata{
		Version:       "1.0.0",
		PrimaryColumn: GeometryColumn,
		Columns: map[string]ColumnMetadata{
			GeometryColumn: {
				Encoding:      "WKB",
				GeometryTypes: []string{"Point"},
				BBox:          bbox,
			},
		},
	}
}

func (c *Converter) toRow(rec jsonl.Record) (Row, *orb.Point, error) {
	row := Row{
		SampleIdentifier: stringAt(rec.Fields, "sample_identifier"),
		Label:            stringAt(rec.Fields, "label"),
		Description:      stringAt(rec.Fields, "description"),
		ResultTime:       stringAt(rec.Fields, c.timePath),
		Latitude:         floatAt(rec.Fields, c.latitudePath),
		Longitude:        floatAt(rec.Fields, c.longitudePath),
		Record:           string(rec.Raw),
	}
	if row.Latitude == nil || row.Longitude == nil {
		return row, nil, nil
	}

	point := orb.Point{*row.Longitude, *row.Latitude}
	geom, err := wkb.Marshal(point)
	if err != nil {
		return Row{}, nil, fmt.Errorf("geoparquet: encode point: %w", err)
	}
	row.Geometry = geom
	return row, &point, nil
}

func stringAt(fields map[string]any, path string) *string {
	s, ok := jsonl.LookupString(fields, path)
	if !ok {
		return nil
	}
	return &s
}

// floatAt accepts JSON numbers and numeric strings.
func floatAt(fields map[string]any, path string) *float64 {
	if f, ok := jsonl.LookupFloat(fields, path); ok {
		return &f
	}
	s, ok := jsonl.LookupString(fields, path)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
