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

package geoparquet

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const records = `{"sample_identifier":"igsn:1","label":"one","produced_by":{"result_time":"2019-06-01","sampling_site":{"sample_location":{"longitude":-122.5,"latitude":37.75}}}}
{"sample_identifier":"igsn:2","description":"two","produced_by":{"sampling_site":{"sample_location":{"longitude":"10.25","latitude":"-45.5"}}}}
{"sample_identifier":"igsn:3"}
`

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "isamples_export_2024_05_08_08_57_12.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readRows(t *testing.T, path string) (*parquet.File, []Row) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	info, err := f.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(f, info.Size())
	require.NoError(t, err)

	reader := parquet.NewGenericReader[Row](f)
	defer func() { _ = reader.Close() }()
	rows := make([]Row, pf.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	return pf, rows[:n]
}

func TestConvert(t *testing.T) {
	src := writeSource(t, records)

	out, err := New(WithBatchSize(2)).Convert(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(src), "isamples_export_2024_05_08_08_57_12.parquet"), out)

	pf, rows := readRows(t, out)
	assert.Equal(t, int64(3), pf.NumRows())
	require.Len(t, rows, 3)

	require.NotNil(t, rows[0].SampleIdentifier)
	assert.Equal(t, "igsn:1", *rows[0].SampleIdentifier)
	assert.Equal(t, "one", *rows[0].Label)
	assert.Nil(t, rows[0].Description)
	assert.Equal(t, "2019-06-01", *rows[0].ResultTime)

	geom, err := wkb.Unmarshal(rows[0].Geometry)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-122.5, 37.75}, geom)

	require.NotNil(t, rows[1].Latitude)
	assert.Equal(t, -45.5, *rows[1].Latitude)
	assert.Equal(t, 10.25, *rows[1].Longitude)

	assert.Nil(t, rows[2].Latitude)
	assert.Empty(t, rows[2].Geometry)

	var original map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[2].Record), &original))
	assert.Equal(t, "igsn:3", original["sample_identifier"])

	raw, ok := pf.Lookup(MetadataKey)
	require.True(t, ok)
	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	assert.Equal(t, "1.0.0", meta.Version)
	assert.Equal(t, GeometryColumn, meta.PrimaryColumn)
	col := meta.Columns[GeometryColumn]
	assert.Equal(t, "WKB", col.Encoding)
	assert.Equal(t, []string{"Point"}, col.GeometryTypes)
	assert.Equal(t, []float64{-122.5, -45.5, 10.25, 37.75}, col.BBox)
}

func TestConvertWithoutLocations(t *testing.T) {
	src := writeSource(t, `{"sample_identifier":"a"}
`)
	out, err := New().Convert(context.Background(), src)
	require.NoError(t, err)

	pf, _ := readRows(t, out)
	raw, ok := pf.Lookup(MetadataKey)
	require.True(t, ok)
	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	assert.Nil(t, meta.Columns[GeometryColumn].BBox)
}

func TestConvertBadRecordLeavesNoOutput(t *testing.T) {
	src := writeSource(t, "{\"ok\":1}\nnot json\n")
	_, err := New().Convert(context.Background(), src)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Dir(src))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the source remains")
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "/a/b/file.parquet", OutputPath("/a/b/file.jsonl"))
	assert.Equal(t, "/a/b/file.parquet", OutputPath("/a/b/file"))
}
