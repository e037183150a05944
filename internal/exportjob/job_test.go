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

package exportjob

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in       string
		want     Format
		wire     string
		columnar bool
	}{
		{"jsonl", FormatJSONL, "jsonl", false},
		{"csv", FormatCSV, "csv", false},
		{"geoparquet", FormatGeoParquet, "jsonl", true},
		{" GeoParquet ", FormatGeoParquet, "jsonl", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
			assert.Equal(t, tt.wire, f.WireFormat())
			assert.Equal(t, tt.columnar, f.Columnar())
		})
	}

	for _, bad := range []string{"", "xml", "parquet", "json"} {
		_, err := ParseFormat(bad)
		assert.True(t, IsConfigurationError(err), "format %q", bad)
	}
}

func TestFormatNames(t *testing.T) {
	assert.Equal(t, []string{"csv", "geoparquet", "jsonl"}, FormatNames())
}

func TestEffectiveQuery(t *testing.T) {
	assert.Equal(t, "material:rock", EffectiveQuery("material:rock", nil))

	ts := time.Date(2024, 5, 8, 8, 57, 12, 345678000, time.UTC)
	assert.Equal(t,
		"material:rock AND indexUpdatedTime:[2024-05-08T08:57:12.345678Z TO *]",
		EffectiveQuery("material:rock", &ts))

	local := ts.In(time.FixedZone("X", 3600))
	assert.Equal(t,
		"material:rock AND indexUpdatedTime:[2024-05-08T08:57:12.345678Z TO *]",
		EffectiveQuery("material:rock", &local))
}

func TestNewJobCreatesDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b")
	job, err := NewJob(JobOptions{Query: "q", Destination: dest})
	require.NoError(t, err)
	assert.Equal(t, FormatJSONL, job.Format)
	assert.DirExists(t, dest)
	assert.True(t, filepath.IsAbs(job.Destination))
	assert.Nil(t, job.RefreshTime)
}

func TestNewJobConfigurationErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name string
		opts JobOptions
	}{
		{"no query", JobOptions{Destination: t.TempDir()}},
		{"no destination", JobOptions{Query: "q"}},
		{"destination is a file", JobOptions{Query: "q", Destination: file}},
		{"bad format", JobOptions{Query: "q", Destination: t.TempDir(), Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJob(tt.opts)
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
		})
	}
}
