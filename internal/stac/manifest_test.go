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

package stac

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(i int) ManifestEntry {
	return ManifestEntry{
		Query:           fmt.Sprintf("source:SESAR AND id:%d", i),
		UUID:            fmt.Sprintf("job-%d", i),
		Format:          "jsonl",
		StartTime:       FormatTime(time.Date(2024, 5, 8, 8, 57, i, 0, time.UTC)),
		NumResults:      int64(i * 10),
		ExportServerURL: "https://example.com/export/",
	}
}

func TestAppendManifestPreservesOrder(t *testing.T) {
	dir := t.TempDir()

	const n = 5
	for i := range n {
		path, err := AppendManifest(dir, entry(i))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ManifestFilename), path)
	}

	entries, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Len(t, entries, n)
	for i, e := range entries {
		assert.Equal(t, entry(i), e)
	}

	_, err = AppendManifest(dir, entry(n))
	require.NoError(t, err)

	entries, err = ReadManifest(dir)
	require.NoError(t, err)
	require.Len(t, entries, n+1)
	for i, e := range entries {
		assert.Equal(t, entry(i), e)
	}

	last, err := LastManifestEntry(dir)
	require.NoError(t, err)
	assert.Equal(t, entry(n), *last)
}

func TestAppendManifestKeepsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	existing := `[{"query": "q", "uuid": "old", "format": "jsonl", "start_time": "2024-01-01T00:00:00.000000Z", "num_results": 1, "export_server_url": "u", "is_geoparquet": false, "operator": "alice"}]`
	require.NoError(t, os.WriteFile(ManifestPath(dir), []byte(existing), 0o644))

	_, err := AppendManifest(dir, entry(1))
	require.NoError(t, err)

	data, err := os.ReadFile(ManifestPath(dir))
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "alice", raw[0]["operator"])
	assert.Equal(t, "job-1", raw[1]["uuid"])
}

func TestManifestQueryWithTimestampOmittedWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	_, err := AppendManifest(dir, entry(0))
	require.NoError(t, err)

	e := entry(1)
	e.QueryWithTimestamp = e.Query + " AND indexUpdatedTime:[2024-05-08T08:57:00.000000Z TO *]"
	_, err = AppendManifest(dir, e)
	require.NoError(t, err)

	data, err := os.ReadFile(ManifestPath(dir))
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	_, present := raw[0]["query_with_timestamp"]
	assert.False(t, present)
	assert.Equal(t, e.QueryWithTimestamp, raw[1]["query_with_timestamp"])
}

func TestReadManifestMissing(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = LastManifestEntry(t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLastManifestEntryEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(ManifestPath(dir), []byte("[]"), 0o644))

	_, err := LastManifestEntry(dir)
	assert.True(t, errors.Is(err, ErrEmptyManifest))
}

func TestReadManifestCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(ManifestPath(dir), []byte("{not a list"), 0o644))

	_, err := ReadManifest(dir)
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))

	_, err = AppendManifest(dir, entry(0))
	assert.Error(t, err, "a corrupt manifest must not be silently replaced")
}

func TestTimeFormatRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 8, 8, 57, 12, 123456000, time.UTC)
	s := FormatTime(ts)
	assert.Equal(t, "2024-05-08T08:57:12.123456Z", s)

	parsed, err := ParseTime(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
}
