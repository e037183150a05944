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
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/isamples-export/internal/stac"
)

func TestFromManifest(t *testing.T) {
	dir := t.TempDir()
	_, err := stac.AppendManifest(dir, stac.ManifestEntry{
		Query: "old", UUID: "1", Format: "csv", StartTime: "2023-01-01T00:00:00.000000Z",
	})
	require.NoError(t, err)
	_, err = stac.AppendManifest(dir, stac.ManifestEntry{
		Query:           "source:SESAR",
		UUID:            "2",
		Format:          "jsonl",
		StartTime:       "2024-05-08T08:57:12.123456Z",
		ExportServerURL: "https://export.example.com/export/",
		IsGeoParquet:    true,
	})
	require.NoError(t, err)

	job, err := FromManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "source:SESAR", job.Query)
	assert.Equal(t, FormatGeoParquet, job.Format)
	assert.Equal(t, "https://export.example.com/export/", job.ServerURL)
	require.NotNil(t, job.RefreshTime)
	assert.True(t, job.RefreshTime.Equal(time.Date(2024, 5, 8, 8, 57, 12, 123456000, time.UTC)))
	assert.Equal(t,
		"source:SESAR AND indexUpdatedTime:[2024-05-08T08:57:12.123456Z TO *]",
		job.EffectiveQuery())
}

func TestFromManifestMissing(t *testing.T) {
	_, err := FromManifest(t.TempDir())
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFromManifestEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(stac.ManifestPath(dir), []byte("[]"), 0o644))

	_, err := FromManifest(dir)
	assert.True(t, IsConfigurationError(err))
	assert.ErrorIs(t, err, stac.ErrEmptyManifest)
}

func TestFromManifestBadStartTime(t *testing.T) {
	dir := t.TempDir()
	_, err := stac.AppendManifest(dir, stac.ManifestEntry{Query: "q", Format: "jsonl", StartTime: "yesterday"})
	require.NoError(t, err)

	_, err = FromManifest(dir)
	assert.True(t, IsConfigurationError(err))
}
