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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestWriteItemWithoutColumnar(t *testing.T) {
	root := t.TempDir()
	runDir := filepath.Join(root, "2024_05_08_08_57_12")
	dataPath := filepath.Join(runDir, "isamples_export_2024_05_08_08_57_12.jsonl")
	writeFile(t, dataPath, "{}\n")

	start := time.Date(2024, 5, 8, 8, 57, 12, 0, time.UTC)
	end := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	path, err := WriteItem(ItemParams{
		RootDir:   root,
		JobID:     "abc-123",
		StartTime: start,
		Query:     "material:rock",
		Extents:   Extents{BBox: []float64{-10, -20, 30, 40}, End: &end},
		DataPath:  dataPath,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(runDir, DocumentFilename), path)

	doc := readJSON(t, path)
	assert.Equal(t, "Collection", doc["type"])
	assert.Equal(t, "1.0.0", doc["stac_version"])
	assert.Equal(t, "iSamples Export Service result abc-123", doc["id"])
	assert.Equal(t, "iSamples Stac Collection abc-123", doc["collection"])
	assert.Equal(t, "CC-BY-4.0", doc["license"])
	assert.Contains(t, doc["description"], "```material:rock```")
	assert.Equal(t, "2024-05-08T08:57:12.000000Z", doc["properties"].(map[string]any)["datetime"])

	extent := doc["extent"].(map[string]any)
	bbox := extent["spatial"].(map[string]any)["bbox"].([]any)
	assert.Equal(t, []any{-10.0, -20.0, 30.0, 40.0}, bbox[0])
	interval := extent["temporal"].(map[string]any)["interval"].([]any)
	assert.Equal(t, []any{nil, "2020-01-02T00:00:00Z"}, interval[0])

	links := doc["links"].([]any)
	require.Len(t, links, 1)
	self := links[0].(map[string]any)
	assert.Equal(t, "self", self["rel"])
	assert.Equal(t, "./isamples_export_2024_05_08_08_57_12.jsonl", self["href"])
	assert.Equal(t, "application/jsonl", self["type"])

	assert.Len(t, doc["table:columns"].([]any), len(sampleColumns))
	assert.Empty(t, doc["assets"])
}

func TestWriteItemWithColumnar(t *testing.T) {
	root := t.TempDir()
	runDir := filepath.Join(root, "2024_05_08_08_57_12")
	dataPath := filepath.Join(runDir, "isamples_export_2024_05_08_08_57_12.jsonl")
	parquetPath := filepath.Join(runDir, "isamples_export_2024_05_08_08_57_12.parquet")

	item, err := BuildItem(ItemParams{
		RootDir:      root,
		JobID:        "abc-123",
		StartTime:    time.Now(),
		DataPath:     dataPath,
		ColumnarPath: parquetPath,
		Title:        "My Title",
		Description:  "My Description",
	})
	require.NoError(t, err)

	assert.Equal(t, "My Title", item.Collection)
	assert.Equal(t, "My Description", item.Description)
	assert.Equal(t, [][]float64{WorldBBox}, item.Extent.Spatial.BBox)

	asset, ok := item.Assets["data"]
	require.True(t, ok)
	assert.Equal(t, "./isamples_export_2024_05_08_08_57_12.parquet", asset.Href)
	assert.Equal(t, "application/x-parquet", asset.Type)
	assert.Equal(t, []string{"data"}, asset.Roles)
	assert.Equal(t,
		"/ui/ds_view.html#/data/2024_05_08_08_57_12/isamples_export_2024_05_08_08_57_12.parquet",
		asset.Alternate["view"].Href)
}

func TestBuildItemRequiresDataPath(t *testing.T) {
	_, err := BuildItem(ItemParams{JobID: "x"})
	assert.Error(t, err)
}

func TestWriteCatalogLinksEveryItem(t *testing.T) {
	root := t.TempDir()
	itemDirs := []string{
		"2024_01_01_00_00_00",
		"2024_02_01_00_00_00",
		filepath.Join("archive", "2023_12_01_00_00_00"),
		filepath.Join("archive", "deep", "2023_11_01_00_00_00"),
	}
	for _, d := range itemDirs {
		writeFile(t, filepath.Join(root, d, DocumentFilename), "{}")
	}
	writeFile(t, filepath.Join(root, "2024_01_01_00_00_00", "other.json"), "{}")
	// a stale catalog at the root must not link to itself
	writeFile(t, filepath.Join(root, DocumentFilename), "{}")

	path, err := WriteCatalog(CatalogParams{RootDir: root})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, DocumentFilename), path)

	var catalog Catalog
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &catalog))

	assert.Equal(t, "Catalog", catalog.Type)
	assert.Equal(t, DefaultCatalogTitle, catalog.Title)
	assert.Equal(t, DefaultCatalogDescription, catalog.Description)
	assert.Equal(t, CatalogConformance, catalog.ConformsTo)
	require.Len(t, catalog.Links, len(itemDirs)+2)
	assert.Equal(t, "self", catalog.Links[0].Rel)
	assert.Equal(t, "root", catalog.Links[1].Rel)

	children := map[string]string{}
	for _, l := range catalog.Links[2:] {
		assert.Equal(t, "child", l.Rel)
		children[l.Href] = l.Title
	}
	assert.Equal(t, "2024_01_01_00_00_00", children["2024_01_01_00_00_00/stac.json"])
	assert.Equal(t, "2023_11_01_00_00_00", children["archive/deep/2023_11_01_00_00_00/stac.json"])
	assert.NotContains(t, children, "stac.json")
}

func TestWriteCatalogIsRegeneratedInFull(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", DocumentFilename), "{}")

	_, err := WriteCatalog(CatalogParams{RootDir: root, Title: "T", Description: "D"})
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "b", DocumentFilename), "{}")
	require.NoError(t, os.Remove(filepath.Join(root, "a", DocumentFilename)))

	catalog, err := BuildCatalog(CatalogParams{RootDir: root})
	require.NoError(t, err)
	require.Len(t, catalog.Links, 3)
	assert.Equal(t, "b/stac.json", catalog.Links[2].Href)
}

func TestWriteCatalogEmptyTree(t *testing.T) {
	root := t.TempDir()
	catalog, err := BuildCatalog(CatalogParams{RootDir: root})
	require.NoError(t, err)
	assert.Len(t, catalog.Links, 2)
}

func TestDocumentsDoNotEscapeHTML(t *testing.T) {
	root := t.TempDir()
	dataPath := filepath.Join(root, "run", "data.jsonl")
	writeFile(t, dataPath, "")

	path, err := WriteItem(ItemParams{RootDir: root, JobID: "x", DataPath: dataPath, Query: "a && b <c>"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a && b <c>")
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "application/jsonl", MediaType("a.jsonl"))
	assert.Equal(t, "text/csv", MediaType("a.CSV"))
	assert.Equal(t, "application/x-parquet", MediaType("a.parquet"))
	assert.Equal(t, "application/json", MediaType("stac.json"))
	assert.Equal(t, "application/octet-stream", MediaType("a.bin"))
}
