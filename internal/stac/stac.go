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

// Package stac writes the metadata that accompanies an export tree: the
// manifest of runs, one STAC item document per run, and a STAC catalog at
// the root linking every item beneath it.
package stac

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// TimeFormat is used for manifest start times and item datetimes. It is
	// also the format the search index expects in range filters.
	TimeFormat = "2006-01-02T15:04:05.000000Z"

	ManifestFilename = "manifest.json"
	DocumentFilename = "stac.json"

	Version        = "1.0.0"
	TypeCollection = "Collection"
	TypeCatalog    = "Catalog"
	DefaultLicense = "CC-BY-4.0"

	CollectionTitle = "iSamples Stac Collection"

	DefaultCatalogID          = "iSamples Catalog"
	DefaultCatalogTitle       = "iSamples STAC Catalog"
	DefaultCatalogDescription = "STAC Catalog from iSamples Exports"

	mediaTypeJSON = "application/json"
)

// CatalogConformance lists the conformance classes a catalog declares.
var CatalogConformance = []string{"https://api.stacspec.org/v1.0.0/core"}

// Link is a STAC link object.
type Link struct {
	Rel   string `json:"rel"`
	Type  string `json:"type"`
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

// FormatTime renders t in TimeFormat, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime parses a TimeFormat timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}

// ManifestPath is where the manifest for an export tree lives.
func ManifestPath(dir string) string {
	return filepath.Join(dir, ManifestFilename)
}

// DocumentPath is where the item or catalog document for dir lives.
func DocumentPath(dir string) string {
	return filepath.Join(dir, DocumentFilename)
}

// MediaType guesses the media type of an exported file from its extension.
func MediaType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return "application/jsonl"
	case ".json":
		return mediaTypeJSON
	case ".csv":
		return "text/csv"
	case ".parquet":
		return "application/x-parquet"
	default:
		return "application/octet-stream"
	}
}

// writeJSON replaces path with the indented encoding of v. The content is
// written to a temporary file in the same directory and renamed over path,
// so readers never observe a partially written document.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
