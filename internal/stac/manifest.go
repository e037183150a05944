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
)

// ErrEmptyManifest is returned when a manifest exists but holds no entries.
var ErrEmptyManifest = errors.New("manifest has no entries")

// ManifestEntry records one export run.
type ManifestEntry struct {
	Query           string `json:"query"`
	UUID            string `json:"uuid"`
	Format          string `json:"format"`
	StartTime       string `json:"start_time"`
	NumResults      int64  `json:"num_results"`
	ExportServerURL string `json:"export_server_url"`
	IsGeoParquet    bool   `json:"is_geoparquet"`

	// QueryWithTimestamp is set for incremental runs and holds the query
	// actually sent, including the index-updated range filter.
	QueryWithTimestamp string `json:"query_with_timestamp,omitempty"`
}

// AppendManifest adds entry to the end of the manifest in dir, creating the
// manifest if needed, and returns the manifest path.
//
// Existing entries are carried over byte-for-byte (modulo indentation),
// including fields this version does not know about. The manifest is read and
// rewritten whole; callers must not run two appends against the same
// directory at once.
func AppendManifest(dir string, entry ManifestEntry) (string, error) {
	path := ManifestPath(dir)

	entries, err := readRawManifest(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("encode manifest entry: %w", err)
	}
	entries = append(entries, raw)

	if err := writeJSON(path, entries); err != nil {
		return "", err
	}
	return path, nil
}

// ReadManifest loads every entry of the manifest in dir, oldest first.
// A missing manifest yields an error wrapping os.ErrNotExist.
func ReadManifest(dir string) ([]ManifestEntry, error) {
	raw, err := readRawManifest(ManifestPath(dir))
	if err != nil {
		return nil, err
	}

	entries := make([]ManifestEntry, 0, len(raw))
	for i, r := range raw {
		var e ManifestEntry
		if err := json.Unmarshal(r, &e); err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LastManifestEntry returns the most recent run recorded in dir.
func LastManifestEntry(dir string) (*ManifestEntry, error) {
	entries, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", ManifestPath(dir), ErrEmptyManifest)
	}
	last := entries[len(entries)-1]
	return &last, nil
}

func readRawManifest(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return entries, nil
}
