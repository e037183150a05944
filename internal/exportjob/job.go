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

// Package exportjob drives one export run against the remote export
// service: submit, poll, download, summarize, convert, and record the
// result in the destination tree's manifest and STAC documents.
package exportjob

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cardinalhq/isamples-export/internal/exportapi"
	"github.com/cardinalhq/isamples-export/internal/stac"
)

// Format is the output format requested by the user.
type Format string

const (
	FormatJSONL      Format = "jsonl"
	FormatCSV        Format = "csv"
	FormatGeoParquet Format = "geoparquet"
)

var knownFormats = mapset.NewSet(FormatJSONL, FormatCSV, FormatGeoParquet)

// ParseFormat maps s onto a known Format. Unknown names are a
// ConfigurationError.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !knownFormats.Contains(f) {
		return "", ConfigurationError{
			Message: fmt.Sprintf("unknown export format %q (want one of %s)", s, strings.Join(FormatNames(), ", ")),
		}
	}
	return f, nil
}

// FormatNames lists the accepted format names, sorted.
func FormatNames() []string {
	names := make([]string, 0, knownFormats.Cardinality())
	for f := range knownFormats.Iter() {
		names = append(names, string(f))
	}
	slices.Sort(names)
	return names
}

// WireFormat is the format requested from the export service. GeoParquet is
// produced locally from a JSON lines download.
func (f Format) WireFormat() string {
	if f == FormatGeoParquet {
		return string(FormatJSONL)
	}
	return string(f)
}

// Columnar reports whether a columnar copy must be produced after download.
func (f Format) Columnar() bool {
	return f == FormatGeoParquet
}

func (f Format) String() string {
	return string(f)
}

// JobOptions describes a job to create.
type JobOptions struct {
	Query       string
	Format      string
	Destination string

	// RefreshTime, when set, limits the export to records updated at or
	// after it.
	RefreshTime *time.Time

	// ServerURL is informational; it records which service the job was
	// defined against when resuming from a manifest.
	ServerURL string

	Title       string
	Description string
}

// Job is the state of one export run. It is owned by the Orchestrator while
// a run is in progress.
type Job struct {
	Query       string
	Format      Format
	Destination string
	RefreshTime *time.Time
	ServerURL   string
	Title       string
	Description string

	// ID is assigned by the export service on submit.
	ID        string
	Status    exportapi.Status
	StartTime time.Time
}

// NewJob validates opts and makes sure the destination directory exists.
func NewJob(opts JobOptions) (*Job, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, ConfigurationError{Message: "query is required"}
	}

	formatName := opts.Format
	if formatName == "" {
		formatName = string(FormatJSONL)
	}
	format, err := ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	dest, err := prepareDestination(opts.Destination)
	if err != nil {
		return nil, err
	}

	var refresh *time.Time
	if opts.RefreshTime != nil {
		t := opts.RefreshTime.UTC()
		refresh = &t
	}

	return &Job{
		Query:       opts.Query,
		Format:      format,
		Destination: dest,
		RefreshTime: refresh,
		ServerURL:   opts.ServerURL,
		Title:       opts.Title,
		Description: opts.Description,
	}, nil
}

// EffectiveQuery is the query actually submitted, including the refresh
// filter when one is set.
func (j *Job) EffectiveQuery() string {
	return EffectiveQuery(j.Query, j.RefreshTime)
}

// EffectiveQuery appends an index-updated range filter to query when
// refresh is non-nil.
func EffectiveQuery(query string, refresh *time.Time) string {
	if refresh == nil {
		return query
	}
	return fmt.Sprintf("%s AND indexUpdatedTime:[%s TO *]", query, stac.FormatTime(*refresh))
}

func prepareDestination(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", ConfigurationError{Message: "destination directory is required"}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", ConfigurationError{Message: "invalid destination " + dir, Err: err}
	}

	info, err := os.Stat(abs)
	switch {
	case err == nil && !info.IsDir():
		return "", ConfigurationError{Message: fmt.Sprintf("destination %s is not a directory", abs)}
	case err == nil:
		return abs, nil
	case !os.IsNotExist(err):
		return "", ConfigurationError{Message: "cannot access destination " + abs, Err: err}
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", ConfigurationError{Message: "cannot create destination " + abs, Err: err}
	}
	return abs, nil
}
