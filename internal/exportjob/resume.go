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
	"github.com/cardinalhq/isamples-export/internal/stac"
)

// FromManifest builds a job that continues the most recent run recorded in
// dir: same query, format and server, limited to records updated since that
// run started.
func FromManifest(dir string) (*Job, error) {
	entry, err := stac.LastManifestEntry(dir)
	if err != nil {
		return nil, ConfigurationError{Message: "no manifest to refresh from in " + dir, Err: err}
	}

	since, err := stac.ParseTime(entry.StartTime)
	if err != nil {
		return nil, ConfigurationError{Message: "manifest start_time " + entry.StartTime + " is invalid", Err: err}
	}

	format := entry.Format
	if entry.IsGeoParquet {
		format = string(FormatGeoParquet)
	}

	return NewJob(JobOptions{
		Query:       entry.Query,
		Format:      format,
		Destination: dir,
		RefreshTime: &since,
		ServerURL:   entry.ExportServerURL,
	})
}
