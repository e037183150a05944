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
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// WorldBBox is used when a dataset has no located records.
var WorldBBox = []float64{-180, -90, 180, 90}

var itemExtensions = []string{
	"https://stac-extensions.github.io/table/v1.2.0/schema.json",
	"https://stac-extensions.github.io/alternate-assets/v1.1.0/schema.json",
}

// Extents is the spatial and temporal coverage of one exported dataset.
type Extents struct {
	// BBox is [min lon, min lat, max lon, max lat], or nil when unknown.
	BBox []float64

	// Start and End bound the sampling times; either may be nil.
	Start *time.Time
	End   *time.Time
}

// ItemParams carries everything needed to describe one run.
type ItemParams struct {
	// RootDir is the destination tree root, used for viewer links.
	RootDir string

	JobID     string
	StartTime time.Time
	Query     string
	Extents   Extents

	// DataPath is the downloaded file; the item is written next to it.
	DataPath string

	// ColumnarPath is the GeoParquet copy, empty when none was produced.
	ColumnarPath string

	Title       string
	Description string
}

// Item is the STAC document written for each run.
type Item struct {
	StacVersion    string           `json:"stac_version"`
	StacExtensions []string         `json:"stac_extensions"`
	Type           string           `json:"type"`
	ID             string           `json:"id"`
	Collection     string           `json:"collection"`
	License        string           `json:"license"`
	Extent         Extent           `json:"extent"`
	Properties     ItemProperties   `json:"properties"`
	Description    string           `json:"description"`
	Links          []Link           `json:"links"`
	TableColumns   []TableColumn    `json:"table:columns"`
	Assets         map[string]Asset `json:"assets"`
}

type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

type ItemProperties struct {
	Datetime string `json:"datetime"`
}

type Asset struct {
	Href        string                    `json:"href"`
	Type        string                    `json:"type"`
	Title       string                    `json:"title"`
	Roles       []string                  `json:"roles"`
	Description string                    `json:"description"`
	Alternate   map[string]AlternateAsset `json:"alternate,omitempty"`
}

type AlternateAsset struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// BuildItem assembles the item document for a run without writing it.
func BuildItem(p ItemParams) (*Item, error) {
	if p.DataPath == "" {
		return nil, errors.New("item: data path is required")
	}

	title := p.Title
	if title == "" {
		title = fmt.Sprintf("%s %s", CollectionTitle, p.JobID)
	}
	description := p.Description
	if description == "" {
		description = fmt.Sprintf(
			"iSamples Export Service results initiated at %s.  The solr query that produced this collection was  \n```%s```.  \n",
			p.StartTime.UTC().Format("2006-01-02 15:04:05.000000"), p.Query)
	}

	bbox := p.Extents.BBox
	if len(bbox) != 4 {
		bbox = WorldBBox
	}

	assets := map[string]Asset{}
	if p.ColumnarPath != "" {
		rel, err := filepath.Rel(p.RootDir, p.ColumnarPath)
		if err != nil {
			return nil, fmt.Errorf("item: columnar path outside root: %w", err)
		}
		assets["data"] = Asset{
			Href:        "./" + filepath.Base(p.ColumnarPath),
			Type:        MediaType(p.ColumnarPath),
			Title:       fmt.Sprintf("%s %s parquet export", CollectionTitle, p.JobID),
			Roles:       []string{"data"},
			Description: "GeoParquet representation of the collection.",
			Alternate: map[string]AlternateAsset{
				"view": {
					Title: "View parquet file",
					Href:  "/ui/ds_view.html#/data/" + filepath.ToSlash(rel),
				},
			},
		}
	}

	return &Item{
		StacVersion:    Version,
		StacExtensions: itemExtensions,
		Type:           TypeCollection,
		ID:             "iSamples Export Service result " + p.JobID,
		Collection:     title,
		License:        DefaultLicense,
		Extent: Extent{
			Spatial: SpatialExtent{BBox: [][]float64{bbox}},
			Temporal: TemporalExtent{Interval: [][]*string{{
				formatBound(p.Extents.Start),
				formatBound(p.Extents.End),
			}}},
		},
		Properties:  ItemProperties{Datetime: FormatTime(p.StartTime)},
		Description: description,
		Links: []Link{
			{
				Rel:   "self",
				Href:  "./" + filepath.Base(p.DataPath),
				Type:  MediaType(p.DataPath),
				Title: fmt.Sprintf("%s %s", CollectionTitle, p.JobID),
			},
		},
		TableColumns: SampleColumns(),
		Assets:       assets,
	}, nil
}

// WriteItem writes the item document into the run directory holding
// p.DataPath and returns its path.
func WriteItem(p ItemParams) (string, error) {
	item, err := BuildItem(p)
	if err != nil {
		return "", err
	}
	path := DocumentPath(filepath.Dir(p.DataPath))
	if err := writeJSON(path, item); err != nil {
		return "", err
	}
	return path, nil
}

func formatBound(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
