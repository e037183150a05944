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
	"fmt"
	"io/fs"
	"path/filepath"
)

// CatalogParams configures the catalog written at the root of an export tree.
type CatalogParams struct {
	RootDir     string
	Title       string
	Description string
}

// Catalog is the STAC document at the root of an export tree.
type Catalog struct {
	Type        string   `json:"type"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StacVersion string   `json:"stac_version"`
	ConformsTo  []string `json:"conformsTo"`
	Links       []Link   `json:"links"`
}

// BuildCatalog scans p.RootDir for item documents and assembles the catalog.
func BuildCatalog(p CatalogParams) (*Catalog, error) {
	links := []Link{
		{Rel: "self", Type: mediaTypeJSON, Href: DocumentFilename},
		{Rel: "root", Type: mediaTypeJSON, Href: DocumentFilename},
	}

	items, err := findItems(p.RootDir)
	if err != nil {
		return nil, err
	}
	for _, rel := range items {
		links = append(links, Link{
			Rel:   "child",
			Type:  mediaTypeJSON,
			Title: filepath.Base(filepath.Dir(rel)),
			Href:  filepath.ToSlash(rel),
		})
	}

	title := p.Title
	if title == "" {
		title = DefaultCatalogTitle
	}
	description := p.Description
	if description == "" {
		description = DefaultCatalogDescription
	}

	return &Catalog{
		Type:        TypeCatalog,
		ID:          DefaultCatalogID,
		Title:       title,
		Description: description,
		StacVersion: Version,
		ConformsTo:  CatalogConformance,
		Links:       links,
	}, nil
}

// WriteCatalog regenerates the catalog at the root of p.RootDir and returns
// its path. Any existing catalog is replaced.
func WriteCatalog(p CatalogParams) (string, error) {
	catalog, err := BuildCatalog(p)
	if err != nil {
		return "", err
	}
	path := DocumentPath(p.RootDir)
	if err := writeJSON(path, catalog); err != nil {
		return "", err
	}
	return path, nil
}

// findItems returns the root-relative paths of every document beneath root,
// in lexical order, excluding the catalog's own file.
func findItems(root string) ([]string, error) {
	var items []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != DocumentFilename {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == DocumentFilename {
			return nil
		}
		items = append(items, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s for item documents: %w", root, err)
	}
	return items, nil
}
