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


package cloudstorage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/isamples-export/internal/stac"
)

// PublishResult reports what PublishTree uploaded.
type PublishResult struct {
	Uploaded []string
	Failed   []string
	Bytes    int64
}

type publishFile struct {
	path string
	key  string
	size int64
	rank int
}

// Upload order within a tree: data first, then per-run documents, then the
// root catalog and manifest.
const (
	rankData = iota
	rankItem
	rankRoot
)

// PublishTree uploads every file under root to bucket, keyed by prefix plus
// the file's slash-separated path relative to root. A failed upload does
// not stop the others; all failures are returned together.
func PublishTree(ctx context.Context, client Client, bucket, prefix, root string) (*PublishResult, error) {
	files, err := collectTree(root, prefix)
	if err != nil {
		return nil, err
	}

	result := &PublishResult{}
	var errs *multierror.Error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		contentType := stac.MediaType(f.path)
		if err := client.UploadObject(ctx, bucket, f.key, f.path, contentType); err != nil {
			uploadErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("bucket", bucket)))
			slog.Warn("Failed to publish file",
				slog.String("bucket", bucket),
				slog.String("key", f.key),
				slog.Any("error", err))
			result.Failed = append(result.Failed, f.key)
			errs = multierror.Append(errs, fmt.Errorf("publish %s: %w", f.key, err))
			continue
		}
		slog.Debug("Published file",
			slog.String("bucket", bucket),
			slog.String("key", f.key),
			slog.String("contentType", contentType),
			slog.Int64("bytes", f.size))
		result.Uploaded = append(result.Uploaded, f.key)
		result.Bytes += f.size
	}

	return result, errs.ErrorOrNil()
}

func collectTree(root, prefix string) ([]publishFile, error) {
	var files []publishFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files = append(files, publishFile{
			path: p,
			key:  objectKey(prefix, rel),
			size: info.Size(),
			rank: uploadRank(rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	slices.SortStableFunc(files, func(a, b publishFile) int {
		return a.rank - b.rank
	})
	return files, nil
}

func objectKey(prefix, rel string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

func uploadRank(rel string) int {
	name := path.Base(rel)
	switch {
	case rel == stac.DocumentFilename || rel == stac.ManifestFilename:
		return rankRoot
	case name == stac.DocumentFilename:
		return rankItem
	default:
		return rankData
	}
}
