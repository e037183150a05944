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
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FileClientProvider creates clients that publish into a local directory.
// Buckets become subdirectories under the base path.
type FileClientProvider struct {
	base string
}

var _ ClientProvider = (*FileClientProvider)(nil)

// NewFileClientProvider returns a new provider rooted at base.
func NewFileClientProvider(base string) *FileClientProvider {
	return &FileClientProvider{base: base}
}

func (p *FileClientProvider) NewClient(ctx context.Context, target Target) (Client, error) {
	return &fileClient{base: p.base}, nil
}

type fileClient struct {
	base string
}

func (c *fileClient) path(bucket, key string) string {
	return filepath.Join(c.base, bucket, filepath.FromSlash(key))
}

// UploadObject copies a local file into the bucket/key location. The content
// type has no meaning on a filesystem.
func (c *fileClient) UploadObject(ctx context.Context, bucket, key, sourceFilename, contentType string) error {
	dst := c.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	src, err := os.Open(sourceFilename)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}

	attrs := metric.WithAttributes(
		attribute.String("provider", ProviderFile),
		attribute.String("bucket", bucket),
	)
	uploadCount.Add(ctx, 1, attrs)
	uploadBytes.Add(ctx, n, attrs)
	return nil
}
