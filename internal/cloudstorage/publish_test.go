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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	bucket      string
	key         string
	contentType string
}

type recordingClient struct {
	uploads []upload
	fail    map[string]bool
}

func (c *recordingClient) UploadObject(ctx context.Context, bucket, key, sourceFilename, contentType string) error {
	if c.fail[key] {
		return errors.New("boom")
	}
	c.uploads = append(c.uploads, upload{bucket: bucket, key: key, contentType: contentType})
	return nil
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func exportTree(t *testing.T) string {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"manifest.json":                   "[]",
		"stac.json":                       "{}",
		"2024_05_08_08_57_12/stac.json":   "{}",
		"2024_05_08_08_57_12/a.jsonl":     "{}\n{}\n",
		"2024_05_08_08_57_12/a.parquet":   "PAR1",
		"2024_05_08_08_57_12/.a.json.123": "partial",
	})
	return root
}

func TestPublishTreeOrderAndContentTypes(t *testing.T) {
	root := exportTree(t)
	client := &recordingClient{}

	result, err := PublishTree(context.Background(), client, "bucket", "/exports/", root)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Len(t, result.Uploaded, 5)
	assert.Equal(t, int64(2+6+4+2+2), result.Bytes)

	require.Len(t, client.uploads, 5)
	assert.Equal(t, []upload{
		{"bucket", "exports/2024_05_08_08_57_12/a.jsonl", "application/jsonl"},
		{"bucket", "exports/2024_05_08_08_57_12/a.parquet", "application/x-parquet"},
		{"bucket", "exports/2024_05_08_08_57_12/stac.json", "application/json"},
	}, client.uploads[:3])

	last := []string{client.uploads[3].key, client.uploads[4].key}
	assert.ElementsMatch(t, []string{"exports/manifest.json", "exports/stac.json"}, last)
}

func TestPublishTreeAggregatesFailures(t *testing.T) {
	root := exportTree(t)
	client := &recordingClient{fail: map[string]bool{
		"2024_05_08_08_57_12/a.jsonl": true,
		"stac.json":                   true,
	}}

	result, err := PublishTree(context.Background(), client, "bucket", "", root)
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.ElementsMatch(t, []string{"2024_05_08_08_57_12/a.jsonl", "stac.json"}, result.Failed)
	assert.Len(t, result.Uploaded, 3)
}

func TestPublishTreeCancelled(t *testing.T) {
	root := exportTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &recordingClient{}
	_, err := PublishTree(ctx, client, "bucket", "", root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.uploads)
}

func TestPublishTreeMissingRoot(t *testing.T) {
	_, err := PublishTree(context.Background(), &recordingClient{}, "bucket", "", filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestPublishTreeToFileProvider(t *testing.T) {
	root := exportTree(t)
	base := t.TempDir()

	client, err := NewCloudManagers().NewClient(context.Background(), Target{
		Provider: ProviderFile,
		Bucket:   "published",
		BasePath: base,
	})
	require.NoError(t, err)

	_, err = PublishTree(context.Background(), client, "published", "run", root)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(base, "published", "run", "2024_05_08_08_57_12", "a.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "{}\n{}\n", string(data))

	_, err = os.Stat(filepath.Join(base, "published", "run", "2024_05_08_08_57_12", ".a.json.123"))
	assert.True(t, os.IsNotExist(err))
}
