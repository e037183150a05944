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


package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/isamples-export/config"
	"github.com/cardinalhq/isamples-export/internal/cloudstorage"
)

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"export", "refresh", "serve", "catalog", "publish"} {
		assert.True(t, names[want], want)
	}
}

func TestExportRequiresQueryAndDestination(t *testing.T) {
	c, _, err := rootCmd.Find([]string{"export"})
	require.NoError(t, err)
	for _, name := range []string{"query", "destination"} {
		f := c.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, []string{"true"}, f.Annotations["cobra_annotation_bash_completion_one_required_flag"], name)
	}
	assert.NotNil(t, c.Flags().Lookup("jwt"))
	assert.NotNil(t, c.Flags().Lookup("publish"))
}

func TestResolvedToken(t *testing.T) {
	cfg = &config.Config{Export: config.ExportConfig{Token: "from-config"}}
	t.Cleanup(func() { cfg = nil })

	assert.Equal(t, "from-config", runFlags{}.resolvedToken())
	assert.Equal(t, "from-flag", runFlags{token: "from-flag"}.resolvedToken())
}

func TestPublishTreeToFileTarget(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "run"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "run", "data.jsonl"), []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stac.json"), []byte("{}"), 0o644))

	base := t.TempDir()
	err := publishTree(context.Background(), cloudstorage.Target{
		Provider: cloudstorage.ProviderFile,
		Bucket:   "bucket",
		Prefix:   "exports",
		BasePath: base,
	}, root)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(base, "bucket", "exports", "run", "data.jsonl"))
	assert.FileExists(t, filepath.Join(base, "bucket", "exports", "stac.json"))
}

func TestPublishTreeRejectsBadTarget(t *testing.T) {
	err := publishTree(context.Background(), cloudstorage.Target{Provider: "ftp", Bucket: "b"}, t.TempDir())
	assert.Error(t, err)
}
