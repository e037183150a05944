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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DefaultChunkSize is the download buffer size.
const DefaultChunkSize = 8192

const runDirLayout = "2006_01_02_15_04_05"

// runPaths returns the run directory and data file for a download started at t.
func runPaths(dest string, t time.Time, ext string) (string, string) {
	ts := t.UTC().Format(runDirLayout)
	dir := filepath.Join(dest, ts)
	return dir, filepath.Join(dir, fmt.Sprintf("isamples_export_%s.%s", ts, ext))
}

// downloadToFile streams src into a new file at path.
func downloadToFile(ctx context.Context, path string, src io.Reader, chunkSize int) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create run directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create download file: %w", err)
	}

	n, err := copyInChunks(ctx, f, src, chunkSize)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close download file: %w", cerr)
	}
	return n, err
}

// copyInChunks copies src to dst through a buffer of chunkSize bytes, so
// memory use does not grow with the size of the payload.
func copyInChunks(ctx context.Context, dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, fmt.Errorf("write chunk: %w", werr)
			}
			if w != n {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("read chunk: %w", rerr)
		}
	}
}
