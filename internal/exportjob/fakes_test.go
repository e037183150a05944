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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cardinalhq/isamples-export/internal/exportapi"
	"github.com/cardinalhq/isamples-export/internal/stac"
)

type statusStep struct {
	status string
	err    error
}

// fakeRemote scripts the export service. The last status step repeats once
// the script runs out.
type fakeRemote struct {
	mu sync.Mutex

	createErr error
	jobID     string
	statuses  []statusStep
	body      string
	omitQuery bool

	createCalls   int
	statusCalls   int
	downloadCalls int
	queries       []string
	formats       []string
}

func (f *fakeRemote) BaseURL() string {
	return "https://export.example.com/export/"
}

func (f *fakeRemote) Create(_ context.Context, query, format string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.queries = append(f.queries, query)
	f.formats = append(f.formats, format)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.jobID, nil
}

func (f *fakeRemote) Status(_ context.Context, jobID string) (*exportapi.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if jobID != f.jobID {
		return nil, fmt.Errorf("unexpected job id %q", jobID)
	}
	i := f.statusCalls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.statusCalls++
	step := f.statuses[i]
	if step.err != nil {
		return nil, step.err
	}
	if f.omitQuery {
		return &exportapi.StatusResponse{
			Status: step.status,
			Raw:    []byte(fmt.Sprintf(`{"status":%q}`, step.status)),
		}, nil
	}
	raw := fmt.Sprintf(`{"status":%q,"query":"{\"q\":\"material:rock\"}"}`, step.status)
	return &exportapi.StatusResponse{
		Status: step.status,
		Query:  `{"q":"material:rock"}`,
		Raw:    []byte(raw),
	}, nil
}

func (f *fakeRemote) Download(_ context.Context, _ string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadCalls++
	return io.NopCloser(strings.NewReader(f.body)), nil
}

type fakeSummarizer struct {
	extents stac.Extents
	err     error
	calls   int
}

func (s *fakeSummarizer) Summarize(_ context.Context, path string) (stac.Extents, error) {
	s.calls++
	if _, err := os.Stat(path); err != nil {
		return stac.Extents{}, err
	}
	return s.extents, s.err
}

type fakeConverter struct {
	calls int
}

func (c *fakeConverter) Convert(_ context.Context, path string) (string, error) {
	c.calls++
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".parquet"
	return out, os.WriteFile(out, []byte("PAR1"), 0o644)
}

type countingSleeper struct {
	calls int
}

func (s *countingSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	s.calls++
	return ctx.Err()
}

var errBoom = errors.New("boom")

const threeRecords = `{"sample_identifier":"a"}
{"sample_identifier":"b"}
{"sample_identifier":"c"}
`
