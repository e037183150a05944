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
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/isamples-export/internal/exportapi"
	"github.com/cardinalhq/isamples-export/internal/helpers"
	"github.com/cardinalhq/isamples-export/internal/idgen"
	"github.com/cardinalhq/isamples-export/internal/jsonl"
	"github.com/cardinalhq/isamples-export/internal/stac"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxErrors    = 3
)

// RemoteAPI is the part of the export service client the orchestrator uses.
type RemoteAPI interface {
	BaseURL() string
	Create(ctx context.Context, query, format string) (string, error)
	Status(ctx context.Context, jobID string) (*exportapi.StatusResponse, error)
	Download(ctx context.Context, jobID string) (io.ReadCloser, error)
}

var _ RemoteAPI = (*exportapi.Client)(nil)

// Summarizer computes the spatial and temporal extent of a downloaded file.
type Summarizer interface {
	Summarize(ctx context.Context, path string) (stac.Extents, error)
}

// Converter writes a columnar copy of a downloaded file and returns its path.
type Converter interface {
	Convert(ctx context.Context, path string) (string, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Options configures an Orchestrator.
type Options struct {
	// PollInterval is the wait between status polls and between retries.
	// Default: 5s
	PollInterval time.Duration

	// MaxErrors is how many errors a run tolerates; the next one abandons it.
	// Default: 3
	MaxErrors int

	// ChunkSize bounds the download buffer.
	// Default: 8192
	ChunkSize int

	// Summarizer is optional; without it items carry unknown extents.
	Summarizer Summarizer

	// Converter is required for columnar formats.
	Converter Converter

	Now    func() time.Time
	Sleep  Sleeper
	Logger *slog.Logger
}

// RunSummary describes a completed run.
type RunSummary struct {
	RunID        string
	JobID        string
	StartTime    time.Time
	FinishTime   time.Time
	NumResults   int64
	DataPath     string
	ColumnarPath string
	ManifestPath string
	ItemPath     string
	CatalogPath  string
	Extents      stac.Extents
	Errors       int
}

// Elapsed is the wall time from start to the last document written.
func (s *RunSummary) Elapsed() time.Duration {
	if s.FinishTime.IsZero() {
		return 0
	}
	return s.FinishTime.Sub(s.StartTime)
}

// run is the state of one Run call.
type run struct {
	job     *Job
	summary *RunSummary
	logger  *slog.Logger

	// serverQuery is the query the service echoed back on completion.
	serverQuery string
}

// Orchestrator runs export jobs against one export service.
//
// A run is a single loop with one error counter. Every error other than a
// reported job failure or context cancellation counts against the budget,
// waits PollInterval, and resumes at the status check. Once the service has
// assigned a job id it is reused, so a failure after download repeats the
// download and post-processing but not the submit.
type Orchestrator struct {
	remote       RemoteAPI
	summarizer   Summarizer
	converter    Converter
	pollInterval time.Duration
	maxErrors    int
	chunkSize    int
	now          func() time.Time
	sleep        Sleeper
	logger       *slog.Logger
}

// New creates an orchestrator that talks to remote.
func New(remote RemoteAPI, opts Options) *Orchestrator {
	o := &Orchestrator{
		remote:       remote,
		summarizer:   opts.Summarizer,
		converter:    opts.Converter,
		pollInterval: opts.PollInterval,
		maxErrors:    opts.MaxErrors,
		chunkSize:    opts.ChunkSize,
		now:          opts.Now,
		sleep:        opts.Sleep,
		logger:       opts.Logger,
	}
	if o.pollInterval <= 0 {
		o.pollInterval = DefaultPollInterval
	}
	if o.maxErrors <= 0 {
		o.maxErrors = DefaultMaxErrors
	}
	if o.chunkSize <= 0 {
		o.chunkSize = DefaultChunkSize
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.sleep == nil {
		o.sleep = sleepContext
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Run takes job from submit to a written catalog.
func (o *Orchestrator) Run(ctx context.Context, job *Job) (*RunSummary, error) {
	if job == nil {
		return nil, ConfigurationError{Message: "no job"}
	}
	if job.Format.Columnar() && o.converter == nil {
		return nil, ConfigurationError{Message: fmt.Sprintf("format %s needs a columnar converter", job.Format)}
	}

	job.StartTime = o.now().UTC()
	summary := &RunSummary{
		RunID:     idgen.NewRunID(job.StartTime),
		StartTime: job.StartTime,
	}
	r := &run{job: job, summary: summary, logger: o.logger.With(slog.String("runID", summary.RunID))}
	r.logger.Info("Starting export",
		slog.String("query", job.EffectiveQuery()),
		slog.String("format", job.Format.String()),
		slog.String("destination", job.Destination))

	for {
		err := o.attempt(ctx, r)
		if err == nil {
			summary.FinishTime = o.now().UTC()
			runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "completed")))
			r.logger.Info("Export complete",
				slog.Int64("numResults", summary.NumResults),
				slog.String("dataPath", summary.DataPath),
				slog.String("catalogPath", summary.CatalogPath),
				slog.Int("errors", summary.Errors),
				slog.String("elapsed", helpers.FormatDuration(summary.Elapsed())))
			return summary, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			runCounter.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("result", "canceled")))
			return nil, err
		}

		if IsJobFailed(err) {
			runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "job_failed")))
			r.logger.Error("Export job failed on the server", slog.Any("error", err))
			return nil, err
		}

		if IsConfigurationError(err) {
			runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "misconfigured")))
			r.logger.Error("Export run misconfigured", slog.Any("error", err))
			return nil, err
		}

		summary.Errors++
		category := errorCategory(err)
		runErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
		r.logger.Error("Export attempt failed",
			slog.Any("error", err),
			slog.String("category", category),
			slog.Int("errorCount", summary.Errors),
			slog.Int("maxErrors", o.maxErrors))

		if summary.Errors > o.maxErrors {
			runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "abandoned")))
			return nil, RetriesExhaustedError{Errors: summary.Errors, Last: err}
		}

		if err := o.sleep(ctx, o.pollInterval); err != nil {
			return nil, err
		}
	}
}

// attempt runs the loop body once: submit if needed, poll until the job is
// terminal, then download and post-process.
func (o *Orchestrator) attempt(ctx context.Context, r *run) error {
	job := r.job
	if job.ID == "" {
		id, err := o.remote.Create(ctx, job.EffectiveQuery(), job.Format.WireFormat())
		if err != nil {
			return fmt.Errorf("submit: %w", err)
		}
		job.ID = id
		r.summary.JobID = id
		r.logger = r.logger.With(slog.String("jobID", id))
		r.logger.Info("Export job submitted")
	}

	for {
		resp, err := o.remote.Status(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		status, err := resp.ParsedStatus()
		if err != nil {
			return &exportapi.ProtocolError{Op: "status", Message: "unparseable status", Body: string(resp.Raw), Err: err}
		}
		job.Status = status
		pollCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status.String())))

		switch {
		case status == exportapi.StatusError:
			return JobFailedError{JobID: job.ID, Payload: resp.Raw}
		case status.Running():
			r.logger.Debug("Export job still running", slog.String("status", status.String()))
			if err := o.sleep(ctx, o.pollInterval); err != nil {
				return err
			}
		default:
			q, err := resp.OriginalQuery()
			if err != nil {
				r.logger.Debug("Status response has no usable query", slog.Any("error", err))
			}
			r.serverQuery = q
			return o.complete(ctx, r)
		}
	}
}

// complete downloads the result and writes every derived file.
func (o *Orchestrator) complete(ctx context.Context, r *run) error {
	job, summary, logger := r.job, r.summary, r.logger
	runDir, dataPath := runPaths(job.Destination, o.now(), job.Format.WireFormat())

	body, err := o.remote.Download(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	n, err := downloadToFile(ctx, dataPath, body, o.chunkSize)
	_ = body.Close()
	bytesDownloaded.Add(ctx, n)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	logger.Info("Downloaded export", slog.String("path", dataPath), slog.Int64("bytes", n))

	numResults, err := jsonl.CountFileLines(dataPath)
	if err != nil {
		return err
	}

	var extents stac.Extents
	if o.summarizer != nil && job.Format.WireFormat() == string(FormatJSONL) {
		extents, err = o.summarizer.Summarize(ctx, dataPath)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}
	}

	var columnarPath string
	if job.Format.Columnar() {
		columnarPath, err = o.converter.Convert(ctx, dataPath)
		if err != nil {
			return fmt.Errorf("convert: %w", err)
		}
		logger.Info("Wrote columnar copy", slog.String("path", columnarPath))
	}

	entry := stac.ManifestEntry{
		Query:           job.Query,
		UUID:            job.ID,
		Format:          job.Format.WireFormat(),
		StartTime:       stac.FormatTime(job.StartTime),
		NumResults:      numResults,
		ExportServerURL: o.remote.BaseURL(),
		IsGeoParquet:    job.Format.Columnar(),
	}
	if job.RefreshTime != nil {
		entry.QueryWithTimestamp = job.EffectiveQuery()
	}
	manifestPath, err := stac.AppendManifest(job.Destination, entry)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	itemQuery := r.serverQuery
	if itemQuery == "" {
		itemQuery = job.EffectiveQuery()
	}
	itemPath, err := stac.WriteItem(stac.ItemParams{
		RootDir:      job.Destination,
		JobID:        job.ID,
		StartTime:    job.StartTime,
		Query:        itemQuery,
		Extents:      extents,
		DataPath:     dataPath,
		ColumnarPath: columnarPath,
		Title:        job.Title,
		Description:  job.Description,
	})
	if err != nil {
		return fmt.Errorf("item document: %w", err)
	}

	catalogPath, err := stac.WriteCatalog(stac.CatalogParams{
		RootDir:     job.Destination,
		Title:       job.Title,
		Description: job.Description,
	})
	if err != nil {
		return fmt.Errorf("catalog document: %w", err)
	}

	recordsExported.Add(ctx, numResults)
	summary.NumResults = numResults
	summary.DataPath = dataPath
	summary.ColumnarPath = columnarPath
	summary.ManifestPath = manifestPath
	summary.ItemPath = itemPath
	summary.CatalogPath = catalogPath
	summary.Extents = extents
	logger.Debug("Wrote run documents", slog.String("runDir", runDir))
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
