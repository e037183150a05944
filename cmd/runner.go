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
	"fmt"
	"log/slog"

	"github.com/cardinalhq/isamples-export/internal/cloudstorage"
	"github.com/cardinalhq/isamples-export/internal/duckdbx"
	"github.com/cardinalhq/isamples-export/internal/exportapi"
	"github.com/cardinalhq/isamples-export/internal/exportjob"
	"github.com/cardinalhq/isamples-export/internal/geoparquet"
	"github.com/cardinalhq/isamples-export/internal/helpers"
	"github.com/cardinalhq/isamples-export/internal/summarize"
)

// runFlags are the flags shared by export and refresh.
type runFlags struct {
	serverURL string
	token     string
	publish   bool
}

func (f runFlags) resolvedToken() string {
	if f.token != "" {
		return f.token
	}
	return cfg.Export.Token
}

// runJob drives job to completion against serverURL and optionally
// publishes the destination tree afterwards.
func runJob(ctx context.Context, job *exportjob.Job, serverURL string, flags runFlags) error {
	logDestinationUsage(job.Destination)

	db, err := duckdbx.NewLocalDB(cfg.DuckDB.LocalDBOptions()...)
	if err != nil {
		return fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Warn("Failed to close duckdb", slog.Any("error", err))
		}
	}()

	client := exportapi.NewClient(exportapi.Options{
		BaseURL: serverURL,
		Token:   flags.resolvedToken(),
		Timeout: cfg.Export.RequestTimeout,
	})

	orchestrator := exportjob.New(client, exportjob.Options{
		PollInterval: cfg.Export.PollInterval,
		MaxErrors:    cfg.Export.MaxErrors,
		ChunkSize:    cfg.Export.ChunkSize,
		Summarizer:   summarize.New(db),
		Converter:    geoparquet.New(),
	})

	summary, err := orchestrator.Run(ctx, job)
	if err != nil {
		return err
	}
	db.RecordMemoryStats(ctx)

	if flags.publish {
		slog.Info("Publishing run", slog.String("runID", summary.RunID), slog.String("jobID", summary.JobID))
		return publishTree(ctx, cfg.Publish, job.Destination)
	}
	return nil
}

func publishTree(ctx context.Context, target cloudstorage.Target, root string) error {
	client, err := cloudstorage.NewCloudManagers().NewClient(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	result, err := cloudstorage.PublishTree(ctx, client, target.Bucket, target.Prefix, root)
	if result != nil {
		slog.Info("Published export tree",
			slog.String("provider", target.Provider),
			slog.String("bucket", target.Bucket),
			slog.String("prefix", target.Prefix),
			slog.Int("uploaded", len(result.Uploaded)),
			slog.Int("failed", len(result.Failed)),
			slog.String("size", helpers.FormatBytes(uint64(result.Bytes))))
	}
	return err
}

func logDestinationUsage(dir string) {
	usage, err := helpers.DiskUsage(dir)
	if err != nil {
		slog.Debug("Unable to read destination disk usage", slog.String("path", dir), slog.Any("error", err))
		return
	}
	slog.Info("Destination volume",
		slog.String("path", dir),
		slog.String("free", helpers.FormatBytes(usage.FreeBytes)),
		slog.String("total", helpers.FormatBytes(usage.TotalBytes)))
}
