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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/isamples-export/internal/exportjob"
)

func init() {
	var (
		destination string
		flags       runFlags
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-run the last export in a directory, fetching only records updated since",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withTelemetry("refresh", func(ctx context.Context) error {
				job, err := exportjob.FromManifest(destination)
				if err != nil {
					return err
				}

				serverURL := flags.serverURL
				if serverURL == "" {
					serverURL = job.ServerURL
				}
				if serverURL == "" {
					serverURL = cfg.Export.ServerURL
				}

				slog.Info("Refreshing export",
					slog.String("destination", job.Destination),
					slog.String("query", job.Query),
					slog.Time("since", *job.RefreshTime))
				return runJob(ctx, job, serverURL, flags)
			})
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Directory holding a previous export")
	addRunFlags(cmd, &flags)
	_ = cmd.MarkFlagRequired("destination")

	rootCmd.AddCommand(cmd)
}
