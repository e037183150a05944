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
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/isamples-export/internal/exportjob"
)

func init() {
	var (
		query       string
		destination string
		format      string
		title       string
		description string
		flags       runFlags
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run a new export job and write the results to a directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withTelemetry("export", func(ctx context.Context) error {
				serverURL := flags.serverURL
				if serverURL == "" {
					serverURL = cfg.Export.ServerURL
				}
				if format == "" {
					format = cfg.Export.Format
				}

				job, err := exportjob.NewJob(exportjob.JobOptions{
					Query:       query,
					Format:      format,
					Destination: destination,
					ServerURL:   serverURL,
					Title:       title,
					Description: description,
				})
				if err != nil {
					return err
				}
				return runJob(ctx, job, serverURL, flags)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Solr query selecting the records to export")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Directory the export tree is written to")
	cmd.Flags().StringVarP(&format, "format", "f", "",
		fmt.Sprintf("Export format, one of %s (default from config)", strings.Join(exportjob.FormatNames(), ", ")))
	cmd.Flags().StringVar(&title, "title", "", "Title of the STAC collection written for this run")
	cmd.Flags().StringVar(&description, "description", "", "Description of the STAC collection written for this run")
	addRunFlags(cmd, &flags)
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("destination")

	rootCmd.AddCommand(cmd)
}

func addRunFlags(cmd *cobra.Command, flags *runFlags) {
	cmd.Flags().StringVar(&flags.serverURL, "export-server-url", "", "Export service root URL (default from config)")
	cmd.Flags().StringVarP(&flags.token, "jwt", "j", "", "Bearer token for the export service (default from config)")
	cmd.Flags().BoolVar(&flags.publish, "publish", false, "Publish the destination tree to the configured object store afterwards")
}
