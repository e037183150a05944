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

	"github.com/cardinalhq/isamples-export/internal/stac"
)

func init() {
	var (
		destination string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Regenerate the root STAC catalog of an export tree",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withTelemetry("catalog", func(_ context.Context) error {
				path, err := stac.WriteCatalog(stac.CatalogParams{
					RootDir:     destination,
					Title:       title,
					Description: description,
				})
				if err != nil {
					return err
				}
				slog.Info("Wrote catalog", slog.String("path", path))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Root of the export tree")
	cmd.Flags().StringVar(&title, "title", "", "Catalog title")
	cmd.Flags().StringVar(&description, "description", "", "Catalog description")
	_ = cmd.MarkFlagRequired("destination")

	rootCmd.AddCommand(cmd)
}
