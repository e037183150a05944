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
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var (
		destination string
		provider    string
		bucket      string
		prefix      string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload an existing export tree to object storage",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withTelemetry("publish", func(ctx context.Context) error {
				info, err := os.Stat(destination)
				if err != nil {
					return fmt.Errorf("export tree %s: %w", destination, err)
				}
				if !info.IsDir() {
					return fmt.Errorf("export tree %s is not a directory", destination)
				}

				target := cfg.Publish
				if provider != "" {
					target.Provider = provider
				}
				if bucket != "" {
					target.Bucket = bucket
				}
				if prefix != "" {
					target.Prefix = prefix
				}
				return publishTree(ctx, target, destination)
			})
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Root of the export tree")
	cmd.Flags().StringVar(&provider, "provider", "", "aws, gcp, azure or file (default from config)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket or container name (default from config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix for uploaded objects (default from config)")
	_ = cmd.MarkFlagRequired("destination")

	rootCmd.AddCommand(cmd)
}
