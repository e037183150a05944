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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/isamples-export/internal/dataserver"
)

func init() {
	var (
		port        int
		dataPath    string
		uiPath      string
		browserPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an export tree over HTTP with byte-range support",
		RunE: func(c *cobra.Command, _ []string) error {
			return withTelemetry("serve", func(ctx context.Context) error {
				serverCfg := cfg.Server
				if c.Flags().Changed("port") {
					serverCfg.Port = port
				}
				if dataPath != "" {
					serverCfg.DataPath = dataPath
				}
				if uiPath != "" {
					serverCfg.UIPath = uiPath
				}
				if browserPath != "" {
					serverCfg.BrowserPath = browserPath
				}

				server, err := dataserver.NewServer(serverCfg)
				if err != nil {
					return fmt.Errorf("failed to create data server: %w", err)
				}

				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					return server.Start(gctx)
				})
				g.Go(func() error {
					<-gctx.Done()
					slog.Info("Shutdown requested", slog.String("status", server.GetStatus().String()))
					return nil
				})
				return g.Wait()
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", dataserver.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&dataPath, "data", "", "Export tree served under /data/ (default from config)")
	cmd.Flags().StringVar(&uiPath, "ui", "", "Static viewer directory served under /ui/")
	cmd.Flags().StringVar(&browserPath, "browser", "", "Local STAC browser build served at /")

	rootCmd.AddCommand(cmd)
}
