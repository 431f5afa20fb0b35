package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"holoprofile/internal/gateway/config"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serves POST /api/analyze (buffered, NDJSON stream or connectivity probe),
GET /api/analyze/ws, GET /api/assessments and
GET /api/assessments/{id}/questions until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				c.cfg.Port = config.NormalizePort(port)
			}
			a, err := c.app()
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(a.Start)
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return a.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen address (overrides PORT)")
	return cmd
}
