package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"voice-assistant/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant as MCP tools on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()

		srv := mcpserver.New(a.pool, a.recorder, logger.Named("mcp"))
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return a.runScheduler(ctx) })
		g.Go(func() error { return a.serveMetrics(ctx) })
		g.Go(func() error {
			// the client closing stdin ends the process
			defer cancel()
			return srv.Run(ctx)
		})
		return g.Wait()
	},
}
