package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/svg2png/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Long: `Serve exposes batch conversion over HTTP:

  POST /v1/convert   JSON object of name → base64 SVG
                     query: strategy, on_failure, workers, fail_fast
  GET  /healthz      build information

Side files are only written when server.results_dir is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *c.Config
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, &cfg, cfg.Server.ResultsDir)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, server.Config{
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
				Defaults:     cfg.PipelineOptions(),
			}, loggerFromContext(ctx))

			printInfo("Listening on %s", StyleHighlight.Render(cfg.Server.Addr))
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
