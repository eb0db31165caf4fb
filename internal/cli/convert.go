package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/svg2png/internal/config"
	"github.com/matzehuels/svg2png/pkg/pipeline"
	"github.com/matzehuels/svg2png/pkg/records"
)

// convertFlags holds the command-line overrides for convert. A flag only
// overrides the configuration when it was set explicitly.
type convertFlags struct {
	input            string
	output           string
	resultsDir       string
	createResultsDir bool
	strategy         string
	workers          int
	onFailure        string
	failFast         bool
	backend          string
	scale            float64
	strict           bool
	timeout          time.Duration
	noCache          bool
	interactive      bool
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var f convertFlags
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a JSON file of base64 SVGs to base64 PNGs",
		Long: `Convert reads a JSON object of name → base64 SVG, renders every SVG to PNG
and writes a JSON object of name → base64 PNG.

Each decoded SVG and rendered PNG is also written to <results-dir>/<name>.svg
and <results-dir>/<name>.png. The results directory must exist unless
--create-results-dir is given; pass --results-dir "" to skip side files.

Records that fail are logged and handled by --on-failure:
  keep      leave the input SVG in the output (legacy behavior)
  omit      drop the record from the output
  sentinel  store "error:<CODE>" in the output`,
		Example: `  # Convert Json.txt into Result.json with the defaults
  svg2png convert

  # Four workers, failures marked in the output
  svg2png convert -i batch.json -o out.json --workers 4 --on-failure sentinel

  # Watch progress interactively
  svg2png convert --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *c.Config
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runConvert(cmd.Context(), &cfg, f.interactive)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", def.Input, "input JSON file")
	cmd.Flags().StringVarP(&f.output, "output", "o", def.Output, "output JSON file")
	cmd.Flags().StringVar(&f.resultsDir, "results-dir", def.ResultsDir, "directory for per-record side files (empty disables them)")
	cmd.Flags().BoolVar(&f.createResultsDir, "create-results-dir", false, "create the results directory if missing")
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", def.Strategy, "dispatch strategy: sequential, task, pool")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", def.Workers, "pool workers")
	cmd.Flags().StringVar(&f.onFailure, "on-failure", def.OnFailure, "failure policy: keep, omit, sentinel")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "abort on the first failed record")
	cmd.Flags().StringVar(&f.backend, "backend", def.Backend, "render backend: oksvg, rsvg")
	cmd.Flags().Float64Var(&f.scale, "scale", def.Scale, "output scale factor")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail records with SVG elements the oksvg backend cannot draw")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "per-record timeout (0 = none)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the PNG cache")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "show an interactive progress view")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (f *convertFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("input") {
		cfg.Input = f.input
	}
	if set("output") {
		cfg.Output = f.output
	}
	if set("results-dir") {
		cfg.ResultsDir = f.resultsDir
	}
	if set("create-results-dir") {
		cfg.CreateResultsDir = f.createResultsDir
	}
	if set("strategy") {
		cfg.Strategy = f.strategy
	}
	if set("workers") {
		cfg.Workers = f.workers
	}
	if set("on-failure") {
		cfg.OnFailure = f.onFailure
	}
	if set("fail-fast") {
		cfg.FailFast = f.failFast
	}
	if set("backend") {
		cfg.Backend = f.backend
	}
	if set("scale") {
		cfg.Scale = f.scale
	}
	if set("strict") {
		cfg.Strict = f.strict
	}
	if set("timeout") {
		cfg.ItemTimeout = f.timeout
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
}

func (c *CLI) runConvert(ctx context.Context, cfg *config.Config, interactive bool) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	in, err := records.Load(cfg.Input)
	if err != nil {
		return err
	}
	logger.Debug("loaded records", "file", cfg.Input, "count", in.Len())

	if cfg.ResultsDir != "" && !cfg.CreateResultsDir {
		if _, err := os.Stat(cfg.ResultsDir); os.IsNotExist(err) {
			printWarning("Results directory %s does not exist; every record will fail", cfg.ResultsDir)
			printDetail("Create it or pass --create-results-dir")
		}
	}

	runner, err := c.newRunner(ctx, cfg, cfg.ResultsDir)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := cfg.PipelineOptions()
	opts.Logger = logger

	var result *pipeline.Result
	if interactive {
		result, err = runInteractive(ctx, runner, in, opts)
	} else {
		spinner := newSpinner(ctx, "Converting records", in.Len())
		opts.Hooks = spinner
		spinner.Start()
		result, err = runner.Execute(ctx, in, opts)
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if err := records.Save(cfg.Output, result.Records); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Processed %d records", in.Len()))

	printBatchResult(result, cfg.Output)
	return nil
}
