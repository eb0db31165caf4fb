package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/svg2png/internal/config"
	"github.com/matzehuels/svg2png/pkg/artifacts"
	"github.com/matzehuels/svg2png/pkg/buildinfo"
	"github.com/matzehuels/svg2png/pkg/convert"
	"github.com/matzehuels/svg2png/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "svg2png converts batches of base64 SVG images to base64 PNG",
		Long: `svg2png reads a JSON object mapping names to base64-encoded SVG documents,
renders every document to PNG and writes a JSON object mapping the same names
to base64-encoded PNG images.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")

	// Register all subcommands
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the layered configuration and attaches the logger to the
// command context.
func (c *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for cfg. Side files go to resultsDir;
// an empty resultsDir disables them.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, resultsDir string) (*pipeline.Runner, error) {
	renderer, err := cfg.Renderer()
	if err != nil {
		return nil, err
	}
	cache, keyer, err := cfg.OpenCache(ctx)
	if err != nil {
		return nil, err
	}

	var store artifacts.Store = artifacts.NopStore{}
	if resultsDir != "" {
		store = artifacts.NewDirStore(resultsDir, cfg.CreateResultsDir)
	}

	logger := loggerFromContext(ctx)
	conv := convert.New(renderer, cache, keyer, store, logger)
	conv.TTL = cfg.Cache.TTL
	logger.Debug("runner ready", "backend", renderer.Name(), "cache", cfg.Cache.Backend, "cache_enabled", cfg.Cache.Enabled, "results_dir", resultsDir)
	return pipeline.NewRunner(conv, logger), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured file cache directory, defaulting to the
// XDG location (~/.cache/svg2png/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config != nil && c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return config.CacheDir()
}
