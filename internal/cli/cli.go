// Package cli implements the voltseed command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/voltseed/pkg/buildinfo"
	"github.com/matzehuels/voltseed/pkg/cache"
	"github.com/matzehuels/voltseed/pkg/pipeline"
	"github.com/matzehuels/voltseed/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "voltseed"

	// envRedisAddr and envMongoURI provide defaults for the serve flags.
	envRedisAddr = "VOLTSEED_REDIS_ADDR"
	envMongoURI  = "VOLTSEED_MONGO_URI"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer

	// Status receives spinner animation. Nil disables it.
	Status io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		Status: os.Stderr,
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
		Short: "Voltseed computes initial bus voltage guesses for power networks",
		Long: `Voltseed estimates a starting voltage for every bus of a power network.

Reference sources (ext grids) seed the buses they are connected to, then
transformers carry those voltages across voltage levels, correcting the
magnitude by their rating and the angle by their phase shift. The result is
a flat-start alternative for power-flow solvers.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)

	// Register all subcommands
	root.AddCommand(c.estimateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use, backed by the local file
// cache and run store.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	results, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	runs, err := newStore()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(results, nil, runs, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.Disabled("--no-cache"), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.Disabled("no cache directory: " + err.Error()), nil
	}
	return cache.NewFileCache(dir)
}

func newStore() (*store.FileStore, error) {
	dir, err := runsDir()
	if err != nil {
		return nil, err
	}
	return store.NewFileStore(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/voltseed/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// runsDir returns the run store directory using XDG standard
// (~/.local/share/voltseed/runs/).
func runsDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "runs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "runs"), nil
}

// spinnerFor returns a spinner for the named network that draws on c.Status
// unless quiet is set. The name falls back to the file name.
func (c *CLI) spinnerFor(ctx context.Context, name, path string, quiet bool) *Spinner {
	if name == "" {
		name = filepath.Base(path)
	}
	w := c.Status
	if quiet {
		w = nil
	}
	return newSpinner(ctx, w, name)
}

// envOr returns the value of the environment variable key, or def if unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
