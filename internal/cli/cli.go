// Package cli implements the layermap command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layermap/pkg/buildinfo"
	"github.com/matzehuels/layermap/pkg/cache"
	"github.com/matzehuels/layermap/pkg/pipeline"
	"github.com/matzehuels/layermap/pkg/strategy"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "layermap"

	// envStrategyURL names the HTTP strategy provider endpoint.
	envStrategyURL = "LAYERMAP_STRATEGY_URL"

	// remappedSuffix is appended to the target name when -o is omitted.
	remappedSuffix = ".remapped.json"
)

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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Layermap moves layer subtrees between named containers of layered documents",
		Long: `Layermap resolves named containers in layered image documents (PSD or JSON),
remaps the layers inside one container into another container's geometry,
and rebuilds a document shaped like the target.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.remapCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache opens the file cache. A cache directory that cannot be created
// disables caching instead of failing the command.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(cache.DefaultDir())
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// remapFlags are the flags shared by remap and diagram.
type remapFlags struct {
	mappings    []string
	strategy    string
	strategyURL string
	images      bool
	noCache     bool
	refresh     bool
	concurrency int
}

func (f *remapFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.mappings, "mapping", "m", nil, "container mapping SOURCE=TARGET (repeatable)")
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", "layout strategy JSON file applied to every mapping")
	cmd.Flags().StringVar(&f.strategyURL, "strategy-url", os.Getenv(envStrategyURL), "HTTP endpoint suggesting a strategy per mapping")
	cmd.Flags().BoolVar(&f.images, "images", false, "keep PSD pixel data as layer payloads")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached remaps")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", pipeline.DefaultConcurrency, "mappings remapped in parallel")
}

// options converts flags into pipeline options. An explicit strategy file
// wins over the strategy provider.
func (f *remapFlags) options() (pipeline.Options, error) {
	mappings, err := pipeline.ParseMappings(f.mappings)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		Mappings:    mappings,
		Concurrency: f.concurrency,
		LoadImages:  f.images,
		Refresh:     f.refresh,
	}
	if err := applyStrategy(&opts, f.strategy, f.strategyURL); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

func applyStrategy(opts *pipeline.Options, path, url string) error {
	switch {
	case path != "":
		s, err := strategy.LoadFile(path)
		if err != nil {
			return err
		}
		opts.Strategy = s
	case url != "":
		p, err := strategy.NewHTTPProvider(url)
		if err != nil {
			return err
		}
		opts.Provider = p
	}
	return nil
}

// defaultOutput derives "<target>.remapped.json" next to the target.
func defaultOutput(target string) string {
	return strings.TrimSuffix(target, filepath.Ext(target)) + remappedSuffix
}
