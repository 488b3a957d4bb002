// Package cli wires the analyzer, its two frontends, and the demo
// styler/linker pair into a cobra command tree (SPEC_FULL.md §6),
// following the teacher's texture of plain stderr diagnostics and
// explicit exit codes even though the dispatch mechanism itself
// (cobra) is grounded on a different repo in the pack — the teacher's
// own cmd/funxy parses os.Args by hand.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborist-lang/arborist/internal/analyzer"
	"github.com/arborist-lang/arborist/internal/cache"
	"github.com/arborist-lang/arborist/internal/config"
	"github.com/arborist-lang/arborist/internal/frontend"
	"github.com/arborist-lang/arborist/internal/frontend/pyflavor"
	"github.com/arborist-lang/arborist/internal/frontend/rbflavor"
)

// rootFlags holds the persistent flags every subcommand shares.
type rootFlags struct {
	cacheDir string
	quiet    bool
	debug    bool
	lang     string
}

// NewRootCmd builds the `arborist` command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "arborist",
		Short:         "Whole-program type inference and cross-reference indexing",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       config.Version,
	}
	root.PersistentFlags().StringVar(&flags.cacheDir, "cache-dir", config.DefaultCacheDir, "directory for the on-disk AST cache (empty disables it)")
	root.PersistentFlags().BoolVar(&flags.quiet, "quiet", false, "suppress progress output")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "dump structured internals on stderr")
	root.PersistentFlags().StringVar(&flags.lang, "lang", string(config.DialectAuto), "dialect to parse: py, rb, or auto")

	root.AddCommand(newAnalyzeCmd(flags))
	root.AddCommand(newQueryCmd(flags))
	root.AddCommand(newHTMLCmd(flags))
	return root
}

// buildConfig turns the parsed flags (after .arborist.yaml has had a
// chance to set defaults) into a config.Config.
func (f *rootFlags) buildConfig() config.Config {
	cfg := config.DefaultConfig()
	if err := config.LoadProjectFile(".arborist.yaml", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "arborist: warning: .arborist.yaml: %v\n", err)
	}
	if f.cacheDir != config.DefaultCacheDir {
		cfg.CacheDir = f.cacheDir
	}
	cfg.Quiet = f.quiet
	cfg.Debug = f.debug
	if f.lang != "" && f.lang != string(config.DialectAuto) {
		cfg.Dialect = config.Dialect(f.lang)
	}
	return cfg
}

// registryFor builds the frontend set a run should use: both dialects
// for auto-detection, or just the one named.
func registryFor(d config.Dialect) *frontend.Registry {
	switch d {
	case config.DialectPython:
		return frontend.NewRegistry(pyflavor.New())
	case config.DialectRuby:
		return frontend.NewRegistry(rbflavor.New())
	default:
		return frontend.NewRegistry(pyflavor.New(), rbflavor.New())
	}
}

// newAnalyzer opens the cache and builds an Analyzer ready to run
// against cfg. The caller owns closing the returned Cache.
func newAnalyzer(cfg config.Config) (*analyzer.Analyzer, *cache.Cache, error) {
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	reg := registryFor(cfg.Dialect)
	return analyzer.New(cfg, reg, c), c, nil
}
