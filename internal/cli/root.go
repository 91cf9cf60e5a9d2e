package cli

import (
	"context"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lookdevkit/shaderbridge/pkg/buildinfo"
	"github.com/lookdevkit/shaderbridge/pkg/cache"
	"github.com/lookdevkit/shaderbridge/pkg/pipeline"

	_ "github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets/arnold"
	_ "github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets/prman"
)

// appName is the application name used for directories and display.
const appName = "shaderbridge"

// Execute runs the shaderbridge CLI. This is the main entry point for the
// CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "Shaderbridge converts shading networks to Katana documents",
		Long:         `Shaderbridge converts shading networks exported from a DCC scene into paste-ready Katana node-graph documents, translating per-renderer shader types, attributes and connections along the way.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newConvertCmd())
	root.AddCommand(newPreviewCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newServeCmd())

	return root.ExecuteContext(ctx)
}

// newRunner creates a pipeline runner for CLI use. Caching falls back to
// disabled when no cache directory can be determined.
func newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(newCache(noCache), nil, loggerFromContext(ctx))
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return c
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/shaderbridge/).
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
