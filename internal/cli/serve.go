package cli

import (
	"github.com/spf13/cobra"

	"github.com/lookdevkit/shaderbridge/internal/server"
	"github.com/lookdevkit/shaderbridge/pkg/cache"
	"github.com/lookdevkit/shaderbridge/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	redisAddr string
	redisDB   int
	noCache   bool
}

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API",
		Long: `Run the HTTP conversion API.

Endpoints:
  POST /v1/convert   convert an inline snapshot (add ?raw=true for bare XML)
  GET  /healthz      liveness check

Caching uses the local file cache by default; --redis switches to a shared
Redis backend for multi-instance deployments.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runServe(c, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "Redis address for shared caching (host:port)")
	cmd.Flags().IntVar(&opts.redisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func runServe(c *cobra.Command, opts serveOpts) error {
	ctx := c.Context()
	logger := loggerFromContext(ctx)

	backend := newCache(opts.noCache)
	if opts.redisAddr != "" && !opts.noCache {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:   opts.redisAddr,
			DB:     opts.redisDB,
			Prefix: appName,
		})
		if err != nil {
			return err
		}
		backend = rc
		logger.Info("using Redis cache", "addr", opts.redisAddr)
	}

	runner := pipeline.NewRunner(backend, nil, logger)
	defer runner.Close()

	return server.New(runner, logger).ListenAndServe(ctx, opts.addr)
}
