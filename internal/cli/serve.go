package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/voltseed/internal/api"
	"github.com/matzehuels/voltseed/pkg/cache"
	"github.com/matzehuels/voltseed/pkg/observability/prom"
	"github.com/matzehuels/voltseed/pkg/pipeline"
	"github.com/matzehuels/voltseed/pkg/store"
)

// connectTimeout bounds the startup connection checks against Redis and MongoDB.
const connectTimeout = 10 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	redis    string // Redis address; empty uses the file cache
	mongo    string // MongoDB URI; empty uses the file store
	database string
	noCache  bool
}

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:     ":8080",
		redis:    envOr(envRedisAddr, ""),
		mongo:    envOr(envMongoURI, ""),
		database: store.DefaultMongoDatabase,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes estimation, rendering and saved runs over HTTP, with
Prometheus metrics at /metrics.

Results are cached in Redis when --redis is set and in the local cache
directory otherwise. Runs are stored in MongoDB when --mongo is set and in
the local data directory otherwise.`,
		Example: `  voltseed serve --addr :9000
  VOLTSEED_REDIS_ADDR=localhost:6379 voltseed serve --mongo mongodb://localhost:27017`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redis, "redis", opts.redis, "Redis address for the result cache (env "+envRedisAddr+")")
	cmd.Flags().StringVar(&opts.mongo, "mongo", opts.mongo, "MongoDB URI for the run store (env "+envMongoURI+")")
	cmd.Flags().StringVar(&opts.database, "mongo-db", opts.database, "MongoDB database name")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable result caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	resultCache, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	runs, err := c.serveStore(ctx, opts)
	if err != nil {
		_ = resultCache.Close()
		return err
	}

	runner := pipeline.NewRunner(resultCache, cache.NewScopedKeyer(nil, "api"), runs, logger)
	defer runner.Close()
	if reason := cache.DisabledReason(resultCache); reason != "" {
		logger.Warn("result cache disabled", "reason", reason)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom.New(reg).Install()

	srv := api.New(api.Config{Runner: runner, Logger: logger, Gatherer: reg})

	printSuccess("Listening on %s", opts.addr)
	printDetail("POST /v1/estimate · POST /v1/render · GET /v1/runs · GET /metrics · GET /version")
	return srv.ListenAndServe(ctx, opts.addr)
}

// serveCache picks Redis when configured, the file cache otherwise.
func (c *CLI) serveCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.Disabled("--no-cache"), nil
	}
	if opts.redis == "" {
		return newCache(false)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: opts.redis, Prefix: appName + ":"})
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	loggerFromContext(ctx).Info("using redis cache", "addr", opts.redis)
	return rc, nil
}

// serveStore picks MongoDB when configured, the file store otherwise.
func (c *CLI) serveStore(ctx context.Context, opts serveOpts) (store.Store, error) {
	if opts.mongo == "" {
		return newStore()
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	ms, err := store.NewMongoStore(ctx, store.MongoConfig{URI: opts.mongo, Database: opts.database})
	if err != nil {
		return nil, fmt.Errorf("run store: %w", err)
	}
	loggerFromContext(ctx).Info("using mongo run store", "database", opts.database)
	return ms, nil
}
