package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layermap/internal/server"
	"github.com/matzehuels/layermap/pkg/cache"
	metrics "github.com/matzehuels/layermap/pkg/observability/prometheus"
	"github.com/matzehuels/layermap/pkg/pipeline"
	"github.com/matzehuels/layermap/pkg/store"
	"github.com/matzehuels/layermap/pkg/strategy"
)

// Environment variables selecting the server backends.
const (
	envRedisAddr = "LAYERMAP_REDIS_ADDR"
	envMongoURI  = "LAYERMAP_MONGO_URI"
)

const shutdownTimeout = 10 * time.Second

// serveConfig selects the server's backends. Empty addresses fall back to
// the local file cache and an in-memory store.
type serveConfig struct {
	addr        string
	redisAddr   string
	mongoURI    string
	mongoDB     string
	strategyURL string
	noCache     bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var cfg serveConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes document upload, inspection, validation and remapping over
HTTP. Set LAYERMAP_REDIS_ADDR to share the remap cache through Redis and
LAYERMAP_MONGO_URI to keep uploaded documents in MongoDB.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&cfg.redisAddr, "redis", os.Getenv(envRedisAddr), "Redis address for the shared cache")
	cmd.Flags().StringVar(&cfg.mongoURI, "mongo", os.Getenv(envMongoURI), "MongoDB URI for the document store")
	cmd.Flags().StringVar(&cfg.mongoDB, "mongo-db", "", "MongoDB database (default layermap)")
	cmd.Flags().StringVar(&cfg.strategyURL, "strategy-url", os.Getenv(envStrategyURL), "HTTP endpoint suggesting strategies")
	cmd.Flags().BoolVar(&cfg.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) serve(ctx context.Context, cfg serveConfig) error {
	logger := loggerFromContext(ctx)

	cch, err := c.serverCache(ctx, cfg)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(cch, nil, logger)
	defer runner.Close()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.New(reg).Install()

	srv := server.New(runner, st, logger)
	srv.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	if cfg.strategyURL != "" {
		p, err := strategy.NewHTTPProvider(cfg.strategyURL)
		if err != nil {
			return err
		}
		srv.Provider = p
	}

	httpServer := &http.Server{
		Addr:              cfg.addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// serverCache prefers Redis so replicas share remaps.
func (c *CLI) serverCache(ctx context.Context, cfg serveConfig) (cache.Cache, error) {
	if cfg.redisAddr != "" && !cfg.noCache {
		rc, err := cache.NewRedisCache(ctx, cfg.redisAddr)
		if err != nil {
			return nil, err
		}
		loggerFromContext(ctx).Info("using redis cache", "addr", cfg.redisAddr)
		return rc, nil
	}
	return newCache(cfg.noCache)
}

func openStore(ctx context.Context, cfg serveConfig) (store.Store, error) {
	if cfg.mongoURI == "" {
		return store.NewMemoryStore(), nil
	}
	ms, err := store.NewMongoStore(ctx, store.MongoConfig{URI: cfg.mongoURI, Database: cfg.mongoDB})
	if err != nil {
		return nil, err
	}
	loggerFromContext(ctx).Info("using mongo store", "database", ms.Database())
	return ms, nil
}
