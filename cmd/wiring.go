package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-cards/internal/config"
	"github.com/naka-gawa/repo-cards/internal/gateway"
	"github.com/naka-gawa/repo-cards/internal/repocache"
	"github.com/naka-gawa/repo-cards/internal/store"
	"github.com/naka-gawa/repo-cards/internal/usecase"
)

// newLogger discards all logs unless --verbose is set, in which case it logs to standard error.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// addCacheFlags registers the flags shared by commands that fetch repositories.
func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().String("cache", "", "Cache backend: memory, bolt, sqlite or redis (env REPO_CARDS_CACHE_BACKEND)")
	cmd.Flags().String("transport", "", "GitHub API: rest or graphql (env REPO_CARDS_TRANSPORT)")
	cmd.Flags().String("locale", "", "Locale for numbers and dates (env REPO_CARDS_LOCALE)")
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command, logger *log.Logger) (*config.Config, error) {
	cfg, err := config.Load(logger)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("cache"); v != "" {
		cfg.CacheBackend = v
	}
	if v, _ := cmd.Flags().GetString("transport"); v != "" {
		cfg.Transport = v
	}
	if v, _ := cmd.Flags().GetString("locale"); v != "" {
		cfg.Locale = v
	}
	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		cfg.ListenAddr = v
	}
	return cfg, cfg.Validate()
}

// newFetcher selects the gateway named by cfg.Transport.
func newFetcher(cfg *config.Config, logger *log.Logger) (gateway.Fetcher, error) {
	opts := gateway.Options{
		Token:             cfg.GithubToken,
		BaseURL:           cfg.APIBaseURL,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Timeout:           cfg.HTTPTimeout,
	}
	if cfg.Transport == "graphql" {
		return gateway.NewGraphQLGateway(opts, logger)
	}
	return gateway.NewRESTGateway(opts, logger)
}

// newLoader injects dependencies into a Loader. The returned store must be closed by the caller.
func newLoader(ctx context.Context, cfg *config.Config, logger *log.Logger) (*usecase.Loader, store.KV, error) {
	kv, err := store.Open(ctx, store.Options{
		Backend:    cfg.CacheBackend,
		MemorySize: cfg.CacheSize,
		BoltPath:   cfg.BoltPath,
		SQLitePath: cfg.SQLitePath,
		RedisURL:   cfg.RedisURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s cache: %w", cfg.CacheBackend, err)
	}

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		_ = kv.Close()
		return nil, nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	cache := repocache.New(kv, logger, repocache.WithTTL(cfg.CacheTTL))
	return usecase.NewLoader(fetcher, cache, logger), kv, nil
}
