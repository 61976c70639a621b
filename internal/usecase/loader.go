// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repo-cards/internal/domain"
	"github.com/naka-gawa/repo-cards/internal/gateway"
	"github.com/naka-gawa/repo-cards/internal/repocache"
)

// Loader runs fetch cycles: one parallel batch of repository requests
// plus persisting the successful result.
type Loader struct {
	fetcher gateway.Fetcher
	cache   *repocache.Cache
	logger  *log.Logger
}

// NewLoader creates a new Loader instance.
func NewLoader(fetcher gateway.Fetcher, cache *repocache.Cache, logger *log.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
	}
}

// Cached returns the fresh cached summaries for ids, if any.
func (l *Loader) Cached(ctx context.Context, ids []domain.RepoIdentifier) ([]*domain.RepoSummary, bool) {
	entry, ok := l.cache.Load(ctx, ids)
	if !ok {
		return nil, false
	}
	return entry.Data, true
}

// Load fetches every repository concurrently. The result is in input order.
// The first failure fails the whole batch and cancels the remaining requests.
// A successful batch is written to the cache unless ctx was cancelled meanwhile.
func (l *Loader) Load(ctx context.Context, ids []domain.RepoIdentifier) ([]*domain.RepoSummary, error) {
	l.logger.Printf("Usecase: fetching %d repositories...", len(ids))

	results := make([]*domain.RepoSummary, len(ids))

	// Use an errgroup to fetch all repositories concurrently.
	eg, egCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		eg.Go(func() error {
			repo, err := l.fetcher.FetchRepo(egCtx, id)
			if err != nil {
				return err
			}
			results[i] = repo
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		l.logger.Printf("Usecase: fetch cycle failed: %v", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.logger.Println("Usecase: all repositories fetched successfully.")

	// Cache write failures never fail the cycle.
	if err := l.cache.Save(ctx, ids, results); err != nil {
		l.logger.Printf("Usecase: %v", err)
	}
	return results, nil
}
