package usecase

import (
	"context"
	"log"
	"sync"

	"github.com/naka-gawa/repo-cards/internal/domain"
	"github.com/naka-gawa/repo-cards/internal/repocache"
)

// RepoStats holds the view state for one list of repositories.
//
// Mount paints from the cache when a fresh entry exists and always starts a
// fetch cycle that overwrites the state once it settles. Results of a cycle
// superseded by another Mount, or arriving after Unmount, are discarded.
type RepoStats struct {
	loader   *Loader
	logger   *log.Logger
	onChange func(domain.State)

	mu         sync.Mutex
	state      domain.State
	key        string
	mounted    bool
	unmounted  bool
	generation uint64
	cancel     context.CancelFunc
	settled    chan struct{}
}

// RepoStatsOption customizes a RepoStats.
type RepoStatsOption func(*RepoStats)

// WithOnChange registers fn to receive every state transition.
// fn is called without internal locks held.
func WithOnChange(fn func(domain.State)) RepoStatsOption {
	return func(c *RepoStats) { c.onChange = fn }
}

// NewRepoStats creates an unmounted component in the loading state.
func NewRepoStats(loader *Loader, logger *log.Logger, opts ...RepoStatsOption) *RepoStats {
	c := &RepoStats{
		loader: loader,
		logger: logger,
		state:  domain.State{Status: domain.StatusLoading},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount shows ids. Mounting the list that is already shown is a no-op;
// a different list cancels the running cycle and starts a new one.
func (c *RepoStats) Mount(ctx context.Context, ids []domain.RepoIdentifier) {
	key := repocache.Key(ids)
	if !c.needsMount(key) {
		return
	}

	// The cache may live in a remote store; read it without holding the lock.
	var cached []*domain.RepoSummary
	var hit bool
	if len(ids) > 0 {
		cached, hit = c.loader.Cached(ctx, ids)
	}

	c.mu.Lock()
	if c.unmounted || (c.mounted && c.key == key) {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.mounted = true
	c.key = key
	c.generation++
	gen := c.generation
	ids = append([]domain.RepoIdentifier(nil), ids...)
	settled := make(chan struct{})
	c.settled = settled

	if len(ids) == 0 {
		c.cancel = nil
		c.state = domain.State{Identifiers: ids, Status: domain.StatusReady, Repos: []*domain.RepoSummary{}}
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		close(settled)
		c.notify(snapshot)
		return
	}

	if hit {
		c.logger.Printf("RepoStats: painting %s from cache, revalidating", key)
		c.state = domain.State{Identifiers: ids, Status: domain.StatusReady, Repos: cached}
	} else {
		c.state = domain.State{Identifiers: ids, Status: domain.StatusLoading}
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
	go c.run(cycleCtx, gen, ids, settled)
}

// needsMount reports whether key differs from the list already shown.
func (c *RepoStats) needsMount(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		c.logger.Println("RepoStats: mount after unmount ignored")
		return false
	}
	return !c.mounted || c.key != key
}

func (c *RepoStats) run(ctx context.Context, gen uint64, ids []domain.RepoIdentifier, settled chan struct{}) {
	defer close(settled)

	repos, err := c.loader.Load(ctx, ids)

	c.mu.Lock()
	if gen != c.generation || c.unmounted || ctx.Err() != nil {
		c.mu.Unlock()
		c.logger.Printf("RepoStats: discarding result of cancelled cycle for %s", repocache.Key(ids))
		return
	}
	if err != nil {
		c.state = domain.State{Identifiers: ids, Status: domain.StatusError, Err: err}
	} else {
		c.state = domain.State{Identifiers: ids, Status: domain.StatusReady, Repos: repos}
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

// Unmount cancels the running cycle. The component accepts no further mounts.
func (c *RepoStats) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unmounted = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// State returns a snapshot of the current state.
func (c *RepoStats) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Settled is closed when the current fetch cycle has finished, whether its
// result was applied or discarded.
func (c *RepoStats) Settled() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.settled
}

// Wait blocks until the current cycle settles or ctx is done and returns the state at that point.
func (c *RepoStats) Wait(ctx context.Context) domain.State {
	select {
	case <-c.Settled():
	case <-ctx.Done():
	}
	return c.State()
}

func (c *RepoStats) snapshotLocked() domain.State {
	s := c.state
	s.Identifiers = append([]domain.RepoIdentifier(nil), c.state.Identifiers...)
	if c.state.Repos != nil {
		s.Repos = append([]*domain.RepoSummary{}, c.state.Repos...)
	}
	return s
}

func (c *RepoStats) notify(s domain.State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
