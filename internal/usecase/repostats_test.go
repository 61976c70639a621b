package usecase

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/repo-cards/internal/domain"
	"github.com/naka-gawa/repo-cards/internal/gateway"
	"github.com/naka-gawa/repo-cards/internal/repocache"
	"github.com/naka-gawa/repo-cards/internal/store"
)

func waitSettled(t *testing.T, c *RepoStats) domain.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-c.Settled():
	case <-ctx.Done():
		t.Fatal("fetch cycle did not settle")
	}
	return c.State()
}

type recorder struct {
	mu     sync.Mutex
	states []domain.State
}

func (r *recorder) record(s domain.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) statuses() []domain.FetchStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.FetchStatus, len(r.states))
	for i, s := range r.states {
		out[i] = s.Status
	}
	return out
}

func TestRepoStats_CacheMissLoadsThenReady(t *testing.T) {
	fetcher := newGatedFetcher(1234)
	rec := &recorder{}
	loader := NewLoader(fetcher, newTestCache(t), log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0), WithOnChange(rec.record))

	c.Mount(context.Background(), []domain.RepoIdentifier{"a/b", "c/d"})
	assert.Equal(t, domain.StatusLoading, c.State().Status)

	close(fetcher.release)
	state := waitSettled(t, c)

	require.Equal(t, domain.StatusReady, state.Status)
	require.Len(t, state.Repos, 2)
	assert.Equal(t, "a/b", state.Repos[0].FullName)
	assert.Equal(t, "c/d", state.Repos[1].FullName)
	assert.Equal(t, []domain.FetchStatus{domain.StatusLoading, domain.StatusReady}, rec.statuses())
}

func TestRepoStats_FreshCacheHitPaintsThenRevalidates(t *testing.T) {
	ids := []domain.RepoIdentifier{"foo/bar"}
	cache := newTestCache(t)
	require.NoError(t, cache.Save(context.Background(), ids, []*domain.RepoSummary{summary("foo/bar", 1)}))

	fetcher := newGatedFetcher(2)
	loader := NewLoader(fetcher, cache, log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0))

	c.Mount(context.Background(), ids)
	initial := c.State()
	require.Equal(t, domain.StatusReady, initial.Status)
	assert.Equal(t, 1, initial.Repos[0].Stars)

	close(fetcher.release)
	state := waitSettled(t, c)
	assert.Equal(t, 1, fetcher.Calls(), "a fresh cache hit still revalidates")
	assert.Equal(t, 2, state.Repos[0].Stars)

	entry, ok := cache.Load(context.Background(), ids)
	require.True(t, ok)
	assert.Equal(t, 2, entry.Data[0].Stars)
}

func TestRepoStats_StaleCacheIsNotPainted(t *testing.T) {
	ids := []domain.RepoIdentifier{"foo/bar"}
	kv, err := store.NewMemory(4)
	require.NoError(t, err)
	past := time.Now().Add(-repocache.DefaultTTL - time.Minute)
	writer := repocache.New(kv, log.New(io.Discard, "", 0), repocache.WithClock(func() time.Time { return past }))
	require.NoError(t, writer.Save(context.Background(), ids, []*domain.RepoSummary{summary("foo/bar", 1)}))

	fetcher := newGatedFetcher(2)
	loader := NewLoader(fetcher, repocache.New(kv, log.New(io.Discard, "", 0)), log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0))

	c.Mount(context.Background(), ids)
	assert.Equal(t, domain.StatusLoading, c.State().Status)

	close(fetcher.release)
	state := waitSettled(t, c)
	assert.Equal(t, 2, state.Repos[0].Stars)
}

func TestRepoStats_AnyFailureShowsErrorOnly(t *testing.T) {
	fetcher := newGatedFetcher(1)
	fetcher.errs = map[domain.RepoIdentifier]error{
		"c/d": &gateway.StatusError{Identifier: "c/d", StatusCode: 404},
	}
	close(fetcher.release)
	loader := NewLoader(fetcher, newTestCache(t), log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0))

	c.Mount(context.Background(), []domain.RepoIdentifier{"a/b", "c/d"})
	state := waitSettled(t, c)

	assert.Equal(t, domain.StatusError, state.Status)
	assert.Equal(t, "c/d 404", state.ErrorMessage())
	assert.Empty(t, state.Repos)
	assert.Equal(t, []domain.RepoIdentifier{"a/b", "c/d"}, state.Identifiers)
}

func TestRepoStats_LateResultAfterUnmountIsDiscarded(t *testing.T) {
	ids := []domain.RepoIdentifier{"a/b"}
	fetcher := newGatedFetcher(1)
	rec := &recorder{}
	cache := newTestCache(t)
	loader := NewLoader(fetcher, cache, log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0), WithOnChange(rec.record))

	c.Mount(context.Background(), ids)
	c.Unmount()
	close(fetcher.release)
	state := waitSettled(t, c)

	assert.Equal(t, domain.StatusLoading, state.Status)
	assert.Equal(t, []domain.FetchStatus{domain.StatusLoading}, rec.statuses())
	_, cached := cache.Load(context.Background(), ids)
	assert.False(t, cached)

	// Unmount is terminal.
	c.Mount(context.Background(), []domain.RepoIdentifier{"x/y"})
	assert.Equal(t, ids, c.State().Identifiers)
}

func TestRepoStats_ChangingIdentifiersSupersedesRunningCycle(t *testing.T) {
	fetcher := newGatedFetcher(7)
	loader := NewLoader(fetcher, newTestCache(t), log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0))

	c.Mount(context.Background(), []domain.RepoIdentifier{"a/b"})
	first := c.Settled()
	c.Mount(context.Background(), []domain.RepoIdentifier{"c/d"})
	close(fetcher.release)

	<-first
	state := waitSettled(t, c)
	require.Equal(t, domain.StatusReady, state.Status)
	require.Len(t, state.Repos, 1)
	assert.Equal(t, "c/d", state.Repos[0].FullName)
	assert.Equal(t, []domain.RepoIdentifier{"c/d"}, state.Identifiers)
}

func TestRepoStats_SameIdentifiersDoNotRefetch(t *testing.T) {
	fetcher := newGatedFetcher(1)
	close(fetcher.release)
	loader := NewLoader(fetcher, newTestCache(t), log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0))

	ids := []domain.RepoIdentifier{"a/b"}
	c.Mount(context.Background(), ids)
	waitSettled(t, c)
	c.Mount(context.Background(), []domain.RepoIdentifier{"a/b"})
	waitSettled(t, c)

	assert.Equal(t, 1, fetcher.Calls())
}

func TestRepoStats_EmptyListIsReadyWithoutFetching(t *testing.T) {
	fetcher := newGatedFetcher(1)
	loader := NewLoader(fetcher, newTestCache(t), log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0))

	c.Mount(context.Background(), nil)
	state := waitSettled(t, c)

	assert.Equal(t, domain.StatusReady, state.Status)
	assert.Empty(t, state.Repos)
	assert.Equal(t, 0, fetcher.Calls())
}

func TestRepoStats_WaitHonorsContext(t *testing.T) {
	fetcher := newGatedFetcher(1)
	defer close(fetcher.release)
	loader := NewLoader(fetcher, newTestCache(t), log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0))
	c.Mount(context.Background(), []domain.RepoIdentifier{"a/b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Equal(t, domain.StatusLoading, c.Wait(ctx).Status)
}

func TestRepoStats_FailedRevalidationReplacesCachedCards(t *testing.T) {
	ids := []domain.RepoIdentifier{"foo/bar"}
	cache := newTestCache(t)
	require.NoError(t, cache.Save(context.Background(), ids, []*domain.RepoSummary{summary("foo/bar", 1)}))

	fetcher := newGatedFetcher(2)
	fetcher.errs = map[domain.RepoIdentifier]error{
		"foo/bar": &gateway.StatusError{Identifier: "foo/bar", StatusCode: 500},
	}
	rec := &recorder{}
	loader := NewLoader(fetcher, cache, log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0), WithOnChange(rec.record))

	c.Mount(context.Background(), ids)
	require.Equal(t, domain.StatusReady, c.State().Status)

	close(fetcher.release)
	state := waitSettled(t, c)

	assert.Equal(t, domain.StatusError, state.Status)
	assert.Equal(t, "foo/bar 500", state.ErrorMessage())
	assert.Empty(t, state.Repos)
	assert.Equal(t, []domain.FetchStatus{domain.StatusReady, domain.StatusError}, rec.statuses())

	entry, ok := cache.Load(context.Background(), ids)
	require.True(t, ok)
	assert.Equal(t, 1, entry.Data[0].Stars)
}

func TestRepoStats_CorruptCacheEntryIsNotPainted(t *testing.T) {
	ids := []domain.RepoIdentifier{"foo/bar"}
	kv, err := store.NewMemory(4)
	require.NoError(t, err)
	value := fmt.Sprintf(`{"at":%d,"data":[null]}`, time.Now().UnixMilli())
	require.NoError(t, kv.Set(context.Background(), repocache.Key(ids), []byte(value)))

	fetcher := newGatedFetcher(3)
	loader := NewLoader(fetcher, repocache.New(kv, log.New(io.Discard, "", 0)), log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0))

	c.Mount(context.Background(), ids)
	assert.Equal(t, domain.StatusLoading, c.State().Status)

	close(fetcher.release)
	state := waitSettled(t, c)
	require.Equal(t, domain.StatusReady, state.Status)
	require.Len(t, state.Repos, 1)
	assert.Equal(t, 3, state.Repos[0].Stars)
}

// slowKV blocks reads until release is closed.
type slowKV struct {
	store.KV
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *slowKV) Get(ctx context.Context, key string) ([]byte, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.KV.Get(ctx, key)
}

func TestRepoStats_SlowCacheReadDoesNotBlockState(t *testing.T) {
	mem, err := store.NewMemory(4)
	require.NoError(t, err)
	kv := &slowKV{KV: mem, entered: make(chan struct{}), release: make(chan struct{})}

	fetcher := newGatedFetcher(1)
	close(fetcher.release)
	loader := NewLoader(fetcher, repocache.New(kv, log.New(io.Discard, "", 0)), log.New(io.Discard, "", 0))
	c := NewRepoStats(loader, log.New(io.Discard, "", 0))

	mounted := make(chan struct{})
	go func() {
		c.Mount(context.Background(), []domain.RepoIdentifier{"a/b"})
		close(mounted)
	}()
	<-kv.entered

	done := make(chan struct{})
	go func() {
		c.State()
		<-c.Settled()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("State blocked on a cache read")
	}

	close(kv.release)
	<-mounted
	state := waitSettled(t, c)
	assert.Equal(t, domain.StatusReady, state.Status)
}
