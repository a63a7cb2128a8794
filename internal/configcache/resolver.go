// Package configcache resolves the effective board configuration per scope
// on the client side. Reads never block on the network and never fail: a
// scope that is not cached yet reads as the compiled-in defaults while one
// shared fetch fills the cache in the background.
package configcache

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/karulmca/ScurmBoard/internal/scrumconfig"
)

// DefaultFetchTimeout bounds one background fetch.
const DefaultFetchTimeout = 10 * time.Second

// Backend is the config API the resolver reads from and writes through.
type Backend interface {
	GetConfig(ctx context.Context, scope scrumconfig.Scope) (scrumconfig.Values, error)
	UpsertConfig(ctx context.Context, key string, value any, scope scrumconfig.Scope) error
	ResetConfig(ctx context.Context, key string, scope scrumconfig.Scope) error
}

type Option func(*Resolver)

func WithFetchTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.fetchTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// generation identifies one cache lifetime of a scope. A fetch only stores
// its result if the scope's generation is unchanged when it completes.
type generation struct {
	epoch uint64
	gen   uint64
}

// Resolver caches one effective config per scope for the life of the
// process. Entries have no TTL and only go away through Invalidate,
// InvalidateAll or a write.
type Resolver struct {
	backend      Backend
	cache        *ttlcache.Cache[scrumconfig.Scope, scrumconfig.Values]
	group        singleflight.Group
	fetchTimeout time.Duration
	logger       *slog.Logger

	mu    sync.Mutex
	epoch uint64
	gens  map[scrumconfig.Scope]uint64
}

func New(backend Backend, opts ...Option) *Resolver {
	r := &Resolver{
		backend: backend,
		cache: ttlcache.New[scrumconfig.Scope, scrumconfig.Values](
			ttlcache.WithTTL[scrumconfig.Scope, scrumconfig.Values](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[scrumconfig.Scope, scrumconfig.Values](),
		),
		fetchTimeout: DefaultFetchTimeout,
		logger:       slog.Default(),
		gens:         make(map[scrumconfig.Scope]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the cached config for scope. On a miss it returns the
// compiled-in defaults and starts a background fetch.
func (r *Resolver) Get(scope scrumconfig.Scope) scrumconfig.Values {
	if v, ok := r.cached(scope); ok {
		return v
	}
	r.fetch(scope)
	return scrumconfig.Defaults()
}

// Load waits for scope's config to be resolved. If ctx ends first the
// defaults are returned and the shared fetch keeps running for other readers.
func (r *Resolver) Load(ctx context.Context, scope scrumconfig.Scope) scrumconfig.Values {
	if v, ok := r.cached(scope); ok {
		return v
	}
	select {
	case res := <-r.fetch(scope):
		return maps.Clone(res.Val.(scrumconfig.Values))
	case <-ctx.Done():
		return scrumconfig.Defaults()
	}
}

// Invalidate drops scope's entry so the next read fetches again.
func (r *Resolver) Invalidate(scope scrumconfig.Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[scope]++
	r.cache.Delete(scope)
}

// InvalidateAll drops every entry.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	clear(r.gens)
	r.cache.DeleteAll()
}

// Upsert writes one key through the backend, then invalidates what the
// write can affect.
func (r *Resolver) Upsert(ctx context.Context, key string, value any, scope scrumconfig.Scope) error {
	if err := r.backend.UpsertConfig(ctx, key, value, scope); err != nil {
		return fmt.Errorf("upsert %s for %s: %w", key, scope, err)
	}
	r.invalidateAfterWrite(scope)
	return nil
}

// Reset deletes scope's override of key, then invalidates like Upsert.
func (r *Resolver) Reset(ctx context.Context, key string, scope scrumconfig.Scope) error {
	if err := r.backend.ResetConfig(ctx, key, scope); err != nil {
		return fmt.Errorf("reset %s for %s: %w", key, scope, err)
	}
	r.invalidateAfterWrite(scope)
	return nil
}

// Every org layers over the global overrides, so a global write affects all.
func (r *Resolver) invalidateAfterWrite(scope scrumconfig.Scope) {
	if scope.IsGlobal() {
		r.InvalidateAll()
		return
	}
	r.Invalidate(scope)
}

func (r *Resolver) cached(scope scrumconfig.Scope) (scrumconfig.Values, bool) {
	item := r.cache.Get(scope)
	if item == nil {
		return nil, false
	}
	return maps.Clone(item.Value()), true
}

func (r *Resolver) current(scope scrumconfig.Scope) generation {
	return generation{epoch: r.epoch, gen: r.gens[scope]}
}

// fetch joins or starts the flight for scope's current generation.
func (r *Resolver) fetch(scope scrumconfig.Scope) <-chan singleflight.Result {
	r.mu.Lock()
	g := r.current(scope)
	r.mu.Unlock()

	key := fmt.Sprintf("%s@%d.%d", scope, g.epoch, g.gen)
	return r.group.DoChan(key, func() (any, error) {
		return r.load(scope, g), nil
	})
}

func (r *Resolver) load(scope scrumconfig.Scope, g generation) scrumconfig.Values {
	// A reader that missed just before the previous flight stored lands here.
	if item := r.cache.Get(scope); item != nil {
		return item.Value()
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.fetchTimeout)
	defer cancel()

	values := scrumconfig.Defaults()
	resp, err := r.backend.GetConfig(ctx, scope)
	if err != nil {
		r.logger.Warn("Config fetch failed, using defaults", "scope", scope.String(), "error", err)
	} else {
		values = scrumconfig.Effective(resp)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current(scope) != g {
		r.logger.Debug("Config invalidated during fetch, not caching", "scope", scope.String())
		return values
	}
	r.cache.Set(scope, values, ttlcache.NoTTL)
	return values
}
