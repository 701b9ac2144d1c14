package cache

import (
	"context"

	"github.com/cueclub/league-night/internal/domain/match"
	basecache "github.com/cueclub/league-night/internal/platform/cache"
)

// MatchRepository layers a read-through snapshot cache over a persistent
// repository so the public scoreboard reads stay off the store. Local
// writes drop the cached copy immediately. A write that loses the version
// race drops it too: the loser may have read the superseded snapshot from
// this cache, and its retry must come from the store.
type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) Create(ctx context.Context, m *match.Match) error {
	if err := r.next.Create(ctx, m); err != nil {
		return err
	}
	r.cache.Delete(ctx, matchKey(m.ID))
	return nil
}

func (r *MatchRepository) Get(ctx context.Context, matchID string) (*match.Match, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, matchKey(matchID), func(ctx context.Context) (any, error) {
		m, exists, err := r.next.Get(ctx, matchID)
		if err != nil {
			return nil, err
		}
		cached := cachedMatchByID{exists: exists}
		if exists {
			clone := m.Clone()
			cached.value = &clone
		}
		return cached, nil
	})
	if err != nil {
		return nil, false, err
	}

	cached, _ := v.(cachedMatchByID)
	if !cached.exists || cached.value == nil {
		return nil, false, nil
	}
	out := cached.value.Clone()
	return &out, true, nil
}

func (r *MatchRepository) Update(ctx context.Context, m *match.Match) error {
	err := r.next.Update(ctx, m)
	r.cache.Delete(ctx, matchKey(m.ID))
	return err
}

// Watch is a passthrough: the feed always reads the store, never the cache.
func (r *MatchRepository) Watch(ctx context.Context, matchID string) (<-chan *match.Match, error) {
	return r.next.Watch(ctx, matchID)
}

type cachedMatchByID struct {
	value  *match.Match
	exists bool
}

func matchKey(matchID string) string {
	return "match:id:" + matchID
}
