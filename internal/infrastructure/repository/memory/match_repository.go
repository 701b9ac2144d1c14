package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cueclub/league-night/internal/domain/match"
)

// MatchRepository is the in-memory store used by tests and single-node
// deployments. Writes go through an optimistic version check and every
// committed write is fanned out to the match's watchers.
type MatchRepository struct {
	mu       sync.RWMutex
	items    map[string]match.Match
	watchers map[string]map[int64]chan *match.Match
	watchSeq int64
	now      func() time.Time
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		items:    make(map[string]match.Match),
		watchers: make(map[string]map[int64]chan *match.Match),
		now:      time.Now,
	}
}

func (r *MatchRepository) Create(_ context.Context, m *match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[m.ID]; exists {
		return fmt.Errorf("match %s already exists", m.ID)
	}

	stored := m.Clone()
	stored.Version = 1
	r.items[m.ID] = stored
	m.Version = stored.Version
	r.broadcastLocked(stored)
	return nil
}

func (r *MatchRepository) Get(_ context.Context, matchID string) (*match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.items[matchID]
	if !ok {
		return nil, false, nil
	}
	out := stored.Clone()
	return &out, true, nil
}

// Update commits the record only when the caller read the version it is
// replacing. A stale version means someone else won the write race.
func (r *MatchRepository) Update(_ context.Context, m *match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[m.ID]
	if !ok {
		return fmt.Errorf("%w: match %s", match.ErrNotFound, m.ID)
	}
	if stored.Version != m.Version {
		return fmt.Errorf("%w: match %s version %d superseded", match.ErrStateConflict, m.ID, m.Version)
	}

	next := m.Clone()
	next.Version = stored.Version + 1
	next.UpdatedAt = r.now().UTC()
	r.items[m.ID] = next

	m.Version = next.Version
	m.UpdatedAt = next.UpdatedAt
	r.broadcastLocked(next)
	return nil
}

// Watch registers a snapshot channel for one match. Delivery is
// latest-wins: a slow consumer sees the newest committed state, not every
// intermediate one. The channel closes when ctx is done.
func (r *MatchRepository) Watch(ctx context.Context, matchID string) (<-chan *match.Match, error) {
	ch := make(chan *match.Match, 1)

	r.mu.Lock()
	r.watchSeq++
	token := r.watchSeq
	if r.watchers[matchID] == nil {
		r.watchers[matchID] = make(map[int64]chan *match.Match)
	}
	r.watchers[matchID][token] = ch
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		set, ok := r.watchers[matchID]
		if !ok {
			return
		}
		if _, ok := set[token]; !ok {
			return
		}
		delete(set, token)
		if len(set) == 0 {
			delete(r.watchers, matchID)
		}
		close(ch)
	}()

	return ch, nil
}

// broadcastLocked pushes a fresh clone to every watcher of the match.
// Channels hold one snapshot; a full buffer is drained so the newest state
// replaces the stale one. Callers hold r.mu, which also orders broadcasts
// against channel close.
func (r *MatchRepository) broadcastLocked(stored match.Match) {
	for _, ch := range r.watchers[stored.ID] {
		snapshot := stored.Clone()
		select {
		case ch <- &snapshot:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- &snapshot:
		default:
		}
	}
}

