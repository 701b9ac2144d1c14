package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/cueclub/league-night/internal/domain/match"
)

const (
	listenerMinReconnect = 2 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// matchChangeFeed owns the LISTEN connection and the per-match subscriber
// registry. One feed serves every Watch subscription of the process; the
// notification payload is only a match id, the snapshot always comes from a
// fresh read.
type matchChangeFeed struct {
	repo   *MatchRepository
	logger *slog.Logger
	pl     *pq.Listener

	mu       sync.Mutex
	watchers map[string]map[int64]chan *match.Match
	seq      int64
}

func newMatchChangeFeed(repo *MatchRepository, dsn string, logger *slog.Logger) (*matchChangeFeed, error) {
	feed := &matchChangeFeed{
		repo:     repo,
		logger:   logger,
		watchers: make(map[string]map[int64]chan *match.Match),
	}
	feed.pl = pq.NewListener(dsn, listenerMinReconnect, listenerMaxReconnect, feed.onListenerEvent)
	if err := feed.pl.Listen(matchChangeChannel); err != nil {
		return nil, fmt.Errorf("listen on %s: %w", matchChangeChannel, err)
	}
	return feed, nil
}

func (f *matchChangeFeed) onListenerEvent(event pq.ListenerEvent, err error) {
	if err != nil {
		f.logger.Warn("match change listener event", "event", int(event), "error", err)
	}
}

// run pumps notifications until ctx is cancelled. The listener delivers nil
// after a reconnect; every watched match is re-read then, so writes
// committed while the connection was down fold into the next snapshot.
func (f *matchChangeFeed) run(ctx context.Context) {
	defer func() {
		_ = f.pl.Close()
	}()

	ping := time.NewTicker(listenerPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-f.pl.Notify:
			if n == nil {
				f.resync(ctx)
				continue
			}
			f.dispatch(ctx, n.Extra)
		case <-ping.C:
			if err := f.pl.Ping(); err != nil {
				f.logger.Warn("match change listener ping failed", "error", err)
			}
		}
	}
}

// subscribe registers a snapshot channel for one match. Delivery is
// latest-wins, same as the memory store. The channel closes when ctx is
// done.
func (f *matchChangeFeed) subscribe(ctx context.Context, matchID string) <-chan *match.Match {
	ch := make(chan *match.Match, 1)

	f.mu.Lock()
	f.seq++
	token := f.seq
	if f.watchers[matchID] == nil {
		f.watchers[matchID] = make(map[int64]chan *match.Match)
	}
	f.watchers[matchID][token] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		set, ok := f.watchers[matchID]
		if !ok {
			return
		}
		if _, ok := set[token]; !ok {
			return
		}
		delete(set, token)
		if len(set) == 0 {
			delete(f.watchers, matchID)
		}
		close(ch)
	}()

	return ch
}

func (f *matchChangeFeed) watchedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.watchers))
	for id := range f.watchers {
		ids = append(ids, id)
	}
	return ids
}

func (f *matchChangeFeed) dispatch(ctx context.Context, matchID string) {
	if matchID == "" {
		return
	}
	m, found, err := f.repo.Get(ctx, matchID)
	if err != nil {
		f.logger.Warn("re-read after change notification failed", "match_id", matchID, "error", err)
		return
	}
	if !found {
		return
	}
	f.broadcast(m)
}

func (f *matchChangeFeed) resync(ctx context.Context) {
	for _, id := range f.watchedIDs() {
		f.dispatch(ctx, id)
	}
}

// broadcast pushes a fresh clone to every watcher of the match. A full
// buffer is drained so the newest snapshot replaces the stale one. Holding
// f.mu orders sends against channel close.
func (f *matchChangeFeed) broadcast(m *match.Match) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.watchers[m.ID] {
		snapshot := m.Clone()
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
