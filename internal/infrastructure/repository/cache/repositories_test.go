package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cueclub/league-night/internal/domain/match"
	"github.com/cueclub/league-night/internal/infrastructure/repository/memory"
	basecache "github.com/cueclub/league-night/internal/platform/cache"
)

type countingStore struct {
	match.Repository
	gets atomic.Int32
}

func (s *countingStore) Get(ctx context.Context, matchID string) (*match.Match, bool, error) {
	s.gets.Add(1)
	return s.Repository.Get(ctx, matchID)
}

func newCachedRepo(t *testing.T) (*MatchRepository, *countingStore) {
	t.Helper()

	store := &countingStore{Repository: memory.NewMatchRepository()}
	repo := NewMatchRepository(store, basecache.NewStore(time.Minute))

	m := &match.Match{
		ID:                "m-1",
		HomeTeamID:        "team-home",
		AwayTeamID:        "team-away",
		HomeCaptainUserID: "captain-home",
		AwayCaptainUserID: "captain-away",
		Status:            match.StatusScheduled,
	}
	if err := repo.Create(t.Context(), m); err != nil {
		t.Fatalf("create: %v", err)
	}
	return repo, store
}

func TestMatchRepository_GetServesCachedSnapshot(t *testing.T) {
	repo, store := newCachedRepo(t)

	first, ok, err := repo.Get(t.Context(), "m-1")
	if err != nil || !ok {
		t.Fatalf("first get: ok=%v err=%v", ok, err)
	}
	second, ok, err := repo.Get(t.Context(), "m-1")
	if err != nil || !ok {
		t.Fatalf("second get: ok=%v err=%v", ok, err)
	}

	if got := store.gets.Load(); got != 1 {
		t.Fatalf("expected one store read, got %d", got)
	}
	if first.Version != second.Version {
		t.Fatalf("snapshot versions diverged: %d vs %d", first.Version, second.Version)
	}
}

func TestMatchRepository_GetReturnsIndependentClones(t *testing.T) {
	repo, _ := newCachedRepo(t)

	tampered, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	tampered.HomeCaptainUserID = "intruder"

	fresh, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if fresh.HomeCaptainUserID != "captain-home" {
		t.Fatalf("cached snapshot was mutated through a returned clone: %q", fresh.HomeCaptainUserID)
	}
}

func TestMatchRepository_UpdateDropsCachedCopy(t *testing.T) {
	repo, store := newCachedRepo(t)

	current, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := repo.Update(t.Context(), current); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if after.Version != current.Version {
		t.Fatalf("expected fresh snapshot at version %d, got %d", current.Version, after.Version)
	}
	if got := store.gets.Load(); got != 2 {
		t.Fatalf("expected a store read after invalidation, got %d reads", got)
	}
}

func TestMatchRepository_LosingWriteInvalidatesForRetry(t *testing.T) {
	repo, store := newCachedRepo(t)

	winner, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get winner copy: %v", err)
	}
	loser, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get loser copy: %v", err)
	}

	if err := repo.Update(t.Context(), winner); err != nil {
		t.Fatalf("winning update: %v", err)
	}
	if err := repo.Update(t.Context(), loser); !errors.Is(err, match.ErrStateConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	retry, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get for retry: %v", err)
	}
	if retry.Version != winner.Version {
		t.Fatalf("retry read stale version %d, want %d", retry.Version, winner.Version)
	}
	if got := store.gets.Load(); got != 2 {
		t.Fatalf("expected the retry to hit the store, got %d reads", got)
	}
}
