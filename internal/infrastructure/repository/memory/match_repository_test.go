package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/cueclub/league-night/internal/domain/match"
)

func seedMatch(t *testing.T) *match.Match {
	t.Helper()

	m := &match.Match{
		ID:                "m-1",
		HomeTeamID:        "team-home",
		AwayTeamID:        "team-away",
		HomeCaptainUserID: "captain-home",
		AwayCaptainUserID: "captain-away",
		Status:            match.StatusScheduled,
	}
	err := m.Start(
		match.Lineup{"h1", "h2", "h3", "h4"},
		match.Lineup{"a1", "a2", "a3", "a4"},
		match.Participants{
			Home: []string{"h1", "h2", "h3", "h4", "h5"},
			Away: []string{"a1", "a2", "a3", "a4", "a5"},
		},
	)
	if err != nil {
		t.Fatalf("start match: %v", err)
	}
	return m
}

func TestMatchRepository_Create_RejectsDuplicateID(t *testing.T) {
	repo := NewMatchRepository()
	m := seedMatch(t)

	if err := repo.Create(t.Context(), m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(t.Context(), seedMatch(t)); err == nil {
		t.Fatal("expected duplicate create to fail")
	}
}

func TestMatchRepository_Update_VersionConflict(t *testing.T) {
	repo := NewMatchRepository()
	if err := repo.Create(t.Context(), seedMatch(t)); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get first copy: %v", err)
	}
	second, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get second copy: %v", err)
	}

	if err := first.ScoreFrame(1, 1, "h1"); err != nil {
		t.Fatalf("score on first copy: %v", err)
	}
	if err := repo.Update(t.Context(), first); err != nil {
		t.Fatalf("commit first copy: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("winning update should carry the new version, got %d", first.Version)
	}

	if err := second.ScoreFrame(1, 1, "a1"); err != nil {
		t.Fatalf("score on second copy: %v", err)
	}
	if err := repo.Update(t.Context(), second); !errors.Is(err, match.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}

	stored, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	frame, err := stored.FrameAt(1, 1)
	if err != nil {
		t.Fatalf("frame 1/1: %v", err)
	}
	if frame.WinnerPlayerID != "h1" {
		t.Fatalf("stale write leaked through: %+v", frame)
	}
}

func TestMatchRepository_Get_ReturnsIsolatedCopy(t *testing.T) {
	repo := NewMatchRepository()
	if err := repo.Create(t.Context(), seedMatch(t)); err != nil {
		t.Fatalf("create: %v", err)
	}

	copy1, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := copy1.ScoreFrame(1, 1, "h1"); err != nil {
		t.Fatalf("score local copy: %v", err)
	}

	copy2, _, err := repo.Get(t.Context(), "m-1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	frame, err := copy2.FrameAt(1, 1)
	if err != nil {
		t.Fatalf("frame 1/1: %v", err)
	}
	if frame.IsComplete {
		t.Fatal("uncommitted mutation visible through the store")
	}
}

func TestMatchRepository_Watch_LatestWins(t *testing.T) {
	repo := NewMatchRepository()
	if err := repo.Create(t.Context(), seedMatch(t)); err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	ch, err := repo.Watch(ctx, "m-1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	for position := 1; position <= 3; position++ {
		current, _, err := repo.Get(t.Context(), "m-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if err := current.ScoreFrame(1, position, "h"+string(rune('0'+position))); err != nil {
			t.Fatalf("score frame 1/%d: %v", position, err)
		}
		if err := repo.Update(t.Context(), current); err != nil {
			t.Fatalf("update %d: %v", position, err)
		}
	}

	snapshot := <-ch
	if snapshot.Version != 4 {
		t.Fatalf("expected the newest committed version 4, got %d", snapshot.Version)
	}

	cancel()
	if _, open := <-ch; open {
		t.Fatal("expected channel to close after cancel")
	}
}

func TestMatchRepository_Watch_UnknownMatchGetsLaterCreate(t *testing.T) {
	repo := NewMatchRepository()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	ch, err := repo.Watch(ctx, "m-1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := repo.Create(t.Context(), seedMatch(t)); err != nil {
		t.Fatalf("create: %v", err)
	}

	snapshot := <-ch
	if snapshot.ID != "m-1" || snapshot.Version != 1 {
		t.Fatalf("unexpected snapshot: id=%s version=%d", snapshot.ID, snapshot.Version)
	}
}
