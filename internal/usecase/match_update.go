package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/cueclub/league-night/internal/domain/match"
)

// conflictRetryLimit bounds the internal re-read loop on version conflicts.
// Every guarded mutation is idempotent, so retrying against a fresh read is
// always safe; past the limit the conflict surfaces to the caller, whose own
// retry starts from a fresh read again.
const conflictRetryLimit = 3

// AuthorityResolver maps a caller to the side they represent for a match.
// The engine never trusts a client-supplied side.
type AuthorityResolver interface {
	SideFor(ctx context.Context, m *match.Match, userID string) (match.Side, error)
}

// applyMatchUpdate is the read-validate-write cycle every mutation goes
// through. mutate inspects and changes a freshly read record and reports
// whether a write is needed; the conditional write rejects the attempt when
// the record moved on since the read, and the loop starts over so guards are
// always re-checked against current state, never a cached snapshot.
func applyMatchUpdate(ctx context.Context, repo match.Repository, matchID string, mutate func(*match.Match) (bool, error)) (*match.Match, error) {
	var conflictErr error
	for attempt := 0; attempt < conflictRetryLimit; attempt++ {
		m, found, err := repo.Get(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("read match: %w", err)
		}
		if !found {
			return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
		}

		changed, err := mutate(m)
		if err != nil {
			return nil, err
		}
		if !changed {
			return m, nil
		}

		if err := repo.Update(ctx, m); err != nil {
			if errors.Is(err, match.ErrStateConflict) {
				conflictErr = err
				continue
			}
			return nil, fmt.Errorf("write match: %w", err)
		}
		return m, nil
	}
	return nil, conflictErr
}

// requireSide resolves the caller's side and rejects anyone who represents
// neither team.
func requireSide(ctx context.Context, resolver AuthorityResolver, m *match.Match, userID string) (match.Side, error) {
	side, err := resolver.SideFor(ctx, m, userID)
	if err != nil {
		return match.SideNone, fmt.Errorf("resolve authority: %w", err)
	}
	if side != match.SideHome && side != match.SideAway {
		return match.SideNone, fmt.Errorf("%w: user %s has no side in match %s", match.ErrNotAuthority, userID, m.ID)
	}
	return side, nil
}

// requireScoringAuthority additionally rejects the away captain: entering
// and locking results is deliberately one-sided, the other captain only
// reviews and confirms.
func requireScoringAuthority(ctx context.Context, resolver AuthorityResolver, m *match.Match, userID string) error {
	side, err := requireSide(ctx, resolver, m, userID)
	if err != nil {
		return err
	}
	if side != match.SideHome {
		return fmt.Errorf("%w: only the home captain may do this", match.ErrNotAuthority)
	}
	return nil
}
