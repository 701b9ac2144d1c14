package usecase

import (
	"errors"
	"testing"

	"github.com/cueclub/league-night/internal/domain/match"
)

func TestSubstitutionService_Apply_SwapsIncomingRound(t *testing.T) {
	h := newMatchHarness(t)
	started := h.startMatch(t)
	h.playRound(t, started.ID, 1)

	updated, err := h.subs.Apply(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  0,
		Position:    2,
		CandidateID: "h5",
	})
	if err != nil {
		t.Fatalf("apply substitution: %v", err)
	}

	if got := updated.Lineups[2].Home; got != (match.Lineup{"h1", "h5", "h3", "h4"}) {
		t.Fatalf("round 2 lineup not updated: %v", got)
	}
	if got := updated.Lineups[4].Home; got != (match.Lineup{"h1", "h5", "h3", "h4"}) {
		t.Fatalf("assignment did not seed forward: %v", got)
	}

	frame, err := updated.FrameAt(2, 2)
	if err != nil {
		t.Fatalf("frame 2/2: %v", err)
	}
	if frame.HomePlayerID != "h5" {
		t.Fatalf("frame 2/2 still has %s", frame.HomePlayerID)
	}
	if len(frame.Substitutions) != 1 || frame.Substitutions[0].OutPlayerID != "h2" {
		t.Fatalf("unexpected substitution trail: %+v", frame.Substitutions)
	}
}

func TestSubstitutionService_Apply_RequiresLockedRound(t *testing.T) {
	h := newMatchHarness(t)
	started := h.startMatch(t)
	h.scoreRound(t, started.ID, 1)

	_, err := h.subs.Apply(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  0,
		Position:    2,
		CandidateID: "h5",
	})
	if !errors.Is(err, match.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSubstitutionService_Apply_RejectsOutsiderActor(t *testing.T) {
	h := newMatchHarness(t)
	started := h.startMatch(t)
	h.playRound(t, started.ID, 1)

	_, err := h.subs.Apply(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: "some-spectator",
		RoundIndex:  0,
		Position:    2,
		CandidateID: "h5",
	})
	if !errors.Is(err, match.ErrNotAuthority) {
		t.Fatalf("expected ErrNotAuthority, got %v", err)
	}
}

func TestSubstitutionService_Check_ReportsIneligibility(t *testing.T) {
	h := newMatchHarness(t)
	started := h.startMatch(t)
	h.playRound(t, started.ID, 1)

	err := h.subs.Check(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  0,
		Position:    2,
		CandidateID: "a5",
	})
	if !errors.Is(err, match.ErrSubNotParticipant) {
		t.Fatalf("expected ErrSubNotParticipant, got %v", err)
	}
	if !errors.Is(err, match.ErrIneligibleSubstitution) {
		t.Fatalf("reason should wrap the eligibility umbrella, got %v", err)
	}
}

func TestSubstitutionService_Check_PassesForFreshPlayer(t *testing.T) {
	h := newMatchHarness(t)
	started := h.startMatch(t)
	h.playRound(t, started.ID, 1)

	if err := h.subs.Check(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: awayCaptain,
		RoundIndex:  0,
		Position:    3,
		CandidateID: "a6",
	}); err != nil {
		t.Fatalf("expected eligible candidate, got %v", err)
	}
}

// Round 1 players may return for round 2: the rest rule only kicks in from
// the round 2 window onward.
func TestSubstitutionService_Apply_RecencyRule(t *testing.T) {
	h := newMatchHarness(t)
	started := h.startMatch(t)

	h.playRound(t, started.ID, 1)
	if _, err := h.subs.Apply(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  0,
		Position:    2,
		CandidateID: "h5",
	}); err != nil {
		t.Fatalf("swap h5 in for round 2: %v", err)
	}
	h.confirmBoth(t, started.ID, 0)

	h.playRound(t, started.ID, 2)
	_, err := h.subs.Apply(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  1,
		Position:    3,
		CandidateID: "h5",
	})
	if !errors.Is(err, match.ErrSubPlayedPreviousRound) {
		t.Fatalf("expected ErrSubPlayedPreviousRound, got %v", err)
	}

	if _, err := h.subs.Apply(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  1,
		Position:    2,
		CandidateID: "h2",
	}); err != nil {
		t.Fatalf("h2 rested round 2 and should come back: %v", err)
	}
}

func TestSubstitutionService_Apply_BlockedAfterOwnConfirm(t *testing.T) {
	h := newMatchHarness(t)
	started := h.startMatch(t)
	h.playRound(t, started.ID, 1)

	if _, err := h.confirms.Confirm(t.Context(), ConfirmationInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  0,
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err := h.subs.Apply(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  0,
		Position:    2,
		CandidateID: "h5",
	})
	if !errors.Is(err, match.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := h.confirms.Edit(t.Context(), ConfirmationInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  0,
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, err := h.subs.Apply(t.Context(), SubstitutionInput{
		MatchID:     started.ID,
		ActorUserID: homeCaptain,
		RoundIndex:  0,
		Position:    2,
		CandidateID: "h5",
	}); err != nil {
		t.Fatalf("apply after edit: %v", err)
	}
}
