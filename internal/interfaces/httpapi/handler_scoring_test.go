package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cueclub/league-night/internal/domain/match"
)

func (h *apiHarness) scoreFrame(t *testing.T, matchID string, round, position int, winner string) *httptest.ResponseRecorder {
	t.Helper()

	target := fmt.Sprintf("/v1/matches/%s/frames/%d/%d/score", matchID, round, position)
	return h.do(t, http.MethodPost, target, apiHomeCaptain, scoreFrameRequest{WinnerPlayerID: winner})
}

// scoreRoundHomeSweep records the home player as winner of every frame in
// the round, whoever currently occupies the position.
func (h *apiHarness) scoreRoundHomeSweep(t *testing.T, matchID string, round int) {
	t.Helper()

	dto := h.getMatch(t, matchID)
	for _, frame := range dto.Rounds[round-1].Frames {
		rec := h.scoreFrame(t, matchID, round, frame.Position, frame.HomePlayerID)
		if rec.Code != http.StatusOK {
			t.Fatalf("score frame %d/%d: expected 200, got %d (%s)", round, frame.Position, rec.Code, rec.Body.String())
		}
	}
}

func (h *apiHarness) lockRound(t *testing.T, matchID string, roundIndex int) matchDTO {
	t.Helper()

	target := fmt.Sprintf("/v1/matches/%s/rounds/%d/lock", matchID, roundIndex)
	rec := h.do(t, http.MethodPost, target, apiHomeCaptain, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lock round index %d: expected 200, got %d (%s)", roundIndex, rec.Code, rec.Body.String())
	}
	return decodeMatch(t, rec)
}

func TestScoreFrame_RecordsWinner(t *testing.T) {
	h := newAPIHarness(t)
	matchID := h.createMatch(t)
	h.startMatch(t, matchID)

	rec := h.scoreFrame(t, matchID, 1, 1, "h1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	dto := decodeMatch(t, rec)
	frame := dto.Rounds[0].Frames[0]
	if frame.WinnerPlayerID != "h1" || !frame.IsComplete {
		t.Fatalf("expected h1 winner, got %+v", frame)
	}
	if frame.HomeScore != 1 || frame.AwayScore != 0 {
		t.Fatalf("expected 1-0 frame, got %d-%d", frame.HomeScore, frame.AwayScore)
	}
	if dto.HomeFrames != 1 || dto.AwayFrames != 0 {
		t.Fatalf("expected 1-0 totals, got %d-%d", dto.HomeFrames, dto.AwayFrames)
	}
}

func TestScoreFrame_AwayCaptainForbidden(t *testing.T) {
	h := newAPIHarness(t)
	matchID := h.createMatch(t)
	h.startMatch(t, matchID)

	rec := h.do(t, http.MethodPost, "/v1/matches/"+matchID+"/frames/1/1/score", apiAwayCaptain, scoreFrameRequest{WinnerPlayerID: "a1"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", rec.Code, rec.Body.String())
	}
	if status := decodeErrorStatus(t, rec); status != "PERMISSION_DENIED" {
		t.Fatalf("expected PERMISSION_DENIED, got %s", status)
	}
}

func TestScoreFrame_PathValidation(t *testing.T) {
	h := newAPIHarness(t)
	matchID := h.createMatch(t)
	h.startMatch(t, matchID)

	rec := h.do(t, http.MethodPost, "/v1/matches/"+matchID+"/frames/nine/1/score", apiHomeCaptain, scoreFrameRequest{WinnerPlayerID: "h1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric round, got %d", rec.Code)
	}
	if status := decodeErrorStatus(t, rec); status != "INVALID_ARGUMENT" {
		t.Fatalf("expected INVALID_ARGUMENT, got %s", status)
	}

	rec = h.scoreFrame(t, matchID, 9, 1, "h1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for round 9, got %d", rec.Code)
	}
	if status := decodeErrorStatus(t, rec); status != "OUT_OF_RANGE" {
		t.Fatalf("expected OUT_OF_RANGE, got %s", status)
	}
}

func TestScoreFrame_WinnerOutsideFrame(t *testing.T) {
	h := newAPIHarness(t)
	matchID := h.createMatch(t)
	h.startMatch(t, matchID)

	rec := h.scoreFrame(t, matchID, 1, 1, "h5")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}
	if status := decodeErrorStatus(t, rec); status != "FAILED_PRECONDITION" {
		t.Fatalf("expected FAILED_PRECONDITION, got %s", status)
	}
}

func TestClearFrame_ReopensRound(t *testing.T) {
	h := newAPIHarness(t)
	matchID := h.createMatch(t)
	h.startMatch(t, matchID)
	h.scoreRoundHomeSweep(t, matchID, 1)

	if dto := h.getMatch(t, matchID); dto.Phase != string(match.PhaseRoundCompleted) {
		t.Fatalf("expected ROUND_COMPLETED before clear, got %s", dto.Phase)
	}

	rec := h.do(t, http.MethodPost, "/v1/matches/"+matchID+"/frames/1/4/clear", apiHomeCaptain, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	dto := decodeMatch(t, rec)
	if dto.Phase != string(match.PhaseScoringRound) {
		t.Fatalf("expected SCORING_ROUND after clear, got %s", dto.Phase)
	}
	if frame := dto.Rounds[0].Frames[3]; frame.WinnerPlayerID != "" || frame.IsComplete {
		t.Fatalf("expected cleared frame, got %+v", frame)
	}
}

func TestLockRound_OpensSubstitutionWindow(t *testing.T) {
	h := newAPIHarness(t)
	matchID := h.createMatch(t)
	h.startMatch(t, matchID)
	h.scoreRoundHomeSweep(t, matchID, 1)

	dto := h.lockRound(t, matchID, 0)
	if dto.Phase != string(match.PhaseSubstitution) {
		t.Fatalf("expected SUBSTITUTION_PHASE, got %s", dto.Phase)
	}
	if dto.Rounds[0].State != string(match.RoundStateLocked) {
		t.Fatalf("expected LOCKED round 1, got %s", dto.Rounds[0].State)
	}

	rec := h.scoreFrame(t, matchID, 1, 1, "a1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 scoring a locked round, got %d", rec.Code)
	}
	if status := decodeErrorStatus(t, rec); status != "FAILED_PRECONDITION" {
		t.Fatalf("expected FAILED_PRECONDITION, got %s", status)
	}
}

func TestLockRound_IncompleteRoundConflict(t *testing.T) {
	h := newAPIHarness(t)
	matchID := h.createMatch(t)
	h.startMatch(t, matchID)

	rec := h.do(t, http.MethodPost, "/v1/matches/"+matchID+"/rounds/0/lock", apiHomeCaptain, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestLockRound_Idempotent(t *testing.T) {
	h := newAPIHarness(t)
	matchID := h.createMatch(t)
	h.startMatch(t, matchID)
	h.scoreRoundHomeSweep(t, matchID, 1)

	first := h.lockRound(t, matchID, 0)
	second := h.lockRound(t, matchID, 0)
	if second.Version != first.Version {
		t.Fatalf("expected no version bump on repeat lock: %d vs %d", first.Version, second.Version)
	}
}
