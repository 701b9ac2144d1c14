package httpapi

import (
	"fmt"
	"net/http"

	"github.com/cueclub/league-night/internal/usecase"
)

func (h *Handler) ScoreFrame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ScoreFrame")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	round, err := pathInt(r, "round")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	position, err := pathInt(r, "position")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req scoreFrameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	m, err := h.scoringService.ScoreFrame(ctx, usecase.ScoreFrameInput{
		MatchID:        matchID,
		ActorUserID:    principal.UserID,
		Round:          round,
		Position:       position,
		WinnerPlayerID: req.WinnerPlayerID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "score frame failed",
			"match_id", matchID,
			"round", round,
			"position", position,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, m))
}

func (h *Handler) ClearFrame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearFrame")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	round, err := pathInt(r, "round")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	position, err := pathInt(r, "position")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	m, err := h.scoringService.ClearFrame(ctx, usecase.ClearFrameInput{
		MatchID:     matchID,
		ActorUserID: principal.UserID,
		Round:       round,
		Position:    position,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "clear frame failed",
			"match_id", matchID,
			"round", round,
			"position", position,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, m))
}

func (h *Handler) LockRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LockRound")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roundIndex, err := pathInt(r, "roundIndex")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	m, err := h.scoringService.LockRound(ctx, usecase.LockRoundInput{
		MatchID:     matchID,
		ActorUserID: principal.UserID,
		RoundIndex:  roundIndex,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "lock round failed",
			"match_id", matchID,
			"round_index", roundIndex,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, m))
}
