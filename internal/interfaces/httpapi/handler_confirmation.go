package httpapi

import (
	"fmt"
	"net/http"

	"github.com/cueclub/league-night/internal/usecase"
)

func (h *Handler) ConfirmRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ConfirmRound")
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
	m, err := h.confirmationService.Confirm(ctx, usecase.ConfirmationInput{
		MatchID:     matchID,
		ActorUserID: principal.UserID,
		RoundIndex:  roundIndex,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "confirm round failed",
			"match_id", matchID,
			"round_index", roundIndex,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, m))
}

func (h *Handler) EditRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EditRound")
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
	m, err := h.confirmationService.Edit(ctx, usecase.ConfirmationInput{
		MatchID:     matchID,
		ActorUserID: principal.UserID,
		RoundIndex:  roundIndex,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "edit round failed",
			"match_id", matchID,
			"round_index", roundIndex,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, m))
}

func (h *Handler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdvanceRound")
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
	m, err := h.confirmationService.AdvanceRound(ctx, usecase.ConfirmationInput{
		MatchID:     matchID,
		ActorUserID: principal.UserID,
		RoundIndex:  roundIndex,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "advance round failed",
			"match_id", matchID,
			"round_index", roundIndex,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, m))
}
