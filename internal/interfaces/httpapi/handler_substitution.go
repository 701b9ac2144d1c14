package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cueclub/league-night/internal/domain/match"
	"github.com/cueclub/league-night/internal/usecase"
)

func (h *Handler) CheckSubstitution(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckSubstitution")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req substitutionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	err := h.substitutionService.Check(ctx, usecase.SubstitutionInput{
		MatchID:     matchID,
		ActorUserID: principal.UserID,
		RoundIndex:  req.RoundIndex,
		Position:    req.Position,
		CandidateID: req.CandidatePlayerID,
	})
	switch {
	case err == nil:
		writeSuccess(ctx, w, http.StatusOK, substitutionCheckDTO{Eligible: true})
	case errors.Is(err, match.ErrIneligibleSubstitution):
		// An ineligible candidate is a valid answer to the question, not a
		// failed request.
		writeSuccess(ctx, w, http.StatusOK, substitutionCheckDTO{Eligible: false, Reason: err.Error()})
	default:
		writeError(ctx, w, err)
	}
}

func (h *Handler) ApplySubstitution(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplySubstitution")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req substitutionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	m, err := h.substitutionService.Apply(ctx, usecase.SubstitutionInput{
		MatchID:     matchID,
		ActorUserID: principal.UserID,
		RoundIndex:  req.RoundIndex,
		Position:    req.Position,
		CandidateID: req.CandidatePlayerID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "apply substitution failed",
			"match_id", matchID,
			"round_index", req.RoundIndex,
			"position", req.Position,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, m))
}
