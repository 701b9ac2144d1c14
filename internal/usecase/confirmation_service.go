package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cueclub/league-night/internal/domain/match"
)

type ConfirmationInput struct {
	MatchID     string
	ActorUserID string
	RoundIndex  int
}

// ConfirmationService runs the two-captain handshake that closes a
// substitution window. Confirm writes the caller's flag and then, against a
// fresh snapshot, advances the round if the other side has confirmed too.
// The domain no-ops an advance it has already seen, so two captains
// confirming at once still produce exactly one advance.
type ConfirmationService struct {
	matchRepo match.Repository
	authority AuthorityResolver
	notifier  *EventNotifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewConfirmationService(matchRepo match.Repository, authority AuthorityResolver, notifier *EventNotifier, logger *slog.Logger) *ConfirmationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfirmationService{
		matchRepo: matchRepo,
		authority: authority,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ConfirmationService) validate(input *ConfirmationInput) error {
	input.MatchID = strings.TrimSpace(input.MatchID)
	input.ActorUserID = strings.TrimSpace(input.ActorUserID)
	if input.MatchID == "" || input.ActorUserID == "" {
		return fmt.Errorf("%w: match_id and actor are required", ErrInvalidInput)
	}
	return nil
}

func (s *ConfirmationService) Confirm(ctx context.Context, input ConfirmationInput) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConfirmationService.Confirm")
	defer span.End()

	if err := s.validate(&input); err != nil {
		return nil, err
	}

	if _, err := applyMatchUpdate(ctx, s.matchRepo, input.MatchID, func(m *match.Match) (bool, error) {
		side, err := requireSide(ctx, s.authority, m, input.ActorUserID)
		if err != nil {
			return false, err
		}
		already := m.ConfirmedBy(side, input.RoundIndex)
		if err := m.ConfirmRound(side, input.RoundIndex); err != nil {
			return false, err
		}
		return !already, nil
	}); err != nil {
		return nil, err
	}

	// Re-read before advancing. The confirm above and the other captain's
	// may interleave in any order; whoever sees both flags set on a fresh
	// snapshot performs the advance, and the loser of that race no-ops.
	var advanced bool
	updated, err := applyMatchUpdate(ctx, s.matchRepo, input.MatchID, func(m *match.Match) (bool, error) {
		advanced = false
		if !m.ConfirmedBy(match.SideHome, input.RoundIndex) || !m.ConfirmedBy(match.SideAway, input.RoundIndex) {
			return false, nil
		}
		moved, err := m.AdvanceRound(input.RoundIndex)
		if err != nil {
			return false, err
		}
		advanced = moved
		return moved, nil
	})
	if err != nil {
		return nil, err
	}

	if advanced {
		s.logger.InfoContext(ctx, "round advanced",
			"match_id", updated.ID,
			"round", updated.CurrentRound,
		)
		s.notifier.Notify(eventFrom(updated, EventRoundAdvanced, updated.CurrentRound, s.now()))
	}
	return updated, nil
}

// Edit withdraws the caller's confirmation so substitutions reopen.
// Editing an unconfirmed lineup is a harmless no-op.
func (s *ConfirmationService) Edit(ctx context.Context, input ConfirmationInput) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConfirmationService.Edit")
	defer span.End()

	if err := s.validate(&input); err != nil {
		return nil, err
	}

	return applyMatchUpdate(ctx, s.matchRepo, input.MatchID, func(m *match.Match) (bool, error) {
		side, err := requireSide(ctx, s.authority, m, input.ActorUserID)
		if err != nil {
			return false, err
		}
		wasConfirmed := m.ConfirmedBy(side, input.RoundIndex)
		if err := m.EditRound(side, input.RoundIndex); err != nil {
			return false, err
		}
		return wasConfirmed, nil
	})
}

// AdvanceRound forces the advance check for a round whose window is stuck,
// for example after a crash between a confirm write and its advance. It
// fails with the transition error if either side has not confirmed.
func (s *ConfirmationService) AdvanceRound(ctx context.Context, input ConfirmationInput) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConfirmationService.AdvanceRound")
	defer span.End()

	if err := s.validate(&input); err != nil {
		return nil, err
	}

	var advanced bool
	updated, err := applyMatchUpdate(ctx, s.matchRepo, input.MatchID, func(m *match.Match) (bool, error) {
		advanced = false
		if _, err := requireSide(ctx, s.authority, m, input.ActorUserID); err != nil {
			return false, err
		}
		moved, err := m.AdvanceRound(input.RoundIndex)
		if err != nil {
			return false, err
		}
		advanced = moved
		return moved, nil
	})
	if err != nil {
		return nil, err
	}

	if advanced {
		s.logger.InfoContext(ctx, "round advanced",
			"match_id", updated.ID,
			"round", updated.CurrentRound,
		)
		s.notifier.Notify(eventFrom(updated, EventRoundAdvanced, updated.CurrentRound, s.now()))
	}
	return updated, nil
}
