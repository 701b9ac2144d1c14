package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cueclub/league-night/internal/domain/match"
)

type ScoreFrameInput struct {
	MatchID        string
	ActorUserID    string
	Round          int
	Position       int
	WinnerPlayerID string
}

type ClearFrameInput struct {
	MatchID     string
	ActorUserID string
	Round       int
	Position    int
}

type LockRoundInput struct {
	MatchID     string
	ActorUserID string
	RoundIndex  int
}

// ScoringService records and corrects frame results and seals rounds.
// Every operation goes through the scoring authority check.
type ScoringService struct {
	matchRepo match.Repository
	authority AuthorityResolver
	notifier  *EventNotifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewScoringService(matchRepo match.Repository, authority AuthorityResolver, notifier *EventNotifier, logger *slog.Logger) *ScoringService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoringService{
		matchRepo: matchRepo,
		authority: authority,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ScoringService) ScoreFrame(ctx context.Context, input ScoreFrameInput) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ScoreFrame")
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	input.ActorUserID = strings.TrimSpace(input.ActorUserID)
	input.WinnerPlayerID = strings.TrimSpace(input.WinnerPlayerID)
	if input.MatchID == "" || input.ActorUserID == "" {
		return nil, fmt.Errorf("%w: match_id and actor are required", ErrInvalidInput)
	}
	if input.WinnerPlayerID == "" {
		return nil, fmt.Errorf("%w: winner_player_id is required", ErrInvalidInput)
	}

	var completedRound bool
	updated, err := applyMatchUpdate(ctx, s.matchRepo, input.MatchID, func(m *match.Match) (bool, error) {
		completedRound = false
		if err := requireScoringAuthority(ctx, s.authority, m, input.ActorUserID); err != nil {
			return false, err
		}
		before := m.IsRoundComplete(input.Round)
		if err := m.ScoreFrame(input.Round, input.Position, input.WinnerPlayerID); err != nil {
			return false, err
		}
		completedRound = !before && m.IsRoundComplete(input.Round)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if completedRound {
		s.logger.InfoContext(ctx, "round completed", "match_id", updated.ID, "round", input.Round)
		s.notifier.Notify(eventFrom(updated, EventRoundCompleted, input.Round, s.now()))
	}
	return updated, nil
}

// ClearFrame reopens a frame in an unlocked round. Any round that has
// flipped to complete but is not yet locked drops back to open.
func (s *ScoringService) ClearFrame(ctx context.Context, input ClearFrameInput) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ClearFrame")
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	input.ActorUserID = strings.TrimSpace(input.ActorUserID)
	if input.MatchID == "" || input.ActorUserID == "" {
		return nil, fmt.Errorf("%w: match_id and actor are required", ErrInvalidInput)
	}

	return applyMatchUpdate(ctx, s.matchRepo, input.MatchID, func(m *match.Match) (bool, error) {
		if err := requireScoringAuthority(ctx, s.authority, m, input.ActorUserID); err != nil {
			return false, err
		}
		if err := m.ClearFrame(input.Round, input.Position); err != nil {
			return false, err
		}
		return true, nil
	})
}

// LockRound seals a completed round. Locking an already locked round is
// a no-op: no write, no version bump, no event.
func (s *ScoringService) LockRound(ctx context.Context, input LockRoundInput) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.LockRound")
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	input.ActorUserID = strings.TrimSpace(input.ActorUserID)
	if input.MatchID == "" || input.ActorUserID == "" {
		return nil, fmt.Errorf("%w: match_id and actor are required", ErrInvalidInput)
	}

	var lockedNow, finishedMatch bool
	updated, err := applyMatchUpdate(ctx, s.matchRepo, input.MatchID, func(m *match.Match) (bool, error) {
		lockedNow, finishedMatch = false, false
		if err := requireScoringAuthority(ctx, s.authority, m, input.ActorUserID); err != nil {
			return false, err
		}
		locked, err := m.LockRound(input.RoundIndex)
		if err != nil {
			return false, err
		}
		lockedNow = locked
		finishedMatch = locked && m.Status == match.StatusCompleted
		return locked, nil
	})
	if err != nil {
		return nil, err
	}

	if lockedNow {
		s.logger.InfoContext(ctx, "round locked", "match_id", updated.ID, "round_index", input.RoundIndex)
		s.notifier.Notify(eventFrom(updated, EventRoundLocked, input.RoundIndex+1, s.now()))
	}
	if finishedMatch {
		s.logger.InfoContext(ctx, "match completed", "match_id", updated.ID)
		s.notifier.Notify(eventFrom(updated, EventMatchCompleted, input.RoundIndex+1, s.now()))
	}
	return updated, nil
}
