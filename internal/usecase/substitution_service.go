package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cueclub/league-night/internal/domain/match"
)

type SubstitutionInput struct {
	MatchID     string
	ActorUserID string
	RoundIndex  int
	Position    int
	CandidateID string
}

// SubstitutionService handles the between-rounds lineup window. Check is
// the dry run the clients call while a captain browses the bench; Apply
// performs the swap. Both evaluate the same eligibility chain, so a
// candidate that passed Check can still fail Apply if the match moved
// underneath.
type SubstitutionService struct {
	matchRepo match.Repository
	authority AuthorityResolver
	logger    *slog.Logger
	now       func() time.Time
}

func NewSubstitutionService(matchRepo match.Repository, authority AuthorityResolver, logger *slog.Logger) *SubstitutionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubstitutionService{
		matchRepo: matchRepo,
		authority: authority,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *SubstitutionService) normalize(input *SubstitutionInput) error {
	input.MatchID = strings.TrimSpace(input.MatchID)
	input.ActorUserID = strings.TrimSpace(input.ActorUserID)
	input.CandidateID = strings.TrimSpace(input.CandidateID)
	if input.MatchID == "" || input.ActorUserID == "" {
		return fmt.Errorf("%w: match_id and actor are required", ErrInvalidInput)
	}
	if input.CandidateID == "" {
		return fmt.Errorf("%w: candidate_player_id is required", ErrInvalidInput)
	}
	return nil
}

// Check evaluates eligibility against a fresh snapshot without writing.
func (s *SubstitutionService) Check(ctx context.Context, input SubstitutionInput) error {
	if err := s.normalize(&input); err != nil {
		return err
	}

	m, found, err := s.matchRepo.Get(ctx, input.MatchID)
	if err != nil {
		return fmt.Errorf("read match: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: match %s", ErrNotFound, input.MatchID)
	}

	side, err := requireSide(ctx, s.authority, m, input.ActorUserID)
	if err != nil {
		return err
	}
	return m.CanSubstitute(side, input.Position, input.CandidateID, input.RoundIndex)
}

func (s *SubstitutionService) Apply(ctx context.Context, input SubstitutionInput) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubstitutionService.Apply")
	defer span.End()

	if err := s.normalize(&input); err != nil {
		return nil, err
	}

	updated, err := applyMatchUpdate(ctx, s.matchRepo, input.MatchID, func(m *match.Match) (bool, error) {
		side, err := requireSide(ctx, s.authority, m, input.ActorUserID)
		if err != nil {
			return false, err
		}
		if err := m.ApplySubstitution(side, input.Position, input.CandidateID, input.RoundIndex, input.ActorUserID, s.now()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "substitution applied",
		"match_id", updated.ID,
		"round_index", input.RoundIndex,
		"position", input.Position,
		"candidate_player_id", input.CandidateID,
	)
	return updated, nil
}
