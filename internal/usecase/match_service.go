package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cueclub/league-night/internal/domain/match"
	"github.com/cueclub/league-night/internal/domain/roster"
	idgen "github.com/cueclub/league-night/internal/platform/id"
)

type CreateMatchInput struct {
	HomeTeamID        string
	AwayTeamID        string
	HomeCaptainUserID string
	AwayCaptainUserID string
}

type StartMatchInput struct {
	MatchID     string
	ActorUserID string
	HomeLineup  match.Lineup
	AwayLineup  match.Lineup
}

// MatchService owns the match lifecycle: creation, the start transition,
// reads, the snapshot stream and the reset side channel.
type MatchService struct {
	matchRepo match.Repository
	rosters   roster.Provider
	authority AuthorityResolver
	idGen     idgen.Generator
	notifier  *EventNotifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewMatchService(
	matchRepo match.Repository,
	rosters roster.Provider,
	authority AuthorityResolver,
	idGen idgen.Generator,
	notifier *EventNotifier,
	logger *slog.Logger,
) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchService{
		matchRepo: matchRepo,
		rosters:   rosters,
		authority: authority,
		idGen:     idGen,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *MatchService) Create(ctx context.Context, input CreateMatchInput) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Create")
	defer span.End()

	input.HomeTeamID = strings.TrimSpace(input.HomeTeamID)
	input.AwayTeamID = strings.TrimSpace(input.AwayTeamID)
	input.HomeCaptainUserID = strings.TrimSpace(input.HomeCaptainUserID)
	input.AwayCaptainUserID = strings.TrimSpace(input.AwayCaptainUserID)

	if input.HomeTeamID == "" || input.AwayTeamID == "" {
		return nil, fmt.Errorf("%w: home_team_id and away_team_id are required", ErrInvalidInput)
	}
	if input.HomeTeamID == input.AwayTeamID {
		return nil, fmt.Errorf("%w: a team cannot host itself", ErrInvalidInput)
	}
	if input.HomeCaptainUserID == "" || input.AwayCaptainUserID == "" {
		return nil, fmt.Errorf("%w: both captains are required", ErrInvalidInput)
	}
	if input.HomeCaptainUserID == input.AwayCaptainUserID {
		return nil, fmt.Errorf("%w: captains must be different users", ErrInvalidInput)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate match id: %w", err)
	}

	now := s.now()
	m := &match.Match{
		ID:                id,
		HomeTeamID:        input.HomeTeamID,
		AwayTeamID:        input.AwayTeamID,
		HomeCaptainUserID: input.HomeCaptainUserID,
		AwayCaptainUserID: input.AwayCaptainUserID,
		Status:            match.StatusScheduled,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.matchRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	s.logger.InfoContext(ctx, "match created",
		"match_id", m.ID,
		"home_team_id", m.HomeTeamID,
		"away_team_id", m.AwayTeamID,
	)
	return m, nil
}

// Start freezes the participant pools from the roster service and opens
// round 1 with the submitted lineups.
func (s *MatchService) Start(ctx context.Context, input StartMatchInput) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Start")
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	input.ActorUserID = strings.TrimSpace(input.ActorUserID)
	if input.MatchID == "" || input.ActorUserID == "" {
		return nil, fmt.Errorf("%w: match_id and actor are required", ErrInvalidInput)
	}

	existing, found, err := s.matchRepo.Get(ctx, input.MatchID)
	if err != nil {
		return nil, fmt.Errorf("read match: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, input.MatchID)
	}

	sheet, err := s.rosters.MatchSheet(ctx, existing.HomeTeamID, existing.AwayTeamID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch match sheet: %v", ErrDependencyUnavailable, err)
	}
	participants := match.Participants{Home: sheet.Home, Away: sheet.Away}

	updated, err := applyMatchUpdate(ctx, s.matchRepo, input.MatchID, func(m *match.Match) (bool, error) {
		if err := requireScoringAuthority(ctx, s.authority, m, input.ActorUserID); err != nil {
			return false, err
		}
		if err := m.Start(input.HomeLineup, input.AwayLineup, participants); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match started", "match_id", updated.ID)
	s.notifier.Notify(eventFrom(updated, EventMatchStarted, updated.CurrentRound, s.now()))
	return updated, nil
}

func (s *MatchService) Get(ctx context.Context, matchID string) (*match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("%w: match_id is required", ErrInvalidInput)
	}

	m, found, err := s.matchRepo.Get(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("read match: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	return m, nil
}

// Watch subscribes to the change-notification stream for one match. The
// first snapshot arrives after the next committed write.
func (s *MatchService) Watch(ctx context.Context, matchID string) (<-chan *match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Watch")
	defer span.End()

	if _, err := s.Get(ctx, matchID); err != nil {
		return nil, err
	}
	ch, err := s.matchRepo.Watch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("watch match: %w", err)
	}
	return ch, nil
}

// Reset wipes results, locks and confirmations and restores every lineup
// from the opening baseline. Only the scoring authority may do it.
func (s *MatchService) Reset(ctx context.Context, matchID, actorUserID string) (*match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Reset")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	actorUserID = strings.TrimSpace(actorUserID)
	if matchID == "" || actorUserID == "" {
		return nil, fmt.Errorf("%w: match_id and actor are required", ErrInvalidInput)
	}

	updated, err := applyMatchUpdate(ctx, s.matchRepo, matchID, func(m *match.Match) (bool, error) {
		if err := requireScoringAuthority(ctx, s.authority, m, actorUserID); err != nil {
			return false, err
		}
		if err := m.Reset(); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match reset", "match_id", updated.ID)
	s.notifier.Notify(eventFrom(updated, EventMatchReset, updated.CurrentRound, s.now()))
	return updated, nil
}
