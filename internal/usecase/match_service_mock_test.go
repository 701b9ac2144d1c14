package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/cueclub/league-night/internal/domain/match"
	"github.com/cueclub/league-night/internal/domain/roster"
	"github.com/cueclub/league-night/internal/infrastructure/authority"
	"github.com/cueclub/league-night/internal/infrastructure/repository/memory"
	"github.com/cueclub/league-night/internal/platform/id"
)

type rosterProviderMock struct {
	mock.Mock
}

func (m *rosterProviderMock) MatchSheet(ctx context.Context, homeTeamID, awayTeamID string) (roster.Sheet, error) {
	args := m.Called(ctx, homeTeamID, awayTeamID)
	return args.Get(0).(roster.Sheet), args.Error(1)
}

func newMockedMatchService(t *testing.T, provider roster.Provider) (*MatchService, *memory.MatchRepository) {
	t.Helper()

	repo := memory.NewMatchRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewMatchService(repo, provider, authority.NewRecordResolver(), id.NewRandomGenerator(), nil, logger)
	return svc, repo
}

func TestMatchService_Start_SheetFromProviderUsingMock(t *testing.T) {
	t.Parallel()

	provider := &rosterProviderMock{}
	defer provider.AssertExpectations(t)

	svc, _ := newMockedMatchService(t, provider)
	created, err := svc.Create(t.Context(), CreateMatchInput{
		HomeTeamID:        teamHome,
		AwayTeamID:        teamAway,
		HomeCaptainUserID: homeCaptain,
		AwayCaptainUserID: awayCaptain,
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	provider.
		On("MatchSheet", mock.Anything, teamHome, teamAway).
		Return(roster.Sheet{
			Home: []string{"h1", "h2", "h3", "h4", "h5"},
			Away: []string{"a1", "a2", "a3", "a4", "a5"},
		}, nil).
		Once()

	started, err := svc.Start(t.Context(), StartMatchInput{
		MatchID:     created.ID,
		ActorUserID: homeCaptain,
		HomeLineup:  match.Lineup{"h1", "h2", "h3", "h4"},
		AwayLineup:  match.Lineup{"a1", "a2", "a3", "a4"},
	})
	if err != nil {
		t.Fatalf("start match: %v", err)
	}
	if len(started.Participants.Home) != 5 {
		t.Fatalf("participant pool not frozen from the sheet: %v", started.Participants.Home)
	}
}

func TestMatchService_Start_SheetUnavailableUsingMock(t *testing.T) {
	t.Parallel()

	provider := &rosterProviderMock{}
	defer provider.AssertExpectations(t)

	svc, _ := newMockedMatchService(t, provider)
	created, err := svc.Create(t.Context(), CreateMatchInput{
		HomeTeamID:        teamHome,
		AwayTeamID:        teamAway,
		HomeCaptainUserID: homeCaptain,
		AwayCaptainUserID: awayCaptain,
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	provider.
		On("MatchSheet", mock.Anything, teamHome, teamAway).
		Return(roster.Sheet{}, errors.New("hub unreachable")).
		Once()

	_, err = svc.Start(t.Context(), StartMatchInput{
		MatchID:     created.ID,
		ActorUserID: homeCaptain,
		HomeLineup:  match.Lineup{"h1", "h2", "h3", "h4"},
		AwayLineup:  match.Lineup{"a1", "a2", "a3", "a4"},
	})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
