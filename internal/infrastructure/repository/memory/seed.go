package memory

import (
	"context"
	"time"

	"github.com/cueclub/league-night/internal/domain/match"
)

// Stable demo identifiers so local captain clients can script against them.
const (
	DemoMatchID       = "demo-match-night"
	DemoHomeTeamID    = "cueclub-corner-pockets"
	DemoAwayTeamID    = "riverside-potters"
	DemoHomeCaptainID = "demo-home-captain"
	DemoAwayCaptainID = "demo-away-captain"
)

func DemoHomeRoster() []string {
	return []string{
		"gary-linton",
		"dave-marsh",
		"priya-nair",
		"tom-okafor",
		"steve-denton",
		"carl-hughes",
	}
}

func DemoAwayRoster() []string {
	return []string{
		"moira-clark",
		"ben-travers",
		"ken-ilyas",
		"rob-stanton",
		"lisa-moran",
		"pete-gillan",
	}
}

// Seeder provisions a ready-to-score demo match night against the memory
// store. Seeding twice returns the existing match untouched, so the dev
// endpoint is safe to hammer.
type Seeder struct {
	repo    *MatchRepository
	rosters *RosterProvider
	now     func() time.Time
}

func NewSeeder(repo *MatchRepository, rosters *RosterProvider) *Seeder {
	return &Seeder{repo: repo, rosters: rosters, now: time.Now}
}

func (s *Seeder) SeedDemoMatch(ctx context.Context) (*match.Match, error) {
	s.rosters.RegisterTeam(DemoHomeTeamID, DemoHomeRoster())
	s.rosters.RegisterTeam(DemoAwayTeamID, DemoAwayRoster())

	existing, found, err := s.repo.Get(ctx, DemoMatchID)
	if err != nil {
		return nil, err
	}
	if found {
		return existing, nil
	}

	home := DemoHomeRoster()
	away := DemoAwayRoster()
	now := s.now().UTC()
	m := &match.Match{
		ID:                DemoMatchID,
		HomeTeamID:        DemoHomeTeamID,
		AwayTeamID:        DemoAwayTeamID,
		HomeCaptainUserID: DemoHomeCaptainID,
		AwayCaptainUserID: DemoAwayCaptainID,
		Status:            match.StatusScheduled,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := m.Start(
		match.Lineup{home[0], home[1], home[2], home[3]},
		match.Lineup{away[0], away[1], away[2], away[3]},
		match.Participants{Home: home, Away: away},
	); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
