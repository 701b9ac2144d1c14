package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cueclub/league-night/internal/domain/roster"
)

// RosterProvider serves match sheets from registered team rosters. It
// stands in for the league hub when the service runs without one.
type RosterProvider struct {
	mu    sync.RWMutex
	teams map[string][]string
}

func NewRosterProvider() *RosterProvider {
	return &RosterProvider{teams: make(map[string][]string)}
}

func (p *RosterProvider) RegisterTeam(teamID string, playerIDs []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teams[teamID] = append([]string(nil), playerIDs...)
}

func (p *RosterProvider) MatchSheet(_ context.Context, homeTeamID, awayTeamID string) (roster.Sheet, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	home, ok := p.teams[homeTeamID]
	if !ok {
		return roster.Sheet{}, fmt.Errorf("no roster registered for team %s", homeTeamID)
	}
	away, ok := p.teams[awayTeamID]
	if !ok {
		return roster.Sheet{}, fmt.Errorf("no roster registered for team %s", awayTeamID)
	}

	return roster.Sheet{
		Home: append([]string(nil), home...),
		Away: append([]string(nil), away...),
	}, nil
}
