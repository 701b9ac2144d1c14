package authority

import (
	"context"

	"github.com/cueclub/league-night/internal/domain/match"
)

// RecordResolver answers authority questions from the captains stored on
// the match record itself. Deployments fronted by the league hub can swap
// in a resolver that consults team administration instead.
type RecordResolver struct{}

func NewRecordResolver() *RecordResolver {
	return &RecordResolver{}
}

func (RecordResolver) SideFor(_ context.Context, m *match.Match, userID string) (match.Side, error) {
	return m.SideOf(userID), nil
}
