package roster

import "context"

// Sheet is the per-side list of players registered for one match night. The
// engine freezes it into the match record at start time; substitutions may
// only draw from the frozen copy.
type Sheet struct {
	Home []string
	Away []string
}

func (s Sheet) Empty() bool {
	return len(s.Home) == 0 && len(s.Away) == 0
}

// Officials names the two captains running a match night.
type Officials struct {
	HomeCaptainUserID string
	AwayCaptainUserID string
}

// Provider supplies the registered players for a pairing of teams. The
// match engine calls it once, when a match starts.
type Provider interface {
	MatchSheet(ctx context.Context, homeTeamID, awayTeamID string) (Sheet, error)
}
