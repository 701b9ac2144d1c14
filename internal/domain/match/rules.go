package match

import (
	"fmt"
	"strings"
)

// SubstitutionCheck carries everything needed to vet one substitution
// candidate against one position.
type SubstitutionCheck struct {
	// Participants is the frozen pool for the side making the change.
	Participants []string
	// NextLineup is the lineup being built for the target round.
	NextLineup Lineup
	// PreviousLineup is the lineup that played the round just completed.
	PreviousLineup Lineup
	Position       int
	CandidateID    string
	// WaiveRecency skips the sat-out-a-round rule. It is set only when the
	// target round is round 2.
	WaiveRecency bool
}

// CheckSubstitution applies the eligibility rules in order: the candidate
// must come from the frozen participant pool, must not already hold a
// different position in the round being built, and must have sat out the
// round just completed. Re-slotting a player into the position they already
// hold is allowed, so a retried request passes again.
func CheckSubstitution(check SubstitutionCheck) error {
	if _, err := positionIndex(check.Position); err != nil {
		return err
	}
	if strings.TrimSpace(check.CandidateID) == "" {
		return fmt.Errorf("%w: empty player id", ErrSubNotParticipant)
	}

	member := false
	for _, id := range check.Participants {
		if id == check.CandidateID {
			member = true
			break
		}
	}
	if !member {
		return fmt.Errorf("%w: %s", ErrSubNotParticipant, check.CandidateID)
	}

	if at, ok := check.NextLineup.PositionOf(check.CandidateID); ok && at != check.Position {
		return fmt.Errorf("%w: %s holds position %d", ErrSubDoubleBooked, check.CandidateID, at)
	}

	if check.WaiveRecency {
		return nil
	}
	if check.PreviousLineup.Contains(check.CandidateID) {
		return fmt.Errorf("%w: %s", ErrSubPlayedPreviousRound, check.CandidateID)
	}
	return nil
}
