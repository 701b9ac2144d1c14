package match

import (
	"errors"
	"testing"
)

func TestCheckSubstitution(t *testing.T) {
	base := SubstitutionCheck{
		Participants:   []string{"h1", "h2", "h3", "h4", "h5", "h6"},
		NextLineup:     Lineup{"h1", "h2", "h3", "h4"},
		PreviousLineup: Lineup{"h1", "h2", "h3", "h4"},
		Position:       2,
		CandidateID:    "h5",
		WaiveRecency:   true,
	}

	tests := []struct {
		name      string
		mutate    func(*SubstitutionCheck)
		targetErr error
	}{
		{
			name:      "fresh participant into round 2",
			mutate:    func(_ *SubstitutionCheck) {},
			targetErr: nil,
		},
		{
			name: "not a participant",
			mutate: func(c *SubstitutionCheck) {
				c.CandidateID = "stranger"
			},
			targetErr: ErrSubNotParticipant,
		},
		{
			name: "empty candidate",
			mutate: func(c *SubstitutionCheck) {
				c.CandidateID = "  "
			},
			targetErr: ErrSubNotParticipant,
		},
		{
			name: "double booked in the round being built",
			mutate: func(c *SubstitutionCheck) {
				c.CandidateID = "h3"
			},
			targetErr: ErrSubDoubleBooked,
		},
		{
			name: "same position again is allowed",
			mutate: func(c *SubstitutionCheck) {
				c.CandidateID = "h2"
			},
			targetErr: nil,
		},
		{
			name: "played the round just completed",
			mutate: func(c *SubstitutionCheck) {
				c.WaiveRecency = false
				c.NextLineup = Lineup{"h5", "h6", "h3", "h4"}
				c.CandidateID = "h2"
			},
			targetErr: ErrSubPlayedPreviousRound,
		},
		{
			name: "recency waived for round 2",
			mutate: func(c *SubstitutionCheck) {
				c.CandidateID = "h2"
				c.NextLineup = Lineup{"h5", "h6", "h3", "h4"}
			},
			targetErr: nil,
		},
		{
			name: "rested player after a later round",
			mutate: func(c *SubstitutionCheck) {
				c.WaiveRecency = false
				c.PreviousLineup = Lineup{"h1", "h6", "h3", "h4"}
			},
			targetErr: nil,
		},
		{
			name: "position out of range",
			mutate: func(c *SubstitutionCheck) {
				c.Position = 5
			},
			targetErr: ErrPositionOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := base
			tt.mutate(&check)

			err := CheckSubstitution(check)
			if tt.targetErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			if !errors.Is(err, tt.targetErr) {
				t.Fatalf("expected error %v, got %v", tt.targetErr, err)
			}
		})
	}
}

func TestSubReasonsWrapUmbrella(t *testing.T) {
	for _, err := range []error{ErrSubNotParticipant, ErrSubDoubleBooked, ErrSubPlayedPreviousRound} {
		if !errors.Is(err, ErrIneligibleSubstitution) {
			t.Fatalf("%v must wrap the ineligible substitution error", err)
		}
	}
}
