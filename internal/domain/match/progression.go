package match

import (
	"fmt"
	"time"
)

// substitutionWindow checks that the given 0-based round index names the
// round just completed: it must be the current round, locked, and not the
// last round of the match.
func (m *Match) substitutionWindow(roundIndex int) error {
	round, err := RoundNumber(roundIndex)
	if err != nil {
		return err
	}
	if m.Status != StatusInProgress {
		return fmt.Errorf("%w: match is %s", ErrInvalidTransition, m.Status)
	}
	if round >= RoundCount {
		return fmt.Errorf("%w: no round follows round %d", ErrInvalidTransition, round)
	}
	if m.CurrentRound != round {
		return fmt.Errorf("%w: round %d is not the round just completed", ErrInvalidTransition, round)
	}
	if !m.RoundLocked[roundIndex] {
		return fmt.Errorf("%w: round %d is not locked", ErrInvalidTransition, round)
	}
	return nil
}

// CanSubstitute vets a candidate for a position in the round after the one
// just completed. The recency rule is waived when the completed round is
// round 1: everyone from the participant pool may play round 2.
func (m *Match) CanSubstitute(side Side, position int, candidateID string, roundIndexJustCompleted int) error {
	if err := m.substitutionWindow(roundIndexJustCompleted); err != nil {
		return err
	}
	completedRound, err := RoundNumber(roundIndexJustCompleted)
	if err != nil {
		return err
	}

	next := m.Lineups[completedRound+1]
	previous := m.Lineups[completedRound]
	return CheckSubstitution(SubstitutionCheck{
		Participants:   m.Participants.Side(side),
		NextLineup:     sideLineup(next, side),
		PreviousLineup: sideLineup(previous, side),
		Position:       position,
		CandidateID:    candidateID,
		WaiveRecency:   roundIndexJustCompleted == 0,
	})
}

// ApplySubstitution swaps the player at a position for the round being
// built. The assignment seeds forward into every later round's planned
// lineup until a further substitution overrides it, and writes through onto
// the target round's not-yet-complete frames. Completed frames keep their
// historical players forever.
func (m *Match) ApplySubstitution(side Side, position int, candidateID string, roundIndexJustCompleted int, actorUserID string, now time.Time) error {
	if err := m.CanSubstitute(side, position, candidateID, roundIndexJustCompleted); err != nil {
		return err
	}
	if m.confirmedFor(side, roundIndexJustCompleted) {
		return fmt.Errorf("%w: lineup already confirmed, edit first", ErrInvalidTransition)
	}
	posIdx, err := positionIndex(position)
	if err != nil {
		return err
	}
	completedRound, err := RoundNumber(roundIndexJustCompleted)
	if err != nil {
		return err
	}
	targetRound := completedRound + 1

	for round := targetRound; round <= RoundCount; round++ {
		rl := m.Lineups[round]
		switch side {
		case SideHome:
			rl.Home[posIdx] = candidateID
		case SideAway:
			rl.Away[posIdx] = candidateID
		}
		m.Lineups[round] = rl
	}

	slot := string(awaySlotLetters[posIdx])
	for i := range m.Frames {
		f := &m.Frames[i]
		if f.Round != targetRound || f.IsComplete {
			continue
		}
		var out string
		switch {
		case side == SideHome && f.Position == position:
			out, f.HomePlayerID = f.HomePlayerID, candidateID
		case side == SideAway && f.AwaySlot == slot:
			out, f.AwayPlayerID = f.AwayPlayerID, candidateID
		default:
			continue
		}
		if out == candidateID {
			continue
		}
		f.Substitutions = append(f.Substitutions, SubstitutionRecord{
			At:          now,
			Side:        side,
			Position:    position,
			OutPlayerID: out,
			InPlayerID:  candidateID,
			ActorUserID: actorUserID,
		})
	}
	return nil
}

// ConfirmRound records one side's agreement to the lineup built for the next
// round. Confirming twice is harmless.
func (m *Match) ConfirmRound(side Side, roundIndex int) error {
	if err := m.substitutionWindow(roundIndex); err != nil {
		return err
	}
	return m.setConfirmed(side, roundIndex, true)
}

// EditRound withdraws a side's confirmation, reopening substitution.
func (m *Match) EditRound(side Side, roundIndex int) error {
	if err := m.substitutionWindow(roundIndex); err != nil {
		return err
	}
	return m.setConfirmed(side, roundIndex, false)
}

func (m *Match) setConfirmed(side Side, roundIndex int, confirmed bool) error {
	switch side {
	case SideHome:
		m.HomeConfirmed[roundIndex] = confirmed
	case SideAway:
		m.AwayConfirmed[roundIndex] = confirmed
	default:
		return fmt.Errorf("%w: caller represents neither side", ErrNotAuthority)
	}
	return nil
}

func (m *Match) confirmedFor(side Side, roundIndex int) bool {
	switch side {
	case SideHome:
		return m.HomeConfirmed[roundIndex]
	case SideAway:
		return m.AwayConfirmed[roundIndex]
	default:
		return false
	}
}

// ConfirmedBy reports whether a side has confirmed the lineup for the round
// after roundIndex. Out-of-range indexes read as unconfirmed.
func (m *Match) ConfirmedBy(side Side, roundIndex int) bool {
	if roundIndex < 0 || roundIndex >= RoundCount {
		return false
	}
	return m.confirmedFor(side, roundIndex)
}

// AdvanceRound moves play to the round after the one at roundIndex once both
// sides have confirmed. Stamping the finalized lineup onto the incoming
// round's frames, incrementing the round and clearing the transient
// confirmation flags commit as one record write. A caller that observes the
// post-advance record no-ops, which is what makes racing confirmations safe.
func (m *Match) AdvanceRound(roundIndex int) (bool, error) {
	round, err := RoundNumber(roundIndex)
	if err != nil {
		return false, err
	}
	if m.Status != StatusInProgress {
		return false, fmt.Errorf("%w: match is %s", ErrInvalidTransition, m.Status)
	}
	if m.CurrentRound != round {
		// Already advanced past this index.
		return false, nil
	}
	if round >= RoundCount {
		return false, fmt.Errorf("%w: no round follows round %d", ErrInvalidTransition, round)
	}
	if !m.RoundLocked[roundIndex] {
		return false, fmt.Errorf("%w: round %d is not locked", ErrInvalidTransition, round)
	}
	if !m.HomeConfirmed[roundIndex] || !m.AwayConfirmed[roundIndex] {
		return false, fmt.Errorf("%w: both sides must confirm round %d", ErrInvalidTransition, round)
	}

	next := round + 1
	final := m.Lineups[next]
	for i := range m.Frames {
		f := &m.Frames[i]
		if f.Round != next || f.IsComplete {
			continue
		}
		posIdx, err := positionIndex(f.Position)
		if err != nil {
			return false, err
		}
		slotPos, err := PositionForSlot(f.AwaySlot)
		if err != nil {
			return false, err
		}
		f.HomePlayerID = final.Home[posIdx]
		f.AwayPlayerID = final.Away[slotPos-1]
	}
	m.Lineups[next] = final
	m.CurrentRound = next
	m.HomeConfirmed[roundIndex] = false
	m.AwayConfirmed[roundIndex] = false
	return true, nil
}

// Reset returns the match to a fresh first round. The opening lineups are
// the baseline: every round's planned lineup and every frame is rebuilt from
// Lineups[1], and all locks, confirmations and results are wiped.
func (m *Match) Reset() error {
	if m.Status == StatusScheduled {
		return fmt.Errorf("%w: match has not started", ErrInvalidTransition)
	}
	base, ok := m.Lineups[1]
	if !ok || !base.Home.Valid() || !base.Away.Valid() {
		return fmt.Errorf("%w: four distinct players required per side", ErrIncompleteInitialLineup)
	}

	for round := 1; round <= RoundCount; round++ {
		m.Lineups[round] = base
	}
	m.Frames = BuildFrames(base.Home, base.Away)
	m.RoundLocked = [RoundCount]bool{}
	m.HomeConfirmed = [RoundCount]bool{}
	m.AwayConfirmed = [RoundCount]bool{}
	m.CurrentRound = 1
	m.Status = StatusInProgress
	return nil
}

func sideLineup(rl RoundLineups, side Side) Lineup {
	if side == SideAway {
		return rl.Away
	}
	return rl.Home
}
