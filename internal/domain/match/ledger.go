package match

import "fmt"

// Start freezes the participant pools, seeds every round's planned lineup
// from the opening lineups and generates the frame schedule. Lineups[1] is
// never rewritten afterwards: it is the baseline a reset restores from.
func (m *Match) Start(home, away Lineup, participants Participants) error {
	if m.Status != StatusScheduled {
		return fmt.Errorf("%w: match already started", ErrInvalidTransition)
	}
	if !home.Valid() || !away.Valid() {
		return fmt.Errorf("%w: four distinct players required per side", ErrIncompleteInitialLineup)
	}
	for _, id := range home {
		if !participants.Contains(SideHome, id) {
			return fmt.Errorf("%w: %s is not a home participant", ErrIncompleteInitialLineup, id)
		}
	}
	for _, id := range away {
		if !participants.Contains(SideAway, id) {
			return fmt.Errorf("%w: %s is not an away participant", ErrIncompleteInitialLineup, id)
		}
	}

	m.Participants = participants
	m.Lineups = make(map[int]RoundLineups, RoundCount)
	for round := 1; round <= RoundCount; round++ {
		m.Lineups[round] = RoundLineups{Home: home, Away: away}
	}
	m.Frames = BuildFrames(home, away)
	m.RoundLocked = [RoundCount]bool{}
	m.HomeConfirmed = [RoundCount]bool{}
	m.AwayConfirmed = [RoundCount]bool{}
	m.CurrentRound = 1
	m.Status = StatusInProgress
	return nil
}

// ScoreFrame records the winner of one frame and derives its scores. The
// round lock is checked before the frame lookup so a locked round rejects
// even bad positions the same way.
func (m *Match) ScoreFrame(round, position int, winnerPlayerID string) error {
	if m.Status != StatusInProgress {
		return fmt.Errorf("%w: match is %s", ErrInvalidTransition, m.Status)
	}
	idx, err := RoundIndex(round)
	if err != nil {
		return err
	}
	if m.RoundLocked[idx] {
		return fmt.Errorf("%w: round %d", ErrRoundLocked, round)
	}
	f, err := m.FrameAt(round, position)
	if err != nil {
		return err
	}
	if winnerPlayerID != f.HomePlayerID && winnerPlayerID != f.AwayPlayerID {
		return fmt.Errorf("%w: %s", ErrWinnerNotInFrame, winnerPlayerID)
	}

	f.WinnerPlayerID = winnerPlayerID
	f.IsComplete = true
	if winnerPlayerID == f.HomePlayerID {
		f.HomeScore, f.AwayScore = 1, 0
	} else {
		f.HomeScore, f.AwayScore = 0, 1
	}
	return nil
}

// ClearFrame wipes a frame's result. It is both the single-frame correction
// and the primitive Reset uses for the whole match.
func (m *Match) ClearFrame(round, position int) error {
	if m.Status != StatusInProgress {
		return fmt.Errorf("%w: match is %s", ErrInvalidTransition, m.Status)
	}
	idx, err := RoundIndex(round)
	if err != nil {
		return err
	}
	if m.RoundLocked[idx] {
		return fmt.Errorf("%w: round %d", ErrRoundLocked, round)
	}
	f, err := m.FrameAt(round, position)
	if err != nil {
		return err
	}

	f.WinnerPlayerID = ""
	f.IsComplete = false
	f.HomeScore, f.AwayScore = 0, 0
	return nil
}

// LockRound marks a complete round's results final. Locking an already
// locked round is a no-op, not an error, so a retried request cannot corrupt
// state. Locking the last round completes the match. The returned bool
// reports whether this call changed anything.
func (m *Match) LockRound(roundIndex int) (bool, error) {
	round, err := RoundNumber(roundIndex)
	if err != nil {
		return false, err
	}
	if m.RoundLocked[roundIndex] {
		return false, nil
	}
	if m.Status != StatusInProgress {
		return false, fmt.Errorf("%w: match is %s", ErrInvalidTransition, m.Status)
	}
	if !m.IsRoundComplete(round) {
		return false, fmt.Errorf("%w: round %d is not complete", ErrInvalidTransition, round)
	}

	m.RoundLocked[roundIndex] = true
	if round == RoundCount {
		m.Status = StatusCompleted
	}
	return true, nil
}
