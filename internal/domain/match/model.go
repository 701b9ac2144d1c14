package match

import (
	"fmt"
	"time"
)

const (
	RoundCount       = 4
	PositionsPerSide = 4
	FrameCount       = RoundCount * PositionsPerSide
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
	SideNone Side = ""
)

type RoundState string

const (
	RoundStateOpen     RoundState = "OPEN"
	RoundStateComplete RoundState = "COMPLETE"
	RoundStateLocked   RoundState = "LOCKED"
)

// Phase is the controller state of the match night. It is never stored: it
// is derived from the record so two captain clients reading the same record
// always agree on it.
type Phase string

const (
	PhaseSetup                 Phase = "SETUP"
	PhaseScoringRound          Phase = "SCORING_ROUND"
	PhaseRoundCompleted        Phase = "ROUND_COMPLETED"
	PhaseSubstitution          Phase = "SUBSTITUTION_PHASE"
	PhaseAwaitingConfirmations Phase = "AWAITING_CONFIRMATIONS"
	PhaseTransitioning         Phase = "TRANSITIONING_TO_NEXT_ROUND"
	PhaseMatchCompleted        Phase = "MATCH_COMPLETED"
	PhaseMatchCancelled        Phase = "MATCH_CANCELLED"
)

// Lineup maps the four fixed positions of one side to player ids. Index 0
// holds position 1 (slot A on the away side).
type Lineup [PositionsPerSide]string

// Valid reports whether the lineup names four distinct players.
func (l Lineup) Valid() bool {
	seen := make(map[string]struct{}, PositionsPerSide)
	for _, id := range l {
		if id == "" {
			return false
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

func (l Lineup) Contains(playerID string) bool {
	_, ok := l.PositionOf(playerID)
	return ok
}

// PositionOf returns the 1-based position the player occupies, if any.
func (l Lineup) PositionOf(playerID string) (int, bool) {
	if playerID == "" {
		return 0, false
	}
	for i, id := range l {
		if id == playerID {
			return i + 1, true
		}
	}
	return 0, false
}

// PlayerAt returns the player occupying the 1-based position.
func (l Lineup) PlayerAt(position int) (string, error) {
	idx, err := positionIndex(position)
	if err != nil {
		return "", err
	}
	return l[idx], nil
}

// RoundLineups is the pair of side lineups planned for one round.
type RoundLineups struct {
	Home Lineup
	Away Lineup
}

// Participants is the frozen per-side pool of players eligible for this
// match. It is fixed when the match starts and never changes afterwards.
type Participants struct {
	Home []string
	Away []string
}

func (p Participants) Side(side Side) []string {
	switch side {
	case SideHome:
		return p.Home
	case SideAway:
		return p.Away
	default:
		return nil
	}
}

func (p Participants) Contains(side Side, playerID string) bool {
	if playerID == "" {
		return false
	}
	for _, id := range p.Side(side) {
		if id == playerID {
			return true
		}
	}
	return false
}

// Match is the single authoritative record of one match night. Both captain
// clients read replicas of it and submit intents against it; no derived
// quantity is stored separately from the fields below.
type Match struct {
	ID         string
	HomeTeamID string
	AwayTeamID string

	// Captain assignment, fixed at creation. The home captain is the scoring
	// authority: only that side enters and locks results, the away side
	// reviews and confirms.
	HomeCaptainUserID string
	AwayCaptainUserID string

	Status Status

	// CurrentRound is the authoritative 1-based round number.
	CurrentRound int

	// RoundLocked, HomeConfirmed and AwayConfirmed are indexed by 0-based
	// round index. RoundIndex and RoundNumber are the only conversion points
	// between the two bases.
	RoundLocked   [RoundCount]bool
	HomeConfirmed [RoundCount]bool
	AwayConfirmed [RoundCount]bool

	// Lineups is keyed by 1-based round number. Lineups[1] is written once
	// when the match starts and is the reset baseline.
	Lineups map[int]RoundLineups

	Participants Participants

	Frames []Frame

	// Version is the optimistic concurrency token for conditional writes.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoundIndex converts a 1-based round number to the 0-based index used by
// the lock and confirmation arrays.
func RoundIndex(round int) (int, error) {
	if round < 1 || round > RoundCount {
		return 0, fmt.Errorf("%w: round %d", ErrRoundOutOfRange, round)
	}
	return round - 1, nil
}

// RoundNumber converts a 0-based round index back to the 1-based round
// number.
func RoundNumber(roundIndex int) (int, error) {
	if roundIndex < 0 || roundIndex >= RoundCount {
		return 0, fmt.Errorf("%w: round index %d", ErrRoundOutOfRange, roundIndex)
	}
	return roundIndex + 1, nil
}

func positionIndex(position int) (int, error) {
	if position < 1 || position > PositionsPerSide {
		return 0, fmt.Errorf("%w: position %d", ErrPositionOutOfRange, position)
	}
	return position - 1, nil
}

// SideOf maps a caller to the side they captain, or SideNone.
func (m *Match) SideOf(userID string) Side {
	switch {
	case userID == "":
		return SideNone
	case userID == m.HomeCaptainUserID:
		return SideHome
	case userID == m.AwayCaptainUserID:
		return SideAway
	default:
		return SideNone
	}
}

// Clone deep-copies the record so holders of the copy cannot reach the
// original's slices and maps.
func (m Match) Clone() Match {
	copied := m
	copied.Participants.Home = append([]string(nil), m.Participants.Home...)
	copied.Participants.Away = append([]string(nil), m.Participants.Away...)
	if m.Lineups != nil {
		copied.Lineups = make(map[int]RoundLineups, len(m.Lineups))
		for round, rl := range m.Lineups {
			copied.Lineups[round] = rl
		}
	}
	if m.Frames != nil {
		copied.Frames = make([]Frame, len(m.Frames))
		for i, f := range m.Frames {
			f.Substitutions = append([]SubstitutionRecord(nil), f.Substitutions...)
			copied.Frames[i] = f
		}
	}
	return copied
}

// FrameAt finds a frame by its immutable round/position identity. Lookup
// never goes through slice indices so reordering or substitutions cannot
// break it.
func (m *Match) FrameAt(round, position int) (*Frame, error) {
	for i := range m.Frames {
		f := &m.Frames[i]
		if f.Round == round && f.Position == position {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: round %d position %d", ErrFrameNotFound, round, position)
}

// IsRoundComplete reports whether all four frames of the 1-based round have
// a winner.
func (m *Match) IsRoundComplete(round int) bool {
	found := 0
	for i := range m.Frames {
		f := &m.Frames[i]
		if f.Round != round {
			continue
		}
		if f.WinnerPlayerID == "" {
			return false
		}
		found++
	}
	return found == PositionsPerSide
}

// FrameTotals sums won frames per side across the whole match.
func (m *Match) FrameTotals() (home, away int) {
	for i := range m.Frames {
		home += m.Frames[i].HomeScore
		away += m.Frames[i].AwayScore
	}
	return home, away
}

// RoundStateAt derives the lifecycle state of the 1-based round.
func (m *Match) RoundStateAt(round int) (RoundState, error) {
	idx, err := RoundIndex(round)
	if err != nil {
		return "", err
	}
	if m.RoundLocked[idx] {
		return RoundStateLocked, nil
	}
	if m.IsRoundComplete(round) {
		return RoundStateComplete, nil
	}
	return RoundStateOpen, nil
}

// Phase derives the controller state from the record. The order of checks
// mirrors the round lifecycle: scoring until the current round completes,
// locking, then the substitution and confirmation window.
func (m *Match) Phase() Phase {
	switch m.Status {
	case StatusScheduled:
		return PhaseSetup
	case StatusCompleted:
		return PhaseMatchCompleted
	case StatusCancelled:
		return PhaseMatchCancelled
	}

	idx, err := RoundIndex(m.CurrentRound)
	if err != nil {
		return PhaseSetup
	}
	if !m.IsRoundComplete(m.CurrentRound) {
		return PhaseScoringRound
	}
	if !m.RoundLocked[idx] {
		return PhaseRoundCompleted
	}
	if m.CurrentRound == RoundCount {
		return PhaseMatchCompleted
	}

	home, away := m.HomeConfirmed[idx], m.AwayConfirmed[idx]
	switch {
	case home && away:
		return PhaseTransitioning
	case home || away:
		return PhaseAwaitingConfirmations
	default:
		return PhaseSubstitution
	}
}
