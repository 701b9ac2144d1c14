package match

import (
	"fmt"
	"time"
)

// Frame is one game between a fixed home position and a fixed away slot.
// Round, Position, AwaySlot and HomeBreaks are identity fields: set when the
// frame is generated and never touched again, regardless of substitutions.
type Frame struct {
	Round      int
	Position   int
	AwaySlot   string
	HomeBreaks bool

	HomePlayerID   string
	AwayPlayerID   string
	WinnerPlayerID string
	IsComplete     bool
	HomeScore      int
	AwayScore      int

	Substitutions []SubstitutionRecord
}

// SubstitutionRecord is one audit entry for a player swap on a frame.
type SubstitutionRecord struct {
	At          time.Time
	Side        Side
	Position    int
	OutPlayerID string
	InPlayerID  string
	ActorUserID string
}

const awaySlotLetters = "ABCD"

// AwaySlotFor returns the away slot letter facing the given 1-based home
// position in the given round. Round 1 is the identity pairing (1 v A up to
// 4 v D); every later round rotates the away side forward by one slot. Home
// positions never rotate.
func AwaySlotFor(round, position int) (string, error) {
	if _, err := RoundIndex(round); err != nil {
		return "", err
	}
	posIdx, err := positionIndex(position)
	if err != nil {
		return "", err
	}
	return string(awaySlotLetters[awaySlotIndex(round, posIdx)]), nil
}

// awaySlotIndex implements the rotation rule: for round r and 0-based home
// position p, the opposing away slot index is (p + r - 1) mod 4.
func awaySlotIndex(round, posIdx int) int {
	return (posIdx + round - 1) % PositionsPerSide
}

// HomeBreaksFirst reports whether the home player breaks in the given frame.
// The break alternates over the absolute frame sequence of the whole match:
// home breaks the even-numbered frames counting from zero.
func HomeBreaksFirst(round, position int) (bool, error) {
	if _, err := RoundIndex(round); err != nil {
		return false, err
	}
	posIdx, err := positionIndex(position)
	if err != nil {
		return false, err
	}
	return absoluteFrame(round, posIdx)%2 == 0, nil
}

func absoluteFrame(round, posIdx int) int {
	return (round-1)*PositionsPerSide + posIdx
}

// SlotForPosition maps a 1-based away position to its slot letter.
func SlotForPosition(position int) (string, error) {
	idx, err := positionIndex(position)
	if err != nil {
		return "", err
	}
	return string(awaySlotLetters[idx]), nil
}

// PositionForSlot maps an away slot letter back to its 1-based position.
func PositionForSlot(slot string) (int, error) {
	if len(slot) != 1 {
		return 0, fmt.Errorf("%w: slot %q", ErrPositionOutOfRange, slot)
	}
	idx := int(slot[0] - 'A')
	if idx < 0 || idx >= PositionsPerSide {
		return 0, fmt.Errorf("%w: slot %q", ErrPositionOutOfRange, slot)
	}
	return idx + 1, nil
}

// BuildFrames generates the sixteen frame skeletons for a match from the two
// opening lineups. The away player of a frame is whoever occupies the slot
// the rotation pairs with the frame's home position.
func BuildFrames(home, away Lineup) []Frame {
	frames := make([]Frame, 0, FrameCount)
	for round := 1; round <= RoundCount; round++ {
		for posIdx := 0; posIdx < PositionsPerSide; posIdx++ {
			slotIdx := awaySlotIndex(round, posIdx)
			frames = append(frames, Frame{
				Round:        round,
				Position:     posIdx + 1,
				AwaySlot:     string(awaySlotLetters[slotIdx]),
				HomeBreaks:   absoluteFrame(round, posIdx)%2 == 0,
				HomePlayerID: home[posIdx],
				AwayPlayerID: away[slotIdx],
			})
		}
	}
	return frames
}
