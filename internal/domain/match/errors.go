package match

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("match not found")
	ErrNotAuthority            = errors.New("caller is not the scoring authority")
	ErrRoundLocked             = errors.New("round is locked")
	ErrFrameNotFound           = errors.New("frame not found")
	ErrIneligibleSubstitution  = errors.New("substitution not allowed")
	ErrIncompleteInitialLineup = errors.New("initial lineup is incomplete")
	ErrInvalidTransition       = errors.New("operation not valid in the current match phase")
	ErrRoundOutOfRange         = errors.New("round out of range")
	ErrPositionOutOfRange      = errors.New("position out of range")
	ErrWinnerNotInFrame        = errors.New("winner is not a player in this frame")
)

// ErrStateConflict reports that the stored record moved on since it was read.
// The caller's view is stale, not wrong: re-read and retry.
var ErrStateConflict = errors.New("match record changed since read")

// Ineligibility reasons, all matchable against ErrIneligibleSubstitution.
var (
	ErrSubNotParticipant      = fmt.Errorf("%w: player is not a match participant", ErrIneligibleSubstitution)
	ErrSubDoubleBooked        = fmt.Errorf("%w: player already holds another position in that round", ErrIneligibleSubstitution)
	ErrSubPlayedPreviousRound = fmt.Errorf("%w: player appeared in the round just completed", ErrIneligibleSubstitution)
)
