package engine

import "fmt"

// State is the engine's position in a run.
//
// Transitions:
//
//	Idle → AwaitingTrialStart → RampingVolume → Recorded ─┐
//	                 ↑                      └──→ TimedOut ─┤
//	                 └──────────── advance ────────────────┤
//	                                                       └→ Complete
//
// Restart returns to Idle from any state.
type State int

const (
	Idle State = iota
	AwaitingTrialStart
	RampingVolume
	Recorded
	TimedOut
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingTrialStart:
		return "awaiting_trial_start"
	case RampingVolume:
		return "ramping_volume"
	case Recorded:
		return "recorded"
	case TimedOut:
		return "timed_out"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Running reports whether a run is in progress.
func (s State) Running() bool {
	return s != Idle && s != Complete
}
