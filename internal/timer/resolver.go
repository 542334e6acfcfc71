package timer

import "focustimer/internal/model"

// LongBreakEvery is the number of completed focus phases per long break.
const LongBreakEvery = 4

// Resolve returns the countdown length in seconds for phase under cfg.
func Resolve(phase model.Phase, cfg model.TimerConfiguration) int {
	switch phase {
	case model.PhaseShortBreak:
		return cfg.ShortBreakMinutes * 60
	case model.PhaseLongBreak:
		return cfg.LongBreakMinutes * 60
	default:
		return cfg.FocusMinutes * 60
	}
}

// NextPhase applies the transition table to a completed phase. The focus
// counter is incremented before the long-break check.
func NextPhase(current model.Phase, focusCyclesCompleted int) (model.Phase, int) {
	if current != model.PhaseFocus {
		return model.PhaseFocus, focusCyclesCompleted
	}
	focusCyclesCompleted++
	if focusCyclesCompleted%LongBreakEvery == 0 {
		return model.PhaseLongBreak, focusCyclesCompleted
	}
	return model.PhaseShortBreak, focusCyclesCompleted
}
