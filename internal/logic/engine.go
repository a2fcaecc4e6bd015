package logic

// EngineState is the edge-mode arming state.
type EngineState string

const (
	StateIdle  EngineState = "IDLE"
	StateAbove EngineState = "ABOVE_THRESHOLD"
)

// Evaluate compares one sample against Threshold. Every above-threshold
// sample lights the LED, sounds a burst and increments the count.
func Evaluate(sample uint8) Directive {
	if sample > Threshold {
		return Directive{LED: true, Burst: true, Increment: true}
	}
	return Directive{}
}

// Engine applies Evaluate according to a Mode.
//
// In ModeLevel every tick above the threshold is an impact, so a sustained
// excursion counts once per tick. In ModeEdge only the IDLE -> ABOVE_THRESHOLD
// transition is an impact; the sample must fall back to the threshold or below
// before the engine re-arms. The LED tracks the live comparison in both modes.
type Engine struct {
	mode  Mode
	state EngineState
}

// NewEngine creates an engine in the IDLE state.
func NewEngine(mode Mode) *Engine {
	if mode == "" {
		mode = ModeLevel
	}
	return &Engine{mode: mode, state: StateIdle}
}

// Evaluate returns the directive for one sample and advances the state.
func (e *Engine) Evaluate(sample uint8) Directive {
	d := Evaluate(sample)
	if e.mode != ModeEdge {
		if d.LED {
			e.state = StateAbove
		} else {
			e.state = StateIdle
		}
		return d
	}

	if !d.LED {
		e.state = StateIdle
		return d
	}
	if e.state == StateAbove {
		// Still in the same excursion: LED only.
		return Directive{LED: true}
	}
	e.state = StateAbove
	return d
}

// Mode returns the configured mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// State returns the current arming state.
func (e *Engine) State() EngineState {
	return e.state
}

// NextCount returns the count after one impact. Counts saturate at MaxCount;
// ok is false when the count was already saturated and nothing changed.
func NextCount(count uint16) (next uint16, ok bool) {
	if count >= MaxCount {
		return count, false
	}
	return count + 1, true
}

// NormalizeLoaded maps a count read back from storage into range.
// An erased store reads as zero; anything else above MaxCount saturates.
func NormalizeLoaded(stored uint16) uint16 {
	switch {
	case stored == BlankCount:
		return 0
	case stored > MaxCount:
		return MaxCount
	}
	return stored
}
