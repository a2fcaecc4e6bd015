package gpio

import "sync"

// FakeOutputs is a test double that records output changes.
type FakeOutputs struct {
	mu sync.Mutex

	// LED and Buzzer hold the current levels.
	LED    bool
	Buzzer bool

	// LEDHistory contains every value passed to SetLED.
	LEDHistory []bool

	// BuzzerRises counts low-to-high buzzer edges.
	BuzzerRises int

	// SetError, if set, will be returned by SetLED and SetBuzzer.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutputs creates FakeOutputs with everything off.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{}
}

// SetLED records the LED level.
func (f *FakeOutputs) SetLED(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.LED = on
	f.LEDHistory = append(f.LEDHistory, on)
	return nil
}

// SetBuzzer records the buzzer level.
func (f *FakeOutputs) SetBuzzer(high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	if high && !f.Buzzer {
		f.BuzzerRises++
	}
	f.Buzzer = high
	return nil
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Bursts returns the number of complete bursts sounded.
func (f *FakeOutputs) Bursts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BuzzerRises / BurstCycles
}

// Reset clears recorded state.
func (f *FakeOutputs) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LED = false
	f.Buzzer = false
	f.LEDHistory = nil
	f.BuzzerRises = 0
	f.SetError = nil
	f.Closed = false
}
