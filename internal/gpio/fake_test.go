package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestFakeOutputsRecordsLED(t *testing.T) {
	f := NewFakeOutputs()

	for _, v := range []bool{true, false, true} {
		if err := f.SetLED(v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if !f.LED {
		t.Error("LED should be on")
	}
	if len(f.LEDHistory) != 3 {
		t.Errorf("expected 3 LED changes, got %d", len(f.LEDHistory))
	}
}

func TestFakeOutputsError(t *testing.T) {
	f := NewFakeOutputs()
	f.SetError = errors.New("simulated error")

	if err := f.SetLED(true); err == nil {
		t.Error("expected error to be returned")
	}
	if err := f.SetBuzzer(true); err == nil {
		t.Error("expected error to be returned")
	}
}

func TestFakeOutputsCloseAndReset(t *testing.T) {
	f := NewFakeOutputs()
	f.SetLED(true)
	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed || f.LED || len(f.LEDHistory) != 0 {
		t.Errorf("reset did not clear state: %+v", f)
	}
}

func TestBurstWaveform(t *testing.T) {
	f := NewFakeOutputs()
	var total time.Duration
	sleeps := 0

	if err := Burst(f, func(d time.Duration) { total += d; sleeps++ }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.BuzzerRises != BurstCycles {
		t.Errorf("rising edges: got %d, want %d", f.BuzzerRises, BurstCycles)
	}
	if f.Bursts() != 1 {
		t.Errorf("bursts: got %d, want 1", f.Bursts())
	}
	if f.Buzzer {
		t.Error("buzzer must end low")
	}
	if total != 250*time.Millisecond {
		t.Errorf("burst duration: got %v, want 250ms", total)
	}
	if sleeps != 2*BurstCycles {
		t.Errorf("half periods: got %d, want %d", sleeps, 2*BurstCycles)
	}
}

func TestBurstStopsOnError(t *testing.T) {
	f := NewFakeOutputs()
	f.SetError = errors.New("line gone")
	sleeps := 0

	if err := Burst(f, func(time.Duration) { sleeps++ }); err == nil {
		t.Fatal("expected error")
	}
	if sleeps != 0 {
		t.Errorf("burst should stop before sleeping, slept %d times", sleeps)
	}
}
