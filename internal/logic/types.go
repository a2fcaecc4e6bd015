// Package logic contains the pure control core of the impact sensor: the
// sampling scheduler, the impact decision engine and the fixed-width text
// the device emits on its serial link and display.
// This package has NO external dependencies (no GPIO, I2C, serial, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

const (
	// Threshold is the sample value an impact must strictly exceed (~70% of full scale).
	Threshold uint8 = 180

	// TickPeriod is the nominal sampling period of the timer interrupt.
	TickPeriod = 50 * time.Millisecond

	// TicksPerHeartbeat is the number of consumed ticks per heartbeat (~1 s).
	TicksPerHeartbeat = 20

	// MaxCount is the largest count that renders in three digits.
	// Increments saturate here.
	MaxCount uint16 = 999

	// BlankCount is what an erased two-byte store reads back as.
	BlankCount uint16 = 0xFFFF
)

// Mode selects how the engine turns samples into impacts.
type Mode string

const (
	// ModeLevel counts every tick spent above the threshold (legacy behaviour).
	ModeLevel Mode = "level"
	// ModeEdge counts one impact per excursion above the threshold.
	ModeEdge Mode = "edge"
)

// ParseMode validates a mode name. An empty name means ModeLevel.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLevel:
		return ModeLevel, nil
	case ModeEdge:
		return ModeEdge, nil
	}
	return "", fmt.Errorf("unknown detector mode %q (want %q or %q)", s, ModeLevel, ModeEdge)
}

// Directive is what the caller must do with the outputs after one evaluation.
type Directive struct {
	LED       bool // LED level for this tick
	Burst     bool // sound one buzzer burst
	Increment bool // increment and persist the impact count
}

// Command is a single-character instruction received on the serial link.
type Command int

const (
	CommandReport Command = iota + 1
	CommandReset
)

func (c Command) String() string {
	switch c {
	case CommandReport:
		return "REPORT"
	case CommandReset:
		return "RESET"
	}
	return "UNKNOWN"
}

// EventType represents a change of the impact count.
type EventType string

const (
	EventImpact EventType = "IMPACT"
	EventReset  EventType = "RESET"
)

// Event represents a count change to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Count     uint16
	Sample    uint8 // sample that caused the impact (zero for resets)
}
