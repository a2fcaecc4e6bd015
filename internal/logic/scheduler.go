package logic

import "sync/atomic"

// Scheduler hands timer ticks from the interrupt context to the main loop.
//
// Tick may be called from any goroutine. PollAndConsume and Phase belong to
// the main loop. A tick that arrives while the previous one is still pending
// is coalesced into it.
type Scheduler struct {
	due   atomic.Bool
	ticks uint8
}

// NewScheduler returns a scheduler with no tick pending and phase 0.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Tick marks a sample as due. It performs no I/O and never blocks.
func (s *Scheduler) Tick() {
	s.due.Store(true)
}

// Pending reports whether a tick is waiting to be consumed.
func (s *Scheduler) Pending() bool {
	return s.due.Load()
}

// PollAndConsume clears a pending tick and advances the tick phase.
// heartbeat is true on every TicksPerHeartbeat-th consumed tick, after which
// the phase is back at zero.
func (s *Scheduler) PollAndConsume() (due, heartbeat bool) {
	if !s.due.CompareAndSwap(true, false) {
		return false, false
	}
	s.ticks++
	if s.ticks >= TicksPerHeartbeat {
		s.ticks = 0
		return true, true
	}
	return true, false
}

// Phase returns the number of ticks consumed since the last heartbeat.
func (s *Scheduler) Phase() uint8 {
	return s.ticks
}
