// Package status provides a thread-safe status tracker for the impact-sensor daemon.
// The main loop writes it; HTTP handlers and MQTT lifecycle events read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/impact-sensor/internal/logic"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs         int64
	Threshold      uint8
	Mode           logic.Mode
	Serial         string
	Broker         string
	HTTPAddr       string
	HeartbeatEvery int // serial heartbeats per MQTT heartbeat
}

// Totals counts activity since the daemon started.
type Totals struct {
	Impacts    int
	Resets     int
	Heartbeats int
	Faults     int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Count         uint16
	Sample        uint8
	LED           bool
	Sampled       bool // at least one sample has been taken
	Fault         string
	Totals        Totals
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the latest sample, LED level and count.
// Called from the main loop on every consumed tick.
func (t *Tracker) Update(sample uint8, led bool, count uint16) {
	t.mu.Lock()
	t.snap.Sample = sample
	t.snap.LED = led
	t.snap.Count = count
	t.snap.Sampled = true
	t.mu.Unlock()
}

// SetCount records a count change that did not come with a sample.
func (t *Tracker) SetCount(count uint16) {
	t.mu.Lock()
	t.snap.Count = count
	t.mu.Unlock()
}

// RecordImpact counts one impact and stores the new count.
func (t *Tracker) RecordImpact(count uint16) {
	t.mu.Lock()
	t.snap.Totals.Impacts++
	t.snap.Count = count
	t.mu.Unlock()
}

// RecordReset counts one reset and zeroes the count.
func (t *Tracker) RecordReset() {
	t.mu.Lock()
	t.snap.Totals.Resets++
	t.snap.Count = 0
	t.mu.Unlock()
}

// RecordHeartbeat counts one serial heartbeat and returns the new total.
func (t *Tracker) RecordHeartbeat() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Totals.Heartbeats++
	return t.snap.Totals.Heartbeats
}

// SetFault records the current store fault; an empty string clears it.
func (t *Tracker) SetFault(fault string) {
	t.mu.Lock()
	if fault != "" && t.snap.Fault == "" {
		t.snap.Totals.Faults++
	}
	t.snap.Fault = fault
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
