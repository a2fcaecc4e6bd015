package monitor

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/impact-sensor/internal/adc"
	"github.com/sweeney/impact-sensor/internal/counter"
	"github.com/sweeney/impact-sensor/internal/display"
	"github.com/sweeney/impact-sensor/internal/eeprom"
	"github.com/sweeney/impact-sensor/internal/gpio"
	"github.com/sweeney/impact-sensor/internal/logic"
	"github.com/sweeney/impact-sensor/internal/serial"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu         sync.Mutex
	samples    []uint8
	impacts    []logic.Event
	resets     []logic.Event
	heartbeats []uint16
	faults     []error
}

func (r *recorder) Sampled(sample uint8, led bool, count uint16) {
	r.mu.Lock()
	r.samples = append(r.samples, sample)
	r.mu.Unlock()
}

func (r *recorder) Impact(e logic.Event) {
	r.mu.Lock()
	r.impacts = append(r.impacts, e)
	r.mu.Unlock()
}

func (r *recorder) Reset(e logic.Event) {
	r.mu.Lock()
	r.resets = append(r.resets, e)
	r.mu.Unlock()
}

func (r *recorder) Heartbeat(count uint16) {
	r.mu.Lock()
	r.heartbeats = append(r.heartbeats, count)
	r.mu.Unlock()
}

func (r *recorder) Fault(err error) {
	r.mu.Lock()
	r.faults = append(r.faults, err)
	r.mu.Unlock()
}

type rig struct {
	sampler *adc.FakeSampler
	outputs *gpio.FakeOutputs
	lcd     *display.Fake
	port    *serial.FakePort
	bytes   *eeprom.FakeStore
	obs     *recorder
	mon     *Monitor
}

func newRig(t *testing.T, mode logic.Mode, samples ...uint8) *rig {
	t.Helper()
	r := &rig{
		sampler: adc.NewFakeSampler(samples...),
		outputs: gpio.NewFakeOutputs(),
		lcd:     display.NewFake(),
		port:    serial.NewFakePort(),
		bytes:   eeprom.NewFakeStore(),
		obs:     &recorder{},
	}
	store, err := counter.New(r.bytes, counter.Config{Retries: counter.DefaultRetries}, func(time.Duration) {})
	if err != nil {
		t.Fatalf("counter.New: %v", err)
	}
	r.mon = New(Devices{
		Sampler: r.sampler,
		Outputs: r.outputs,
		Display: r.lcd,
		Port:    r.port,
		Store:   store,
	}, Config{
		Mode:     mode,
		Banner:   "KS+JN",
		Observer: r.obs,
		Now:      func() time.Time { return testNow },
		Sleep:    func(time.Duration) {},
	})
	return r
}

func (r *rig) setStored(count uint16) {
	r.bytes.Set(0, 0, byte(count>>8))
	r.bytes.Set(0, 1, byte(count))
}

func (r *rig) stored() uint16 {
	return uint16(r.bytes.Get(0, 0))<<8 | uint16(r.bytes.Get(0, 1))
}

// ticks runs n tick + step cycles.
func (r *rig) ticks(n int) {
	for i := 0; i < n; i++ {
		r.mon.Tick()
		r.mon.Step()
	}
}

func countWrites(writes []string, s string) int {
	n := 0
	for _, w := range writes {
		if w == s {
			n++
		}
	}
	return n
}

func TestStartShowsStartupScreen(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 0)
	r.mon.Start()

	if got := r.lcd.Row(1); got != "impact sensor" {
		t.Errorf("row 1: got %q, want %q", got, "impact sensor")
	}
	if got := r.lcd.Row(2); got != "KS+JN" {
		t.Errorf("row 2: got %q, want %q", got, "KS+JN")
	}
	if r.outputs.LED {
		t.Error("LED should be off after start")
	}
}

func TestStartLoadsCount(t *testing.T) {
	tests := []struct {
		name   string
		erased bool
		stored uint16
		want   uint16
	}{
		{"erased store", true, 0, 0},
		{"zero", false, 0, 0},
		{"in range", false, 42, 42},
		{"max", false, 999, 999},
		{"above max", false, 1500, 999},
		{"all ones", false, 0xFFFF, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, logic.ModeLevel, 0)
			if !tt.erased {
				r.setStored(tt.stored)
			}
			r.mon.Start()
			if got := r.mon.Count(); got != tt.want {
				t.Errorf("Count: got %d, want %d", got, tt.want)
			}
			if r.mon.Fault() != nil {
				t.Errorf("unexpected fault: %v", r.mon.Fault())
			}
		})
	}
}

func TestStartLoadFailureEntersFault(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 0)
	r.bytes.ReadError = errors.New("bus stuck")
	r.mon.Start()

	if r.mon.Count() != 0 {
		t.Errorf("Count: got %d, want 0", r.mon.Count())
	}
	if r.mon.Fault() == nil {
		t.Fatal("expected fault after load failure")
	}
	if len(r.obs.faults) != 0 {
		t.Errorf("observer told before first step: %v", r.obs.faults)
	}

	r.mon.Step()
	r.mon.Step()
	if len(r.obs.faults) != 1 || r.obs.faults[0] == nil {
		t.Errorf("observer faults after step: %v", r.obs.faults)
	}
}

func TestImpactScenarioLevel(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 50, 200, 200, 50)
	r.mon.Start()

	r.ticks(4)

	if got := r.mon.Count(); got != 2 {
		t.Errorf("Count: got %d, want 2", got)
	}
	if r.outputs.LED {
		t.Error("LED should end OFF")
	}
	if got := r.outputs.Bursts(); got != 2 {
		t.Errorf("Bursts: got %d, want 2", got)
	}
	if got := countWrites(r.port.Writes, logic.ImpactMessage); got != 2 {
		t.Errorf("impact messages: got %d, want 2", got)
	}
	if got := r.stored(); got != 2 {
		t.Errorf("stored count: got %d, want 2", got)
	}
	if got := r.lcd.Row(1); got != "Count= 002" {
		t.Errorf("row 1: got %q, want %q", got, "Count= 002")
	}
	if got := r.lcd.Row(2); got != "Impact =050" {
		t.Errorf("row 2: got %q, want %q", got, "Impact =050")
	}

	r.port.Feed("c")
	r.mon.Step()
	last := r.port.Writes[len(r.port.Writes)-1]
	if !strings.Contains(last, "Impact Count = 002") {
		t.Errorf("report: got %q", last)
	}
}

func TestImpactLEDTracksSample(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 50, 200, 181, 180, 0)
	r.mon.Start()
	r.ticks(5)

	// First entry is the start-up LED off.
	want := []bool{false, false, true, true, false, false}
	if len(r.outputs.LEDHistory) != len(want) {
		t.Fatalf("LEDHistory: got %v, want %v", r.outputs.LEDHistory, want)
	}
	for i := range want {
		if r.outputs.LEDHistory[i] != want[i] {
			t.Errorf("LEDHistory[%d]: got %v, want %v", i, r.outputs.LEDHistory[i], want[i])
		}
	}
}

func TestThresholdBoundary(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 180)
	r.mon.Start()
	r.ticks(3)

	if r.mon.Count() != 0 {
		t.Errorf("Count at threshold: got %d, want 0", r.mon.Count())
	}
	if r.outputs.Bursts() != 0 {
		t.Errorf("Bursts at threshold: got %d, want 0", r.outputs.Bursts())
	}
}

func TestImpactScenarioEdge(t *testing.T) {
	r := newRig(t, logic.ModeEdge, 50, 200, 200, 50, 200)
	r.mon.Start()
	r.ticks(5)

	if got := r.mon.Count(); got != 2 {
		t.Errorf("Count: got %d, want 2", got)
	}
	if got := r.outputs.Bursts(); got != 2 {
		t.Errorf("Bursts: got %d, want 2", got)
	}
	if !r.outputs.LED {
		t.Error("LED should be on while above threshold")
	}
	if len(r.obs.impacts) != 2 {
		t.Errorf("observer impacts: got %d, want 2", len(r.obs.impacts))
	}
}

func TestImpactNotifiesObserver(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 220)
	r.mon.Start()
	r.ticks(1)

	if len(r.obs.impacts) != 1 {
		t.Fatalf("impacts: got %d, want 1", len(r.obs.impacts))
	}
	e := r.obs.impacts[0]
	if e.Type != logic.EventImpact || e.Count != 1 || e.Sample != 220 || !e.Timestamp.Equal(testNow) {
		t.Errorf("impact event: %+v", e)
	}
	if len(r.obs.samples) != 1 || r.obs.samples[0] != 220 {
		t.Errorf("samples: %v", r.obs.samples)
	}
}

func TestSaturatedCountIsNotPersisted(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 255)
	r.setStored(999)
	r.mon.Start()

	r.ticks(3)

	if got := r.mon.Count(); got != 999 {
		t.Errorf("Count: got %d, want 999", got)
	}
	if r.bytes.Writes != 0 {
		t.Errorf("store writes: got %d, want 0", r.bytes.Writes)
	}
	if got := r.lcd.Row(1); got != "Count= 999" {
		t.Errorf("row 1: got %q", got)
	}
	if len(r.obs.impacts) != 3 || r.obs.impacts[2].Count != 999 {
		t.Errorf("observer impacts: %+v", r.obs.impacts)
	}
}

func TestHeartbeatEveryTwentyTicks(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 10)
	r.mon.Start()

	r.ticks(19)
	if got := countWrites(r.port.Writes, logic.HeartbeatMessage); got != 0 {
		t.Fatalf("heartbeats after 19 ticks: got %d, want 0", got)
	}
	r.ticks(1)
	if got := countWrites(r.port.Writes, logic.HeartbeatMessage); got != 1 {
		t.Fatalf("heartbeats after 20 ticks: got %d, want 1", got)
	}
	r.ticks(40)
	if got := countWrites(r.port.Writes, logic.HeartbeatMessage); got != 3 {
		t.Errorf("heartbeats after 60 ticks: got %d, want 3", got)
	}
	if len(r.obs.heartbeats) != 3 {
		t.Errorf("observer heartbeats: got %d, want 3", len(r.obs.heartbeats))
	}
}

func TestStepWithoutTickDoesNotSample(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 200)
	r.mon.Start()

	r.mon.Step()
	r.mon.Step()

	if r.sampler.Calls != 0 {
		t.Errorf("sampler calls: got %d, want 0", r.sampler.Calls)
	}
}

func TestTicksCoalesce(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 200)
	r.mon.Start()

	r.mon.Tick()
	r.mon.Tick()
	r.mon.Tick()
	if !r.mon.Pending() {
		t.Fatal("expected pending tick")
	}
	r.mon.Step()
	r.mon.Step()

	if r.sampler.Calls != 1 {
		t.Errorf("sampler calls: got %d, want 1", r.sampler.Calls)
	}
	if r.mon.Count() != 1 {
		t.Errorf("Count: got %d, want 1", r.mon.Count())
	}
}

func TestSampleErrorSkipsTick(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 200)
	r.mon.Start()
	r.sampler.SetError(adc.ErrTimeout)

	r.ticks(20)

	if r.mon.Count() != 0 {
		t.Errorf("Count: got %d, want 0", r.mon.Count())
	}
	if len(r.obs.samples) != 0 {
		t.Errorf("observer samples: got %d, want 0", len(r.obs.samples))
	}
	// Heartbeat cadence is unaffected.
	if got := countWrites(r.port.Writes, logic.HeartbeatMessage); got != 1 {
		t.Errorf("heartbeats: got %d, want 1", got)
	}
}

func TestCommandSequenceReportResetReport(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 0)
	r.setStored(5)
	r.mon.Start()

	r.port.Feed("crc")
	r.mon.Step()
	r.mon.Step()
	r.mon.Step()

	want := []string{
		"\r\nImpact Count = 005\r\n",
		"\r\nImpact counter RESET\r\n",
		"\r\nImpact Count = 000\r\n",
	}
	if len(r.port.Writes) != len(want) {
		t.Fatalf("writes: got %q, want %q", r.port.Writes, want)
	}
	for i := range want {
		if r.port.Writes[i] != want[i] {
			t.Errorf("write %d: got %q, want %q", i, r.port.Writes[i], want[i])
		}
	}
	if r.mon.Count() != 0 {
		t.Errorf("Count: got %d, want 0", r.mon.Count())
	}
	if r.stored() != 0 {
		t.Errorf("stored: got %d, want 0", r.stored())
	}
	if got := r.lcd.Row(1); got != "Count= 000" {
		t.Errorf("row 1: got %q, want %q", got, "Count= 000")
	}
	if len(r.obs.resets) != 1 || r.obs.resets[0].Type != logic.EventReset {
		t.Errorf("observer resets: %+v", r.obs.resets)
	}
}

func TestCommandsAreCaseInsensitive(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 0)
	r.setStored(7)
	r.mon.Start()

	r.port.Feed("C")
	r.mon.Step()
	r.port.Feed("R")
	r.mon.Step()

	if len(r.port.Writes) != 2 || r.port.Writes[0] != logic.ReportMessage(7) || r.port.Writes[1] != logic.ResetMessage {
		t.Errorf("writes: %q", r.port.Writes)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 0)
	r.setStored(12)
	r.mon.Start()

	for i := 0; i < 2; i++ {
		r.port.Feed("r")
		r.mon.Step()
		if r.mon.Count() != 0 || r.stored() != 0 {
			t.Errorf("reset %d: count=%d stored=%d", i+1, r.mon.Count(), r.stored())
		}
	}
}

func TestOneCommandPerStep(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 0)
	r.mon.Start()

	r.port.Feed("cc")
	r.mon.Step()

	if len(r.port.Writes) != 1 {
		t.Errorf("writes after one step: got %d, want 1", len(r.port.Writes))
	}
	if r.port.Pending() != 1 {
		t.Errorf("pending input: got %d, want 1", r.port.Pending())
	}
}

func TestUnknownBytesIgnored(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 0)
	r.setStored(3)
	r.mon.Start()

	r.port.Feed("\x00x?\n")
	for i := 0; i < 4; i++ {
		r.mon.Step()
	}

	if len(r.port.Writes) != 0 {
		t.Errorf("writes: got %q, want none", r.port.Writes)
	}
	if r.mon.Count() != 3 {
		t.Errorf("Count: got %d, want 3", r.mon.Count())
	}
}

func TestPollCommand(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 0)

	if _, ok := r.mon.PollCommand(); ok {
		t.Error("expected no command on idle port")
	}
	r.port.Feed("\x00")
	if _, ok := r.mon.PollCommand(); ok {
		t.Error("NUL must not be a command")
	}
	r.port.Feed("r")
	cmd, ok := r.mon.PollCommand()
	if !ok || cmd != logic.CommandReset {
		t.Errorf("PollCommand: got %v, %v", cmd, ok)
	}
}

func TestSaveFailureEntersFaultAndRecovers(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 200)
	r.mon.Start()

	// One attempt plus three retries on the high byte.
	r.bytes.FailWrites = 1 + counter.DefaultRetries
	r.ticks(1)

	if r.mon.Fault() == nil {
		t.Fatal("expected fault after failed save")
	}
	if r.mon.Count() != 1 {
		t.Errorf("in-memory count: got %d, want 1", r.mon.Count())
	}

	r.ticks(1)
	if r.mon.Fault() != nil {
		t.Errorf("fault should clear after a good save: %v", r.mon.Fault())
	}
	if r.stored() != 2 {
		t.Errorf("stored: got %d, want 2", r.stored())
	}
	if len(r.obs.faults) != 2 || r.obs.faults[0] == nil || r.obs.faults[1] != nil {
		t.Errorf("observer faults: %v", r.obs.faults)
	}
}

func TestSaveRetrySucceedsWithoutFault(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 200)
	r.mon.Start()

	r.bytes.FailWrites = counter.DefaultRetries
	r.ticks(1)

	if r.mon.Fault() != nil {
		t.Errorf("unexpected fault: %v", r.mon.Fault())
	}
	if r.stored() != 1 {
		t.Errorf("stored: got %d, want 1", r.stored())
	}
}

func TestFaultFlashesLED(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 50)
	r.bytes.ReadError = errors.New("bus stuck")
	r.mon.Start()

	r.ticks(2 * FaultFlashTicks)

	// Start-up off, then four ticks off, five on, one off.
	want := []bool{false, false, false, false, false, true, true, true, true, true, false}
	if len(r.outputs.LEDHistory) != len(want) {
		t.Fatalf("LEDHistory: got %v", r.outputs.LEDHistory)
	}
	for i := range want {
		if r.outputs.LEDHistory[i] != want[i] {
			t.Errorf("LEDHistory[%d]: got %v, want %v", i, r.outputs.LEDHistory[i], want[i])
		}
	}
}

func TestResetDuringFaultKeepsFaultUntilSaved(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 0)
	r.setStored(9)
	r.mon.Start()

	r.bytes.FailWrites = 1 + counter.DefaultRetries
	r.port.Feed("r")
	r.mon.Step()

	if r.mon.Count() != 0 {
		t.Errorf("Count: got %d, want 0", r.mon.Count())
	}
	if r.mon.Fault() == nil {
		t.Error("expected fault after failed reset")
	}

	r.port.Feed("r")
	r.mon.Step()
	if r.mon.Fault() != nil {
		t.Errorf("fault should clear: %v", r.mon.Fault())
	}
	if r.stored() != 0 {
		t.Errorf("stored: got %d, want 0", r.stored())
	}
}

func TestAdapterErrorsDoNotStopLoop(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 200)
	r.mon.Start()
	r.lcd.WriteError = errors.New("lcd gone")
	r.port.WriteError = errors.New("uart gone")

	r.ticks(2)

	if r.mon.Count() != 2 {
		t.Errorf("Count: got %d, want 2", r.mon.Count())
	}
}

func TestConcurrentTick(t *testing.T) {
	r := newRig(t, logic.ModeLevel, 10)
	r.mon.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r.mon.Tick()
		}
	}()
	for i := 0; i < 1000; i++ {
		r.mon.Step()
	}
	wg.Wait()
	r.mon.Step()

	if r.mon.Pending() {
		t.Error("tick still pending after final step")
	}
}
