// Package monitor is the impact sensor's device context. It owns the
// scheduler, the decision engine, the counter and the peripherals, and runs
// one cooperative main-loop iteration per Step.
//
// Tick is the only method that may be called concurrently with the others.
// Everything else belongs to the main loop goroutine.
package monitor

import (
	"log"
	"time"

	"github.com/sweeney/impact-sensor/internal/adc"
	"github.com/sweeney/impact-sensor/internal/counter"
	"github.com/sweeney/impact-sensor/internal/display"
	"github.com/sweeney/impact-sensor/internal/gpio"
	"github.com/sweeney/impact-sensor/internal/logic"
	"github.com/sweeney/impact-sensor/internal/serial"
)

// FaultFlashTicks is the number of ticks per LED toggle while the counter
// store is in fault and no impact is lighting the LED.
const FaultFlashTicks = 5

// Observer is notified of main-loop activity. Calls happen on the main loop
// and must not block for long.
type Observer interface {
	// Sampled reports every successful sample with the resulting LED level.
	Sampled(sample uint8, led bool, count uint16)
	// Impact reports a detected impact. Count is the count after it.
	Impact(event logic.Event)
	// Reset reports a reset command.
	Reset(event logic.Event)
	// Heartbeat reports each serial heartbeat.
	Heartbeat(count uint16)
	// Fault reports entry into store fault, or nil when a save succeeds again.
	Fault(err error)
}

// Devices are the peripherals the monitor drives.
type Devices struct {
	Sampler adc.Sampler
	Outputs gpio.Outputs
	Display display.TextDisplay
	Port    serial.Port
	Store   *counter.Store
}

// Config contains monitor options. All fields are optional.
type Config struct {
	Mode     logic.Mode
	Banner   string
	Observer Observer
	Now      func() time.Time
	// Sleep paces the buzzer burst (time.Sleep in production).
	Sleep func(time.Duration)
}

// Monitor is the impact sensor main loop state.
type Monitor struct {
	dev      Devices
	sched    *logic.Scheduler
	engine   *logic.Engine
	observer Observer
	banner   string
	now      func() time.Time
	sleep    func(time.Duration)

	count      uint16
	led        bool
	fault      error
	flash      bool
	flashTicks int
	saturated  bool
	// held is a load fault not yet reported to the observer.
	held bool
}

// New creates a Monitor. Call Start before the first Step.
func New(dev Devices, cfg Config) *Monitor {
	m := &Monitor{
		dev:      dev,
		sched:    logic.NewScheduler(),
		engine:   logic.NewEngine(cfg.Mode),
		observer: cfg.Observer,
		banner:   cfg.Banner,
		now:      cfg.Now,
		sleep:    cfg.Sleep,
	}
	if m.observer == nil {
		m.observer = nopObserver{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.sleep == nil {
		m.sleep = time.Sleep
	}
	return m
}

// Start restores the count, switches the LED off and shows the startup
// screen. A load failure starts from zero with the store in fault; the
// observer hears about it on the first Step, after the caller has
// announced startup.
func (m *Monitor) Start() {
	m.setLED(false)

	stored, err := m.dev.Store.Load()
	if err != nil {
		log.Printf("monitor: load count: %v", err)
		m.count = 0
		m.fault = err
		m.held = true
	} else {
		m.count = logic.NormalizeLoaded(stored)
		if stored != m.count {
			log.Printf("monitor: stored count 0x%04x loaded as %d", stored, m.count)
		}
	}
	m.saturated = m.count >= logic.MaxCount
	log.Printf("monitor: started: count=%d mode=%s", m.count, m.engine.Mode())

	m.clearDisplay()
	m.show(1, logic.StartupTitle)
	m.show(2, m.banner)
}

// Tick marks a sample as due. It is safe to call from any goroutine and
// never blocks.
func (m *Monitor) Tick() {
	m.sched.Tick()
}

// Step runs one main-loop iteration: at most one command, then the sample
// if a tick is pending, then the heartbeat every TicksPerHeartbeat samples.
func (m *Monitor) Step() {
	if m.held {
		m.held = false
		if m.fault != nil {
			m.observer.Fault(m.fault)
		}
	}

	if cmd, ok := m.PollCommand(); ok {
		m.Dispatch(cmd)
	}

	due, heartbeat := m.sched.PollAndConsume()
	if !due {
		return
	}
	m.sample()
	if heartbeat {
		m.send(logic.HeartbeatMessage)
		m.observer.Heartbeat(m.count)
	}
}

// Pending reports whether a tick is waiting for Step.
func (m *Monitor) Pending() bool {
	return m.sched.Pending()
}

// Count returns the in-memory impact count.
func (m *Monitor) Count() uint16 {
	return m.count
}

// LED returns the LED level last written.
func (m *Monitor) LED() bool {
	return m.led
}

// Fault returns the current store fault, or nil.
func (m *Monitor) Fault() error {
	return m.fault
}

// Mode returns the detection mode.
func (m *Monitor) Mode() logic.Mode {
	return m.engine.Mode()
}

func (m *Monitor) sample() {
	s, err := m.dev.Sampler.Sample()
	if err != nil {
		log.Printf("monitor: sample: %v", err)
		return
	}
	m.show(2, logic.SampleCaption(s))

	d := m.engine.Evaluate(s)
	m.setLED(m.ledLevel(d.LED))
	if d.Burst {
		if err := gpio.Burst(m.dev.Outputs, m.sleep); err != nil {
			log.Printf("monitor: buzzer: %v", err)
		}
	}
	if d.Increment {
		m.impact(s)
	}
	m.observer.Sampled(s, m.led, m.count)
}

// ledLevel overlays the fault flash on the impact indication.
func (m *Monitor) ledLevel(impact bool) bool {
	if m.fault == nil || impact {
		m.flash = false
		m.flashTicks = 0
		return impact
	}
	m.flashTicks++
	if m.flashTicks >= FaultFlashTicks {
		m.flashTicks = 0
		m.flash = !m.flash
	}
	return m.flash
}

func (m *Monitor) impact(sample uint8) {
	m.send(logic.ImpactMessage)

	next, ok := logic.NextCount(m.count)
	if ok {
		m.count = next
		log.Printf("monitor: impact: sample=%d count=%d", sample, m.count)
		m.save()
	} else if !m.saturated {
		m.saturated = true
		log.Printf("monitor: count saturated at %d", logic.MaxCount)
	}

	m.clearDisplay()
	m.show(1, logic.CountCaption(m.count))

	m.observer.Impact(logic.Event{
		Timestamp: m.now(),
		Type:      logic.EventImpact,
		Count:     m.count,
		Sample:    sample,
	})
}

func (m *Monitor) save() {
	if err := m.dev.Store.Save(m.count); err != nil {
		m.setFault(err)
		return
	}
	m.clearFault()
}

func (m *Monitor) setFault(err error) {
	entering := m.fault == nil
	m.fault = err
	if entering {
		log.Printf("monitor: store fault: %v", err)
		m.observer.Fault(err)
	}
}

func (m *Monitor) clearFault() {
	if m.fault == nil {
		return
	}
	log.Printf("monitor: store recovered")
	m.fault = nil
	m.observer.Fault(nil)
}

func (m *Monitor) setLED(on bool) {
	if err := m.dev.Outputs.SetLED(on); err != nil {
		log.Printf("monitor: led: %v", err)
		return
	}
	m.led = on
}

func (m *Monitor) send(s string) {
	if err := m.dev.Port.WriteString(s); err != nil {
		log.Printf("monitor: serial write: %v", err)
	}
}

func (m *Monitor) clearDisplay() {
	if err := m.dev.Display.Clear(); err != nil {
		log.Printf("monitor: display: %v", err)
	}
}

// show writes text at the start of a display row.
func (m *Monitor) show(row int, text string) {
	if err := m.dev.Display.SetCursor(row, 1); err != nil {
		log.Printf("monitor: display: %v", err)
		return
	}
	if err := m.dev.Display.WriteString(text); err != nil {
		log.Printf("monitor: display: %v", err)
	}
}

type nopObserver struct{}

func (nopObserver) Sampled(uint8, bool, uint16) {}
func (nopObserver) Impact(logic.Event)          {}
func (nopObserver) Reset(logic.Event)           {}
func (nopObserver) Heartbeat(uint16)            {}
func (nopObserver) Fault(error)                 {}
