package monitor

import (
	"log"

	"github.com/sweeney/impact-sensor/internal/logic"
)

// PollCommand reads at most one byte from the serial port. Bytes that are
// not commands, including NUL, are consumed and ignored.
func (m *Monitor) PollCommand() (logic.Command, bool) {
	b, ok := m.dev.Port.TryReadChar()
	if !ok {
		return 0, false
	}
	return logic.ParseCommand(b)
}

// Dispatch executes one command.
func (m *Monitor) Dispatch(cmd logic.Command) {
	switch cmd {
	case logic.CommandReport:
		m.send(logic.ReportMessage(m.count))
	case logic.CommandReset:
		m.reset()
	}
}

func (m *Monitor) reset() {
	m.count = 0
	m.saturated = false
	if _, err := m.dev.Store.Reset(); err != nil {
		m.setFault(err)
	} else {
		m.clearFault()
	}
	log.Printf("monitor: count reset")

	m.send(logic.ResetMessage)
	m.clearDisplay()
	m.show(1, logic.ResetCaption)

	m.observer.Reset(logic.Event{
		Timestamp: m.now(),
		Type:      logic.EventReset,
	})
}
