package serial

import (
	"strings"
	"sync"
)

// FakePort is a test double with a scripted receive queue and a recorded
// transmit log.
type FakePort struct {
	mu     sync.Mutex
	input  []byte
	output strings.Builder

	// Writes contains every string passed to WriteString.
	Writes []string
	// WriteError, if set, will be returned by WriteString.
	WriteError error
	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePort creates an idle port.
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Feed queues bytes as if they had been received.
func (f *FakePort) Feed(s string) {
	f.mu.Lock()
	f.input = append(f.input, s...)
	f.mu.Unlock()
}

// TryReadChar pops the next queued byte.
func (f *FakePort) TryReadChar() (byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.input) == 0 {
		return 0, false
	}
	b := f.input[0]
	f.input = f.input[1:]
	return b, true
}

// WriteString records s.
func (f *FakePort) WriteString(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, s)
	f.output.WriteString(s)
	return nil
}

// Output returns everything transmitted so far.
func (f *FakePort) Output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.output.String()
}

// Pending returns the number of queued, unread bytes.
func (f *FakePort) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.input)
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset clears the transmit log.
func (f *FakePort) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.output.Reset()
	f.Writes = nil
	f.WriteError = nil
}
