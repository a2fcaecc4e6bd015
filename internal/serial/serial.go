// Package serial provides the command link: a non-blocking single-character
// receive and a blocking string transmit.
package serial

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// Backends selectable in Config.
const (
	BackendBugst = "bugst"
	BackendTarm  = "tarm"
)

// Defaults for Config.
const (
	DefaultBaud        = 9600
	DefaultReadTimeout = 100 * time.Millisecond
	rxBuffer           = 64
)

// Port is the serial link.
type Port interface {
	// TryReadChar returns the next received byte, or ok=false when nothing
	// is waiting. A received NUL is returned as (0, true).
	TryReadChar() (b byte, ok bool)
	// WriteString blocks until s is written to the driver, and on
	// backends that can drain, until it has left the transmitter.
	WriteString(s string) error
	// Close releases the port.
	Close() error
}

// Config describes the port. The line format is 8N1.
type Config struct {
	Device      string
	Baud        int
	Backend     string
	ReadTimeout time.Duration
}

// Open opens the port with the configured backend.
func Open(cfg Config) (Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial: device is required")
	}
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	var (
		rw  io.ReadWriteCloser
		err error
	)
	switch cfg.Backend {
	case "", BackendBugst:
		rw, err = openBugst(cfg)
	case BackendTarm:
		rw, err = openTarm(cfg)
	default:
		return nil, fmt.Errorf("serial: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewStreamPort(rw), nil
}

// StreamPort adapts a blocking stream to Port. A reader goroutine moves
// received bytes into a buffer that TryReadChar drains without blocking.
type StreamPort struct {
	rw   io.ReadWriteCloser
	rx   chan byte
	done chan struct{}
	wmu  sync.Mutex
	once sync.Once
}

// NewStreamPort starts reading from rw. The stream's Read should return
// periodically (a read timeout) so Close can stop the reader.
func NewStreamPort(rw io.ReadWriteCloser) *StreamPort {
	p := &StreamPort{
		rw:   rw,
		rx:   make(chan byte, rxBuffer),
		done: make(chan struct{}),
	}
	go p.readLoop()
	return p
}

func (p *StreamPort) readLoop() {
	buf := make([]byte, rxBuffer)
	for {
		n, err := p.rw.Read(buf)
		for _, b := range buf[:n] {
			select {
			case p.rx <- b:
			case <-p.done:
				return
			default:
				// Receiver overrun: the byte is lost, like a full UART FIFO.
			}
		}
		if err != nil && err != io.EOF {
			select {
			case <-p.done:
			default:
				log.Printf("serial: read error: %v", err)
			}
			return
		}
		idle := n == 0 && err == io.EOF
		if !idle {
			select {
			case <-p.done:
				return
			default:
			}
			continue
		}
		// Some drivers report a read timeout as EOF; closed stdin does too.
		select {
		case <-p.done:
			return
		case <-time.After(DefaultReadTimeout):
		}
	}
}

// TryReadChar returns a buffered byte if there is one.
func (p *StreamPort) TryReadChar() (byte, bool) {
	select {
	case b := <-p.rx:
		return b, true
	default:
		return 0, false
	}
}

// drainer waits for the transmit queue to empty. go.bug.st/serial ports
// implement it; tarm and plain streams do not.
type drainer interface {
	Drain() error
}

// WriteString writes all of s, then drains the port when it can.
func (p *StreamPort) WriteString(s string) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	if _, err := io.WriteString(p.rw, s); err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	if d, ok := p.rw.(drainer); ok {
		if err := d.Drain(); err != nil {
			return fmt.Errorf("serial: drain: %w", err)
		}
	}
	return nil
}

// Close stops the reader and closes the stream.
func (p *StreamPort) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		err = p.rw.Close()
	})
	return err
}
