package eeprom

import (
	"errors"
	"sync"
)

// ErrPowerCut is returned by FakeStore writes after a simulated power loss.
var ErrPowerCut = errors.New("eeprom: power lost")

// FakeStore is an in-memory ByteStore for tests.
type FakeStore struct {
	mu    sync.Mutex
	cells map[uint16]byte

	// Writes counts successful writes.
	Writes int
	// Reads counts reads.
	Reads int

	// FailWrites makes the next n writes return WriteError.
	FailWrites int
	// WriteError is returned by failing writes (defaults to ErrNoDevice).
	WriteError error
	// ReadError, if set, is returned by every read.
	ReadError error

	// PowerCutAfter, when > 0, drops every write after that many successful ones.
	PowerCutAfter int
}

// NewFakeStore creates an erased store.
func NewFakeStore() *FakeStore {
	return &FakeStore{cells: make(map[uint16]byte)}
}

// Read returns the stored cell or Erased.
func (f *FakeStore) Read(bank, offset uint8) (byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	b, ok := f.cells[address(bank, offset)]
	if !ok {
		return Erased, nil
	}
	return b, nil
}

// Write stores a cell unless a failure is scripted.
func (f *FakeStore) Write(bank, offset uint8, b byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites > 0 {
		f.FailWrites--
		if f.WriteError != nil {
			return f.WriteError
		}
		return ErrNoDevice
	}
	if f.PowerCutAfter > 0 && f.Writes >= f.PowerCutAfter {
		return ErrPowerCut
	}
	f.cells[address(bank, offset)] = b
	f.Writes++
	return nil
}

// Set writes a cell directly, bypassing counters and failures.
func (f *FakeStore) Set(bank, offset uint8, b byte) {
	f.mu.Lock()
	f.cells[address(bank, offset)] = b
	f.mu.Unlock()
}

// Get reads a cell directly.
func (f *FakeStore) Get(bank, offset uint8) byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.cells[address(bank, offset)]
	if !ok {
		return Erased
	}
	return b
}
