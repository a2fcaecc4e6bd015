// Package counter persists the 16-bit impact count as two big-endian bytes
// in a ByteStore.
//
// The two byte writes are not atomic: a power loss between them leaves a
// mix of the old and new value, and there is no checksum to detect it.
package counter

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/impact-sensor/internal/eeprom"
)

// Defaults for Config.
const (
	DefaultSettle  = 10 * time.Millisecond
	DefaultRetries = 3
)

// Config locates the counter in the byte store.
type Config struct {
	Bank    uint8         // memory address high byte
	Offset  uint8         // low byte of the high counter byte; the low counter byte follows
	Settle  time.Duration // wait after every write
	Retries int           // extra attempts per byte write
}

// Store loads and saves the impact count.
type Store struct {
	bytes eeprom.ByteStore
	cfg   Config
	sleep func(time.Duration)
}

// New creates a Store. sleep is used for the settle delay (time.Sleep in production).
func New(bytes eeprom.ByteStore, cfg Config, sleep func(time.Duration)) (*Store, error) {
	if cfg.Offset == 0xFF {
		return nil, fmt.Errorf("counter offset 0x%02x leaves no room for the low byte", cfg.Offset)
	}
	if cfg.Settle == 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Store{bytes: bytes, cfg: cfg, sleep: sleep}, nil
}

// Load reads the high then the low byte and combines them big-endian.
func (s *Store) Load() (uint16, error) {
	hi, err := s.bytes.Read(s.cfg.Bank, s.cfg.Offset)
	if err != nil {
		return 0, fmt.Errorf("load count high byte: %w", err)
	}
	lo, err := s.bytes.Read(s.cfg.Bank, s.cfg.Offset+1)
	if err != nil {
		return 0, fmt.Errorf("load count low byte: %w", err)
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// Save writes the high byte then the low byte, settling after each write.
func (s *Store) Save(count uint16) error {
	if err := s.write(s.cfg.Offset, byte(count>>8)); err != nil {
		return fmt.Errorf("save count %d: %w", count, err)
	}
	if err := s.write(s.cfg.Offset+1, byte(count)); err != nil {
		return fmt.Errorf("save count %d: %w", count, err)
	}
	return nil
}

// Reset saves zero and returns it.
func (s *Store) Reset() (uint16, error) {
	if err := s.Save(0); err != nil {
		return 0, err
	}
	return 0, nil
}

func (s *Store) write(offset uint8, b byte) error {
	var err error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		err = s.bytes.Write(s.cfg.Bank, offset, b)
		s.sleep(s.cfg.Settle)
		if err == nil {
			return nil
		}
		log.Printf("counter: write 0x%02x%02x attempt %d failed: %v", s.cfg.Bank, offset, attempt+1, err)
	}
	return fmt.Errorf("write 0x%02x%02x after %d attempts: %w", s.cfg.Bank, offset, s.cfg.Retries+1, err)
}
