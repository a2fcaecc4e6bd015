package eeprom

import (
	"fmt"
	"io"
	"os"
)

// FileStore keeps an EEPROM image in a regular file. Cells beyond the end of
// the file read as Erased.
type FileStore struct {
	f *os.File
}

// OpenFile opens or creates an image file.
func OpenFile(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open eeprom image: %w", err)
	}
	return &FileStore{f: f}, nil
}

// Read reads one cell.
func (s *FileStore) Read(bank, offset uint8) (byte, error) {
	var b [1]byte
	_, err := s.f.ReadAt(b[:], int64(address(bank, offset)))
	if err == io.EOF {
		return Erased, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read eeprom image: %w", err)
	}
	return b[0], nil
}

// Write writes one cell and syncs it to disk. Gaps created by writing
// past the end are filled with Erased.
func (s *FileStore) Write(bank, offset uint8, b byte) error {
	pos := int64(address(bank, offset))
	info, err := s.f.Stat()
	if err != nil {
		return fmt.Errorf("stat eeprom image: %w", err)
	}
	if gap := pos - info.Size(); gap > 0 {
		fill := make([]byte, gap)
		for i := range fill {
			fill[i] = Erased
		}
		if _, err := s.f.WriteAt(fill, info.Size()); err != nil {
			return fmt.Errorf("extend eeprom image: %w", err)
		}
	}
	if _, err := s.f.WriteAt([]byte{b}, pos); err != nil {
		return fmt.Errorf("write eeprom image: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync eeprom image: %w", err)
	}
	return nil
}

// Close closes the image file.
func (s *FileStore) Close() error {
	return s.f.Close()
}
