package display

import (
	"strings"
	"sync"
)

// Fake is an in-memory TextDisplay for tests and headless runs.
type Fake struct {
	mu       sync.Mutex
	grid     [Rows][Columns]byte
	row, col int // 0-based cursor

	// Clears counts calls to Clear.
	Clears int
	// WriteError, if set, is returned by every call.
	WriteError error
}

// NewFake creates a blank display.
func NewFake() *Fake {
	f := &Fake{}
	f.blank()
	return f
}

func (f *Fake) blank() {
	for r := range f.grid {
		for c := range f.grid[r] {
			f.grid[r][c] = ' '
		}
	}
	f.row, f.col = 0, 0
}

// Clear blanks the display and homes the cursor.
func (f *Fake) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.blank()
	f.Clears++
	return nil
}

// SetCursor moves to a 1-based row and column.
func (f *Fake) SetCursor(row, col int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	if err := checkCursor(row, col); err != nil {
		return err
	}
	f.row, f.col = row-1, col-1
	return nil
}

// WriteString writes s at the cursor. Text past the last column is dropped.
func (f *Fake) WriteString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := f.WriteChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteChar writes one character at the cursor.
func (f *Fake) WriteChar(c byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	if f.col < Columns {
		f.grid[f.row][f.col] = c
		f.col++
	}
	return nil
}

// Row returns the 1-based row with trailing blanks removed.
func (f *Fake) Row(row int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row < 1 || row > Rows {
		return ""
	}
	return strings.TrimRight(string(f.grid[row-1][:]), " ")
}
