// Package display renders text on the two-row character display.
package display

import "fmt"

// Geometry of the display. Rows and columns are numbered from 1.
const (
	Rows    = 2
	Columns = 16
)

// TextDisplay is a cursor-addressed character display.
type TextDisplay interface {
	Clear() error
	SetCursor(row, col int) error
	WriteString(s string) error
	WriteChar(c byte) error
}

func checkCursor(row, col int) error {
	if row < 1 || row > Rows || col < 1 || col > Columns {
		return fmt.Errorf("display: cursor (%d,%d) outside %dx%d", row, col, Rows, Columns)
	}
	return nil
}
