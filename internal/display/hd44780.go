package display

import "time"

// Bus latches one byte into an HD44780-compatible controller.
// rs selects the data register (true) or the instruction register (false).
type Bus interface {
	Send(rs bool, b byte) error
}

const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // increment, no shift
	cmdDisplayOn   = 0x0C // display on, cursor off, blink off
	cmdFunction8   = 0x38 // 8-bit bus, 2 lines, 5x8 font
	cmdSetDDRAM    = 0x80
	execDelay      = 40 * time.Microsecond
	clearDelay     = 2 * time.Millisecond
	powerOnDelay   = 15 * time.Millisecond
	functionDelay1 = 5 * time.Millisecond
	functionDelay2 = 100 * time.Microsecond
)

var rowOffsets = [Rows]byte{0x00, 0x40}

// HD44780 drives a character LCD in 8-bit mode.
type HD44780 struct {
	bus   Bus
	sleep func(time.Duration)
}

// NewHD44780 wraps a bus. Call Configure before use.
func NewHD44780(bus Bus, sleep func(time.Duration)) *HD44780 {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &HD44780{bus: bus, sleep: sleep}
}

// Configure runs the power-on initialisation sequence and clears the screen.
func (d *HD44780) Configure() error {
	d.sleep(powerOnDelay)
	for _, wait := range []time.Duration{functionDelay1, functionDelay2, execDelay} {
		if err := d.bus.Send(false, cmdFunction8); err != nil {
			return err
		}
		d.sleep(wait)
	}
	if err := d.command(cmdDisplayOn); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	return d.command(cmdEntryMode)
}

// Clear blanks the display and homes the cursor.
func (d *HD44780) Clear() error {
	if err := d.bus.Send(false, cmdClear); err != nil {
		return err
	}
	d.sleep(clearDelay)
	return nil
}

// SetCursor moves to a 1-based row and column.
func (d *HD44780) SetCursor(row, col int) error {
	if err := checkCursor(row, col); err != nil {
		return err
	}
	return d.command(cmdSetDDRAM | (rowOffsets[row-1] + byte(col-1)))
}

// WriteChar writes one character at the cursor.
func (d *HD44780) WriteChar(c byte) error {
	if err := d.bus.Send(true, c); err != nil {
		return err
	}
	d.sleep(execDelay)
	return nil
}

// WriteString writes s starting at the cursor.
func (d *HD44780) WriteString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := d.WriteChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *HD44780) command(c byte) error {
	if err := d.bus.Send(false, c); err != nil {
		return err
	}
	d.sleep(execDelay)
	return nil
}
