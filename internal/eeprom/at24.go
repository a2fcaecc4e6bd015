package eeprom

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"
)

// DefaultAddress is the 7-bit I2C address of an AT24Cxx with A0..A2 tied low.
const DefaultAddress = 0x50

// ErrNoDevice is returned when the EEPROM does not acknowledge.
var ErrNoDevice = errors.New("eeprom: device not responding")

// AT24 is an AT24C32..AT24C512 serial EEPROM with two-byte memory addressing.
// bank is the high address byte and offset the low one.
type AT24 struct {
	bus     drivers.I2C
	Address uint16
	buf     [3]byte
}

// NewAT24 creates an AT24 on a configured bus. It does not touch the device.
func NewAT24(bus drivers.I2C, address uint16) *AT24 {
	if address == 0 {
		address = DefaultAddress
	}
	return &AT24{bus: bus, Address: address}
}

// Read performs a random read: address write, repeated start, one byte read.
func (d *AT24) Read(bank, offset uint8) (byte, error) {
	d.buf[0], d.buf[1] = bank, offset
	var r [1]byte
	if err := d.bus.Tx(d.Address, d.buf[:2], r[:]); err != nil {
		return 0, fmt.Errorf("%w: read 0x%04x: %v", ErrNoDevice, address(bank, offset), err)
	}
	return r[0], nil
}

// Write starts a byte write. The device is busy for its internal write
// cycle afterwards and will not acknowledge until it completes.
func (d *AT24) Write(bank, offset uint8, b byte) error {
	d.buf[0], d.buf[1], d.buf[2] = bank, offset, b
	if err := d.bus.Tx(d.Address, d.buf[:3], nil); err != nil {
		return fmt.Errorf("%w: write 0x%04x: %v", ErrNoDevice, address(bank, offset), err)
	}
	return nil
}
