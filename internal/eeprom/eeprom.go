// Package eeprom provides addressed persistent byte storage.
// The AT24 implementation talks to an I2C EEPROM; the file implementation
// keeps an image on disk for hosts without one; the fake is for tests.
package eeprom

// ByteStore reads and writes single bytes at a (bank, offset) address.
// Callers must wait out the store's settle delay after every write before
// the next operation.
type ByteStore interface {
	Read(bank, offset uint8) (byte, error)
	Write(bank, offset uint8, b byte) error
}

// Erased is the value of a never-written EEPROM cell.
const Erased byte = 0xFF

func address(bank, offset uint8) uint16 {
	return uint16(bank)<<8 | uint16(offset)
}
