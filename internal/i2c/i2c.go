// Package i2c provides a Linux i2c-dev bus that satisfies tinygo.org/x/drivers.I2C,
// so the same device drivers run on a Raspberry Pi and on a microcontroller.
package i2c

import "tinygo.org/x/drivers"

// DefaultDevice is the I2C bus exposed on the Raspberry Pi header.
const DefaultDevice = "/dev/i2c-1"

var _ drivers.I2C = (*Bus)(nil)
