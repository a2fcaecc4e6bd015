//go:build !linux

package display

import "errors"

// GPIOBus is not available on non-Linux platforms.
type GPIOBus struct{}

// OpenGPIOBus returns an error on non-Linux platforms.
func OpenGPIOBus(chipName string, pinRS, pinEN int, pinData [8]int) (*GPIOBus, error) {
	return nil, errors.New("display: not supported on this platform (requires Linux)")
}

// Send is not implemented on non-Linux platforms.
func (b *GPIOBus) Send(rs bool, v byte) error {
	return errors.New("display: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *GPIOBus) Close() error {
	return nil
}
