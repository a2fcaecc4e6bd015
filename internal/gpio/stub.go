//go:build !linux

package gpio

import "errors"

// ErrUnsupported is returned by every RealOutputs operation off Linux.
var ErrUnsupported = errors.New("gpio: character device lines need Linux")

// RealOutputs is a placeholder so the package builds on development hosts.
type RealOutputs struct{}

func NewRealOutputs(chipName string, pinLED, pinBuzzer int) (*RealOutputs, error) {
	return nil, ErrUnsupported
}

func (o *RealOutputs) SetLED(bool) error    { return ErrUnsupported }
func (o *RealOutputs) SetBuzzer(bool) error { return ErrUnsupported }
func (o *RealOutputs) Close() error         { return nil }
