//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutputs drives actual hardware using Linux GPIO character device.
type RealOutputs struct {
	chip   *gpiocdev.Chip
	led    *gpiocdev.Line
	buzzer *gpiocdev.Line
}

// NewRealOutputs requests the LED and buzzer lines as outputs driven low.
func NewRealOutputs(chipName string, pinLED, pinBuzzer int) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	led, err := chip.RequestLine(pinLED, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pinLED, err)
	}

	buzzer, err := chip.RequestLine(pinBuzzer, gpiocdev.AsOutput(0))
	if err != nil {
		led.Close()
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pinBuzzer, err)
	}

	return &RealOutputs{
		chip:   chip,
		led:    led,
		buzzer: buzzer,
	}, nil
}

// SetLED switches the LED.
func (o *RealOutputs) SetLED(on bool) error {
	if err := o.led.SetValue(level(on)); err != nil {
		return fmt.Errorf("set LED: %w", err)
	}
	return nil
}

// SetBuzzer sets the buzzer pin level.
func (o *RealOutputs) SetBuzzer(high bool) error {
	if err := o.buzzer.SetValue(level(high)); err != nil {
		return fmt.Errorf("set buzzer: %w", err)
	}
	return nil
}

// Close drives both outputs low and releases them.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// so nothing stays energised across a reboot.
func (o *RealOutputs) Close() error {
	var errs []error

	for name, line := range map[string]*gpiocdev.Line{"LED": o.led, "buzzer": o.buzzer} {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s pin: %w", name, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}

	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
