//go:build linux

package display

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOBus is an HD44780 8-bit parallel bus on Linux GPIO lines.
type GPIOBus struct {
	chip *gpiocdev.Chip
	rs   *gpiocdev.Line
	en   *gpiocdev.Line
	data *gpiocdev.Lines
	vals []int
}

// OpenGPIOBus requests RS, E and D0..D7 as outputs driven low.
func OpenGPIOBus(chipName string, pinRS, pinEN int, pinData [8]int) (*GPIOBus, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	b := &GPIOBus{chip: chip, vals: make([]int, len(pinData))}

	if b.rs, err = chip.RequestLine(pinRS, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request LCD RS pin %d: %w", pinRS, err)
	}
	if b.en, err = chip.RequestLine(pinEN, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request LCD E pin %d: %w", pinEN, err)
	}
	if b.data, err = chip.RequestLines(pinData[:], gpiocdev.AsOutput(b.vals...)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request LCD data pins %v: %w", pinData, err)
	}
	return b, nil
}

// Send puts b on D0..D7 and pulses E.
func (b *GPIOBus) Send(rs bool, v byte) error {
	rsLevel := 0
	if rs {
		rsLevel = 1
	}
	if err := b.rs.SetValue(rsLevel); err != nil {
		return fmt.Errorf("set LCD RS: %w", err)
	}
	for i := range b.vals {
		b.vals[i] = int(v>>uint(i)) & 1
	}
	if err := b.data.SetValues(b.vals); err != nil {
		return fmt.Errorf("set LCD data: %w", err)
	}
	if err := b.en.SetValue(1); err != nil {
		return fmt.Errorf("raise LCD E: %w", err)
	}
	if err := b.en.SetValue(0); err != nil {
		return fmt.Errorf("lower LCD E: %w", err)
	}
	return nil
}

// Close releases all lines.
func (b *GPIOBus) Close() error {
	var errs []error
	if b.data != nil {
		if err := b.data.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, l := range []*gpiocdev.Line{b.rs, b.en} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
