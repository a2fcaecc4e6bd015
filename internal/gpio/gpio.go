// Package gpio drives the alarm outputs with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Outputs drives the alarm LED and the buzzer.
type Outputs interface {
	// SetLED switches the LED.
	SetLED(on bool) error
	// SetBuzzer sets the buzzer pin level.
	SetBuzzer(high bool) error
	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinLED    = 17
	DefaultPinBuzzer = 18
)

// Burst timing: a 1 kHz square wave for 250 ms.
const (
	BurstCycles     = 250
	BurstHalfPeriod = 500 * time.Microsecond
)

// Burst sounds one alarm burst and blocks for its full duration.
// The buzzer is left low, even on error.
func Burst(out Outputs, sleep func(time.Duration)) error {
	for i := 0; i < BurstCycles; i++ {
		if err := out.SetBuzzer(true); err != nil {
			out.SetBuzzer(false)
			return err
		}
		sleep(BurstHalfPeriod)
		if err := out.SetBuzzer(false); err != nil {
			return err
		}
		sleep(BurstHalfPeriod)
	}
	return nil
}
