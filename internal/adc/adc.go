// Package adc provides the impact sensor's analog input as 8-bit samples.
package adc

// Sampler reads one SensorSample. It blocks until the conversion completes.
type Sampler interface {
	Sample() (uint8, error)
}
