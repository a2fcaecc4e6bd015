package adc

import (
	"errors"
	"sync"
)

// FakeSampler is a test double that returns scripted samples.
type FakeSampler struct {
	mu sync.Mutex
	// Samples contains scripted values. Each call to Sample consumes the next one.
	Samples []uint8
	index   int
	// Calls counts calls to Sample.
	Calls int
	// SampleError, if set, will be returned by Sample.
	SampleError error
}

// NewFakeSampler creates a FakeSampler with the given samples.
func NewFakeSampler(samples ...uint8) *FakeSampler {
	return &FakeSampler{Samples: samples}
}

// Sample returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSampler) Sample() (uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.SampleError != nil {
		return 0, f.SampleError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// SetError changes the scripted error.
func (f *FakeSampler) SetError(err error) {
	f.mu.Lock()
	f.SampleError = err
	f.mu.Unlock()
}
