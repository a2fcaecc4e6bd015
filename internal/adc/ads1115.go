package adc

import (
	"errors"
	"fmt"
	"time"

	"tinygo.org/x/drivers"
)

// DefaultAddress is the ADS1115 address with ADDR tied to GND.
const DefaultAddress = 0x48

const (
	regConversion = 0x00
	regConfig     = 0x01

	// Single-shot, AIN0 vs GND, ±4.096 V, 128 SPS, comparator disabled.
	cfgSingleAIN0 = 0xC383
	cfgMuxShift   = 12
	cfgMuxMask    = 0x7000
	cfgOSReady    = 0x8000
)

// ErrTimeout is returned when a conversion does not complete in time.
var ErrTimeout = errors.New("ads1115: conversion timeout")

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x48 if zero.
	Address uint16
	// Channel selects AIN0..AIN3 against GND.
	Channel uint8
	// PollInterval is the wait between ready checks. Default 1 ms.
	PollInterval time.Duration
	// Timeout bounds the total wait for one conversion. Default 50 ms.
	Timeout time.Duration
}

// ADS1115 is a 16-bit I2C ADC used in single-shot mode.
type ADS1115 struct {
	bus   drivers.I2C
	cfg   Config
	sleep func(time.Duration)
	buf   [3]byte
}

// NewADS1115 creates a sampler on a configured bus. It does not touch the device.
func NewADS1115(bus drivers.I2C, cfg Config, sleep func(time.Duration)) (*ADS1115, error) {
	if cfg.Channel > 3 {
		return nil, fmt.Errorf("ads1115: channel %d out of range", cfg.Channel)
	}
	if cfg.Address == 0 {
		cfg.Address = DefaultAddress
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 50 * time.Millisecond
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return &ADS1115{bus: bus, cfg: cfg, sleep: sleep}, nil
}

// Sample starts a conversion, waits for it and returns the top 8 bits of the
// positive range. Negative readings clamp to zero.
func (d *ADS1115) Sample() (uint8, error) {
	raw, err := d.Read()
	if err != nil {
		return 0, err
	}
	return Scale(raw), nil
}

// Read performs one single-shot conversion and returns the raw reading.
func (d *ADS1115) Read() (int16, error) {
	config := uint16(cfgSingleAIN0&^cfgMuxMask) | (uint16(4+d.cfg.Channel) << cfgMuxShift)
	d.buf[0] = regConfig
	d.buf[1] = byte(config >> 8)
	d.buf[2] = byte(config)
	if err := d.bus.Tx(d.cfg.Address, d.buf[:3], nil); err != nil {
		return 0, fmt.Errorf("ads1115: start conversion: %w", err)
	}

	var r [2]byte
	for waited := time.Duration(0); ; waited += d.cfg.PollInterval {
		if err := d.bus.Tx(d.cfg.Address, []byte{regConfig}, r[:]); err != nil {
			return 0, fmt.Errorf("ads1115: poll status: %w", err)
		}
		if uint16(r[0])<<8&cfgOSReady != 0 {
			break
		}
		if waited >= d.cfg.Timeout {
			return 0, ErrTimeout
		}
		d.sleep(d.cfg.PollInterval)
	}

	if err := d.bus.Tx(d.cfg.Address, []byte{regConversion}, r[:]); err != nil {
		return 0, fmt.Errorf("ads1115: read conversion: %w", err)
	}
	return int16(uint16(r[0])<<8 | uint16(r[1])), nil
}

// Scale maps a raw reading onto 0..255.
func Scale(raw int16) uint8 {
	if raw < 0 {
		return 0
	}
	return uint8(raw >> 7)
}
