package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sweeney/impact-sensor/internal/adc"
	"github.com/sweeney/impact-sensor/internal/config"
	"github.com/sweeney/impact-sensor/internal/counter"
	"github.com/sweeney/impact-sensor/internal/display"
	"github.com/sweeney/impact-sensor/internal/eeprom"
	"github.com/sweeney/impact-sensor/internal/gpio"
	"github.com/sweeney/impact-sensor/internal/i2c"
	"github.com/sweeney/impact-sensor/internal/logic"
	"github.com/sweeney/impact-sensor/internal/monitor"
	"github.com/sweeney/impact-sensor/internal/serial"
)

// hardware holds the opened peripherals and everything that must be closed.
type hardware struct {
	devices monitor.Devices
	bus     *i2c.Bus
	closers []io.Closer
}

// i2cBus opens the shared i2c-dev bus on first use.
func (h *hardware) i2cBus(device string) (*i2c.Bus, error) {
	if h.bus != nil {
		return h.bus, nil
	}
	bus, err := i2c.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open i2c: %w", err)
	}
	h.add(bus)
	h.bus = bus
	return bus, nil
}

// Close releases resources in reverse order of opening.
func (h *hardware) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
	h.closers = nil
}

func (h *hardware) add(c io.Closer) {
	h.closers = append(h.closers, c)
}

// openStore opens only the byte store and wraps it in a counter store.
func openStore(cfg *config.Config, simulate bool, h *hardware) (*counter.Store, error) {
	var bytes eeprom.ByteStore
	if simulate {
		fs, err := eeprom.OpenFile(cfg.EEPROM.Image)
		if err != nil {
			return nil, fmt.Errorf("open eeprom image: %w", err)
		}
		h.add(fs)
		bytes = fs
	} else {
		bus, err := h.i2cBus(cfg.I2C.Device)
		if err != nil {
			return nil, err
		}
		bytes = eeprom.NewAT24(bus, cfg.I2C.EEPROMAddress)
	}

	store, err := counter.New(bytes, counter.Config{
		Bank:    cfg.EEPROM.Bank,
		Offset:  cfg.EEPROM.Offset,
		Settle:  cfg.EEPROM.Settle,
		Retries: cfg.StoreRetries(),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("init counter: %w", err)
	}
	return store, nil
}

// openHardware opens every peripheral. With simulate set the sensor, outputs
// and display are in-memory, the store is an image file and the serial link
// is the terminal.
func openHardware(cfg *config.Config, simulate bool) (*hardware, error) {
	h := &hardware{}
	ok := false
	defer func() {
		if !ok {
			h.Close()
		}
	}()

	store, err := openStore(cfg, simulate, h)
	if err != nil {
		return nil, err
	}
	h.devices.Store = store

	if simulate {
		h.devices.Sampler = newSimSampler(simImpactEvery)
		h.devices.Outputs = gpio.NewFakeOutputs()
		h.devices.Display = display.NewFake()
		port := serial.NewStreamPort(terminal{})
		h.add(port)
		h.devices.Port = port
		ok = true
		return h, nil
	}

	bus, err := h.i2cBus(cfg.I2C.Device)
	if err != nil {
		return nil, err
	}
	sampler, err := adc.NewADS1115(bus, adc.Config{
		Address: cfg.I2C.ADCAddress,
		Channel: cfg.I2C.ADCChannel,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("init adc: %w", err)
	}
	h.devices.Sampler = sampler

	outputs, err := gpio.NewRealOutputs(cfg.GPIO.Chip, cfg.GPIO.LED, cfg.GPIO.Buzzer)
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	h.add(outputs)
	h.devices.Outputs = outputs

	lcdBus, err := display.OpenGPIOBus(cfg.GPIO.Chip, cfg.GPIO.LCD.RS, cfg.GPIO.LCD.EN, cfg.LCDData())
	if err != nil {
		return nil, fmt.Errorf("init lcd: %w", err)
	}
	h.add(lcdBus)
	lcd := display.NewHD44780(lcdBus, nil)
	if err := lcd.Configure(); err != nil {
		return nil, fmt.Errorf("configure lcd: %w", err)
	}
	h.devices.Display = lcd

	port, err := serial.Open(serial.Config{
		Device:  cfg.Serial.Port,
		Baud:    cfg.Serial.Baud,
		Backend: cfg.Serial.Backend,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial: %w", err)
	}
	h.add(port)
	h.devices.Port = port

	ok = true
	return h, nil
}

// terminal is the simulated serial link: stdin in, stdout out.
type terminal struct{}

func (terminal) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (terminal) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (terminal) Close() error                { return nil }

// simImpactEvery is the simulated sensor's impact period in ticks (10 s).
const simImpactEvery = 200

// simSampler is a quiet sensor with one above-threshold sample every n ticks.
type simSampler struct {
	n, i int
}

func newSimSampler(n int) *simSampler {
	return &simSampler{n: n}
}

func (s *simSampler) Sample() (uint8, error) {
	s.i++
	if s.i%s.n == 0 {
		return logic.Threshold + 50, nil
	}
	return uint8(20 + s.i%7), nil
}

var _ adc.Sampler = (*simSampler)(nil)
