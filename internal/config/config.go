// Package config loads the impact-sensor YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/impact-sensor/internal/adc"
	"github.com/sweeney/impact-sensor/internal/counter"
	"github.com/sweeney/impact-sensor/internal/eeprom"
	"github.com/sweeney/impact-sensor/internal/gpio"
	"github.com/sweeney/impact-sensor/internal/i2c"
	"github.com/sweeney/impact-sensor/internal/logic"
	"github.com/sweeney/impact-sensor/internal/serial"
)

// Config represents the daemon configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	I2C      I2CConfig      `yaml:"i2c"`
	EEPROM   EEPROMConfig   `yaml:"eeprom"`
	GPIO     GPIOConfig     `yaml:"gpio"`
	Detector DetectorConfig `yaml:"detector"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
	Banner   string         `yaml:"banner"` // second line of the startup screen
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
	Backend string `yaml:"backend"` // "bugst" or "tarm"
}

// I2CConfig contains the i2c-dev bus and device addresses.
type I2CConfig struct {
	Device        string `yaml:"device"`
	EEPROMAddress uint16 `yaml:"eeprom_address"`
	ADCAddress    uint16 `yaml:"adc_address"`
	ADCChannel    uint8  `yaml:"adc_channel"`
}

// EEPROMConfig locates the counter and tunes write handling.
type EEPROMConfig struct {
	Bank    uint8         `yaml:"bank"`
	Offset  uint8         `yaml:"offset"`
	Settle  time.Duration `yaml:"settle"`
	Retries int           `yaml:"retries"` // -1 disables retries
	Image   string        `yaml:"image"`   // file-backed store used with -simulate
}

// GPIOConfig contains BCM line offsets.
type GPIOConfig struct {
	Chip   string    `yaml:"chip"`
	LED    int       `yaml:"led"`
	Buzzer int       `yaml:"buzzer"`
	LCD    LCDConfig `yaml:"lcd"`
}

// LCDConfig contains the HD44780 control and data lines.
type LCDConfig struct {
	RS   int   `yaml:"rs"`
	EN   int   `yaml:"en"`
	Data []int `yaml:"data"` // D0..D7
}

// DetectorConfig selects the impact detection mode.
type DetectorConfig struct {
	Mode logic.Mode `yaml:"mode"`
}

// MQTTConfig contains broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	HeartbeatEvery int    `yaml:"heartbeat_every"` // serial heartbeats per MQTT heartbeat; negative disables
}

// HTTPConfig contains the status server address. Empty disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a default configuration for a Raspberry Pi host.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:    "/dev/ttyUSB0",
			Baud:    serial.DefaultBaud,
			Backend: serial.BackendBugst,
		},
		I2C: I2CConfig{
			Device:        i2c.DefaultDevice,
			EEPROMAddress: eeprom.DefaultAddress,
			ADCAddress:    adc.DefaultAddress,
		},
		EEPROM: EEPROMConfig{
			Settle:  counter.DefaultSettle,
			Retries: counter.DefaultRetries,
			Image:   "impact-sensor.eeprom",
		},
		GPIO: GPIOConfig{
			Chip:   "gpiochip0",
			LED:    gpio.DefaultPinLED,
			Buzzer: gpio.DefaultPinBuzzer,
			LCD: LCDConfig{
				RS:   25,
				EN:   24,
				Data: []int{5, 6, 12, 13, 16, 19, 20, 21},
			},
		},
		Detector: DetectorConfig{
			Mode: logic.ModeLevel,
		},
		MQTT: MQTTConfig{
			Broker:         "tcp://192.168.1.200:1883",
			ClientID:       "impact-sensor",
			HeartbeatEvery: 900, // 15 minutes of 1 s heartbeats
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
		Banner: "KS+JN",
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports settings that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := logic.ParseMode(string(c.Detector.Mode)); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if c.Serial.Backend != serial.BackendBugst && c.Serial.Backend != serial.BackendTarm {
		return fmt.Errorf("serial: unknown backend %q", c.Serial.Backend)
	}
	if len(c.GPIO.LCD.Data) != 8 {
		return fmt.Errorf("gpio: lcd needs 8 data lines, got %d", len(c.GPIO.LCD.Data))
	}
	if c.EEPROM.Offset == 0xFF {
		return fmt.Errorf("eeprom: offset 0xFF leaves no room for the low byte")
	}
	if c.I2C.ADCChannel > 3 {
		return fmt.Errorf("i2c: adc channel %d out of range", c.I2C.ADCChannel)
	}
	return nil
}

// StoreRetries converts the configured retry count to the counter store's form.
func (c *Config) StoreRetries() int {
	if c.EEPROM.Retries < 0 {
		return 0
	}
	return c.EEPROM.Retries
}

// LCDData returns the data lines as a fixed array. Call after Validate.
func (c *Config) LCDData() [8]int {
	var pins [8]int
	copy(pins[:], c.GPIO.LCD.Data)
	return pins
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
	if c.Serial.Backend == "" {
		c.Serial.Backend = def.Serial.Backend
	}

	if c.I2C.Device == "" {
		c.I2C.Device = def.I2C.Device
	}
	if c.I2C.EEPROMAddress == 0 {
		c.I2C.EEPROMAddress = def.I2C.EEPROMAddress
	}
	if c.I2C.ADCAddress == 0 {
		c.I2C.ADCAddress = def.I2C.ADCAddress
	}

	if c.EEPROM.Settle == 0 {
		c.EEPROM.Settle = def.EEPROM.Settle
	}
	if c.EEPROM.Retries == 0 {
		c.EEPROM.Retries = def.EEPROM.Retries
	}
	if c.EEPROM.Image == "" {
		c.EEPROM.Image = def.EEPROM.Image
	}

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if c.GPIO.LED == 0 {
		c.GPIO.LED = def.GPIO.LED
	}
	if c.GPIO.Buzzer == 0 {
		c.GPIO.Buzzer = def.GPIO.Buzzer
	}
	if c.GPIO.LCD.RS == 0 {
		c.GPIO.LCD.RS = def.GPIO.LCD.RS
	}
	if c.GPIO.LCD.EN == 0 {
		c.GPIO.LCD.EN = def.GPIO.LCD.EN
	}
	if len(c.GPIO.LCD.Data) == 0 {
		c.GPIO.LCD.Data = def.GPIO.LCD.Data
	}

	if c.Detector.Mode == "" {
		c.Detector.Mode = def.Detector.Mode
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.HeartbeatEvery == 0 {
		c.MQTT.HeartbeatEvery = def.MQTT.HeartbeatEvery
	}
}
