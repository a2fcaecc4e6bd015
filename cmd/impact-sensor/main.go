// Command impact-sensor samples an impact sensor, raises a local alarm,
// keeps a persistent impact count and publishes impacts to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/impact-sensor/internal/config"
	"github.com/sweeney/impact-sensor/internal/logic"
	"github.com/sweeney/impact-sensor/internal/monitor"
	"github.com/sweeney/impact-sensor/internal/mqtt"
	"github.com/sweeney/impact-sensor/internal/status"
	"github.com/sweeney/impact-sensor/internal/web"
)

// commandPoll is how often the loop checks for serial commands between ticks.
const commandPoll = 10 * time.Millisecond

type options struct {
	configPath string
	broker     string
	httpAddr   string
	mode       string
	simulate   bool
	printCount bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "/etc/impact-sensor.yaml", "YAML config file (defaults apply if missing)")
	flag.StringVar(&opts.broker, "broker", "", `MQTT broker address, overrides config ("off" disables)`)
	flag.StringVar(&opts.httpAddr, "http", "", `HTTP status address, overrides config ("off" disables)`)
	flag.StringVar(&opts.mode, "mode", "", "Detection mode, overrides config: level or edge")
	flag.BoolVar(&opts.simulate, "simulate", false, "Run without hardware: simulated sensor, file-backed EEPROM, terminal serial")
	flag.BoolVar(&opts.printCount, "print-count", false, "Print the stored impact count and exit")

	flag.Parse()

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg, opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	switch opts.broker {
	case "":
	case "off":
		cfg.MQTT.Broker = ""
	default:
		cfg.MQTT.Broker = opts.broker
	}
	switch opts.httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = opts.httpAddr
	}
	if opts.mode != "" {
		mode, err := logic.ParseMode(opts.mode)
		if err != nil {
			return nil, err
		}
		cfg.Detector.Mode = mode
	}
	return cfg, nil
}

func run(cfg *config.Config, opts options) error {
	if opts.printCount {
		return printCount(cfg, opts.simulate)
	}

	hw, err := openHardware(cfg, opts.simulate)
	if err != nil {
		return err
	}
	defer hw.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:         logic.TickPeriod.Milliseconds(),
		Threshold:      logic.Threshold,
		Mode:           cfg.Detector.Mode,
		Serial:         serialName(cfg, opts.simulate),
		Broker:         cfg.MQTT.Broker,
		HTTPAddr:       cfg.HTTP.Addr,
		HeartbeatEvery: cfg.MQTT.HeartbeatEvery,
	})
	if info := readNetworkInfo(); info != nil {
		tracker.SetNetwork(info)
	}

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Broker != "" {
		rp := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		defer rp.Close()
		publisher, mqttStatus = rp, rp
	}

	tel := &telemetry{
		publisher:      publisher,
		mqttStatus:     mqttStatus,
		tracker:        tracker,
		heartbeatEvery: cfg.MQTT.HeartbeatEvery,
		now:            time.Now,
	}
	mon := monitor.New(hw.devices, monitor.Config{
		Mode:     cfg.Detector.Mode,
		Banner:   cfg.Banner,
		Observer: tel,
	})
	mon.Start()
	tracker.SetCount(mon.Count())

	publishStartup(publisher, tracker)

	if cfg.HTTP.Addr != "" {
		ln, err := net.Listen("tcp", cfg.HTTP.Addr)
		if err != nil {
			return fmt.Errorf("http listen %s: %w", cfg.HTTP.Addr, err)
		}
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", ln.Addr())
	}

	log.Printf("started: count=%d mode=%s broker=%q simulate=%v", mon.Count(), cfg.Detector.Mode, cfg.MQTT.Broker, opts.simulate)

	ticker := time.NewTicker(logic.TickPeriod)
	defer ticker.Stop()
	poller := time.NewTicker(commandPoll)
	defer poller.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(mon, publisher, mqttStatus, tracker, time.Now, ticker.C, poller.C, sigCh)
}

// publishStartup sends the retained STARTUP event with a status snapshot.
func publishStartup(publisher mqtt.Publisher, tracker *status.Tracker) {
	if publisher == nil {
		return
	}
	snap := tracker.Snapshot()
	err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	})
	if err != nil {
		log.Printf("failed to publish startup event: %v", err)
		return
	}
	log.Printf("published startup event")
}

// runLoop is the cooperative main loop. Each tick is handed to the monitor
// as its timer interrupt; every wake-up runs one monitor step.
func runLoop(mon *monitor.Monitor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick, poll <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     mqtt.EventShutdown,
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, mqtt.EventShutdown, signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			mon.Tick()
			if tracker != nil && mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

		case <-poll:
		}

		mon.Step()
	}
}

// printCount reads the stored counter without touching the other peripherals.
func printCount(cfg *config.Config, simulate bool) error {
	h := &hardware{}
	defer h.Close()

	store, err := openStore(cfg, simulate, h)
	if err != nil {
		return err
	}
	stored, err := store.Load()
	if err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	fmt.Printf("Impact Count = %s (stored 0x%04x)\n", logic.Digits(logic.NormalizeLoaded(stored)), stored)
	return nil
}

func serialName(cfg *config.Config, simulate bool) string {
	if simulate {
		return "terminal"
	}
	return cfg.Serial.Port
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
