package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/impact-sensor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Count         uint16       `json:"count"`
	Display       string       `json:"display"`
	LastSample    *uint8       `json:"last_sample"`
	LED           string       `json:"led"`
	Fault         string       `json:"fault,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Totals        TotalsJSON   `json:"totals"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// TotalsJSON is the JSON representation of activity totals.
type TotalsJSON struct {
	Impacts    int `json:"impacts"`
	Resets     int `json:"resets"`
	Heartbeats int `json:"heartbeats"`
	Faults     int `json:"faults"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs         int64  `json:"tick_ms"`
	Threshold      uint8  `json:"threshold"`
	Mode           string `json:"mode"`
	Serial         string `json:"serial"`
	Broker         string `json:"broker"`
	HTTPAddr       string `json:"http_addr"`
	HeartbeatEvery int    `json:"heartbeat_every"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Count:         snap.Count,
		Display:       logic.Digits(snap.Count),
		LED:           "OFF",
		Fault:         snap.Fault,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Totals: TotalsJSON{
			Impacts:    snap.Totals.Impacts,
			Resets:     snap.Totals.Resets,
			Heartbeats: snap.Totals.Heartbeats,
			Faults:     snap.Totals.Faults,
		},
		Config: ConfigJSON{
			TickMs:         snap.Config.TickMs,
			Threshold:      snap.Config.Threshold,
			Mode:           string(snap.Config.Mode),
			Serial:         snap.Config.Serial,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
			HeartbeatEvery: snap.Config.HeartbeatEvery,
		},
	}
	if snap.LED {
		inner.LED = "ON"
	}
	if snap.Sampled {
		s := snap.Sample
		inner.LastSample = &s
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
