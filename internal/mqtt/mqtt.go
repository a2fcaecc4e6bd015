// Package mqtt publishes impact counts and lifecycle events to a broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/impact-sensor/internal/logic"
)

const topicRoot = "sensors/impact/"

// Topics. Count changes go to Topic; lifecycle events (retained where
// flagged) go to TopicSystem.
const (
	Topic       = topicRoot + "events"
	TopicSystem = topicRoot + "system"
)

// Lifecycle event names.
const (
	EventStartup   = "STARTUP"
	EventShutdown  = "SHUTDOWN"
	EventHeartbeat = "HEARTBEAT"
	EventFault     = "FAULT"
	EventOffline   = "OFFLINE"
)

// Publisher publishes events to MQTT. Errors are reported, never fatal.
type Publisher interface {
	Publish(event logic.Event) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event. When RawPayload is set it is sent
// verbatim; status snapshots arrive this way.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string
	RawPayload []byte
	Retained   bool
}

type impactBody struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Count     uint16 `json:"count"`
	Sample    uint8  `json:"sample,omitempty"`
}

type systemBody struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatPayload encodes a count change as {"impact":{...}}. Sample is
// omitted for resets.
func FormatPayload(event logic.Event) ([]byte, error) {
	return json.Marshal(struct {
		Impact impactBody `json:"impact"`
	}{impactBody{
		Timestamp: stamp(event.Timestamp),
		Event:     string(event.Type),
		Count:     event.Count,
		Sample:    event.Sample,
	}})
}

// FormatSystemPayload encodes a lifecycle event as {"system":{...}}.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return encodeSystem(systemBody{
		Timestamp: stamp(event.Timestamp),
		Event:     event.Event,
		Reason:    event.Reason,
	})
}

// FormatWillPayload is the last will registered at connect time, so it
// carries no timestamp.
func FormatWillPayload() []byte {
	data, _ := encodeSystem(systemBody{Event: EventOffline, Reason: "CONNECTION_LOST"})
	return data
}

func encodeSystem(body systemBody) ([]byte, error) {
	return json.Marshal(struct {
		System systemBody `json:"system"`
	}{body})
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
