package main

import (
	"log"
	"time"

	"github.com/sweeney/impact-sensor/internal/logic"
	"github.com/sweeney/impact-sensor/internal/mqtt"
	"github.com/sweeney/impact-sensor/internal/status"
)

// telemetry feeds monitor activity to the status tracker and MQTT.
// publisher may be nil when MQTT is disabled.
type telemetry struct {
	publisher      mqtt.Publisher
	mqttStatus     mqtt.ConnectionStatus
	tracker        *status.Tracker
	heartbeatEvery int // serial heartbeats per MQTT heartbeat; <= 0 disables
	now            func() time.Time
}

func (t *telemetry) Sampled(sample uint8, led bool, count uint16) {
	t.tracker.Update(sample, led, count)
}

func (t *telemetry) Impact(event logic.Event) {
	t.tracker.RecordImpact(event.Count)
	t.publish(event)
}

func (t *telemetry) Reset(event logic.Event) {
	t.tracker.RecordReset()
	t.publish(event)
}

func (t *telemetry) Heartbeat(count uint16) {
	n := t.tracker.RecordHeartbeat()
	if t.heartbeatEvery <= 0 || n%t.heartbeatEvery != 0 {
		return
	}
	t.refresh()
	snap := t.tracker.Snapshot()
	log.Printf("heartbeat: uptime=%v count=%d impacts=%d resets=%d",
		snap.Uptime().Truncate(time.Second), count, snap.Totals.Impacts, snap.Totals.Resets)

	t.publishSystem(mqtt.SystemEvent{
		Timestamp:  t.now(),
		Event:      mqtt.EventHeartbeat,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventHeartbeat, ""),
	})
}

func (t *telemetry) Fault(err error) {
	reason := "CLEARED"
	if err != nil {
		reason = err.Error()
		t.tracker.SetFault(reason)
	} else {
		t.tracker.SetFault("")
	}
	t.publishSystem(mqtt.SystemEvent{
		Timestamp: t.now(),
		Event:     mqtt.EventFault,
		Reason:    reason,
	})
}

// refresh pulls connection and network state into the tracker.
func (t *telemetry) refresh() {
	if t.mqttStatus != nil {
		t.tracker.SetMQTTConnected(t.mqttStatus.IsConnected())
	}
	if info := readNetworkInfo(); info != nil {
		t.tracker.SetNetwork(info)
	}
}

func (t *telemetry) publish(event logic.Event) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.Publish(event); err != nil {
		// Don't crash on publish failure
		log.Printf("publish error: %v", err)
	}
}

func (t *telemetry) publishSystem(event mqtt.SystemEvent) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishSystem(event); err != nil {
		log.Printf("%s publish error: %v", event.Event, err)
	}
}
