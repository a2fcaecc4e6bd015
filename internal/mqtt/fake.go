package mqtt

import (
	"sync"

	"github.com/sweeney/impact-sensor/internal/logic"
)

// Message is one publish as it would reach the broker.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher is an in-memory Publisher and ConnectionStatus. It formats
// every publish exactly as RealPublisher would and keeps the result.
//
// Fields may be read directly once the code under test has stopped
// publishing; use the methods while it is still running.
type FakePublisher struct {
	mu sync.Mutex

	// Messages is every successful publish, in order, across both topics.
	Messages []Message

	// Events and Payloads hold the count changes sent to Topic.
	Events   []logic.Event
	Payloads [][]byte

	// SystemEvents and SystemPayloads hold what was sent to TopicSystem.
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError and PublishSystemError make the matching call fail
	// without recording anything.
	PublishError       error
	PublishSystemError error

	// Connected is reported by IsConnected.
	Connected bool
	// Closed is set by Close.
	Closed bool
}

var (
	_ Publisher        = (*FakePublisher)(nil)
	_ ConnectionStatus = (*FakePublisher)(nil)
)

// NewFakePublisher creates a disconnected FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish formats and records an IMPACT or RESET event.
func (f *FakePublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	f.Messages = append(f.Messages, Message{Topic: Topic, Payload: payload})
	return nil
}

// PublishSystem formats and records a lifecycle event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	f.Messages = append(f.Messages, Message{Topic: TopicSystem, Payload: payload, Retained: event.Retained})
	return nil
}

// SystemEventNames lists the Event of each recorded system event.
func (f *FakePublisher) SystemEventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		names[i] = e.Event
	}
	return names
}

// Counts returns how many IMPACT and RESET events were recorded.
func (f *FakePublisher) Counts() (impacts, resets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.Events {
		switch e.Type {
		case logic.EventImpact:
			impacts++
		case logic.EventReset:
			resets++
		}
	}
	return impacts, resets
}

// IsConnected reports the Connected field.
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close sets Closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
