package mqtt

// DefaultBufferSize is how many messages are held while disconnected.
const DefaultBufferSize = 256

// message is a serialized MQTT publish held for replay after reconnection.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a bounded FIFO of messages published while offline. When full,
// the oldest message is dropped. Not safe for concurrent use.
type outbox struct {
	msgs    []message
	limit   int
	dropped int // messages lost since the last drain
}

func newOutbox(limit int) *outbox {
	if limit < 1 {
		limit = 1
	}
	return &outbox{limit: limit}
}

func (o *outbox) push(m message) {
	if len(o.msgs) == o.limit {
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:len(o.msgs)-1]
		o.dropped++
	}
	o.msgs = append(o.msgs, m)
}

// drain returns queued messages oldest first along with the number dropped,
// and empties the outbox.
func (o *outbox) drain() ([]message, int) {
	msgs, dropped := o.msgs, o.dropped
	o.msgs = nil
	o.dropped = 0
	return msgs, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}
