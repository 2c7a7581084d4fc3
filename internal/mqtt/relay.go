package mqtt

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/gpio2key/internal/logic"
)

// DefaultRelaySize is the queue length used when NewRelay is given zero.
const DefaultRelaySize = 64

type relayMsg struct {
	key    *logic.Event
	system *SystemEvent
}

// Relay forwards listener notifications to a Publisher on its own
// goroutine. The polling loop never waits on the broker: when the queue
// is full the message is dropped and counted.
type Relay struct {
	pub  Publisher
	msgs chan relayMsg
	done chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewRelay starts a relay with a queue of size messages.
func NewRelay(pub Publisher, size int) *Relay {
	if size <= 0 {
		size = DefaultRelaySize
	}
	r := &Relay{
		pub:  pub,
		msgs: make(chan relayMsg, size),
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Relay) loop() {
	defer close(r.done)
	for m := range r.msgs {
		switch {
		case m.key != nil:
			if err := r.pub.Publish(*m.key); err != nil {
				log.Warnf("mqtt: publish %s %s: %v", m.key.Type, m.key.Key, err)
			}
		case m.system != nil:
			if err := r.pub.PublishSystem(*m.system); err != nil {
				log.Warnf("mqtt: publish %s: %v", m.system.Event, err)
			}
		}
	}
}

func (r *Relay) enqueue(m relayMsg) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.msgs <- m:
	default:
		if r.dropped.Add(1) == 1 {
			log.Warn("mqtt: relay queue full, dropping messages")
		}
	}
}

// OnKeyEvent queues a key event for publishing.
func (r *Relay) OnKeyEvent(event logic.Event) {
	r.enqueue(relayMsg{key: &event})
}

// OnPowerSwitch queues a POWER_SWITCH system event.
func (r *Relay) OnPowerSwitch(offset int, at time.Time) {
	r.enqueue(relayMsg{system: &SystemEvent{
		Timestamp: at,
		Event:     EventPowerSwitch,
		Reason:    fmt.Sprintf("gpio %d", offset),
	}})
}

// Close stops accepting messages, publishes whatever is queued and
// waits for the relay goroutine to finish. It does not close the
// underlying Publisher.
func (r *Relay) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.msgs)
	}
	r.mu.Unlock()
	<-r.done
}

// Dropped returns how many messages were discarded because the queue
// was full.
func (r *Relay) Dropped() int64 {
	return r.dropped.Load()
}
