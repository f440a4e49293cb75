// Package events fans run outcomes out to in-process subscribers (the
// gateway's live stream). Publishing never blocks: a subscriber that
// cannot keep up loses events rather than stalling the scheduler.
package events

import (
	"sync"
	"time"
)

// RunEvent describes one completed capture run.
type RunEvent struct {
	LoginID      string    `json:"login_id"`
	Outcome      string    `json:"outcome"` // "success" or a failure reason
	ArtifactPath string    `json:"artifact_path,omitempty"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

const subscriberBuffer = 16

// Broker is a bounded fan-out of run events.
type Broker struct {
	mu   sync.Mutex
	subs map[chan RunEvent]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan RunEvent]struct{})}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. Unsubscribe closes the channel.
func (b *Broker) Subscribe() (<-chan RunEvent, func()) {
	ch := make(chan RunEvent, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber whose buffer has room.
func (b *Broker) Publish(evt RunEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Drop for this subscriber; the stream is advisory.
		}
	}
}

// Len returns the current subscriber count.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
