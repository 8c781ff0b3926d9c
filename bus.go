package session

import (
	"sync"

	"github.com/google/uuid"
)

// Signal names a session-wide event. Subscribers carry no payload: they
// re-derive truth from the Store when a signal arrives.
type Signal string

const (
	SignalIdentityChanged     Signal = "identityChanged"
	SignalOnboardingCompleted Signal = "onboardingCompleted"
	SignalReferralCompleted   Signal = "referralCompleted"
)

// SignalHandler receives the signal that fired.
type SignalHandler func(Signal)

type busSubscriber struct {
	id string
	fn SignalHandler
}

// Bus is an in-process publish/subscribe channel connecting session
// components. Deliveries for a given signal are FIFO; a subscriber added
// during a dispatch does not receive that dispatch; publishing from inside a
// handler queues the delivery instead of nesting it.
type Bus struct {
	mu         sync.Mutex
	subs       map[Signal][]*busSubscriber
	pending    map[Signal]int
	delivering map[Signal]bool
}

func NewBus() *Bus {
	return &Bus{
		subs:       make(map[Signal][]*busSubscriber),
		pending:    make(map[Signal]int),
		delivering: make(map[Signal]bool),
	}
}

// Subscribe registers a handler for the signal and returns an unsubscribe
// function. Calling unsubscribe more than once is a no-op.
func (b *Bus) Subscribe(sig Signal, fn SignalHandler) func() {
	sub := &busSubscriber{id: uuid.New().String(), fn: fn}

	b.mu.Lock()
	b.subs[sig] = append(b.subs[sig], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[sig]
		for i, s := range list {
			if s.id == sub.id {
				b.subs[sig] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the signal to every current subscriber, in subscription
// order. If a delivery for the same signal is already in progress the publish
// is queued and drained by the goroutine that started first, which keeps
// same-signal deliveries FIFO.
func (b *Bus) Publish(sig Signal) {
	b.mu.Lock()
	b.pending[sig]++
	if b.delivering[sig] {
		b.mu.Unlock()
		return
	}
	b.delivering[sig] = true

	for b.pending[sig] > 0 {
		b.pending[sig]--
		// snapshot so handlers can subscribe/unsubscribe mid-dispatch
		// without receiving this delivery
		snapshot := append([]*busSubscriber(nil), b.subs[sig]...)
		b.mu.Unlock()

		for _, sub := range snapshot {
			sub.fn(sig)
		}

		b.mu.Lock()
	}

	b.delivering[sig] = false
	b.mu.Unlock()
}
