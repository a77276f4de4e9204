// Package pubsub provides in-process event distribution keyed by session id.
package pubsub

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/muyan2020/matchparty/internal/domain"
)

// Callback receives one published event. It must not block for long;
// delivery is synchronous from the publisher's point of view.
type Callback func(event domain.Event)

// Subscription identifies one registered callback.
type Subscription struct {
	id        string
	sessionID string
	callback  Callback
}

// Broker fans events out to the subscribers of a session. There is no
// buffering or replay: subscribers only see events published after they
// subscribe.
type Broker struct {
	mu   sync.RWMutex
	subs map[string][]*Subscription
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string][]*Subscription)}
}

// Subscribe registers a callback for a session and returns its subscription.
func (b *Broker) Subscribe(sessionID string, callback Callback) *Subscription {
	sub := &Subscription{
		id:        uuid.New().String(),
		sessionID: sessionID,
		callback:  callback,
	}
	b.mu.Lock()
	b.subs[sessionID] = append(b.subs[sessionID], sub)
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription. Removing one that is not registered is
// a no-op.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[sub.sessionID]
	for i, s := range subs {
		if s.id == sub.id {
			b.subs[sub.sessionID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[sub.sessionID]) == 0 {
		delete(b.subs, sub.sessionID)
	}
}

// Publish delivers an event to every current subscriber of the session. A
// panicking subscriber is logged and skipped; it never affects the others or
// the publisher.
func (b *Broker) Publish(sessionID string, event domain.Event) {
	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs[sessionID]))
	copy(subs, b.subs[sessionID])
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(sub, event)
	}
}

func (b *Broker) deliver(sub *Subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("WARN: event subscriber panicked (session %s): %v", sub.sessionID, r)
		}
	}()
	sub.callback(event)
}

// SubscriberCount returns the number of subscribers for a session.
func (b *Broker) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
