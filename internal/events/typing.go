package events

import (
	"sync"
	"time"

	"github.com/rmarinn/slacksync/internal/bus"
	"github.com/rmarinn/slacksync/internal/store"
)

// typingExpiry is how long a user stays in a channel's typing set after
// their last typing event.
const typingExpiry = 5 * time.Second

type typingKey struct {
	channel string
	user    string
}

// typingTracker schedules one cancellable expiration per (channel, user).
// Re-triggering resets the existing timer rather than stacking a new one.
type typingTracker struct {
	store *store.Store
	bus   *bus.Bus
	ttl   time.Duration

	mu     sync.Mutex
	timers map[typingKey]*time.Timer
}

func newTypingTracker(st *store.Store, b *bus.Bus, ttl time.Duration) *typingTracker {
	return &typingTracker{
		store:  st,
		bus:    b,
		ttl:    ttl,
		timers: make(map[typingKey]*time.Timer),
	}
}

func (t *typingTracker) touch(channel, user string) {
	key := typingKey{channel: channel, user: user}
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Reset(t.ttl)
		return
	}
	t.timers[key] = time.AfterFunc(t.ttl, func() {
		t.expire(key)
	})
}

func (t *typingTracker) expire(key typingKey) {
	t.mu.Lock()
	delete(t.timers, key)
	t.mu.Unlock()
	if t.store.ClearTyping(key.channel, key.user) {
		t.bus.Publish(bus.Event{
			Kind:    "typing.stopped",
			Payload: TypingPayload{Channel: key.channel, User: key.user},
		})
	}
}

func (t *typingTracker) stopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}
