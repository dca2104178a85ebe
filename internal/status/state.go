package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rmarinn/slacksync/internal/bus"
)

// State represents a connection lifecycle state.
type State string

const (
	// Disconnected means no session is active.
	Disconnected State = "DISCONNECTED"
	// Connecting means the handshake request is in flight or the snapshot
	// is being loaded.
	Connecting State = "CONNECTING"
	// AwaitingHello means the socket is open but the server has not yet
	// confirmed the session with its hello event.
	AwaitingHello State = "AWAITING_HELLO"
	// Connected means the session is live and events are flowing.
	Connected State = "CONNECTED"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Disconnected:  {Connecting},
	Connecting:    {AwaitingHello, Disconnected},
	AwaitingHello: {Connected, Disconnected},
	Connected:     {Disconnected},
}

// Machine tracks and enforces connection state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Disconnected state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Disconnected,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if the
// transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      "connection.state_changed",
			Timestamp: time.Now(),
			Payload:   StateChange{From: from, To: to},
		})
	}
	return nil
}

// StateChange is the payload for connection state change events.
type StateChange struct {
	From State
	To   State
}
