package fbclient

import (
	"fmt"
	"sync"
	"time"
)

// ConnectionState is where a connection sits in the connect/authenticate/
// attach/detach lifecycle.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	TcpConnected
	Negotiated
	Authenticated
	Attached
	Detached
	Dropped
)

func (cs ConnectionState) String() string {
	switch cs {
	case Disconnected:
		return "DISCONNECTED"
	case TcpConnected:
		return "TCP_CONNECTED"
	case Negotiated:
		return "NEGOTIATED"
	case Authenticated:
		return "AUTHENTICATED"
	case Attached:
		return "ATTACHED"
	case Detached:
		return "DETACHED"
	case Dropped:
		return "DROPPED"
	default:
		return "UNKNOWN"
	}
}

// StateTransition records one state change with enough context to explain
// why it happened.
type StateTransition struct {
	From      ConnectionState
	To        ConnectionState
	Timestamp time.Time
	Error     error
	Duration  time.Duration
	Metadata  map[string]interface{}
}

// StateChangeHandler is invoked on every legal transition.
type StateChangeHandler func(StateTransition)

// StateManager tracks the connection's lifecycle state and notifies
// observers (principally the logger) of transitions.
//
// Legal transitions:
//
//	Disconnected  -> TcpConnected
//	TcpConnected  -> Negotiated | Disconnected
//	Negotiated    -> Authenticated | Disconnected
//	Authenticated -> Attached | Disconnected
//	Attached      -> Detached | Dropped | Disconnected
//	Detached      -> Disconnected
//	Dropped       -> Disconnected
type StateManager struct {
	mu             sync.RWMutex
	current        ConnectionState
	lastTransition time.Time
	handlers       []StateChangeHandler
}

// NewStateManager returns a manager starting in Disconnected.
func NewStateManager() *StateManager {
	return &StateManager{current: Disconnected, lastTransition: time.Now()}
}

func (sm *StateManager) TransitionTo(newState ConnectionState, err error, metadata map[string]interface{}) error {
	sm.mu.Lock()

	if !sm.isLegalTransition(sm.current, newState) {
		from := sm.current
		sm.mu.Unlock()
		return fmt.Errorf("fbclient: illegal state transition: %s -> %s", from, newState)
	}

	now := time.Now()
	transition := StateTransition{
		From: sm.current, To: newState, Timestamp: now,
		Error: err, Duration: now.Sub(sm.lastTransition), Metadata: metadata,
	}
	sm.current = newState
	sm.lastTransition = now

	handlers := make([]StateChangeHandler, len(sm.handlers))
	copy(handlers, sm.handlers)
	sm.mu.Unlock()

	for _, h := range handlers {
		h(transition)
	}
	return nil
}

func (sm *StateManager) isLegalTransition(from, to ConnectionState) bool {
	switch from {
	case Disconnected:
		return to == TcpConnected
	case TcpConnected:
		return to == Negotiated || to == Disconnected
	case Negotiated:
		return to == Authenticated || to == Disconnected
	case Authenticated:
		return to == Attached || to == Disconnected
	case Attached:
		return to == Detached || to == Dropped || to == Disconnected
	case Detached, Dropped:
		return to == Disconnected
	default:
		return false
	}
}

// OnStateChange registers a handler called on every successful transition.
func (sm *StateManager) OnStateChange(h StateChangeHandler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.handlers = append(sm.handlers, h)
}

// GetState returns the current state.
func (sm *StateManager) GetState() ConnectionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}
