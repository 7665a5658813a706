package repl

import (
	"fmt"

	"github.com/bft-labs/abacus/internal/domain"
	"github.com/bft-labs/abacus/pkg/log"
)

// State represents the dispatcher state of a session.
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateDispatching
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingInput:
		return "AwaitingInput"
	case StateDispatching:
		return "Dispatching"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Observer is called when the session state changes.
type Observer interface {
	OnStateChange(previous, current State, reason string)
}

// allowed lists the valid transitions out of each state.
var allowed = map[State][]State{
	StateIdle:          {StateAwaitingInput, StateTerminated},
	StateAwaitingInput: {StateDispatching, StateTerminated},
	StateDispatching:   {StateAwaitingInput},
	StateTerminated:    nil,
}

// transitionTo moves the session to next, notifying the observer.
func (s *Session) transitionTo(next State, reason string) error {
	prev := s.state
	ok := false
	for _, st := range allowed[prev] {
		if st == next {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, next)
	}

	s.state = next
	if s.observer != nil {
		s.observer.OnStateChange(prev, next, reason)
	}
	s.logger.Debug("state transition",
		log.String("from", prev.String()),
		log.String("to", next.String()),
		log.String("reason", reason),
	)
	return nil
}
