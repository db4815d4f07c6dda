// Copyright (C) 2017 ScyllaDB

// Package fsm implements a small event driven state machine.
//
// Every state owns an Action. Running the current state's Action yields an
// event, the event selects the next state, and the next state's Action runs
// in turn. The chain stops when an Action yields the machine's stop event.
package fsm

import (
	"context"

	"github.com/pkg/errors"
)

// ErrEventRejected is the error returned when the state machine cannot process
// an event in the state that it is in.
var ErrEventRejected = errors.New("event rejected")

// Action represents the action to be executed in a given state.
type Action[E comparable] func(ctx context.Context) (E, error)

// Transition binds a state with an action and a set of events it can handle.
type Transition[S, E comparable] struct {
	Action Action[E]
	Events map[E]S
}

// Hook is called on each state machine transition.
type Hook[S, E comparable] func(ctx context.Context, currentState, nextState S, event E) error

// StateTransitions represents a mapping of states and their implementations.
type StateTransitions[S, E comparable] map[S]Transition[S, E]

// StateMachine represents the state machine.
type StateMachine[S, E comparable] struct {
	current S
	stop    E

	stateTransitions StateTransitions[S, E]
	transitionHook   Hook[S, E]
}

// New returns initialized state machine. The machine stops processing when an
// action returns the stop event.
func New[S, E comparable](state S, stop E, stateTransitions StateTransitions[S, E], hook Hook[S, E]) *StateMachine[S, E] {
	return &StateMachine[S, E]{
		current:          state,
		stop:             stop,
		stateTransitions: stateTransitions,
		transitionHook:   hook,
	}
}

// getNextState returns the next state for the event given the machine's current
// state, or an error if the event can't be handled in the given state.
func (s *StateMachine[S, E]) getNextState(event E) (S, error) {
	if next, ok := s.stateTransitions[s.current].Events[event]; ok {
		return next, nil
	}
	return s.current, errors.Wrapf(ErrEventRejected, "state %v does not handle event %v", s.current, event)
}

// Transition runs the current state's action and follows the emitted events
// until an action emits the stop event or fails. A failing action leaves the
// machine in the state whose action failed.
func (s *StateMachine[S, E]) Transition(ctx context.Context) error {
	transition, ok := s.stateTransitions[s.current]
	if !ok || transition.Action == nil {
		return errors.Wrapf(ErrEventRejected, "state %v has no action", s.current)
	}
	event, err := transition.Action(ctx)
	if err != nil {
		return err
	}

	for event != s.stop {
		nextState, err := s.getNextState(event)
		if err != nil {
			return err
		}

		nextTransition, ok := s.stateTransitions[nextState]
		if !ok || nextTransition.Action == nil {
			return errors.Wrapf(ErrEventRejected, "unknown transition %v for event %v", nextState, event)
		}

		if s.transitionHook != nil {
			if err := s.transitionHook(ctx, s.current, nextState, event); err != nil {
				return err
			}
		}
		s.current = nextState

		event, err = nextTransition.Action(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// Current return current state machine state.
func (s *StateMachine[S, E]) Current() S {
	return s.current
}

// Force moves the machine to state without running any action or hook.
func (s *StateMachine[S, E]) Force(state S) {
	s.current = state
}
