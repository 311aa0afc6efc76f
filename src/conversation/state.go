package conversation

import (
	"fmt"
	"slices"
)

// State is a position in a flow's linear dialogue
type State string

const (
	StateStart      State = "start"
	StateTerminated State = "terminated"

	// kgs
	StateAwaitingLoginChoice    State = "awaiting_login_choice"
	StateAwaitingIdentifier     State = "awaiting_identifier"
	StateAwaitingSecretOrToken  State = "awaiting_secret_or_token"
	StateAwaitingBatchSelection State = "awaiting_batch_selection"

	// pw
	StateAwaitingToken      State = "awaiting_token"
	StateAwaitingBatchID    State = "awaiting_batch_id"
	StateAwaitingSubjectIDs State = "awaiting_subject_ids"
)

// Outcome is why a conversation reached StateTerminated
type Outcome string

const (
	OutcomeNone          Outcome = ""
	OutcomeCompleted     Outcome = "completed"
	OutcomeAuthError     Outcome = "auth_error"
	OutcomeFetchError    Outcome = "fetch_error"
	OutcomeEmptyResult   Outcome = "empty_result"
	OutcomeDeliveryError Outcome = "delivery_error"
	OutcomeCancelled     Outcome = "cancelled"
	OutcomeFault         Outcome = "fault"
)

// Transition is the result of one turn
type Transition struct {
	Next    State
	Stage   any
	Outcome Outcome
	// Cause is the error behind a failed terminal transition. Logged, never shown.
	Cause error
}

// Stay keeps the session where it is, typically after invalid input
func Stay(state State, stage any) Transition {
	return Transition{Next: state, Stage: stage}
}

func Advance(next State, stage any) Transition {
	return Transition{Next: next, Stage: stage}
}

func Terminate(outcome Outcome, cause error) Transition {
	return Transition{Next: StateTerminated, Outcome: outcome, Cause: cause}
}

// checkTransition enforces the linear order: a turn may stay, move exactly one
// step forward, or terminate.
func checkTransition(order []State, from, to State) error {
	if to == StateTerminated {
		return nil
	}
	i := slices.Index(order, from)
	j := slices.Index(order, to)
	if i < 0 || j < 0 {
		return fmt.Errorf("illegal transition %s -> %s: unknown state", from, to)
	}
	if j == i && from != StateStart {
		return nil
	}
	if j == i+1 {
		return nil
	}
	return fmt.Errorf("illegal transition %s -> %s", from, to)
}
