package conversation

import (
	"context"

	"github.com/bytedance/sonic"
)

// Flow is one command-to-terminal dialogue. The manager owns persistence,
// transition checks and teardown; a flow only validates input, does the work
// of its current state and says what comes next.
type Flow interface {
	// Name is the entry command and the access gate handler name
	Name() string
	// Order lists the flow's states from StateStart, excluding StateTerminated
	Order() []State
	Begin(ctx context.Context, t *Turn) Transition
	// Step handles text in state. stage is the value DecodeStage produced for
	// state. An error is an unexpected fault, not a user or backend failure.
	Step(ctx context.Context, t *Turn, state State, stage any, text string) (Transition, error)
	DecodeStage(state State, payload []byte) (any, error)
}

func decodeAs[T any](payload []byte) (any, error) {
	var v T
	if len(payload) == 0 {
		return v, nil
	}
	if err := sonic.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}
