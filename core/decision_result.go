package core

// DecisionResult represents the outcome of a business decision in a Decide function.
//
// DecisionResult should only be constructed using the provided factory functions:
// IdempotentDecision(), SuccessDecision(state), or ErrorDecision(err).
type DecisionResult[S any] struct {
	Outcome string // "idempotent", "success", or "error"
	State   S      // the next state, only meaningful for success decisions
	Err     error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision[S any]() DecisionResult[S] {
	return DecisionResult[S]{Outcome: idempotentOutcome}
}

// SuccessDecision creates a DecisionResult indicating a state change to next.
func SuccessDecision[S any](next S) DecisionResult[S] {
	return DecisionResult[S]{
		Outcome: successOutcome,
		State:   next,
	}
}

// ErrorDecision creates a DecisionResult indicating a business rule violation.
func ErrorDecision[S any](err error) DecisionResult[S] {
	return DecisionResult[S]{
		Outcome: errorOutcome,
		Err:     err,
	}
}

// HasStateToSave returns true if the decision produced a new state.
func (r DecisionResult[S]) HasStateToSave() bool {
	return r.Outcome == successOutcome
}

// IsIdempotent returns true if nothing has to change.
func (r DecisionResult[S]) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult[S]) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}
