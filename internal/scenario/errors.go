package scenario

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction indicates a step naming an action outside the
	// scenario vocabulary.
	ErrUnknownAction = errors.New("scenario: unknown action")

	// ErrUnknownCondition indicates an assert or wait_for step naming
	// an unrecognized condition.
	ErrUnknownCondition = errors.New("scenario: unknown condition")

	// ErrUnknownSetting indicates a set or toggle step naming a
	// setting the runtime cannot address.
	ErrUnknownSetting = errors.New("scenario: unknown setting")

	// ErrUnknownScenario indicates a built-in scenario name that is
	// not registered.
	ErrUnknownScenario = errors.New("scenario: unknown scenario")

	// ErrInvalidStep indicates a step with missing or out-of-range
	// parameters.
	ErrInvalidStep = errors.New("scenario: invalid step")

	// ErrTimeout indicates a wait_for step whose condition never
	// became true within its bound.
	ErrTimeout = errors.New("scenario: wait_for timed out")
)

// AssertionError reports a failed assert step with the expected and
// observed values. It aborts the remaining steps of the scenario.
type AssertionError struct {
	Condition string
	Expected  string
	Actual    string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("scenario: assertion failed: %s = %s, want %s",
		e.Condition, e.Actual, e.Expected)
}
