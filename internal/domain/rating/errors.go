package rating

import (
	"errors"
	"fmt"
)

// Sentinel kinds for rating errors. Typed errors below match them via errors.Is.
var (
	ErrUnsupportedArity = errors.New("unsupported match arity")
	ErrDegenerateState  = errors.New("degenerate rating state")
	ErrConfiguration    = errors.New("invalid ranker configuration")
	ErrNoConvergence    = errors.New("numerical solve did not converge")
	ErrNotInMatch       = errors.New("subject is not part of the match")
	ErrForeignSubject   = errors.New("subject was not created by this ranker")
)

// UnsupportedArityError reports a pairwise-only operation on a match that
// does not have exactly two competitors.
type UnsupportedArityError struct {
	Op    string
	Arity int
}

func (e *UnsupportedArityError) Error() string {
	return fmt.Sprintf("%s: %v: want 2 competitors, got %d", e.Op, ErrUnsupportedArity, e.Arity)
}

func (e *UnsupportedArityError) Is(target error) bool { return target == ErrUnsupportedArity }

// DegenerateStateError reports a division by zero or a non-finite result.
type DegenerateStateError struct {
	Op     string
	Reason string
}

func (e *DegenerateStateError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrDegenerateState, e.Reason)
}

func (e *DegenerateStateError) Is(target error) bool { return target == ErrDegenerateState }

// ConfigurationError reports an inconsistent ranker parameter.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ConvergenceError reports an iterative solve that hit its iteration bound.
type ConvergenceError struct {
	Op         string
	Iterations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: %v after %d iterations", e.Op, ErrNoConvergence, e.Iterations)
}

func (e *ConvergenceError) Is(target error) bool { return target == ErrNoConvergence }

// Kind maps an error to a short label for metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedArity):
		return "unsupported_arity"
	case errors.Is(err, ErrDegenerateState):
		return "degenerate_state"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNoConvergence):
		return "no_convergence"
	case errors.Is(err, ErrNotInMatch):
		return "not_in_match"
	case errors.Is(err, ErrForeignSubject):
		return "foreign_subject"
	default:
		return "other"
	}
}
