package types

import "fmt"

// ValidationError reports bad simulation config or goal inputs. It is
// returned before any trial runs and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError reports an unknown goal id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// TimeoutError reports a per-goal or per-batch deadline exceeded.
type TimeoutError struct {
	GoalID  string
	Elapsed string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("calculation for goal %q timed out after %s", e.GoalID, e.Elapsed)
}

// PersistenceError reports a failed durable write. The computed result
// is still returned to the caller alongside this error.
type PersistenceError struct {
	GoalID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist probability for goal %q: %v", e.GoalID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// InternalError reports an unexpected numeric or cache-state failure.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
