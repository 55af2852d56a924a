package engine

import "fmt"

// RangeError reports caller-supplied read geometry that violates protocol
// limits. It is raised before any network I/O.
type RangeError struct {
	Op    string
	Count uint16
	Max   uint16
}

func (e *RangeError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("%s: count must be at least 1", e.Op)
	}
	return fmt.Sprintf("%s: count %d exceeds per-request maximum %d", e.Op, e.Count, e.Max)
}

// WriteStep names the stage of the write-verify workflow a failure
// belongs to.
type WriteStep string

const (
	StepReadOriginal WriteStep = "read original"
	StepWrite        WriteStep = "write"
	StepReadBack     WriteStep = "read back"
)

// VerifyError aborts a write-verify operation on a failed read step. When
// Step is StepReadOriginal no write was sent and the device is untouched;
// when Step is StepReadBack the write already went out and the device's
// final state is unknown to the caller.
type VerifyError struct {
	Step WriteStep
	Err  error
}

func (e *VerifyError) Error() string {
	switch e.Step {
	case StepReadOriginal:
		return fmt.Sprintf("could not read original state, write not attempted: %v", e.Err)
	default:
		return fmt.Sprintf("could not confirm written state: %v", e.Err)
	}
}

func (e *VerifyError) Unwrap() error { return e.Err }

// WriteError reports that the write step itself failed. The device state
// is asserted unchanged since the write was rejected or never answered.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed, device state unchanged: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
