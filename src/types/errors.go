package types

import (
	"errors"
	"fmt"
)

// Submission and startup failures. OutOfRange and DuplicateRequest are
// returned to the submitter and never cross the control loop;
// InvalidConfiguration is fatal at startup.
var (
	ErrOutOfRange           = errors.New("floor out of range")
	ErrDuplicateRequest     = errors.New("duplicate request")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// HardwareError wraps a failed motor or door operation. Physical state is
// unknown after one of these, so the control loop halts without retrying.
type HardwareError struct {
	Op  string
	Err error
}

func (e *HardwareError) Error() string {
	return fmt.Sprintf("hardware %s: %v", e.Op, e.Err)
}

func (e *HardwareError) Unwrap() error { return e.Err }
