package ik

import (
	"github.com/pkg/errors"
)

// ErrIKFailure is returned, wrapped with the reason, when no configuration satisfying the target could
// be found.
var ErrIKFailure = errors.New("kinematics could not solve for position")

var errBadBounds = errors.New("cannot set upper or lower bounds, slice is empty")

// NewIKFailureError wraps ErrIKFailure with a formatted message.
func NewIKFailureError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrIKFailure, format, args...)
}
