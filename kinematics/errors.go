package kinematics

import (
	"github.com/pkg/errors"

	"go.viam.com/kinecalc/referenceframe"
	"go.viam.com/kinecalc/utils"
)

// ErrInvalidInput is returned, wrapped with details, for malformed joint or target values.
var ErrInvalidInput = errors.New("invalid input")

// NewInvalidInputError wraps ErrInvalidInput with a formatted message.
func NewInvalidInputError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

// ValidateJoints checks that there is one finite value per joint.
func ValidateJoints(joints []float64) error {
	if len(joints) != referenceframe.DoF {
		return NewInvalidInputError("expected %d joint angles but got %d", referenceframe.DoF, len(joints))
	}
	if idx := utils.AllFinite(joints); idx >= 0 {
		return NewInvalidInputError("J%d is not a finite number: %v", idx+1, joints[idx])
	}
	return nil
}
