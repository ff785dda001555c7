package referenceframe

import "github.com/pkg/errors"

// OOBErrString is a string that all out of bounds errors contain, so that they can be told apart
// from other input errors.
const OOBErrString = "input out of bounds"

// NewIncorrectDoFError is used when a joint or limit slice does not have one entry per joint.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewJointOutOfBoundsError is used when a joint value lies outside its limit. Joints are
// reported 1-based, the way they are labeled on the arm.
func NewJointOutOfBoundsError(joint int, value float64, limit Limit) error {
	return errors.Errorf("%s: J%d = %.4f, limits [%g, %g]", OOBErrString, joint+1, value, limit.Min, limit.Max)
}

// NewInvalidLimitError is used when a limit has Min greater than Max.
func NewInvalidLimitError(joint int, limit Limit) error {
	return errors.Errorf("invalid limit for J%d: min %g is greater than max %g", joint+1, limit.Min, limit.Max)
}

// NewNonFiniteParamError is used when a DH field is NaN or infinite.
func NewNonFiniteParamError(field string, value float64) error {
	return errors.Errorf("DH parameter %s must be finite, got %v", field, value)
}
