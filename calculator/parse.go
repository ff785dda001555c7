package calculator

import (
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	"go.viam.com/kinecalc/kinematics"
	"go.viam.com/kinecalc/referenceframe"
)

// ParseJoints parses one decimal string per joint. Errors wrap kinematics.ErrInvalidInput and name
// the joint.
func ParseJoints(fields []string) ([]float64, error) {
	if len(fields) != referenceframe.DoF {
		return nil, kinematics.NewInvalidInputError("expected %d joint angles but got %d", referenceframe.DoF, len(fields))
	}
	joints := make([]float64, 0, len(fields))
	for i, field := range fields {
		v, err := parseNumber(field)
		if err != nil {
			return nil, kinematics.NewInvalidInputError("J%d: %q is not a number", i+1, field)
		}
		joints = append(joints, v)
	}
	if err := kinematics.ValidateJoints(joints); err != nil {
		return nil, err
	}
	return joints, nil
}

// ParseTarget parses the x, y and z coordinates of an inverse kinematics target.
func ParseTarget(x, y, z string) (r3.Vector, error) {
	var target r3.Vector
	for _, c := range []struct {
		name  string
		field string
		dst   *float64
	}{
		{"x", x, &target.X},
		{"y", y, &target.Y},
		{"z", z, &target.Z},
	} {
		v, err := parseNumber(c.field)
		if err != nil {
			return r3.Vector{}, kinematics.NewInvalidInputError("target %s: %q is not a number", c.name, c.field)
		}
		*c.dst = v
	}
	return target, nil
}

func parseNumber(field string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(field), 64)
}
