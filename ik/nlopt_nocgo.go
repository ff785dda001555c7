//go:build windows || no_cgo

package ik

import (
	"github.com/pkg/errors"

	"go.viam.com/kinecalc/logging"
)

// CreateNloptMinimizer is not supported on no_cgo builds.
func CreateNloptMinimizer(logger logging.Logger, maxEvaluations int) (Minimizer, error) {
	return nil, errors.New("nlopt is not supported on this build")
}

// NewDefaultMinimizer returns the gonum minimizer on builds without cgo.
func NewDefaultMinimizer(logger logging.Logger, maxEvaluations int) Minimizer {
	return CreateGonumMinimizer(logger, maxEvaluations)
}
