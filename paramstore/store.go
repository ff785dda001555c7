// Package paramstore owns the DH parameter table that forward and inverse kinematics evaluate
// against. The table is replaced as a whole; readers always see a complete table.
package paramstore

import (
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/referenceframe"
)

// Store holds the current DH table. It is safe for concurrent use: writes are exclusive and reads
// return a copy.
type Store struct {
	mu      sync.RWMutex
	params  [referenceframe.DoF]referenceframe.DHParam
	version uint64
	logger  logging.Logger
}

// New returns a store holding initial.
func New(initial [referenceframe.DoF]referenceframe.DHParam, logger logging.Logger) *Store {
	return &Store{params: initial, logger: logger}
}

// Get returns a snapshot of the table.
func (s *Store) Get() [referenceframe.DoF]referenceframe.DHParam {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// DHParams returns a snapshot of the table, making Store a kinematics.ParamSource.
func (s *Store) DHParams() [referenceframe.DoF]referenceframe.DHParam {
	return s.Get()
}

// Version returns the number of successful writes since creation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set replaces the whole table. A table with a non-finite value is rejected with ErrParseFailure
// and the store is left unchanged.
func (s *Store) Set(params [referenceframe.DoF]referenceframe.DHParam) error {
	for i, p := range params {
		if err := p.Validate(); err != nil {
			return NewParseFailureError("row %d: %v", i+1, err)
		}
	}
	s.swap(params, "set")
	return nil
}

// SetRows parses rows, one "theta,d,a,alpha,offset" row per joint, and replaces the table only if
// all of them parse.
func (s *Store) SetRows(rows []string) error {
	params, err := ParseRows(rows)
	if err != nil {
		return err
	}
	s.swap(params, "rows")
	return nil
}

// LoadFile reads a YAML or JSON arm file and replaces the table with its DH parameters. The parsed
// model is returned so callers can pick up its joint limits.
func (s *Store) LoadFile(path string) (*referenceframe.ArmModel, error) {
	model, err := referenceframe.ReadArmModelFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrParseFailure, err.Error())
	}
	s.swap(model.Params, path)
	return model, nil
}

func (s *Store) swap(params [referenceframe.DoF]referenceframe.DHParam, source string) {
	s.mu.Lock()
	s.params = params
	s.version++
	version := s.version
	s.mu.Unlock()
	s.logger.Infow("DH parameters replaced", "source", source, "version", version)
}
