package referenceframe

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ErrNoModelInformation is used when a parameter file is empty.
var ErrNoModelInformation = errors.New("no model information")

// ArmModelConfig represents all supported fields in an arm parameter file. JSON files are read
// through the same YAML decoder.
type ArmModelConfig struct {
	Name        string    `yaml:"name,omitempty"`
	DHParams    []DHParam `yaml:"dh_params"`
	JointLimits []Limit   `yaml:"joint_limits,omitempty"`
}

// ArmModel is a validated arm description.
type ArmModel struct {
	Name   string
	Params [DoF]DHParam
	Limits []Limit
}

// DefaultArmModel returns the factory DH table and joint limits.
func DefaultArmModel() *ArmModel {
	return &ArmModel{
		Name:   "default",
		Params: DefaultDHParams(),
		Limits: DefaultJointLimits(),
	}
}

// UnmarshalArmModel parses YAML or JSON data into an ArmModel. Missing joint limits fall back to
// DefaultJointLimits.
func UnmarshalArmModel(data []byte) (*ArmModel, error) {
	if len(data) == 0 {
		return nil, ErrNoModelInformation
	}
	cfg := &ArmModelConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal arm model")
	}
	return cfg.ParseConfig()
}

// ParseConfig converts the config into an ArmModel, checking every record.
func (cfg *ArmModelConfig) ParseConfig() (*ArmModel, error) {
	if len(cfg.DHParams) != DoF {
		return nil, errors.Wrap(NewIncorrectDoFError(len(cfg.DHParams), DoF), "dh_params")
	}
	model := &ArmModel{Name: cfg.Name, Limits: DefaultJointLimits()}
	var err error
	for i, p := range cfg.DHParams {
		if pErr := p.Validate(); pErr != nil {
			err = multierr.Combine(err, errors.Wrapf(pErr, "joint %d", i+1))
		}
		model.Params[i] = p
	}
	if len(cfg.JointLimits) > 0 {
		if lErr := ValidateLimits(cfg.JointLimits); lErr != nil {
			err = multierr.Combine(err, errors.Wrap(lErr, "joint_limits"))
		}
		model.Limits = append([]Limit{}, cfg.JointLimits...)
	}
	if err != nil {
		return nil, err
	}
	return model, nil
}

// ReadArmModelFile will read a given file and then parse the contained YAML or JSON data.
func ReadArmModelFile(filename string) (*ArmModel, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read arm model file")
	}
	model, err := UnmarshalArmModel(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filename)
	}
	return model, nil
}
