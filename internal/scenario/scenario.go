package scenario

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/domain/power"

	"gopkg.in/yaml.v3"
)

// Scenario is a saved power question: the hypothesized process, how to
// estimate, and optionally which variations to sweep.
type Scenario struct {
	Name       string                `yaml:"name"`
	Parameters experiment.Parameters `yaml:"parameters"`
	Request    power.Request         `yaml:"request"`
	Curve      *CurveSpec            `yaml:"curve,omitempty"`
}

// CurveSpec lists curve variations. Shifts are added to the control mean.
type CurveSpec struct {
	Shifts []float64 `yaml:"shifts,omitempty"`
	Sizes  []int     `yaml:"sizes,omitempty"`
}

// Variations expands the spec against base: shifts first, then sizes
func (c *CurveSpec) Variations(base experiment.Parameters) []power.Variation {
	if c == nil {
		return nil
	}
	out := power.MeanShifts(base, c.Shifts)
	return append(out, power.ArmSizes(c.Sizes)...)
}

// Load reads and validates a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scenario, rejecting unknown keys
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, core.NewRequestError("scenario", "empty document")
		}
		return nil, core.NewRequestError("scenario", err.Error())
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks parameters, request and curve before anything runs
func (s *Scenario) Validate() error {
	if err := s.Parameters.Validate(); err != nil {
		return err
	}
	if err := s.Request.WithDefaults().Validate(); err != nil {
		return err
	}
	for _, v := range s.Curve.Variations(s.Parameters) {
		if err := v.Apply(s.Parameters).Validate(); err != nil {
			return fmt.Errorf("curve %s: %w", v.Label, err)
		}
	}
	return nil
}

// Marshal encodes the scenario back to YAML
func (s *Scenario) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
