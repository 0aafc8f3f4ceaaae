package run

import (
	"fmt"

	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/domain/power"
)

// RunManifest is the truth source for replay: the inputs of a completed
// estimation and the fingerprint its outcomes produced.
type RunManifest struct {
	RunID       core.RunID            `json:"run_id" yaml:"run_id"`
	Parameters  experiment.Parameters `json:"parameters" yaml:"parameters"`
	Request     power.Request         `json:"request" yaml:"request"`
	Fingerprint RunFingerprint        `json:"fingerprint" yaml:"fingerprint"`

	// EstimateFingerprint is the expected power.Estimate fingerprint
	EstimateFingerprint core.Hash      `json:"estimate_fingerprint" yaml:"estimate_fingerprint"`
	CreatedAt           core.Timestamp `json:"created_at" yaml:"-"`
}

// NewRunManifest records a finished estimation. Partial estimates depend on
// timing and cannot be replayed.
func NewRunManifest(est *power.Estimate, req power.Request) (*RunManifest, error) {
	if est == nil {
		return nil, fmt.Errorf("%w: no estimate", core.ErrInvalidRequest)
	}
	if est.Partial {
		return nil, fmt.Errorf("%w: run %s is partial (%d/%d) and cannot be replayed",
			core.ErrInvalidRequest, est.RunID, est.Completed, est.Requested)
	}

	req = req.WithDefaults()
	seed := est.Seed
	req.Seed = &seed
	req.MaxDuration = 0

	return &RunManifest{
		RunID:               est.RunID,
		Parameters:          est.Parameters.Clone(),
		Request:             req,
		Fingerprint:         NewRunFingerprint(est.Parameters, req, seed, CodeVersion),
		EstimateFingerprint: est.Fingerprint,
		CreatedAt:           core.Now(),
	}, nil
}

// Validate checks if the manifest is complete and self-consistent
func (r *RunManifest) Validate() error {
	if _, err := core.ParseRunID(r.RunID.String()); err != nil {
		return core.NewRequestError("run_manifest", err.Error())
	}
	if r.Request.Seed == nil {
		return core.NewRequestError("run_manifest", "seed cannot be empty")
	}
	if r.EstimateFingerprint.IsEmpty() {
		return core.NewRequestError("run_manifest", "estimate fingerprint cannot be empty")
	}
	if r.Fingerprint.CodeVersion == "" {
		return core.NewRequestError("run_manifest", "code_version cannot be empty")
	}
	expected := NewRunFingerprint(r.Parameters, r.Request, *r.Request.Seed, r.Fingerprint.CodeVersion)
	if !expected.Fingerprint.Equals(r.Fingerprint.Fingerprint) {
		return fmt.Errorf("%w: manifest inputs were edited after recording", core.ErrHashMismatch)
	}
	return nil
}

// Verify compares a replayed estimate against the recorded one
func (r *RunManifest) Verify(est *power.Estimate) error {
	if est.Partial {
		return fmt.Errorf("%w: replay stopped after %d/%d repetitions", core.ErrNonDeterministic, est.Completed, est.Requested)
	}
	if !est.Fingerprint.Equals(r.EstimateFingerprint) {
		return fmt.Errorf("%w: run %s replayed to %s, recorded %s",
			core.ErrNonDeterministic, r.RunID, est.Fingerprint, r.EstimateFingerprint)
	}
	return nil
}
