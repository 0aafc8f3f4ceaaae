package run

import (
	"errors"
	"testing"

	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/domain/power"
)

func testParams() experiment.Parameters {
	return experiment.Parameters{Arms: []experiment.Arm{
		{Size: 20, Mean: 10, Spread: 2},
		{Size: 20, Mean: 11, Spread: 2},
	}}
}

func testEstimate(seed uint64) (*power.Estimate, power.Request) {
	req := power.Request{Strategy: power.StrategyRandomization, Repetitions: 2, Permutations: 50}.WithDefaults()
	est := power.NewEstimate(core.NewRunID(), testParams(), req, seed, []power.Outcome{
		{Repetition: 0, Statistic: 1.2, PValue: 0.04, Rejected: true},
		{Repetition: 1, Statistic: 0.3, PValue: 0.61},
	})
	return est, req
}

func TestRunFingerprint_Deterministic(t *testing.T) {
	// Same inputs produce identical fingerprints
	req := power.Request{Strategy: power.StrategyAnalytic, Alpha: 0.05, Repetitions: 100}

	fp1 := NewRunFingerprint(testParams(), req, 42, "1.0.0")
	fp2 := NewRunFingerprint(testParams(), req, 42, "1.0.0")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.Seed != 42 {
		t.Errorf("Seed mismatch: %d vs %d", fp1.Seed, 42)
	}

	// Worker counts do not change results, so they do not change the fingerprint
	req.Workers = 16
	if fp3 := NewRunFingerprint(testParams(), req, 42, "1.0.0"); fp3.Fingerprint != fp1.Fingerprint {
		t.Errorf("Worker count changed the fingerprint")
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	req := power.Request{Strategy: power.StrategyAnalytic, Alpha: 0.05, Repetitions: 100}
	base := NewRunFingerprint(testParams(), req, 42, "1.0.0")

	shifted := req
	shifted.Alpha = 0.01

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different parameters", NewRunFingerprint(testParams().WithTreatmentMean(12), req, 42, "1.0.0")},
		{"different request", NewRunFingerprint(testParams(), shifted, 42, "1.0.0")},
		{"different seed", NewRunFingerprint(testParams(), req, 43, "1.0.0")},
		{"different code", NewRunFingerprint(testParams(), req, 42, "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should be different for %s", tc.name)
			}
		})
	}
}

func TestRunManifest_Complete(t *testing.T) {
	est, req := testEstimate(7)

	manifest, err := NewRunManifest(est, req)
	if err != nil {
		t.Fatalf("NewRunManifest: %v", err)
	}

	if manifest.RunID != est.RunID {
		t.Errorf("RunID not set correctly")
	}
	if manifest.Request.Seed == nil || *manifest.Request.Seed != 7 {
		t.Errorf("Seed not pinned on the request")
	}
	if manifest.EstimateFingerprint != est.Fingerprint {
		t.Errorf("Estimate fingerprint not recorded")
	}
	if err := manifest.Validate(); err != nil {
		t.Errorf("Manifest validation failed: %v", err)
	}
	if err := manifest.Verify(est); err != nil {
		t.Errorf("Original estimate failed verification: %v", err)
	}
}

func TestRunManifest_Tampered(t *testing.T) {
	est, req := testEstimate(7)
	manifest, err := NewRunManifest(est, req)
	if err != nil {
		t.Fatalf("NewRunManifest: %v", err)
	}

	manifest.Parameters.Arms[1].Mean = 50
	if err := manifest.Validate(); !errors.Is(err, core.ErrHashMismatch) {
		t.Errorf("expected hash mismatch, got %v", err)
	}

	other, _ := testEstimate(8)
	if err := manifest.Verify(other); !errors.Is(err, core.ErrNonDeterministic) {
		t.Errorf("expected non-deterministic replay, got %v", err)
	}
}

func TestRunManifest_RejectsPartial(t *testing.T) {
	est, req := testEstimate(7)
	est.Partial = true

	if _, err := NewRunManifest(est, req); !errors.Is(err, core.ErrInvalidRequest) {
		t.Errorf("expected partial estimate to be rejected, got %v", err)
	}
}

func TestRunManifest_MalformedRunID(t *testing.T) {
	est, req := testEstimate(7)
	manifest, err := NewRunManifest(est, req)
	if err != nil {
		t.Fatalf("NewRunManifest: %v", err)
	}

	for _, id := range []string{"", "run-1"} {
		manifest.RunID = core.RunID(id)
		if err := manifest.Validate(); !errors.Is(err, core.ErrInvalidRequest) {
			t.Errorf("run_id %q: expected invalid request, got %v", id, err)
		}
	}
}
