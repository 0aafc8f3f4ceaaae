package run

import (
	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/domain/power"
)

// CodeVersion is stamped on every manifest; replay across versions is not
// guaranteed to match.
const CodeVersion = "0.3.0"

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	ParametersHash core.Hash `json:"parameters_hash"`
	RequestHash    core.Hash `json:"request_hash"`
	Seed           uint64    `json:"seed"`
	CodeVersion    string    `json:"code_version"`
	Fingerprint    core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(params experiment.Parameters, req power.Request, seed uint64, codeVersion string) RunFingerprint {
	paramsHash := params.Hash(core.NewHasher()).Sum()
	reqHash := hashRequest(req)

	return RunFingerprint{
		ParametersHash: paramsHash,
		RequestHash:    reqHash,
		Seed:           seed,
		CodeVersion:    codeVersion,
		Fingerprint:    computeRunFingerprint(paramsHash, reqHash, seed, codeVersion),
	}
}

// hashRequest covers the fields that change results. Worker counts and
// time limits are excluded: they never change a complete run's outcomes.
func hashRequest(req power.Request) core.Hash {
	return core.NewHasher().
		String(string(req.Strategy)).
		Float64(req.Alpha).
		Int(req.Repetitions).
		Int(req.Permutations).
		String(req.Statistic).
		Sum()
}

// computeRunFingerprint generates deterministic hash from all determinism parameters
func computeRunFingerprint(paramsHash, reqHash core.Hash, seed uint64, codeVersion string) core.Hash {
	return core.NewHasher().
		String(paramsHash.String()).
		String(reqHash.String()).
		Uint64(seed).
		String(codeVersion).
		Sum()
}
