package battery

import (
	"math/rand/v2"

	"gopower/domain/experiment"
)

// Permuter re-randomizes an assignment under the sharp null: the outcomes stay
// put and only the label-to-unit mapping moves, so per-arm counts are kept.
type Permuter struct{}

// Permute returns a uniformly random reordering of labels. The input is not
// modified.
func (p Permuter) Permute(labels experiment.Assignment, rng *rand.Rand) experiment.Assignment {
	return p.PermuteInto(make(experiment.Assignment, len(labels)), labels, rng)
}

// PermuteInto writes a uniformly random reordering of labels into dst, which
// must have the same length, and returns it.
func (Permuter) PermuteInto(dst, labels experiment.Assignment, rng *rand.Rand) experiment.Assignment {
	copy(dst, labels)
	rng.Shuffle(len(dst), func(i, j int) {
		dst[i], dst[j] = dst[j], dst[i]
	})
	return dst
}
