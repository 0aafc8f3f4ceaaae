package ports

import (
	"math/rand/v2"

	"gopower/domain/experiment"
)

// GeneratorPort produces one synthetic experiment from the hypothesized
// data-generating process. Implementations draw only from rng.
type GeneratorPort interface {
	Generate(params experiment.Parameters, rng *rand.Rand) (*experiment.Experiment, error)
}
