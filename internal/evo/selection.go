package evo

import (
	"fmt"
	"math/rand"

	"melisma/internal/model"
)

// ScoredGenome pairs a genome with its aggregate fitness for one generation.
type ScoredGenome struct {
	Genome  model.MelodyGenome
	Fitness float64
}

// Selector draws parents from a scored population, with replacement.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, scored []ScoredGenome, count int) ([]ScoredGenome, error)
}

// RouletteSelector implements fitness-proportionate selection: the chance of
// drawing a genome is its fitness over the population total. When every
// fitness is zero it falls back to uniform draws.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) Select(rng *rand.Rand, scored []ScoredGenome, count int) ([]ScoredGenome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("cannot select from an empty population")
	}
	if count < 0 {
		return nil, fmt.Errorf("selection count must be >= 0, got %d", count)
	}

	total := 0.0
	for _, item := range scored {
		if item.Fitness < 0 {
			return nil, fmt.Errorf("negative fitness %v for genome %s", item.Fitness, item.Genome.ID)
		}
		total += item.Fitness
	}

	out := make([]ScoredGenome, 0, count)
	for i := 0; i < count; i++ {
		if total <= 0 {
			out = append(out, scored[rng.Intn(len(scored))])
			continue
		}
		pick := rng.Float64() * total
		acc := 0.0
		chosen := scored[len(scored)-1]
		for _, item := range scored {
			acc += item.Fitness
			if pick <= acc {
				chosen = item
				break
			}
		}
		out = append(out, chosen)
	}
	return out, nil
}
