package evo

import (
	"fmt"
	"math/rand"

	"melisma/internal/model"
)

// CrossoverAtBar performs one-point crossover at the given bar boundary
// (1..NumBars-1). Offspring A takes bars [0, cutBar) from a and the rest
// from b; offspring B is the complement. Cutting only on bar boundaries
// keeps phrases intact.
func CrossoverAtBar(a, b model.MelodyGenome, cutBar int, idA, idB string) (model.MelodyGenome, model.MelodyGenome, error) {
	if cutBar < 1 || cutBar >= model.NumBars {
		return model.MelodyGenome{}, model.MelodyGenome{}, fmt.Errorf("cut bar must be in [1, %d], got %d", model.NumBars-1, cutBar)
	}
	if len(a.Pitches) != model.TotalSlots || len(b.Pitches) != model.TotalSlots {
		return model.MelodyGenome{}, model.MelodyGenome{}, fmt.Errorf("crossover requires full-length genomes")
	}

	cut := cutBar * model.NotesPerBar

	childA := make([]int, 0, model.TotalSlots)
	childA = append(childA, a.Pitches[:cut]...)
	childA = append(childA, b.Pitches[cut:]...)

	childB := make([]int, 0, model.TotalSlots)
	childB = append(childB, b.Pitches[:cut]...)
	childB = append(childB, a.Pitches[cut:]...)

	return model.NewGenome(idA, childA), model.NewGenome(idB, childB), nil
}

// Crossover picks the cut point uniformly among the seven legal inter-bar
// boundaries.
func Crossover(rng *rand.Rand, a, b model.MelodyGenome, idA, idB string) (model.MelodyGenome, model.MelodyGenome, error) {
	if rng == nil {
		return model.MelodyGenome{}, model.MelodyGenome{}, fmt.Errorf("random source is required")
	}
	cutBar := 1 + rng.Intn(model.NumBars-1)
	return CrossoverAtBar(a, b, cutBar, idA, idB)
}
