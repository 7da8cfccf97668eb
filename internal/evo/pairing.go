package evo

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"melisma/internal/model"
)

// Pair holds two parents destined for crossover, in order.
type Pair struct {
	A ScoredGenome
	B ScoredGenome
}

// PairingStrategy turns a selected parent pool into crossover pairs. Every
// strategy returns exactly floor(n/2) pairs; with an odd pool the leftover
// parent is dropped (the engine fills any population shortfall with one
// extra random pairing).
type PairingStrategy interface {
	Name() string
	Pair(rng *rand.Rand, parents []ScoredGenome) ([]Pair, error)
}

// restMismatchPenalty is the genome-distance cost of a rest facing a note.
const restMismatchPenalty = 12

// genomeDistance sums per-slot pitch differences, charging a fixed penalty
// whenever exactly one side rests.
func genomeDistance(a, b model.MelodyGenome) int {
	distance := 0
	for i := range a.Pitches {
		pa, pb := a.Pitches[i], b.Pitches[i]
		switch {
		case pa == model.Rest && pb == model.Rest:
		case pa == model.Rest || pb == model.Rest:
			distance += restMismatchPenalty
		case pa > pb:
			distance += pa - pb
		default:
			distance += pb - pa
		}
	}
	return distance
}

func checkPairingInput(rng *rand.Rand, parents []ScoredGenome) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if len(parents) < 2 {
		return fmt.Errorf("pairing requires at least two parents, got %d", len(parents))
	}
	return nil
}

// RandomPairing draws uniform pairs of distinct indices. A parent may appear
// in several pairs but never opposite itself.
type RandomPairing struct{}

func (RandomPairing) Name() string { return "random" }

func (RandomPairing) Pair(rng *rand.Rand, parents []ScoredGenome) ([]Pair, error) {
	if err := checkPairingInput(rng, parents); err != nil {
		return nil, err
	}
	pairs := make([]Pair, 0, len(parents)/2)
	for i := 0; i < len(parents)/2; i++ {
		a := rng.Intn(len(parents))
		b := rng.Intn(len(parents) - 1)
		if b >= a {
			b++
		}
		pairs = append(pairs, Pair{A: parents[a], B: parents[b]})
	}
	return pairs, nil
}

// SimilarityPairing greedily mates each unpaired parent with its nearest
// remaining neighbor by genome distance.
type SimilarityPairing struct{}

func (SimilarityPairing) Name() string { return "similarity" }

func (SimilarityPairing) Pair(rng *rand.Rand, parents []ScoredGenome) ([]Pair, error) {
	return distancePairing(rng, parents, true)
}

// DissimilarityPairing is the same greedy walk choosing the farthest mate.
type DissimilarityPairing struct{}

func (DissimilarityPairing) Name() string { return "dissimilarity" }

func (DissimilarityPairing) Pair(rng *rand.Rand, parents []ScoredGenome) ([]Pair, error) {
	return distancePairing(rng, parents, false)
}

func distancePairing(rng *rand.Rand, parents []ScoredGenome, nearest bool) ([]Pair, error) {
	if err := checkPairingInput(rng, parents); err != nil {
		return nil, err
	}

	paired := make([]bool, len(parents))
	pairs := make([]Pair, 0, len(parents)/2)
	for i := range parents {
		if paired[i] {
			continue
		}
		best := -1
		bestDistance := 0
		for j := i + 1; j < len(parents); j++ {
			if paired[j] {
				continue
			}
			d := genomeDistance(parents[i].Genome, parents[j].Genome)
			if best == -1 || (nearest && d < bestDistance) || (!nearest && d > bestDistance) {
				best = j
				bestDistance = d
			}
		}
		if best == -1 {
			break // odd leftover, dropped
		}
		paired[i] = true
		paired[best] = true
		pairs = append(pairs, Pair{A: parents[i], B: parents[best]})
	}
	return pairs, nil
}

// BestFirstLastPairing sorts parents by fitness descending and pairs rank i
// with rank n-1-i, mating the strongest with the weakest.
type BestFirstLastPairing struct{}

func (BestFirstLastPairing) Name() string { return "best_first_last" }

func (BestFirstLastPairing) Pair(rng *rand.Rand, parents []ScoredGenome) ([]Pair, error) {
	if err := checkPairingInput(rng, parents); err != nil {
		return nil, err
	}

	ranked := make([]ScoredGenome, len(parents))
	copy(ranked, parents)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Fitness > ranked[j].Fitness })

	pairs := make([]Pair, 0, len(ranked)/2)
	for i := 0; i < len(ranked)/2; i++ {
		pairs = append(pairs, Pair{A: ranked[i], B: ranked[len(ranked)-1-i]})
	}
	return pairs, nil
}

var pairingStrategies = map[string]PairingStrategy{
	"random":          RandomPairing{},
	"similarity":      SimilarityPairing{},
	"dissimilarity":   DissimilarityPairing{},
	"best_first_last": BestFirstLastPairing{},
}

// ResolvePairing looks a strategy up by name.
func ResolvePairing(name string) (PairingStrategy, error) {
	strategy, ok := pairingStrategies[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown pairing strategy %q, available: %s", name, strings.Join(PairingNames(), ", "))
	}
	return strategy, nil
}

// PairingNames lists the registered strategy names sorted ascending.
func PairingNames() []string {
	names := make([]string, 0, len(pairingStrategies))
	for name := range pairingStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
