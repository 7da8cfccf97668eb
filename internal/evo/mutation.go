package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"melisma/internal/model"
	"melisma/internal/theory"
	"melisma/internal/util"
)

// Mutator transforms a genome in place-preserving fashion: output length and
// grid invariants always match the input's.
type Mutator interface {
	Name() string
	Apply(rng *rand.Rand, genome model.MelodyGenome, progression theory.Progression) (model.MelodyGenome, error)
}

// WeightedMutation couples a mutator with its selection weight within the
// mutation policy.
type WeightedMutation struct {
	Op     Mutator
	Weight float64
}

// DefaultMutationPolicy weights pitch perturbation half the time, chord-tone
// snapping 30%, rest toggling 20%.
func DefaultMutationPolicy() []WeightedMutation {
	return []WeightedMutation{
		{Op: PitchPerturb{MaxInterval: 4}, Weight: 0.5},
		{Op: ChordToneSnap{}, Weight: 0.3},
		{Op: RestToggle{}, Weight: 0.2},
	}
}

func checkMutationInput(rng *rand.Rand, genome model.MelodyGenome) error {
	if rng == nil {
		return errors.New("random source is required")
	}
	if len(genome.Pitches) != model.TotalSlots {
		return fmt.Errorf("mutation requires a full-length genome, got %d slots", len(genome.Pitches))
	}
	return nil
}

// randomChordTone picks a chord tone near the middle of the grid range.
func randomChordTone(rng *rand.Rand, chord theory.Chord) int {
	interval := chord.ChordTones[rng.Intn(len(chord.ChordTones))]
	octave := 60
	if rng.Intn(2) == 1 {
		octave = 72
	}
	pitch := octave + chord.Root + interval
	for pitch > model.MaxPitch {
		pitch -= 12
	}
	return pitch
}

// PitchPerturb shifts one random sounding slot by a small interval, clamped
// to the grid range. A genome with no sounding slots passes through
// unchanged.
type PitchPerturb struct {
	MaxInterval int
}

func (PitchPerturb) Name() string { return "pitch_perturb" }

func (m PitchPerturb) Apply(rng *rand.Rand, genome model.MelodyGenome, _ theory.Progression) (model.MelodyGenome, error) {
	if err := checkMutationInput(rng, genome); err != nil {
		return model.MelodyGenome{}, err
	}
	maxInterval := m.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 4
	}

	sounding := make([]int, 0, model.TotalSlots)
	for i, pitch := range genome.Pitches {
		if pitch != model.Rest {
			sounding = append(sounding, i)
		}
	}
	if len(sounding) == 0 {
		return genome.Clone(genome.ID), nil
	}

	mutated := genome.Clone(genome.ID)
	slot := sounding[rng.Intn(len(sounding))]
	shift := 1 + rng.Intn(maxInterval)
	if rng.Intn(2) == 1 {
		shift = -shift
	}
	mutated.Pitches[slot] = util.Clamp(mutated.Pitches[slot]+shift, model.MinPitch, model.MaxPitch)
	return mutated, nil
}

// ChordToneSnap replaces one random slot's pitch with the nearest chord tone
// of that slot's bar. A resting slot gets a random chord tone instead.
type ChordToneSnap struct{}

func (ChordToneSnap) Name() string { return "chord_tone_snap" }

func (ChordToneSnap) Apply(rng *rand.Rand, genome model.MelodyGenome, progression theory.Progression) (model.MelodyGenome, error) {
	if err := checkMutationInput(rng, genome); err != nil {
		return model.MelodyGenome{}, err
	}

	mutated := genome.Clone(genome.ID)
	slot := rng.Intn(model.TotalSlots)
	chord := progression.Chord(slot / model.NotesPerBar)
	if mutated.Pitches[slot] == model.Rest {
		mutated.Pitches[slot] = randomChordTone(rng, chord)
	} else {
		snapped := chord.NearestChordTone(mutated.Pitches[slot])
		mutated.Pitches[slot] = util.Clamp(snapped, model.MinPitch, model.MaxPitch)
	}
	return mutated, nil
}

// RestToggle flips one random slot between rest and a plausible pitch (the
// bar's nearest chord tone stand-in).
type RestToggle struct{}

func (RestToggle) Name() string { return "rest_toggle" }

func (RestToggle) Apply(rng *rand.Rand, genome model.MelodyGenome, progression theory.Progression) (model.MelodyGenome, error) {
	if err := checkMutationInput(rng, genome); err != nil {
		return model.MelodyGenome{}, err
	}

	mutated := genome.Clone(genome.ID)
	slot := rng.Intn(model.TotalSlots)
	if mutated.Pitches[slot] == model.Rest {
		chord := progression.Chord(slot / model.NotesPerBar)
		mutated.Pitches[slot] = randomChordTone(rng, chord)
	} else {
		mutated.Pitches[slot] = model.Rest
	}
	return mutated, nil
}

// chooseMutation draws one mutator from the weighted policy.
func chooseMutation(rng *rand.Rand, policy []WeightedMutation) Mutator {
	total := 0.0
	for _, item := range policy {
		total += item.Weight
	}
	if total <= 0 {
		return policy[len(policy)-1].Op
	}
	pick := rng.Float64() * total
	acc := 0.0
	for _, item := range policy {
		acc += item.Weight
		if pick <= acc {
			return item.Op
		}
	}
	return policy[len(policy)-1].Op
}
