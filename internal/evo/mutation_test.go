package evo

import (
	"math/rand"
	"testing"

	"melisma/internal/model"
	"melisma/internal/theory"
)

func testProgression(t *testing.T) theory.Progression {
	t.Helper()
	preset, err := theory.ResolvePreset("ii-v-i")
	if err != nil {
		t.Fatalf("resolve preset: %v", err)
	}
	return preset.Progression
}

func diffSlots(a, b model.MelodyGenome) []int {
	var out []int
	for i := range a.Pitches {
		if a.Pitches[i] != b.Pitches[i] {
			out = append(out, i)
		}
	}
	return out
}

func TestPitchPerturbChangesOneSlotWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	progression := testProgression(t)
	genome := genomeWithPitch("g", 70)

	for i := 0; i < 100; i++ {
		mutated, err := (PitchPerturb{MaxInterval: 4}).Apply(rng, genome, progression)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if err := mutated.Validate(); err != nil {
			t.Fatalf("mutated genome invalid: %v", err)
		}
		changed := diffSlots(genome, mutated)
		if len(changed) != 1 {
			t.Fatalf("expected exactly one changed slot, got %d", len(changed))
		}
		slot := changed[0]
		delta := mutated.Pitches[slot] - 70
		if delta == 0 || delta < -4 || delta > 4 {
			t.Fatalf("shift %d outside [-4, 4] \\ {0}", delta)
		}
	}
}

func TestPitchPerturbAllRestPassesThrough(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	mutated, err := (PitchPerturb{MaxInterval: 4}).Apply(rng, model.NewRestGenome("r"), testProgression(t))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mutated.NoteCount() != 0 {
		t.Fatal("all-rest genome should pass through unchanged")
	}
}

func TestPitchPerturbClampsAtGridEdge(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	progression := testProgression(t)
	genome := genomeWithPitch("g", model.MaxPitch)

	for i := 0; i < 100; i++ {
		mutated, err := (PitchPerturb{MaxInterval: 4}).Apply(rng, genome, progression)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if err := mutated.Validate(); err != nil {
			t.Fatalf("clamping failed: %v", err)
		}
	}
}

func TestChordToneSnapLandsOnChordTone(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	progression := testProgression(t)
	genome := genomeWithPitch("g", 61)

	for i := 0; i < 100; i++ {
		mutated, err := (ChordToneSnap{}).Apply(rng, genome, progression)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		changed := diffSlots(genome, mutated)
		if len(changed) > 1 {
			t.Fatalf("expected at most one changed slot, got %d", len(changed))
		}
		for _, slot := range changed {
			chord := progression.Chord(slot / model.NotesPerBar)
			if !chord.IsChordTone(mutated.Pitches[slot]) {
				t.Fatalf("slot %d snapped to %d, not a chord tone of %s", slot, mutated.Pitches[slot], chord.Name)
			}
		}
	}
}

func TestChordToneSnapFillsRests(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	progression := testProgression(t)
	genome := model.NewRestGenome("r")

	mutated, err := (ChordToneSnap{}).Apply(rng, genome, progression)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mutated.NoteCount() != 1 {
		t.Fatalf("expected one filled slot, got %d", mutated.NoteCount())
	}
	if err := mutated.Validate(); err != nil {
		t.Fatalf("mutated genome invalid: %v", err)
	}
}

func TestRestToggleFlipsExactlyOneSlot(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	progression := testProgression(t)
	genome := genomeWithPitch("g", 64)

	mutated, err := (RestToggle{}).Apply(rng, genome, progression)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := genome.NoteCount() - mutated.NoteCount(); got != 1 {
		t.Fatalf("expected one note silenced, delta %d", got)
	}

	backfilled, err := (RestToggle{}).Apply(rng, model.NewRestGenome("r"), progression)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if backfilled.NoteCount() != 1 {
		t.Fatalf("expected one rest filled, got %d notes", backfilled.NoteCount())
	}
	if err := backfilled.Validate(); err != nil {
		t.Fatalf("backfilled genome invalid: %v", err)
	}
}

func TestMutatorsRejectShortGenome(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	progression := testProgression(t)
	short := model.NewGenome("short", make([]int, 10))
	for _, op := range []Mutator{PitchPerturb{MaxInterval: 4}, ChordToneSnap{}, RestToggle{}} {
		if _, err := op.Apply(rng, short, progression); err == nil {
			t.Fatalf("%s: expected error for short genome", op.Name())
		}
	}
}

func TestChooseMutationRespectsWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	policy := []WeightedMutation{
		{Op: PitchPerturb{MaxInterval: 4}, Weight: 0},
		{Op: ChordToneSnap{}, Weight: 1},
		{Op: RestToggle{}, Weight: 0},
	}
	for i := 0; i < 50; i++ {
		if got := chooseMutation(rng, policy).Name(); got != "chord_tone_snap" {
			t.Fatalf("expected chord_tone_snap with all weight on it, got %s", got)
		}
	}
}

func TestChooseMutationCoversAllOps(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	policy := DefaultMutationPolicy()
	seen := map[string]int{}
	for i := 0; i < 1000; i++ {
		seen[chooseMutation(rng, policy).Name()]++
	}
	for _, item := range policy {
		if seen[item.Op.Name()] == 0 {
			t.Fatalf("mutator %s never chosen under default policy", item.Op.Name())
		}
	}
}
