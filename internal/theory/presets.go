package theory

import (
	"fmt"
	"sort"
	"strings"
)

// Preset couples a named progression with a short description for listings.
type Preset struct {
	Key         string
	Description string
	Progression Progression
}

var presets = map[string]Preset{}

func registerPreset(key, description, name string, chords ...Chord) {
	progression, err := NewProgression(name, chords)
	if err != nil {
		panic(err)
	}
	presets[key] = Preset{Key: key, Description: description, Progression: progression}
}

func init() {
	registerPreset("ii-v-i", "Classic ii-V-I in C, repeated", "ii-V-I in C",
		MustChord("D", Min7),
		MustChord("G", Dom7),
		MustChord("C", Maj7),
		MustChord("C", Maj7),
		MustChord("D", Min7),
		MustChord("G", Dom7),
		MustChord("C", Maj7),
		MustChord("C", Maj7),
	)
	registerPreset("turnaround", "ii-V-I-vi turnaround in C", "ii-V-I-vi7 Turnaround in C",
		MustChord("D", Min7),
		MustChord("G", Dom7),
		MustChord("C", Maj7),
		MustChord("A", Min7),
		MustChord("D", Min7),
		MustChord("G", Dom7),
		MustChord("E", Min7),
		MustChord("E", Min7),
	)
	registerPreset("autumn-leaves", "Autumn Leaves changes, first 8 bars", "Autumn Leaves (first 8 bars)",
		MustChord("C", Min7),
		MustChord("F", Dom7),
		MustChord("Bb", Maj7),
		MustChord("Eb", Maj7),
		MustChord("A", Min7b5),
		MustChord("D", Dom7),
		MustChord("G", Min7),
		MustChord("G", Min7),
	)
	registerPreset("minor-blues", "Minor blues in C, first 8 bars", "Minor Blues in C (first 8 bars)",
		MustChord("C", Min7),
		MustChord("C", Min7),
		MustChord("C", Min7),
		MustChord("C", Min7),
		MustChord("F", Min7),
		MustChord("F", Min7),
		MustChord("C", Min7),
		MustChord("C", Min7),
	)
}

// ResolvePreset looks up a preset progression by key.
func ResolvePreset(key string) (Preset, error) {
	preset, ok := presets[key]
	if !ok {
		available := make([]string, 0, len(presets))
		for k := range presets {
			available = append(available, k)
		}
		sort.Strings(available)
		return Preset{}, fmt.Errorf("unknown preset %q, available: %s", key, strings.Join(available, ", "))
	}
	return preset, nil
}

// Presets returns all presets sorted by key.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, preset := range presets {
		out = append(out, preset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
