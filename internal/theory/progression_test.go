package theory

import (
	"testing"
)

func TestNewProgressionRequiresEightBars(t *testing.T) {
	chords := []Chord{MustChord("C", Maj7)}
	if _, err := NewProgression("too short", chords); err == nil {
		t.Fatal("expected error for a 1-bar progression")
	}

	full := make([]Chord, NumBars)
	for i := range full {
		full[i] = MustChord("C", Maj7)
	}
	progression, err := NewProgression("eight bars of C", full)
	if err != nil {
		t.Fatalf("new progression: %v", err)
	}
	if progression.Len() != NumBars {
		t.Fatalf("expected %d bars, got %d", NumBars, progression.Len())
	}
	if progression.Name() != "eight bars of C" {
		t.Fatalf("unexpected name %q", progression.Name())
	}
}

func TestProgressionIsImmutable(t *testing.T) {
	chords := make([]Chord, NumBars)
	for i := range chords {
		chords[i] = MustChord("C", Maj7)
	}
	progression, err := NewProgression("immutable", chords)
	if err != nil {
		t.Fatalf("new progression: %v", err)
	}

	chords[0] = MustChord("F", Dom7)
	if progression.Chord(0).Name != "Cmaj7" {
		t.Fatal("mutating the input slice reached into the progression")
	}

	copied := progression.Chords()
	copied[1] = MustChord("G", Dom7)
	if progression.Chord(1).Name != "Cmaj7" {
		t.Fatal("mutating the Chords copy reached into the progression")
	}
}

func TestChordNames(t *testing.T) {
	preset, err := ResolvePreset("ii-v-i")
	if err != nil {
		t.Fatalf("resolve preset: %v", err)
	}
	names := preset.Progression.ChordNames()
	want := []string{"Dm7", "G7", "Cmaj7", "Cmaj7", "Dm7", "G7", "Cmaj7", "Cmaj7"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("bar %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestPresetsAreComplete(t *testing.T) {
	wantKeys := []string{"autumn-leaves", "ii-v-i", "minor-blues", "turnaround"}
	presets := Presets()
	if len(presets) != len(wantKeys) {
		t.Fatalf("expected %d presets, got %d", len(wantKeys), len(presets))
	}
	for i, preset := range presets {
		if preset.Key != wantKeys[i] {
			t.Fatalf("preset %d: expected key %s, got %s", i, wantKeys[i], preset.Key)
		}
		if preset.Progression.Len() != NumBars {
			t.Fatalf("preset %s: expected %d bars", preset.Key, NumBars)
		}
		if preset.Description == "" {
			t.Fatalf("preset %s: missing description", preset.Key)
		}
	}
}

func TestResolvePresetUnknown(t *testing.T) {
	if _, err := ResolvePreset("rhythm-changes"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}
