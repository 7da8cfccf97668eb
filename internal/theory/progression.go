package theory

import "fmt"

// NumBars is the fixed length of every progression: one chorus of 8 bars.
const NumBars = 8

// Progression is an immutable 8-bar harmonic context. It is shared read-only
// across a whole evolutionary run.
type Progression struct {
	name   string
	chords []Chord
}

// NewProgression validates the bar count and copies the chord slice so later
// mutations of the caller's slice cannot leak in.
func NewProgression(name string, chords []Chord) (Progression, error) {
	if len(chords) != NumBars {
		return Progression{}, fmt.Errorf("progression must have exactly %d chords, got %d", NumBars, len(chords))
	}
	return Progression{
		name:   name,
		chords: append([]Chord(nil), chords...),
	}, nil
}

func (p Progression) Name() string { return p.name }

// Chord returns the chord governing the given bar (0-indexed).
func (p Progression) Chord(bar int) Chord {
	return p.chords[bar]
}

// Chords returns a copy of the chord sequence.
func (p Progression) Chords() []Chord {
	return append([]Chord(nil), p.chords...)
}

// Len reports the bar count. Zero for the zero value, NumBars otherwise.
func (p Progression) Len() int { return len(p.chords) }

// ChordNames returns the display names bar by bar.
func (p Progression) ChordNames() []string {
	names := make([]string, len(p.chords))
	for i, chord := range p.chords {
		names[i] = chord.Name
	}
	return names
}
