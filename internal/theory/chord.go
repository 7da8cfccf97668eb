package theory

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownRoot    = errors.New("unknown root note")
	ErrUnknownQuality = errors.New("unknown chord quality")
)

// Quality identifies one of the supported jazz 7th chord types.
type Quality string

const (
	Maj7        Quality = "maj7"    // Ionian/Lydian
	Min7        Quality = "min7"    // Dorian/Phrygian
	Dom7        Quality = "dom7"    // Mixolydian
	Min7b5      Quality = "min7b5"  // Locrian
	Dim7        Quality = "dim7"    // Whole-half diminished
	MinMaj7     Quality = "minMaj7" // Melodic minor
	Maj7Sharp5  Quality = "maj7#5"  // Lydian augmented
	Sus7        Quality = "7sus4"   // Dominant sus4
	Dom7Sharp11 Quality = "dom7#11" // Lydian dominant
)

// Chord is an immutable jazz 7th chord. Interval sets are semitone offsets
// from the root pitch class.
type Chord struct {
	Name       string `json:"name"`
	Root       int    `json:"root"`
	ChordTones []int  `json:"chord_tones"`
	Tensions   []int  `json:"tensions"`
	AvoidNotes []int  `json:"avoid_notes"`
}

type qualitySpec struct {
	tones    []int
	tensions []int
	avoids   []int
	suffix   string
}

var qualityTable = map[Quality]qualitySpec{
	Maj7:        {tones: []int{0, 4, 7, 11}, tensions: []int{2, 6, 9}, avoids: []int{5}, suffix: "maj7"},
	Min7:        {tones: []int{0, 3, 7, 10}, tensions: []int{2, 5, 9}, avoids: []int{6}, suffix: "m7"},
	Dom7:        {tones: []int{0, 4, 7, 10}, tensions: []int{2, 9}, avoids: []int{5}, suffix: "7"},
	Min7b5:      {tones: []int{0, 3, 6, 10}, tensions: []int{2, 5, 8}, avoids: []int{}, suffix: "m7b5"},
	Dim7:        {tones: []int{0, 3, 6, 9}, tensions: []int{2, 5, 8}, avoids: []int{}, suffix: "dim7"},
	MinMaj7:     {tones: []int{0, 3, 7, 11}, tensions: []int{2, 5, 9}, avoids: []int{6}, suffix: "mMaj7"},
	Maj7Sharp5:  {tones: []int{0, 4, 8, 11}, tensions: []int{2, 6}, avoids: []int{5}, suffix: "maj7#5"},
	Sus7:        {tones: []int{0, 5, 7, 10}, tensions: []int{2, 9}, avoids: []int{4}, suffix: "7sus4"},
	Dom7Sharp11: {tones: []int{0, 4, 7, 10}, tensions: []int{2, 6, 9}, avoids: []int{5}, suffix: "7#11"},
}

var noteToPitchClass = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3,
	"E": 4, "Fb": 4, "E#": 5, "F": 5, "F#": 6, "Gb": 6,
	"G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10,
	"B": 11, "Cb": 11,
}

// ParsePitchClass maps a note name such as "C", "F#" or "Bb" to its pitch
// class in [0, 11] with C = 0.
func ParsePitchClass(name string) (int, error) {
	pc, ok := noteToPitchClass[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRoot, name)
	}
	return pc, nil
}

// NewChord builds a Chord from a root note name and a quality. The derived
// tone sets are a deterministic function of (root, quality).
func NewChord(rootName string, quality Quality) (Chord, error) {
	root, err := ParsePitchClass(rootName)
	if err != nil {
		return Chord{}, err
	}
	spec, ok := qualityTable[quality]
	if !ok {
		return Chord{}, fmt.Errorf("%w: %s", ErrUnknownQuality, quality)
	}
	return Chord{
		Name:       rootName + spec.suffix,
		Root:       root,
		ChordTones: append([]int(nil), spec.tones...),
		Tensions:   append([]int(nil), spec.tensions...),
		AvoidNotes: append([]int(nil), spec.avoids...),
	}, nil
}

// MustChord is a convenience for the preset tables and tests.
func MustChord(rootName string, quality Quality) Chord {
	chord, err := NewChord(rootName, quality)
	if err != nil {
		panic(err)
	}
	return chord
}

// Qualities lists the supported quality identifiers in stable order.
func Qualities() []Quality {
	return []Quality{Maj7, Min7, Dom7, Min7b5, Dim7, MinMaj7, Maj7Sharp5, Sus7, Dom7Sharp11}
}

// interval returns the semitone offset of a MIDI pitch relative to the chord
// root, reduced to a pitch class.
func (c Chord) interval(pitch int) int {
	return ((pitch % 12) - c.Root + 12) % 12
}

func containsInterval(set []int, interval int) bool {
	for _, v := range set {
		if v == interval {
			return true
		}
	}
	return false
}

// IsChordTone reports whether a MIDI pitch lands on the chord's 1/3/5/7.
func (c Chord) IsChordTone(pitch int) bool {
	if pitch < 0 {
		return false
	}
	return containsInterval(c.ChordTones, c.interval(pitch))
}

// IsTension reports whether a MIDI pitch is an acceptable tension (9/11/13).
func (c Chord) IsTension(pitch int) bool {
	if pitch < 0 {
		return false
	}
	return containsInterval(c.Tensions, c.interval(pitch))
}

// IsAvoidNote reports whether a MIDI pitch clashes with the chord's function.
func (c Chord) IsAvoidNote(pitch int) bool {
	if pitch < 0 {
		return false
	}
	return containsInterval(c.AvoidNotes, c.interval(pitch))
}

// NearestChordTone returns the chord tone closest to the given MIDI pitch,
// searching outward one semitone at a time. Ties resolve downward.
func (c Chord) NearestChordTone(pitch int) int {
	for delta := 0; delta <= 12; delta++ {
		if c.IsChordTone(pitch - delta) {
			return pitch - delta
		}
		if c.IsChordTone(pitch + delta) {
			return pitch + delta
		}
	}
	return pitch
}

// ParseQuality resolves a quality identifier or a MusicXML kind string
// (e.g. "major-seventh", "half-diminished") to a supported Quality.
func ParseQuality(s string) (Quality, error) {
	q := strings.TrimSpace(s)
	if _, ok := qualityTable[Quality(q)]; ok {
		return Quality(q), nil
	}
	if mapped, ok := qualityAliases[q]; ok {
		return mapped, nil
	}
	if mapped, ok := matchQualityPattern(q); ok {
		return mapped, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownQuality, s)
}

// qualityAliases covers the spellings seen in iRealPro MusicXML exports and
// common lead-sheet shorthand. Triads and 6th chords map to the closest
// supported 7th chord.
var qualityAliases = map[string]Quality{
	"Maj7": Maj7, "M7": Maj7, "major-seventh": Maj7, "major": Maj7, "": Maj7, "maj": Maj7,
	"m7": Min7, "-7": Min7, "minor-seventh": Min7, "m": Min7, "min": Min7, "minor": Min7,
	"7": Dom7, "dominant": Dom7, "dominant-seventh": Dom7,
	"9": Dom7, "11": Dom7, "13": Dom7,
	"dominant-ninth": Dom7, "dominant-11th": Dom7, "dominant-13th": Dom7,
	"m7b5": Min7b5, "-7b5": Min7b5, "mi7b5": Min7b5, "ø": Min7b5, "ø7": Min7b5,
	"half-diminished": Min7b5, "half-diminished-seventh": Min7b5,
	"o7": Dim7, "°7": Dim7, "diminished-seventh": Dim7, "dim": Dim7, "diminished": Dim7,
	"mMaj7": MinMaj7, "-Maj7": MinMaj7, "minor-major": MinMaj7, "minor-major-seventh": MinMaj7,
	"+maj7": Maj7Sharp5, "augmented-seventh": Maj7Sharp5, "augmented-major-seventh": Maj7Sharp5,
	"7sus": Sus7, "sus7": Sus7, "sus4": Sus7, "suspended-fourth": Sus7,
	"dominant-suspended-fourth": Sus7, "suspended-dominant-seventh": Sus7,
	"7#11": Dom7Sharp11, "7(#11)": Dom7Sharp11, "dominant-seventh-sharp-eleven": Dom7Sharp11,
	"6": Maj7, "maj6": Maj7, "major-sixth": Maj7,
	"m6": Min7, "min6": Min7, "minor-sixth": Min7,
	"aug": Maj7Sharp5, "+": Maj7Sharp5, "augmented": Maj7Sharp5,
}

// matchQualityPattern is a lenient fallback for quality spellings not in the
// alias table. Order matters: more specific patterns first.
func matchQualityPattern(q string) (Quality, bool) {
	lower := strings.ToLower(q)
	switch {
	case strings.Contains(lower, "maj7#5"), strings.Contains(q, "+") && strings.Contains(lower, "maj7"):
		return Maj7Sharp5, true
	case strings.Contains(lower, "mmaj7"), strings.Contains(lower, "minmaj7"), strings.Contains(q, "-Maj7"):
		return MinMaj7, true
	case strings.Contains(lower, "maj7"):
		return Maj7, true
	case strings.Contains(lower, "m7b5"), strings.Contains(q, "ø"), strings.Contains(lower, "mi7b5"):
		return Min7b5, true
	case strings.Contains(lower, "dim"), strings.Contains(q, "°"):
		return Dim7, true
	case strings.Contains(lower, "sus"):
		return Sus7, true
	case strings.Contains(q, "#11"):
		return Dom7Sharp11, true
	case strings.Contains(lower, "m7"), strings.Contains(lower, "mi7"), strings.Contains(lower, "min7"):
		return Min7, true
	case strings.Contains(q, "7"):
		return Dom7, true
	case strings.Contains(lower, "min"), strings.HasPrefix(lower, "m"):
		return Min7, true
	case strings.Contains(q, "+"), strings.Contains(lower, "aug"):
		return Maj7Sharp5, true
	}
	return "", false
}
