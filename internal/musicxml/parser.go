// Package musicxml reads chord symbols from MusicXML lead sheets, such as
// iRealPro exports, and turns the first eight measures into a progression.
package musicxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"melisma/internal/theory"
)

var (
	ErrNoParts     = errors.New("score has no parts")
	ErrNoHarmonies = errors.New("score has no harmony elements")
)

type scorePartwise struct {
	XMLName xml.Name `xml:"score-partwise"`
	Work    struct {
		Title string `xml:"work-title"`
	} `xml:"work"`
	MovementTitle string `xml:"movement-title"`
	Parts         []part `xml:"part"`
}

type part struct {
	Measures []measure `xml:"measure"`
}

type measure struct {
	Harmonies []harmony `xml:"harmony"`
}

type harmony struct {
	Root struct {
		Step  string `xml:"root-step"`
		Alter int    `xml:"root-alter"`
	} `xml:"root"`
	Kind kindElement `xml:"kind"`
}

// kindElement carries both spellings a writer may use: the short text
// attribute ("m7") and the element value ("minor-seventh").
type kindElement struct {
	Text  string `xml:"text,attr"`
	Value string `xml:",chardata"`
}

// ParseFile reads a MusicXML score from disk.
func ParseFile(path string) (theory.Progression, error) {
	f, err := os.Open(path)
	if err != nil {
		return theory.Progression{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse extracts a progression from a MusicXML score. Measures without a
// harmony inherit the previous chord; scores shorter than eight measures are
// padded by repeating the last chord, longer ones are truncated.
func Parse(r io.Reader) (theory.Progression, error) {
	var score scorePartwise
	if err := xml.NewDecoder(r).Decode(&score); err != nil {
		return theory.Progression{}, fmt.Errorf("decode musicxml: %w", err)
	}
	if len(score.Parts) == 0 {
		return theory.Progression{}, ErrNoParts
	}

	chords := make([]theory.Chord, 0, theory.NumBars)
	var last *theory.Chord
	for i, m := range score.Parts[0].Measures {
		if len(chords) == theory.NumBars {
			break
		}
		if len(m.Harmonies) == 0 {
			if last == nil {
				continue // pickup measures before the first chord symbol
			}
			chords = append(chords, *last)
			continue
		}
		chord, err := harmonyChord(m.Harmonies[0])
		if err != nil {
			return theory.Progression{}, fmt.Errorf("measure %d: %w", i+1, err)
		}
		chords = append(chords, chord)
		last = &chord
	}

	if last == nil {
		return theory.Progression{}, ErrNoHarmonies
	}
	for len(chords) < theory.NumBars {
		chords = append(chords, *last)
	}

	return theory.NewProgression(scoreTitle(score), chords)
}

func scoreTitle(score scorePartwise) string {
	if title := strings.TrimSpace(score.Work.Title); title != "" {
		return title
	}
	if title := strings.TrimSpace(score.MovementTitle); title != "" {
		return title
	}
	return "Imported progression"
}

func harmonyChord(h harmony) (theory.Chord, error) {
	root, err := rootName(h.Root.Step, h.Root.Alter)
	if err != nil {
		return theory.Chord{}, err
	}

	// Prefer the short text spelling; fall back to the kind element value.
	spelling := strings.TrimSpace(h.Kind.Text)
	if spelling == "" {
		spelling = strings.TrimSpace(h.Kind.Value)
	}
	quality, err := theory.ParseQuality(spelling)
	if err != nil {
		return theory.Chord{}, fmt.Errorf("chord %s: %w", root, err)
	}
	return theory.NewChord(root, quality)
}

func rootName(step string, alter int) (string, error) {
	step = strings.ToUpper(strings.TrimSpace(step))
	if len(step) != 1 || step[0] < 'A' || step[0] > 'G' {
		return "", fmt.Errorf("invalid root step %q", step)
	}
	switch alter {
	case 0:
		return step, nil
	case 1:
		return step + "#", nil
	case -1:
		return step + "b", nil
	default:
		return "", fmt.Errorf("unsupported root alteration %d", alter)
	}
}
