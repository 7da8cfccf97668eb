package musicxml

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"melisma/internal/theory"
)

func scoreXML(title string, measures ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<score-partwise version="3.1">`)
	if title != "" {
		b.WriteString(`<work><work-title>` + title + `</work-title></work>`)
	}
	b.WriteString(`<part id="P1">`)
	for i, m := range measures {
		b.WriteString(`<measure number="` + strconv.Itoa(i+1) + `">` + m + `</measure>`)
	}
	b.WriteString(`</part></score-partwise>`)
	return b.String()
}

func harmonyXML(step string, alter string, kindText, kindValue string) string {
	var b strings.Builder
	b.WriteString(`<harmony><root><root-step>` + step + `</root-step>`)
	if alter != "" {
		b.WriteString(`<root-alter>` + alter + `</root-alter>`)
	}
	b.WriteString(`</root><kind`)
	if kindText != "" {
		b.WriteString(` text="` + kindText + `"`)
	}
	b.WriteString(`>` + kindValue + `</kind></harmony>`)
	return b.String()
}

func TestParseFullLeadSheet(t *testing.T) {
	xml := scoreXML("Test Changes",
		harmonyXML("D", "", "m7", "minor-seventh"),
		harmonyXML("G", "", "7", "dominant"),
		harmonyXML("C", "", "Maj7", "major-seventh"),
		harmonyXML("C", "", "Maj7", "major-seventh"),
		harmonyXML("D", "", "m7", "minor-seventh"),
		harmonyXML("G", "", "7", "dominant"),
		harmonyXML("C", "", "Maj7", "major-seventh"),
		harmonyXML("C", "", "Maj7", "major-seventh"),
	)

	progression, err := Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if progression.Name() != "Test Changes" {
		t.Fatalf("expected title Test Changes, got %q", progression.Name())
	}
	want := []string{"Dm7", "G7", "Cmaj7", "Cmaj7", "Dm7", "G7", "Cmaj7", "Cmaj7"}
	names := progression.ChordNames()
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("bar %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestParseCarriesChordForward(t *testing.T) {
	xml := scoreXML("Sparse",
		harmonyXML("F", "", "m7", ""),
		"<note/>", // no harmony: previous chord holds
		harmonyXML("B", "-1", "7", ""),
		"<note/>",
	)

	progression, err := Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	names := progression.ChordNames()
	want := []string{"Fm7", "Fm7", "Bb7", "Bb7", "Bb7", "Bb7", "Bb7", "Bb7"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("bar %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestParsePadsAndTruncates(t *testing.T) {
	short, err := Parse(strings.NewReader(scoreXML("Short", harmonyXML("C", "", "Maj7", ""))))
	if err != nil {
		t.Fatalf("parse short: %v", err)
	}
	if short.Len() != theory.NumBars {
		t.Fatalf("expected padding to %d bars, got %d", theory.NumBars, short.Len())
	}

	measures := make([]string, 12)
	for i := range measures {
		measures[i] = harmonyXML("C", "", "Maj7", "")
	}
	measures[8] = harmonyXML("F", "", "7", "")
	long, err := Parse(strings.NewReader(scoreXML("Long", measures...)))
	if err != nil {
		t.Fatalf("parse long: %v", err)
	}
	if long.Len() != theory.NumBars {
		t.Fatalf("expected truncation to %d bars, got %d", theory.NumBars, long.Len())
	}
	for _, name := range long.ChordNames() {
		if name != "Cmaj7" {
			t.Fatalf("measure 9+ should be truncated, found %s", name)
		}
	}
}

func TestParseRootAlterations(t *testing.T) {
	progression, err := Parse(strings.NewReader(scoreXML("Alters",
		harmonyXML("E", "-1", "Maj7", ""),
		harmonyXML("F", "1", "m7", ""),
	)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	names := progression.ChordNames()
	if names[0] != "Ebmaj7" || names[1] != "F#m7" {
		t.Fatalf("unexpected names %v", names[:2])
	}
}

func TestParseSkipsPickupBeforeFirstChord(t *testing.T) {
	progression, err := Parse(strings.NewReader(scoreXML("Pickup",
		"<note/>",
		harmonyXML("G", "", "7", ""),
	)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if progression.Chord(0).Name != "G7" {
		t.Fatalf("expected the pickup measure to be skipped, got %s", progression.Chord(0).Name)
	}
}

func TestParseKindFallsBackToElementValue(t *testing.T) {
	progression, err := Parse(strings.NewReader(scoreXML("Fallback",
		harmonyXML("A", "", "", "half-diminished"),
	)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if progression.Chord(0).Name != "Am7b5" {
		t.Fatalf("expected Am7b5 via kind value, got %s", progression.Chord(0).Name)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader("not xml")); err == nil {
		t.Fatal("expected error for malformed input")
	}
	if _, err := Parse(strings.NewReader(`<score-partwise></score-partwise>`)); !errors.Is(err, ErrNoParts) {
		t.Fatalf("expected ErrNoParts, got %v", err)
	}
	noChords := scoreXML("Empty", "<note/>", "<note/>")
	if _, err := Parse(strings.NewReader(noChords)); !errors.Is(err, ErrNoHarmonies) {
		t.Fatalf("expected ErrNoHarmonies, got %v", err)
	}
	badRoot := scoreXML("Bad", harmonyXML("H", "", "7", ""))
	if _, err := Parse(strings.NewReader(badRoot)); err == nil {
		t.Fatal("expected error for invalid root step")
	}
	badKind := scoreXML("Bad", harmonyXML("C", "", "gibberish", ""))
	if _, err := Parse(strings.NewReader(badKind)); !errors.Is(err, theory.ErrUnknownQuality) {
		t.Fatalf("expected ErrUnknownQuality, got %v", err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "score.xml")
	xml := scoreXML("From Disk", harmonyXML("C", "", "Maj7", ""))
	if err := os.WriteFile(path, []byte(xml), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	progression, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if progression.Name() != "From Disk" {
		t.Fatalf("unexpected name %q", progression.Name())
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
