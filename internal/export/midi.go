// Package export renders runs to disk: a standard MIDI file of the melody
// over block chords, plus JSON artifacts describing the run.
package export

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"melisma/internal/model"
	"melisma/internal/theory"
)

const (
	ticksPerQuarter = 480
	eighthTicks     = ticksPerQuarter / 2
	barTicks        = 4 * ticksPerQuarter

	melodyChannel = 0
	chordChannel  = 1

	melodyVelocity = 90
	chordVelocity  = 60

	// Block chords sound an octave below the melody grid.
	chordOctave = 48

	tempoBPM = 140
)

// noteSegment is one sounded note after consolidating repeated slots.
type noteSegment struct {
	pitch     int
	startSlot int
	slots     int
}

// melodySegments merges consecutive slots holding the same pitch into single
// longer notes. Merging stops at bar boundaries so each bar re-articulates.
func melodySegments(genome model.MelodyGenome) []noteSegment {
	var segments []noteSegment
	for bar := 0; bar < model.NumBars; bar++ {
		slots := genome.Bar(bar)
		for pos := 0; pos < model.NotesPerBar; {
			pitch := slots[pos]
			if pitch == model.Rest {
				pos++
				continue
			}
			length := 1
			for pos+length < model.NotesPerBar && slots[pos+length] == pitch {
				length++
			}
			segments = append(segments, noteSegment{
				pitch:     pitch,
				startSlot: bar*model.NotesPerBar + pos,
				slots:     length,
			})
			pos += length
		}
	}
	return segments
}

// WriteSMF renders the genome as a two-track type-1 SMF: melody on channel 0,
// whole-note block chords on channel 1.
func WriteSMF(genome model.MelodyGenome, progression theory.Progression, path string) error {
	if err := genome.Validate(); err != nil {
		return fmt.Errorf("render midi: %w", err)
	}
	if progression.Len() != theory.NumBars {
		return fmt.Errorf("render midi: progression must have %d bars, got %d", theory.NumBars, progression.Len())
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var melody smf.Track
	melody.Add(0, smf.MetaTrackSequenceName(progression.Name()))
	melody.Add(0, smf.MetaMeter(4, 4))
	melody.Add(0, smf.MetaTempo(tempoBPM))

	cursor := uint32(0)
	for _, segment := range melodySegments(genome) {
		start := uint32(segment.startSlot) * eighthTicks
		end := start + uint32(segment.slots)*eighthTicks
		melody.Add(start-cursor, midi.NoteOn(melodyChannel, uint8(segment.pitch), melodyVelocity))
		melody.Add(end-start, midi.NoteOff(melodyChannel, uint8(segment.pitch)))
		cursor = end
	}
	melody.Close(0)
	if err := s.Add(melody); err != nil {
		return fmt.Errorf("render midi: %w", err)
	}

	var chords smf.Track
	chords.Add(0, smf.MetaTrackSequenceName("Chords"))
	for bar := 0; bar < theory.NumBars; bar++ {
		chord := progression.Chord(bar)
		for _, interval := range chord.ChordTones {
			chords.Add(0, midi.NoteOn(chordChannel, uint8(chordOctave+chord.Root+interval), chordVelocity))
		}
		for i, interval := range chord.ChordTones {
			delta := uint32(0)
			if i == 0 {
				delta = barTicks
			}
			chords.Add(delta, midi.NoteOff(chordChannel, uint8(chordOctave+chord.Root+interval)))
		}
	}
	chords.Close(0)
	if err := s.Add(chords); err != nil {
		return fmt.Errorf("render midi: %w", err)
	}

	return s.WriteFile(path)
}
