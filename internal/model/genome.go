package model

import (
	"fmt"
	"hash/fnv"
)

const (
	// Rest marks a slot with no sounding pitch.
	Rest = -1
	// MinPitch and MaxPitch bound the playable grid (C4..C6).
	MinPitch = 60
	MaxPitch = 84

	// NumBars x NotesPerBar defines the fixed eighth-note rhythm grid.
	NumBars     = 8
	NotesPerBar = 8
	TotalSlots  = NumBars * NotesPerBar
)

// MelodyGenome is one candidate melody: 64 eighth-note slots, each holding a
// MIDI pitch in [MinPitch, MaxPitch] or Rest. Bar b owns slots [8b, 8b+8).
type MelodyGenome struct {
	VersionedRecord
	ID      string `json:"id"`
	Pitches []int  `json:"pitches"`
}

// NewRestGenome returns an all-rest genome of the full grid length.
func NewRestGenome(id string) MelodyGenome {
	pitches := make([]int, TotalSlots)
	for i := range pitches {
		pitches[i] = Rest
	}
	return MelodyGenome{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		Pitches:         pitches,
	}
}

// NewGenome wraps a pitch slice without copying. Callers own the slice.
func NewGenome(id string, pitches []int) MelodyGenome {
	return MelodyGenome{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		Pitches:         pitches,
	}
}

// Clone deep-copies the genome under a new ID.
func (g MelodyGenome) Clone(id string) MelodyGenome {
	out := g
	out.ID = id
	out.Pitches = append([]int(nil), g.Pitches...)
	return out
}

// Bar returns the slots owned by the given bar as a subslice of the genome.
func (g MelodyGenome) Bar(bar int) []int {
	start := bar * NotesPerBar
	return g.Pitches[start : start+NotesPerBar]
}

// Validate enforces the grid invariants: exact length, every slot Rest or
// in-range.
func (g MelodyGenome) Validate() error {
	if len(g.Pitches) != TotalSlots {
		return fmt.Errorf("genome must have %d slots, got %d", TotalSlots, len(g.Pitches))
	}
	for i, pitch := range g.Pitches {
		if pitch == Rest {
			continue
		}
		if pitch < MinPitch || pitch > MaxPitch {
			return fmt.Errorf("slot %d: pitch %d outside [%d, %d]", i, pitch, MinPitch, MaxPitch)
		}
	}
	return nil
}

// NoteCount reports how many slots sound a pitch.
func (g MelodyGenome) NoteCount() int {
	count := 0
	for _, pitch := range g.Pitches {
		if pitch != Rest {
			count++
		}
	}
	return count
}

// Fingerprint hashes the pitch sequence; identical melodies share a
// fingerprint regardless of genome ID.
func (g MelodyGenome) Fingerprint() string {
	h := fnv.New64a()
	var buf [2]byte
	for _, pitch := range g.Pitches {
		buf[0] = byte(pitch + 1)
		buf[1] = byte((pitch + 1) >> 8)
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
