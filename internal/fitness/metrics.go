package fitness

import (
	"math"

	"melisma/internal/model"
	"melisma/internal/theory"
)

// neutralScore is returned by every metric for a genome with no sounding
// notes: defined and finite, biasing neither toward nor against silence.
const neutralScore = 0.5

func init() {
	mustRegister(MetricSpec{
		Key:           "chord_tone_emphasis",
		Label:         "Chord Tone Emphasis",
		Description:   "Reward chord tones on strong beats",
		DefaultWeight: 0.15,
		Fn:            chordToneEmphasis,
	})
	mustRegister(MetricSpec{
		Key:           "tension_usage",
		Label:         "Tension Usage",
		Description:   "Reward controlled use of 9ths, 11ths and 13ths",
		DefaultWeight: 0.15,
		Fn:            tensionUsage,
	})
	mustRegister(MetricSpec{
		Key:           "avoid_wrong_notes",
		Label:         "Avoid Wrong Notes",
		Description:   "Penalize notes that clash with the chord",
		DefaultWeight: 0.15,
		Fn:            avoidWrongNotes,
	})
	mustRegister(MetricSpec{
		Key:           "call_and_response",
		Label:         "Call and Response",
		Description:   "Reward call/breath/response/resolution phrasing",
		DefaultWeight: 0.15,
		Fn:            callAndResponse,
	})
	mustRegister(MetricSpec{
		Key:           "melodic_motion",
		Label:         "Melodic Motion",
		Description:   "Reward stepwise motion with occasional leaps",
		DefaultWeight: 0.10,
		Fn:            melodicMotion,
	})
	mustRegister(MetricSpec{
		Key:           "arpeggio_scale_mix",
		Label:         "Arpeggio-Scale Mix",
		Description:   "Reward balanced arpeggiated and scalar motion",
		DefaultWeight: 0.05,
		Fn:            arpeggioScaleMix,
	})
	mustRegister(MetricSpec{
		Key:           "phrase_contour",
		Label:         "Phrase Contour",
		Description:   "Reward coherent phrase shapes over zig-zag",
		DefaultWeight: 0.10,
		Fn:            phraseContour,
	})
	mustRegister(MetricSpec{
		Key:           "note_density",
		Label:         "Note Density",
		Description:   "Reward a playable balance of notes and rests",
		DefaultWeight: 0.10,
		Fn:            noteDensity,
	})
	mustRegister(MetricSpec{
		Key:           "range_adherence",
		Label:         "Range Adherence",
		Description:   "Keep the melody inside a comfortable span",
		DefaultWeight: 0.05,
		Fn:            rangeAdherence,
	})
}

func soundingPitches(genome model.MelodyGenome) []int {
	out := make([]int, 0, len(genome.Pitches))
	for _, pitch := range genome.Pitches {
		if pitch != model.Rest {
			out = append(out, pitch)
		}
	}
	return out
}

// strongBeatWeights scores bar-relative eighth-note positions: downbeats 1
// and 3 carry full weight, beats 2 and 4 partial weight.
var strongBeatWeights = map[int]float64{0: 1.0, 4: 1.0, 2: 0.6, 6: 0.6}

// chordToneEmphasis rewards chord tones on strong beats; tensions there earn
// half credit.
func chordToneEmphasis(genome model.MelodyGenome, progression theory.Progression) float64 {
	score := 0.0
	checks := 0.0

	for bar := 0; bar < model.NumBars; bar++ {
		chord := progression.Chord(bar)
		slots := genome.Bar(bar)
		for pos, weight := range strongBeatWeights {
			pitch := slots[pos]
			if pitch == model.Rest {
				continue
			}
			checks += weight
			switch {
			case chord.IsChordTone(pitch):
				score += weight
			case chord.IsTension(pitch):
				score += 0.5 * weight
			}
		}
	}

	if checks == 0 {
		return neutralScore
	}
	return score / checks
}

// tensionUsage peaks near a 30% tension ratio and falls off on both sides:
// saturating, not monotonic.
func tensionUsage(genome model.MelodyGenome, progression theory.Progression) float64 {
	tensions := 0
	notes := 0

	for bar := 0; bar < model.NumBars; bar++ {
		chord := progression.Chord(bar)
		for _, pitch := range genome.Bar(bar) {
			if pitch == model.Rest {
				continue
			}
			notes++
			if chord.IsTension(pitch) {
				tensions++
			}
		}
	}

	if notes == 0 {
		return neutralScore
	}

	const optimal = 0.30
	ratio := float64(tensions) / float64(notes)
	if ratio <= optimal {
		return ratio / optimal
	}
	return math.Max(0, 1-(ratio-optimal)/0.4)
}

// avoidWrongNotes penalizes avoid notes heavily and chromatic passing tones
// mildly. Higher scores mean fewer clashes.
func avoidWrongNotes(genome model.MelodyGenome, progression theory.Progression) float64 {
	penalty := 0.0
	notes := 0

	for bar := 0; bar < model.NumBars; bar++ {
		chord := progression.Chord(bar)
		for _, pitch := range genome.Bar(bar) {
			if pitch == model.Rest {
				continue
			}
			notes++
			switch {
			case chord.IsAvoidNote(pitch):
				penalty += 1.0
			case !chord.IsChordTone(pitch) && !chord.IsTension(pitch):
				penalty += 0.3
			}
		}
	}

	if notes == 0 {
		return neutralScore
	}
	return 1 - penalty/float64(notes)
}

func phraseDensity(genome model.MelodyGenome, startBar, barCount int) float64 {
	notes := 0
	for bar := startBar; bar < startBar+barCount; bar++ {
		for _, pitch := range genome.Bar(bar) {
			if pitch != model.Rest {
				notes++
			}
		}
	}
	return float64(notes) / float64(barCount*model.NotesPerBar)
}

// callAndResponse scores the classic call / breath / response / resolution
// shape over the four 2-bar phrases.
func callAndResponse(genome model.MelodyGenome, _ theory.Progression) float64 {
	if genome.NoteCount() == 0 {
		return neutralScore
	}

	densities := [4]float64{}
	for phrase := 0; phrase < 4; phrase++ {
		densities[phrase] = phraseDensity(genome, phrase*2, 2)
	}

	score := 0.0

	// Call: bars 1-2 should be active.
	switch {
	case densities[0] >= 0.4 && densities[0] <= 0.7:
		score += 0.25
	case densities[0] >= 0.3 && densities[0] <= 0.8:
		score += 0.15
	}

	// Breath: bars 3-4 should leave space.
	switch {
	case densities[1] >= 0.2 && densities[1] <= 0.5:
		score += 0.25
	case densities[1] < densities[0]:
		score += 0.15
	}

	// Response: bars 5-6 active again.
	switch {
	case densities[2] >= 0.4 && densities[2] <= 0.7:
		score += 0.25
	case densities[2] >= 0.3 && densities[2] <= 0.8:
		score += 0.15
	}

	// Resolution: bars 7-8 should wind down.
	bar7 := phraseDensity(genome, 6, 1)
	bar8 := phraseDensity(genome, 7, 1)
	switch {
	case bar7 > bar8:
		score += 0.25
	case densities[3] >= 0.2 && densities[3] <= 0.6:
		score += 0.15
	}

	return score
}

// melodicMotion grades consecutive intervals: steps score best, each wider
// leap class scores progressively worse.
func melodicMotion(genome model.MelodyGenome, _ theory.Progression) float64 {
	pitches := soundingPitches(genome)
	if len(pitches) < 2 {
		return neutralScore
	}

	score := 0.0
	for i := 1; i < len(pitches); i++ {
		interval := pitches[i] - pitches[i-1]
		if interval < 0 {
			interval = -interval
		}
		switch {
		case interval <= 2:
			score += 1.0
		case interval <= 4:
			score += 0.9
		case interval <= 5:
			score += 0.7
		case interval <= 7:
			score += 0.5
		case interval <= 9:
			score += 0.3
		default:
			score += 0.1
		}
	}
	return score / float64(len(pitches)-1)
}

// arpeggioScaleMix rewards roughly 60% steps / 40% skips, with a bonus for
// the "arpeggiate up, scale down" figure.
func arpeggioScaleMix(genome model.MelodyGenome, _ theory.Progression) float64 {
	pitches := soundingPitches(genome)
	if len(pitches) < 4 {
		return neutralScore
	}

	steps, skips := 0, 0
	for i := 1; i < len(pitches); i++ {
		interval := pitches[i] - pitches[i-1]
		if interval < 0 {
			interval = -interval
		}
		if interval <= 2 {
			steps++
		} else {
			skips++
		}
	}

	patterns := 0
	arpUpScaleDown := 0
	for i := 0; i+3 < len(pitches); i++ {
		p1, p2, p3, p4 := pitches[i], pitches[i+1], pitches[i+2], pitches[i+3]
		if p2-p1 >= 3 && p2-p3 >= 1 && p2-p3 <= 2 && p3-p4 >= 1 && p3-p4 <= 2 {
			arpUpScaleDown++
		}
		patterns++
	}

	total := steps + skips
	if total == 0 {
		return neutralScore
	}
	stepRatio := float64(steps) / float64(total)
	ratioScore := math.Max(0, 1.0-math.Abs(0.6-stepRatio)*2)

	patternBudget := patterns / 4
	if patternBudget < 1 {
		patternBudget = 1
	}
	patternScore := math.Min(1.0, float64(arpUpScaleDown)/float64(patternBudget))

	return 0.6*ratioScore + 0.4*patternScore
}

// phraseContour rewards phrases that hold a direction instead of zig-zagging
// every note. Scored per 2-bar phrase and averaged.
func phraseContour(genome model.MelodyGenome, _ theory.Progression) float64 {
	total := 0.0
	for phrase := 0; phrase < 4; phrase++ {
		pitches := make([]int, 0, 2*model.NotesPerBar)
		for bar := phrase * 2; bar < phrase*2+2; bar++ {
			for _, pitch := range genome.Bar(bar) {
				if pitch != model.Rest {
					pitches = append(pitches, pitch)
				}
			}
		}

		if len(pitches) < 3 {
			total += neutralScore
			continue
		}

		changes := 0
		for i := 1; i < len(pitches)-1; i++ {
			prev := pitches[i] - pitches[i-1]
			next := pitches[i+1] - pitches[i]
			if (prev > 0 && next < 0) || (prev < 0 && next > 0) {
				changes++
			}
		}

		maxChanges := len(pitches) - 2
		ratio := float64(changes) / float64(maxChanges)
		switch {
		case ratio <= 0.3:
			total += math.Min(1.0, 0.8+ratio*0.67)
		case ratio <= 0.5:
			total += 1.0 - (ratio-0.3)*2
		default:
			total += math.Max(0, 0.6-(ratio-0.5))
		}
	}
	return total / 4
}

// noteDensity peaks in the 50-75% band: enough notes to hold interest,
// enough rests to breathe.
func noteDensity(genome model.MelodyGenome, _ theory.Progression) float64 {
	notes := genome.NoteCount()
	if notes == 0 {
		return neutralScore
	}
	density := float64(notes) / float64(model.TotalSlots)
	switch {
	case density < 0.3:
		return density / 0.3 * 0.5
	case density <= 0.5:
		return 0.5 + (density-0.3)/0.2*0.5
	case density <= 0.75:
		return 1.0
	default:
		return math.Max(0.3, 1.0-(density-0.75)*3)
	}
}

// rangeAdherence combines grid-range compliance (relevant for partial or
// hand-built genomes) with a tessitura score that favors an octave to an
// octave and a half.
func rangeAdherence(genome model.MelodyGenome, _ theory.Progression) float64 {
	pitches := soundingPitches(genome)
	if len(pitches) == 0 {
		return neutralScore
	}

	inRange := 0
	lo, hi := pitches[0], pitches[0]
	for _, pitch := range pitches {
		if pitch >= model.MinPitch && pitch <= model.MaxPitch {
			inRange++
		}
		if pitch < lo {
			lo = pitch
		}
		if pitch > hi {
			hi = pitch
		}
	}
	compliance := float64(inRange) / float64(len(pitches))

	span := hi - lo
	var spanScore float64
	switch {
	case span < 8:
		spanScore = 0.5 + float64(span)/16
	case span <= 18:
		spanScore = 1.0
	default:
		spanScore = math.Max(0.3, 1.0-float64(span-18)/24)
	}

	return compliance * spanScore
}
