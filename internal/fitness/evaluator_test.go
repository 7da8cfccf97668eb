package fitness

import (
	"errors"
	"math"
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

func TestNewEvaluatorFailsOnEmptyRegistry(t *testing.T) {
	withCleanRegistry(t)
	if _, err := NewEvaluator(); err == nil {
		t.Fatal("expected error for empty registry")
	}
}

func TestEvaluatorSnapshotsRegistry(t *testing.T) {
	withCleanRegistry(t)
	mustRegister(MetricSpec{Key: "first", Fn: constMetric(1), DefaultWeight: 1})

	evaluator, err := NewEvaluator()
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	mustRegister(MetricSpec{Key: "second", Fn: constMetric(1), DefaultWeight: 1})

	keys := evaluator.MetricKeys()
	if len(keys) != 1 || keys[0] != "first" {
		t.Fatalf("snapshot should not see later registrations, got %v", keys)
	}
}

func TestValidateWeightsMissingKey(t *testing.T) {
	evaluator, err := NewEvaluator()
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}

	w := DefaultWeights()
	delete(w, "note_density")
	if _, err := evaluator.ValidateWeights(w); !errors.Is(err, ErrMissingWeight) {
		t.Fatalf("expected ErrMissingWeight, got %v", err)
	}
}

func TestValidateWeightsUnknownKey(t *testing.T) {
	evaluator, err := NewEvaluator()
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}

	w := DefaultWeights()
	w["swing_feel"] = 0.5
	if _, err := evaluator.ValidateWeights(w); !errors.Is(err, ErrMetricNotFound) {
		t.Fatalf("expected ErrMetricNotFound, got %v", err)
	}
}

func TestValidateWeightsNormalizes(t *testing.T) {
	evaluator, err := NewEvaluator()
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}

	doubled := DefaultWeights()
	for key := range doubled {
		doubled[key] *= 2
	}
	normalized, err := evaluator.ValidateWeights(doubled)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	total := 0.0
	for _, value := range normalized {
		total += value
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("normalized weights should sum to 1.0, got %v", total)
	}
}

func TestScoreAllRestIsNeutral(t *testing.T) {
	evaluator, err := NewEvaluator()
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}

	score, err := evaluator.Score(model.NewRestGenome("r"), testProgression(t), DefaultWeights())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if math.Abs(score-0.5) > 1e-9 {
		t.Fatalf("all-rest genome should score the neutral 0.5, got %v", score)
	}
}

func TestScoreWithinUnitInterval(t *testing.T) {
	evaluator, err := NewEvaluator()
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}

	pitches := make([]int, model.TotalSlots)
	for i := range pitches {
		if i%3 == 0 {
			pitches[i] = model.Rest
		} else {
			pitches[i] = model.MinPitch + i%12
		}
	}
	score, err := evaluator.Score(model.NewGenome("g", pitches), testProgression(t), DefaultWeights())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score < 0 || score > 1 {
		t.Fatalf("score %v outside [0, 1]", score)
	}
}

func TestScoreRejectsOutOfRangeMetric(t *testing.T) {
	withCleanRegistry(t)
	mustRegister(MetricSpec{Key: "broken", Fn: constMetric(1.5), DefaultWeight: 1})

	evaluator, err := NewEvaluator()
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	if _, err := evaluator.Score(model.NewRestGenome("r"), testProgression(t), Weights{"broken": 1}); err == nil {
		t.Fatal("expected error for out-of-range metric value")
	}
}

func TestScoreIsWeightSensitive(t *testing.T) {
	withCleanRegistry(t)
	mustRegister(MetricSpec{Key: "high", Fn: constMetric(1.0), DefaultWeight: 0.5})
	mustRegister(MetricSpec{Key: "low", Fn: constMetric(0.0), DefaultWeight: 0.5})

	evaluator, err := NewEvaluator()
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	genome := model.NewRestGenome("r")
	progression := testProgression(t)

	favorHigh, err := evaluator.Score(genome, progression, Weights{"high": 3, "low": 1})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	favorLow, err := evaluator.Score(genome, progression, Weights{"high": 1, "low": 3})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if favorHigh != 0.75 || favorLow != 0.25 {
		t.Fatalf("expected 0.75/0.25, got %v/%v", favorHigh, favorLow)
	}
}

func TestBreakdownCoversEveryMetric(t *testing.T) {
	evaluator, err := NewEvaluator()
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}

	breakdown := evaluator.Breakdown(model.NewRestGenome("r"), testProgression(t))
	for _, key := range evaluator.MetricKeys() {
		value, ok := breakdown[key]
		if !ok {
			t.Fatalf("breakdown missing metric %s", key)
		}
		if value != 0.5 {
			t.Fatalf("all-rest breakdown for %s should be 0.5, got %v", key, value)
		}
	}
}
