package fitness

import (
	"fmt"

	"melisma/internal/model"
	"melisma/internal/theory"
	"melisma/internal/util"
)

// Evaluator aggregates the registered metrics into a weighted score. It
// snapshots the registry at construction so a run sees one consistent metric
// set; weights are passed into every call rather than held as state.
type Evaluator struct {
	specs []MetricSpec
}

// NewEvaluator snapshots the current metric registry.
func NewEvaluator() (*Evaluator, error) {
	specs := Specs()
	if len(specs) == 0 {
		return nil, fmt.Errorf("metric registry is empty")
	}
	return &Evaluator{specs: specs}, nil
}

// MetricKeys lists the snapshot's metric keys sorted ascending.
func (e *Evaluator) MetricKeys() []string {
	keys := make([]string, len(e.specs))
	for i, spec := range e.specs {
		keys[i] = spec.Key
	}
	return keys
}

// ValidateWeights checks that the weight set covers every snapshot metric,
// names no unknown metric, and normalizes cleanly. Omitting a registered key
// is an error by policy rather than an implicit zero.
func (e *Evaluator) ValidateWeights(weights Weights) (Weights, error) {
	known := make(map[string]struct{}, len(e.specs))
	for _, spec := range e.specs {
		if _, ok := weights[spec.Key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingWeight, spec.Key)
		}
		known[spec.Key] = struct{}{}
	}
	for _, key := range util.SortedKeys(weights) {
		if _, ok := known[key]; !ok {
			return nil, fmt.Errorf("%w: no metric registered for weight %s", ErrMetricNotFound, key)
		}
	}
	return weights.Normalized()
}

// Score computes the weighted aggregate fitness in [0, 1]. A metric value
// outside [0, 1] is a programming error and fails loudly.
func (e *Evaluator) Score(genome model.MelodyGenome, progression theory.Progression, weights Weights) (float64, error) {
	normalized, err := e.ValidateWeights(weights)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, spec := range e.specs {
		value := spec.Fn(genome, progression)
		if value < 0 || value > 1 {
			return 0, fmt.Errorf("metric %s returned out-of-range value %v", spec.Key, value)
		}
		total += normalized[spec.Key] * value
	}
	return total, nil
}

// Breakdown returns each metric's raw (unweighted) value. Raw values do not
// depend on the weight set.
func (e *Evaluator) Breakdown(genome model.MelodyGenome, progression theory.Progression) map[string]float64 {
	out := make(map[string]float64, len(e.specs))
	for _, spec := range e.specs {
		out[spec.Key] = spec.Fn(genome, progression)
	}
	return out
}
