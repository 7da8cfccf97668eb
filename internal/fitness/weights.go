package fitness

import (
	"errors"
	"fmt"

	"melisma/internal/util"
)

var (
	ErrEmptyWeights  = errors.New("weight set is empty or unnormalizable")
	ErrMissingWeight = errors.New("missing weight for registered metric")
)

// Weights maps metric keys to non-negative weights. Use Normalized before
// evaluation; a Weights value is always passed explicitly, never stored as
// ambient state, so concurrent runs with different weights cannot interfere.
type Weights map[string]float64

// DefaultWeights returns each registered metric's default weight.
func DefaultWeights() Weights {
	specs := Specs()
	w := make(Weights, len(specs))
	for _, spec := range specs {
		w[spec.Key] = spec.DefaultWeight
	}
	return w
}

// Normalized returns a copy scaled so the entries sum to 1.0. It fails on an
// empty map, a negative entry, or an all-zero sum.
func (w Weights) Normalized() (Weights, error) {
	if len(w) == 0 {
		return nil, ErrEmptyWeights
	}
	total := 0.0
	for _, key := range util.SortedKeys(w) {
		value := w[key]
		if value < 0 {
			return nil, fmt.Errorf("weight %s must be >= 0, got %v", key, value)
		}
		total += value
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrEmptyWeights, total)
	}
	out := make(Weights, len(w))
	for key, value := range w {
		out[key] = value / total
	}
	return out, nil
}

// Clone copies the weight map.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for key, value := range w {
		out[key] = value
	}
	return out
}

// Merge overlays non-nil overrides onto a copy of w. Unknown keys in the
// overlay are kept; Normalized or the evaluator will reject them if they do
// not match the registry.
func (w Weights) Merge(overrides map[string]float64) Weights {
	out := w.Clone()
	for key, value := range overrides {
		out[key] = value
	}
	return out
}
