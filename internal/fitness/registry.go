package fitness

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"melisma/internal/model"
	"melisma/internal/theory"
)

var (
	ErrMetricExists   = errors.New("metric already registered")
	ErrMetricNotFound = errors.New("metric not found")
)

// Metric scores one aspect of a melody against a progression. Metrics are
// pure and total: always a finite value in [0, 1], independent of every
// other metric and of evaluation order.
type Metric func(genome model.MelodyGenome, progression theory.Progression) float64

// MetricSpec describes a registered metric. Label and Description feed the
// CLI and HTTP listings; DefaultWeight seeds the default weight set.
type MetricSpec struct {
	Key           string
	Label         string
	Description   string
	DefaultWeight float64
	Fn            Metric
}

var metricRegistry = struct {
	mu sync.RWMutex
	m  map[string]MetricSpec
}{
	m: make(map[string]MetricSpec),
}

// Register adds a metric to the registry. Adding or removing a scoring
// heuristic happens here only; the evaluator never names a metric.
func Register(spec MetricSpec) error {
	if spec.Key == "" {
		return errors.New("metric key is required")
	}
	if spec.Fn == nil {
		return errors.New("metric function is required")
	}
	if spec.DefaultWeight < 0 {
		return fmt.Errorf("metric %s: default weight must be >= 0", spec.Key)
	}

	metricRegistry.mu.Lock()
	defer metricRegistry.mu.Unlock()

	if _, exists := metricRegistry.m[spec.Key]; exists {
		return fmt.Errorf("%w: %s", ErrMetricExists, spec.Key)
	}
	metricRegistry.m[spec.Key] = spec
	return nil
}

func mustRegister(spec MetricSpec) {
	if err := Register(spec); err != nil {
		panic(err)
	}
}

// Specs returns the registered metrics sorted by key.
func Specs() []MetricSpec {
	metricRegistry.mu.RLock()
	defer metricRegistry.mu.RUnlock()

	out := make([]MetricSpec, 0, len(metricRegistry.m))
	for _, spec := range metricRegistry.m {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Keys returns the registered metric keys sorted ascending.
func Keys() []string {
	specs := Specs()
	keys := make([]string, len(specs))
	for i, spec := range specs {
		keys[i] = spec.Key
	}
	return keys
}

func resetRegistryForTests() {
	metricRegistry.mu.Lock()
	defer metricRegistry.mu.Unlock()
	metricRegistry.m = make(map[string]MetricSpec)
}
