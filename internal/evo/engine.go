package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"melisma/internal/fitness"
	"melisma/internal/model"
	"melisma/internal/theory"
)

// ErrInvalidConfig wraps every engine configuration failure. Validation is
// eager: the engine never starts evolving on invalid input.
var ErrInvalidConfig = errors.New("invalid engine configuration")

// Config describes one evolutionary run. Zero values for Pairing, Selector,
// MutationPolicy, Weights and Workers take documented defaults; everything
// else is validated strictly.
type Config struct {
	Progression    theory.Progression
	Weights        fitness.Weights
	PopulationSize int
	Generations    int
	EliteCount     int
	MutationRate   float64
	Pairing        PairingStrategy
	Selector       Selector
	MutationPolicy []WeightedMutation
	Workers        int
	// Seed drives a single random stream threaded through initialization,
	// selection, pairing, crossover and mutation. Equal seeds with equal
	// configs reproduce a run exactly.
	Seed int64
}

// RunResult carries the run's incumbent best (tracked across every
// generation, not just the final one) plus per-generation summaries.
type RunResult struct {
	Best             model.MelodyGenome
	BestFitness      float64
	Breakdown        map[string]float64
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	FinalPopulation  []ScoredGenome
}

// Engine runs the generational loop: evaluate, rank, carry elites, select,
// pair, recombine, mutate, repeat for a fixed generation count.
type Engine struct {
	cfg       Config
	evaluator *fitness.Evaluator
	weights   fitness.Weights
	rng       *rand.Rand
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Progression.Len() != theory.NumBars {
		return nil, fmt.Errorf("%w: progression must have %d bars, got %d", ErrInvalidConfig, theory.NumBars, cfg.Progression.Len())
	}
	if cfg.PopulationSize < 2 {
		return nil, fmt.Errorf("%w: population size must be >= 2, got %d", ErrInvalidConfig, cfg.PopulationSize)
	}
	if cfg.Generations < 1 {
		return nil, fmt.Errorf("%w: generations must be >= 1, got %d", ErrInvalidConfig, cfg.Generations)
	}
	if cfg.EliteCount < 0 || cfg.EliteCount >= cfg.PopulationSize {
		return nil, fmt.Errorf("%w: elite count must be in [0, population size), got %d", ErrInvalidConfig, cfg.EliteCount)
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, fmt.Errorf("%w: mutation rate must be in [0, 1], got %v", ErrInvalidConfig, cfg.MutationRate)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Pairing == nil {
		cfg.Pairing = RandomPairing{}
	}
	if cfg.Selector == nil {
		cfg.Selector = RouletteSelector{}
	}
	if len(cfg.MutationPolicy) == 0 {
		cfg.MutationPolicy = DefaultMutationPolicy()
	}
	positiveWeight := false
	for i, item := range cfg.MutationPolicy {
		if item.Op == nil {
			return nil, fmt.Errorf("%w: mutation policy operator is required at index %d", ErrInvalidConfig, i)
		}
		if item.Weight < 0 {
			return nil, fmt.Errorf("%w: mutation policy weight must be >= 0 at index %d", ErrInvalidConfig, i)
		}
		if item.Weight > 0 {
			positiveWeight = true
		}
	}
	if !positiveWeight {
		return nil, fmt.Errorf("%w: mutation policy requires at least one positive weight", ErrInvalidConfig)
	}

	evaluator, err := fitness.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Weights == nil {
		cfg.Weights = fitness.DefaultWeights()
	}
	if _, err := evaluator.ValidateWeights(cfg.Weights); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		evaluator: evaluator,
		weights:   cfg.Weights.Clone(),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run executes the full generational loop. BestByGeneration holds one entry
// per scored generation, including the initial random population, so its
// length is Generations+1.
func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	population := e.seedPopulation()

	bestHistory := make([]float64, 0, e.cfg.Generations+1)
	diagnostics := make([]model.GenerationDiagnostics, 0, e.cfg.Generations+1)

	var incumbent ScoredGenome
	scored, err := e.evaluatePopulation(ctx, population)
	if err != nil {
		return RunResult{}, err
	}

	for gen := 0; ; gen++ {
		sort.Slice(scored, func(i, j int) bool {
			return scored[i].Fitness > scored[j].Fitness
		})
		bestHistory = append(bestHistory, scored[0].Fitness)
		diagnostics = append(diagnostics, summarizeGeneration(scored, gen))
		if gen == 0 || scored[0].Fitness > incumbent.Fitness {
			incumbent = ScoredGenome{
				Genome:  scored[0].Genome.Clone(scored[0].Genome.ID),
				Fitness: scored[0].Fitness,
			}
		}

		if gen == e.cfg.Generations {
			break
		}

		population, err = e.nextGeneration(ctx, scored, gen)
		if err != nil {
			return RunResult{}, err
		}
		scored, err = e.evaluatePopulation(ctx, population)
		if err != nil {
			return RunResult{}, err
		}
	}

	return RunResult{
		Best:             incumbent.Genome,
		BestFitness:      incumbent.Fitness,
		Breakdown:        e.evaluator.Breakdown(incumbent.Genome, e.cfg.Progression),
		BestByGeneration: bestHistory,
		Diagnostics:      diagnostics,
		FinalPopulation:  scored,
	}, nil
}

// seedPopulation builds biased random genomes: some rests for phrasing, and
// strong beats lean toward chord tones so evolution starts near the harmony.
func (e *Engine) seedPopulation() []model.MelodyGenome {
	population := make([]model.MelodyGenome, e.cfg.PopulationSize)
	for i := range population {
		population[i] = e.randomGenome(fmt.Sprintf("g0-%d", i))
	}
	return population
}

func (e *Engine) randomGenome(id string) model.MelodyGenome {
	pitches := make([]int, 0, model.TotalSlots)
	for bar := 0; bar < model.NumBars; bar++ {
		chord := e.cfg.Progression.Chord(bar)
		for pos := 0; pos < model.NotesPerBar; pos++ {
			if e.rng.Float64() < 0.3 {
				pitches = append(pitches, model.Rest)
				continue
			}
			strongBeat := pos == 0 || pos == 4
			if strongBeat && e.rng.Float64() < 0.7 {
				pitches = append(pitches, randomChordTone(e.rng, chord))
			} else {
				pitches = append(pitches, model.MinPitch+e.rng.Intn(model.MaxPitch-model.MinPitch+1))
			}
		}
	}
	return model.NewGenome(id, pitches)
}

// evaluatePopulation scores every genome concurrently. Metrics are pure
// functions of (genome, progression), so worker scheduling cannot change the
// result; results slot back in by index.
func (e *Engine) evaluatePopulation(ctx context.Context, population []model.MelodyGenome) ([]ScoredGenome, error) {
	type job struct {
		idx    int
		genome model.MelodyGenome
	}
	type result struct {
		idx    int
		scored ScoredGenome
		err    error
	}

	jobs := make(chan job)
	results := make(chan result, len(population))

	workerCount := e.cfg.Workers
	if workerCount > len(population) {
		workerCount = len(population)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				score, err := e.evaluator.Score(j.genome, e.cfg.Progression, e.weights)
				if err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				results <- result{idx: j.idx, scored: ScoredGenome{Genome: j.genome, Fitness: score}}
			}
		}()
	}

	for i := range population {
		jobs <- job{idx: i, genome: population[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	scored := make([]ScoredGenome, len(population))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		scored[res.idx] = res.scored
	}
	return scored, nil
}

// nextGeneration carries elites unchanged, then fills the remainder via
// selection, pairing, bar-boundary crossover and gated mutation. With an odd
// breeding pool the single-slot shortfall is filled by one extra uniform
// pairing. A pool of one parent cannot pair at all; its slot is filled with
// a mutation-gated clone of that parent.
func (e *Engine) nextGeneration(ctx context.Context, ranked []ScoredGenome, generation int) ([]model.MelodyGenome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nextGen := generation + 1
	next := make([]model.MelodyGenome, 0, e.cfg.PopulationSize)
	for i := 0; i < e.cfg.EliteCount; i++ {
		next = append(next, ranked[i].Genome.Clone(fmt.Sprintf("g%d-e%d", nextGen, i)))
	}

	parentCount := e.cfg.PopulationSize - e.cfg.EliteCount
	parents, err := e.cfg.Selector.Select(e.rng, ranked, parentCount)
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	if len(parents) >= 2 {
		pairs, err = e.cfg.Pairing.Pair(e.rng, parents)
		if err != nil {
			return nil, err
		}
	}

	childIdx := 0
	appendChild := func(child model.MelodyGenome) error {
		mutated, err := e.maybeMutate(child)
		if err != nil {
			return err
		}
		next = append(next, mutated)
		childIdx++
		return nil
	}

	for _, pair := range pairs {
		if len(next) >= e.cfg.PopulationSize {
			break
		}
		childA, childB, err := Crossover(e.rng, pair.A.Genome, pair.B.Genome,
			fmt.Sprintf("g%d-%d", nextGen, childIdx), fmt.Sprintf("g%d-%d", nextGen, childIdx+1))
		if err != nil {
			return nil, err
		}
		if err := appendChild(childA); err != nil {
			return nil, err
		}
		if len(next) < e.cfg.PopulationSize {
			if err := appendChild(childB); err != nil {
				return nil, err
			}
		}
	}

	for len(next) < e.cfg.PopulationSize {
		if len(parents) < 2 {
			clone := parents[0].Genome.Clone(fmt.Sprintf("g%d-%d", nextGen, childIdx))
			if err := appendChild(clone); err != nil {
				return nil, err
			}
			continue
		}
		a := e.rng.Intn(len(parents))
		b := e.rng.Intn(len(parents) - 1)
		if b >= a {
			b++
		}
		child, _, err := Crossover(e.rng, parents[a].Genome, parents[b].Genome,
			fmt.Sprintf("g%d-%d", nextGen, childIdx), fmt.Sprintf("g%d-x", nextGen))
		if err != nil {
			return nil, err
		}
		if err := appendChild(child); err != nil {
			return nil, err
		}
	}

	return next, nil
}

func (e *Engine) maybeMutate(genome model.MelodyGenome) (model.MelodyGenome, error) {
	if e.rng.Float64() >= e.cfg.MutationRate {
		return genome, nil
	}
	op := chooseMutation(e.rng, e.cfg.MutationPolicy)
	return op.Apply(e.rng, genome, e.cfg.Progression)
}

func summarizeGeneration(scored []ScoredGenome, generation int) model.GenerationDiagnostics {
	if len(scored) == 0 {
		return model.GenerationDiagnostics{Generation: generation}
	}

	total := 0.0
	density := 0.0
	minFitness := scored[0].Fitness
	fingerprints := make(map[string]struct{}, len(scored))
	for _, item := range scored {
		total += item.Fitness
		if item.Fitness < minFitness {
			minFitness = item.Fitness
		}
		density += float64(item.Genome.NoteCount()) / float64(model.TotalSlots)
		fingerprints[item.Genome.Fingerprint()] = struct{}{}
	}

	return model.GenerationDiagnostics{
		Generation:  generation,
		BestFitness: scored[0].Fitness,
		MeanFitness: total / float64(len(scored)),
		MinFitness:  minFitness,
		Diversity:   len(fingerprints),
		MeanDensity: density / float64(len(scored)),
	}
}
