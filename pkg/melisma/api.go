// Package melisma is the embedding API: everything the CLI and the HTTP
// server do goes through Client, so library users get the same behavior.
package melisma

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"melisma/internal/evo"
	"melisma/internal/export"
	"melisma/internal/fitness"
	"melisma/internal/model"
	"melisma/internal/musicxml"
	"melisma/internal/storage"
	"melisma/internal/theory"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "melisma.db"

	defaultPopulation  = 100
	defaultGenerations = 500
	defaultEliteCount  = 5
	defaultMutation    = 0.1
	defaultWorkers     = 4
	defaultTopCount    = 10
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
}

type Client struct {
	store       storage.Store
	initialized bool

	exportsDir string
}

// GenerateRequest configures one evolutionary run. Exactly one progression
// source is used: Preset, XMLPath, or Chords; an empty request falls back to
// the ii-V-I preset.
type GenerateRequest struct {
	Preset  string
	XMLPath string
	// Chords holds "root:quality" pairs, e.g. "D:min7", one per bar.
	Chords []string

	Population   int
	Generations  int
	EliteCount   int
	MutationRate float64
	Pairing      string
	Workers      int
	// Seed 0 derives a seed from the clock; the chosen value is reported in
	// the summary so any run can be replayed.
	Seed int64
	// WeightOverrides adjusts individual metric weights on top of the
	// registry defaults. Unknown keys are rejected.
	WeightOverrides map[string]float64
}

type GenerateSummary struct {
	RunID            string
	Progression      string
	ChordNames       []string
	Seed             int64
	BestFitness      float64
	Breakdown        map[string]float64
	BestByGeneration []float64
	ArtifactsDir     string
}

type RunsRequest struct {
	Limit int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
}

type TopGenomesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

// MetricInfo describes one registered fitness metric for listings.
type MetricInfo struct {
	Key           string
	Label         string
	Description   string
	DefaultWeight float64
}

// PresetInfo describes one built-in progression for listings.
type PresetInfo struct {
	Key         string
	Description string
	ChordNames  []string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// resolveProgression picks the progression source. Explicit chord lists and
// XML files win over presets; with nothing specified the ii-V-I preset runs.
func resolveProgression(req GenerateRequest) (theory.Progression, error) {
	sources := 0
	if req.Preset != "" {
		sources++
	}
	if req.XMLPath != "" {
		sources++
	}
	if len(req.Chords) > 0 {
		sources++
	}
	if sources > 1 {
		return theory.Progression{}, errors.New("use only one of preset, xml file, or chord list")
	}

	switch {
	case req.XMLPath != "":
		return musicxml.ParseFile(req.XMLPath)
	case len(req.Chords) > 0:
		return progressionFromChordSpecs(req.Chords)
	default:
		key := req.Preset
		if key == "" {
			key = "ii-v-i"
		}
		preset, err := theory.ResolvePreset(key)
		if err != nil {
			return theory.Progression{}, err
		}
		return preset.Progression, nil
	}
}

func progressionFromChordSpecs(specs []string) (theory.Progression, error) {
	if len(specs) != theory.NumBars {
		return theory.Progression{}, fmt.Errorf("chord list must have %d entries, got %d", theory.NumBars, len(specs))
	}
	chords := make([]theory.Chord, 0, theory.NumBars)
	for i, spec := range specs {
		root, qualityName, ok := splitChordSpec(spec)
		if !ok {
			return theory.Progression{}, fmt.Errorf("bar %d: chord must be root:quality, got %q", i+1, spec)
		}
		quality, err := theory.ParseQuality(qualityName)
		if err != nil {
			return theory.Progression{}, fmt.Errorf("bar %d: %w", i+1, err)
		}
		chord, err := theory.NewChord(root, quality)
		if err != nil {
			return theory.Progression{}, fmt.Errorf("bar %d: %w", i+1, err)
		}
		chords = append(chords, chord)
	}
	return theory.NewProgression("Custom progression", chords)
}

func splitChordSpec(spec string) (root, quality string, ok bool) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' {
			return spec[:i], spec[i+1:], true
		}
	}
	return "", "", false
}

// Generate runs the evolutionary engine, persists the run, and writes its
// artifact directory.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateSummary, error) {
	if req.Population <= 0 {
		req.Population = defaultPopulation
	}
	if req.Generations <= 0 {
		req.Generations = defaultGenerations
	}
	if req.EliteCount <= 0 {
		req.EliteCount = defaultEliteCount
	}
	if req.MutationRate == 0 {
		req.MutationRate = defaultMutation
	}
	if req.Pairing == "" {
		req.Pairing = "random"
	}
	if req.Workers <= 0 {
		req.Workers = defaultWorkers
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	progression, err := resolveProgression(req)
	if err != nil {
		return GenerateSummary{}, err
	}
	pairing, err := evo.ResolvePairing(req.Pairing)
	if err != nil {
		return GenerateSummary{}, err
	}
	weights := fitness.DefaultWeights().Merge(req.WeightOverrides)

	engine, err := evo.NewEngine(evo.Config{
		Progression:    progression,
		Weights:        weights,
		PopulationSize: req.Population,
		Generations:    req.Generations,
		EliteCount:     req.EliteCount,
		MutationRate:   req.MutationRate,
		Pairing:        pairing,
		Workers:        req.Workers,
		Seed:           req.Seed,
	})
	if err != nil {
		return GenerateSummary{}, err
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return GenerateSummary{}, err
	}

	if err := c.ensureStore(ctx); err != nil {
		return GenerateSummary{}, err
	}

	runID := uuid.NewString()
	run := model.RunRecord{
		VersionedRecord: model.CurrentVersion(),
		ID:              runID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		Progression:     progression.Name(),
		ChordNames:      progression.ChordNames(),
		PopulationSize:  req.Population,
		Generations:     req.Generations,
		EliteCount:      req.EliteCount,
		MutationRate:    req.MutationRate,
		Pairing:         req.Pairing,
		Seed:            req.Seed,
		Workers:         req.Workers,
		Weights:         weights,
		BestFitness:     result.BestFitness,
		Breakdown:       result.Breakdown,
		Best:            result.Best,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return GenerateSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return GenerateSummary{}, err
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, result.Diagnostics); err != nil {
		return GenerateSummary{}, err
	}

	topCount := defaultTopCount
	if topCount > len(result.FinalPopulation) {
		topCount = len(result.FinalPopulation)
	}
	top := make([]model.TopGenomeRecord, 0, topCount)
	for i := 0; i < topCount; i++ {
		scored := result.FinalPopulation[i]
		top = append(top, model.TopGenomeRecord{Rank: i + 1, Fitness: scored.Fitness, Genome: scored.Genome})
	}
	if err := c.store.SaveTopGenomes(ctx, runID, top); err != nil {
		return GenerateSummary{}, err
	}

	runDir, err := export.WriteRunArtifacts(c.exportsDir, run, result.BestByGeneration, result.Diagnostics, progression)
	if err != nil {
		return GenerateSummary{}, err
	}

	return GenerateSummary{
		RunID:            runID,
		Progression:      progression.Name(),
		ChordNames:       progression.ChordNames(),
		Seed:             req.Seed,
		BestFitness:      result.BestFitness,
		Breakdown:        result.Breakdown,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		ArtifactsDir:     filepath.Clean(runDir),
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

// resolveRunID maps the id-or-latest convention onto a concrete run ID.
func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].ID, nil
}

// Export re-renders a stored run's artifacts into OutDir.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	if err := c.ensureStore(ctx); err != nil {
		return ExportSummary{}, err
	}

	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run not found: %s", runID)
	}

	progression, err := progressionFromRun(run)
	if err != nil {
		return ExportSummary{}, err
	}
	history, _, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	diagnostics, _, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}

	dir, err := export.WriteRunArtifacts(req.OutDir, run, history, diagnostics, progression)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(dir)}, nil
}

// progressionFromRun rebuilds the progression from the persisted chord names.
func progressionFromRun(run model.RunRecord) (theory.Progression, error) {
	if len(run.ChordNames) != theory.NumBars {
		return theory.Progression{}, fmt.Errorf("run %s: expected %d chord names, got %d", run.ID, theory.NumBars, len(run.ChordNames))
	}
	chords := make([]theory.Chord, 0, theory.NumBars)
	for i, name := range run.ChordNames {
		chord, err := chordFromName(name)
		if err != nil {
			return theory.Progression{}, fmt.Errorf("run %s bar %d: %w", run.ID, i+1, err)
		}
		chords = append(chords, chord)
	}
	return theory.NewProgression(run.Progression, chords)
}

func chordFromName(name string) (theory.Chord, error) {
	root := ""
	rest := ""
	if len(name) >= 2 && (name[1] == '#' || name[1] == 'b') {
		root, rest = name[:2], name[2:]
	} else if len(name) >= 1 {
		root, rest = name[:1], name[1:]
	}
	quality, err := theory.ParseQuality(rest)
	if err != nil {
		return theory.Chord{}, err
	}
	return theory.NewChord(root, quality)
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	return history, nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	return diagnostics, nil
}

func (c *Client) TopGenomes(ctx context.Context, req TopGenomesRequest) ([]model.TopGenomeRecord, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	top, ok, err := c.store.GetTopGenomes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("top genomes not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(top) > req.Limit {
		top = top[:req.Limit]
	}
	return top, nil
}

// Presets lists the built-in progressions.
func (c *Client) Presets(_ context.Context) []PresetInfo {
	presets := theory.Presets()
	out := make([]PresetInfo, 0, len(presets))
	for _, preset := range presets {
		out = append(out, PresetInfo{
			Key:         preset.Key,
			Description: preset.Description,
			ChordNames:  preset.Progression.ChordNames(),
		})
	}
	return out
}

// Metrics lists the registered fitness metrics and their default weights.
func (c *Client) Metrics(_ context.Context) []MetricInfo {
	specs := fitness.Specs()
	out := make([]MetricInfo, 0, len(specs))
	for _, spec := range specs {
		out = append(out, MetricInfo{
			Key:           spec.Key,
			Label:         spec.Label,
			Description:   spec.Description,
			DefaultWeight: spec.DefaultWeight,
		})
	}
	return out
}

// Pairings lists the available pairing strategy names.
func (c *Client) Pairings(_ context.Context) []string {
	return evo.PairingNames()
}
