package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"melisma/internal/model"
)

func TestWriteRunArtifacts(t *testing.T) {
	best := model.NewRestGenome("best")
	best.Pitches[0] = 62
	best.Pitches[4] = 67
	run := model.RunRecord{
		VersionedRecord: model.CurrentVersion(),
		ID:              "run-1",
		CreatedAtUTC:    "2026-08-24T10:00:00Z",
		Progression:     "ii-V-I in C",
		PopulationSize:  100,
		Generations:     10,
		BestFitness:     0.72,
		Best:            best,
	}
	history := []float64{0.5, 0.6, 0.72}
	diagnostics := []model.GenerationDiagnostics{{Generation: 0, BestFitness: 0.5}}

	dir := t.TempDir()
	runDir, err := WriteRunArtifacts(dir, run, history, diagnostics, testProgression(t))
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if runDir != filepath.Join(dir, "run-1") {
		t.Fatalf("unexpected run directory %s", runDir)
	}

	for _, name := range []string{RunConfigFile, FitnessHistoryFile, DiagnosticsFile, BestGenomeFile, MelodyFile} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(runDir, RunConfigFile))
	if err != nil {
		t.Fatalf("read run config: %v", err)
	}
	var decoded model.RunRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode run config: %v", err)
	}
	if decoded.ID != "run-1" || decoded.BestFitness != 0.72 {
		t.Fatalf("unexpected run config %+v", decoded)
	}

	var decodedHistory []float64
	data, err = os.ReadFile(filepath.Join(runDir, FitnessHistoryFile))
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if err := json.Unmarshal(data, &decodedHistory); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(decodedHistory) != 3 || decodedHistory[2] != 0.72 {
		t.Fatalf("unexpected history %v", decodedHistory)
	}
}

func TestWriteRunArtifactsPropagatesMIDIErrors(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: model.CurrentVersion(),
		ID:              "run-bad",
		Best:            model.NewGenome("bad", make([]int, 3)),
	}
	if _, err := WriteRunArtifacts(t.TempDir(), run, nil, nil, testProgression(t)); err == nil {
		t.Fatal("expected error for an unrenderable best genome")
	}
}
