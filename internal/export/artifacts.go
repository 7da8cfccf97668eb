package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"melisma/internal/model"
	"melisma/internal/theory"
)

const (
	RunConfigFile      = "run_config.json"
	FitnessHistoryFile = "fitness_history.json"
	DiagnosticsFile    = "diagnostics.json"
	BestGenomeFile     = "best_genome.json"
	MelodyFile         = "melody.mid"
)

// WriteRunArtifacts writes one run's full artifact set into dir/<runID>:
// the run record, fitness history, per-generation diagnostics, the best
// genome as JSON, and a playable MIDI rendering. Returns the run directory.
func WriteRunArtifacts(dir string, run model.RunRecord, history []float64, diagnostics []model.GenerationDiagnostics, progression theory.Progression) (string, error) {
	runDir := filepath.Join(dir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}

	files := []struct {
		name    string
		payload any
	}{
		{RunConfigFile, run},
		{FitnessHistoryFile, history},
		{DiagnosticsFile, diagnostics},
		{BestGenomeFile, run.Best},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(runDir, f.name), f.payload); err != nil {
			return "", err
		}
	}

	if err := WriteSMF(run.Best, progression, filepath.Join(runDir, MelodyFile)); err != nil {
		return "", err
	}
	return runDir, nil
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
