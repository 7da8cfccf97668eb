package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

func CurrentVersion() VersionedRecord {
	return VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

// RunRecord is the persisted summary of one evolutionary run.
type RunRecord struct {
	VersionedRecord
	ID             string             `json:"id"`
	CreatedAtUTC   string             `json:"created_at_utc"`
	Progression    string             `json:"progression"`
	ChordNames     []string           `json:"chord_names"`
	PopulationSize int                `json:"population_size"`
	Generations    int                `json:"generations"`
	EliteCount     int                `json:"elite_count"`
	MutationRate   float64            `json:"mutation_rate"`
	Pairing        string             `json:"pairing"`
	Seed           int64              `json:"seed"`
	Workers        int                `json:"workers"`
	Weights        map[string]float64 `json:"weights"`
	BestFitness    float64            `json:"best_fitness"`
	Breakdown      map[string]float64 `json:"breakdown"`
	Best           MelodyGenome       `json:"best"`
}

// TopGenomeRecord is a ranked final-population entry persisted per run.
type TopGenomeRecord struct {
	Rank    int          `json:"rank"`
	Fitness float64      `json:"fitness"`
	Genome  MelodyGenome `json:"genome"`
}

// GenerationDiagnostics summarizes one scored generation.
type GenerationDiagnostics struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
	Diversity   int     `json:"diversity"`
	MeanDensity float64 `json:"mean_density"`
}
