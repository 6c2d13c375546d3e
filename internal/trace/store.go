package trace

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

const (
	metadataFile = "metadata.json"
	csvFile      = "samples.csv"
	cborFile     = "samples.cbor"
)

var ErrNoSamples = errors.New("trace: run has no samples")

var csvHeader = []string{
	"time", "actuator", "mode",
	"position", "velocity", "effort",
	"position_cmd", "velocity_cmd", "effort_cmd",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Period      float64            `json:"period"`
	Duration    float64            `json:"duration"`
	Realtime    bool               `json:"realtime"`
	Actuators   []string           `json:"actuators"`
	Controllers []string           `json:"controllers"`
	Ticks       int                `json:"ticks"`
	Overruns    int                `json:"overruns"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`
}

// Save writes meta and samples to a new run directory named after meta.Name
// with a random suffix, and returns the run id.
func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	if meta.Name == "" {
		meta.Name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%s", meta.Name, uuid.NewString()[:8])
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, csvFile), samples); err != nil {
		return "", err
	}
	if err := writeCBOR(filepath.Join(runDir, cborFile), samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeCSV(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(f, samples)
}

func writeCBOR(path string, samples []Sample) error {
	data, err := cbor.Marshal(samples)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// List returns every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads the CBOR samples of a run.
func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, cborFile))
	if err != nil {
		return nil, err
	}
	var samples []Sample
	if err := cbor.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("decode %s: %w", cborFile, err)
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	return samples, nil
}

// LoadSamplesCSV reads the CSV samples of a run. Additional states are not
// part of the CSV and come back empty.
func (s *Store) LoadSamplesCSV(runID string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, csvFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(csvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, ErrNoSamples
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		vals := make([]float64, 0, 7)
		for _, field := range append([]string{record[0]}, record[3:]...) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", csvFile, i+2, err)
			}
			vals = append(vals, v)
		}
		samples = append(samples, Sample{
			Time:        vals[0],
			Actuator:    record[1],
			Mode:        record[2],
			Position:    vals[1],
			Velocity:    vals[2],
			Effort:      vals[3],
			PositionCmd: vals[4],
			VelocityCmd: vals[5],
			EffortCmd:   vals[6],
		})
	}
	return samples, nil
}
