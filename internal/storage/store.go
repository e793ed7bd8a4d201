package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"

	fieldsPerBody = 5 // x, y, vx, vy, mass
)

var ErrMalformedFrames = errors.New("malformed frames file")

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
	Timestamp   time.Time          `json:"timestamp"`
	Seed        uint64             `json:"seed"`
	FinalSeed   uint64             `json:"final_seed"`
	Ticks       uint64             `json:"ticks"`
	Reseeds     int                `json:"reseeds"`
	Params      physics.Params     `json:"params"`
	Limiter     string             `json:"limiter"`
	MaxRate     float64            `json:"max_rate"`
	RecordEvery uint64             `json:"record_every"`
	Frames      int                `json:"frames"`
	Elapsed     time.Duration      `json:"elapsed"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes meta and frames under a new run directory and returns its id.
// ID, Timestamp and Frames are filled in by Save.
func (s *Store) Save(meta RunMetadata, frames []sim.Frame) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("seed%d_%d", meta.Seed, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Frames = len(frames)

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteFramesCSV(csvFile, frames); err != nil {
		return "", fmt.Errorf("write frames: %w", err)
	}

	return runID, nil
}

// List returns the metadata of every readable run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	frames, err := ReadFramesCSV(file)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return frames, nil
}

// WriteFramesCSV writes one row per frame: tick, seed, then x, y, vx, vy and
// mass for each body. Values are written with full precision.
func WriteFramesCSV(out io.Writer, frames []sim.Frame) error {
	w := csv.NewWriter(out)

	if len(frames) == 0 {
		w.Flush()
		return w.Error()
	}

	header := []string{"tick", "seed"}
	for i := range frames[0].Bodies {
		header = append(header,
			fmt.Sprintf("b%d_x", i),
			fmt.Sprintf("b%d_y", i),
			fmt.Sprintf("b%d_vx", i),
			fmt.Sprintf("b%d_vy", i),
			fmt.Sprintf("b%d_mass", i),
		)
	}

	if err := w.Write(header); err != nil {
		return err
	}

	for _, f := range frames {
		row := []string{
			strconv.FormatUint(f.Tick, 10),
			strconv.FormatUint(f.Seed, 10),
		}
		for _, b := range f.Bodies {
			row = append(row,
				formatFloat(b.Pos.X),
				formatFloat(b.Pos.Y),
				formatFloat(b.Vel.X),
				formatFloat(b.Vel.Y),
				formatFloat(b.Mass),
			)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func ReadFramesCSV(in io.Reader) ([]sim.Frame, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Frame{}, nil
	}

	frames := make([]sim.Frame, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 2 || (len(record)-2)%fieldsPerBody != 0 {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrMalformedFrames, i, len(record))
		}

		tick, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d tick: %v", ErrMalformedFrames, i, err)
		}
		seed, err := strconv.ParseUint(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d seed: %v", ErrMalformedFrames, i, err)
		}

		vals := make([]float64, len(record)-2)
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j+2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", ErrMalformedFrames, i, j+2, err)
			}
		}

		bodies := make([]physics.Body, 0, len(vals)/fieldsPerBody)
		for k := 0; k < len(vals); k += fieldsPerBody {
			bodies = append(bodies, physics.NewBody(
				r2.Vec{X: vals[k], Y: vals[k+1]},
				r2.Vec{X: vals[k+2], Y: vals[k+3]},
				vals[k+4],
			))
		}

		frames = append(frames, sim.Frame{Tick: tick, Seed: seed, Bodies: bodies})
	}

	return frames, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
