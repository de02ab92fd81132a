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

	"github.com/google/uuid"

	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/experiment"
	"github.com/san-kum/dynlayout/internal/graph"
	"github.com/san-kum/dynlayout/internal/sim"
)

const (
	metadataFile    = "metadata.json"
	positionsFile   = "positions.csv"
	edgesFile       = "edges.csv"
	convergenceFile = "convergence.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

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
	ID        string              `json:"id"`
	Source    string              `json:"source"`
	Timestamp time.Time           `json:"timestamp"`
	Seed      int64               `json:"seed"`
	Nodes     int                 `json:"nodes"`
	Edges     int                 `json:"edges"`
	Ticks     int                 `json:"ticks"`
	Converged bool                `json:"converged"`
	Elapsed   float64             `json:"elapsed_seconds"`
	Params    config.ParameterMap `json:"params"`
	Final     sim.TickStats       `json:"final"`
	Metrics   map[string]float64  `json:"metrics"`
}

// Save writes a finished layout under a fresh run ID. The graph in res must
// already carry the final positions.
func (s *Store) Save(source string, seed int64, res *experiment.Result) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Source:    source,
		Timestamp: time.Now(),
		Seed:      seed,
		Nodes:     len(res.Graph.Nodes),
		Edges:     len(res.Graph.Edges),
		Ticks:     len(res.History),
		Converged: res.Converged,
		Elapsed:   res.Elapsed.Seconds(),
		Params:    config.FromParams(res.Params),
		Metrics:   res.Metrics,
	}
	if n := len(res.History); n > 0 {
		meta.Final = res.History[n-1]
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, positionsFile), positionRows(res.Graph)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, edgesFile), edgeRows(res.Graph)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, convergenceFile), convergenceRows(res.History)); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(s.path(runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadGraph rebuilds the laid-out graph of a run.
func (s *Store) LoadGraph(runID string) (*graph.Graph, error) {
	positions, err := readCSV(s.path(runID, positionsFile))
	if err != nil {
		return nil, err
	}

	g := graph.New()
	for i, rec := range positions {
		if i == 0 {
			continue
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("%w: %s row %d", graph.ErrFormat, positionsFile, i)
		}
		idx := g.AddNode(rec[0])
		n := &g.Nodes[idx]
		n.X, _ = strconv.ParseFloat(rec[1], 64)
		n.Y, _ = strconv.ParseFloat(rec[2], 64)
		n.Size, _ = strconv.ParseFloat(rec[3], 64)
		n.Fixed = rec[4] == "1"
		n.Placed = true
	}

	edges, err := readCSV(s.path(runID, edgesFile))
	if err != nil {
		return nil, err
	}
	for i, rec := range edges {
		if i == 0 || len(rec) < 3 {
			continue
		}
		w, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			w = 1
		}
		g.AddEdge(rec[0], rec[1], w)
	}
	return g, nil
}

// LoadConvergence reads the per-tick history of a run.
func (s *Store) LoadConvergence(runID string) ([]sim.TickStats, error) {
	records, err := readCSV(s.path(runID, convergenceFile))
	if err != nil {
		return nil, err
	}

	history := make([]sim.TickStats, 0, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < 8 {
			continue
		}
		var st sim.TickStats
		st.Tick, _ = strconv.Atoi(rec[0])
		st.Speed, _ = strconv.ParseFloat(rec[1], 64)
		st.SpeedEfficiency, _ = strconv.ParseFloat(rec[2], 64)
		st.Swinging, _ = strconv.ParseFloat(rec[3], 64)
		st.Traction, _ = strconv.ParseFloat(rec[4], 64)
		st.JitterTolerance, _ = strconv.ParseFloat(rec[5], 64)
		st.Displacement, _ = strconv.ParseFloat(rec[6], 64)
		st.Chunks, _ = strconv.Atoi(rec[7])
		history = append(history, st)
	}
	return history, nil
}

func (s *Store) path(runID, file string) string {
	return filepath.Join(s.baseDir, filepath.Base(runID), file)
}

func positionRows(g *graph.Graph) [][]string {
	rows := [][]string{{"id", "x", "y", "size", "fixed"}}
	for _, n := range g.Nodes {
		fixed := "0"
		if n.Fixed {
			fixed = "1"
		}
		rows = append(rows, []string{n.ID, formatFloat(n.X), formatFloat(n.Y), formatFloat(n.Size), fixed})
	}
	return rows
}

func edgeRows(g *graph.Graph) [][]string {
	rows := [][]string{{"source", "target", "weight"}}
	for _, e := range g.Edges {
		rows = append(rows, []string{g.Nodes[e.Source].ID, g.Nodes[e.Target].ID, formatFloat(e.Weight)})
	}
	return rows
}

func convergenceRows(history []sim.TickStats) [][]string {
	rows := [][]string{{"tick", "speed", "efficiency", "swinging", "traction", "jitter", "displacement", "chunks"}}
	for _, st := range history {
		rows = append(rows, []string{
			strconv.Itoa(st.Tick),
			formatFloat(st.Speed),
			formatFloat(st.SpeedEfficiency),
			formatFloat(st.Swinging),
			formatFloat(st.Traction),
			formatFloat(st.JitterTolerance),
			formatFloat(st.Displacement),
			strconv.Itoa(st.Chunks),
		})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, filepath.Base(filepath.Dir(path)))
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return records, nil
}
