package graph

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Load reads a graph file, choosing the format by extension.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f)
	default:
		return ReadCSV(f)
	}
}

// ReadCSV parses source,target[,weight] rows. A first row whose weight
// column is not numeric, or that reads source,target, is taken as a header.
func ReadCSV(r io.Reader) (*Graph, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	g := New()
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("%w: line %d: want source,target[,weight]", ErrFormat, line)
		}

		weight := 1.0
		if len(rec) > 2 && rec[2] != "" {
			w, err := strconv.ParseFloat(rec[2], 64)
			if err != nil {
				if line == 1 {
					continue
				}
				return nil, fmt.Errorf("%w: line %d: weight %q", ErrFormat, line, rec[2])
			}
			weight = w
		} else if line == 1 && strings.EqualFold(rec[0], "source") && strings.EqualFold(rec[1], "target") {
			continue
		}

		g.AddEdge(rec[0], rec[1], weight)
	}
	return g, nil
}

type jsonGraph struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID    string   `json:"id"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Size  *float64 `json:"size"`
	Fixed bool     `json:"fixed"`
}

type jsonEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Weight *float64 `json:"weight"`
}

// ReadJSON parses {nodes:[{id,x,y,size,fixed}], edges:[{source,target,weight}]}.
// Nodes named only by edges are added unplaced.
func ReadJSON(r io.Reader) (*Graph, error) {
	var raw jsonGraph
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	g := New()
	for _, n := range raw.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node without id", ErrFormat)
		}
		if _, dup := g.Index(n.ID); dup {
			return nil, fmt.Errorf("%w: duplicate node %q", ErrFormat, n.ID)
		}
		i := g.AddNode(n.ID)
		node := &g.Nodes[i]
		if n.X != nil && n.Y != nil {
			node.X, node.Y, node.Placed = *n.X, *n.Y, true
		}
		if n.Size != nil {
			node.Size = *n.Size
		}
		node.Fixed = n.Fixed
	}

	for i, e := range raw.Edges {
		if e.Source == "" || e.Target == "" {
			return nil, fmt.Errorf("%w: edge %d needs source and target", ErrFormat, i)
		}
		weight := 1.0
		if e.Weight != nil {
			weight = *e.Weight
		}
		g.AddEdge(e.Source, e.Target, weight)
	}
	return g, nil
}

// WriteJSON writes the graph with its current positions.
func (g *Graph) WriteJSON(w io.Writer) error {
	out := struct {
		Nodes []Node     `json:"nodes"`
		Edges []jsonEdge `json:"edges"`
	}{Nodes: g.Nodes}

	for _, e := range g.Edges {
		weight := e.Weight
		out.Edges = append(out.Edges, jsonEdge{Source: g.Nodes[e.Source].ID, Target: g.Nodes[e.Target].ID, Weight: &weight})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
