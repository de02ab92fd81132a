package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/dynlayout/internal/graph"
	"github.com/san-kum/dynlayout/internal/sim"
)

type ExportData struct {
	Run     RunMetadata     `json:"run"`
	Nodes   []graph.Node    `json:"nodes"`
	Edges   []ExportEdge    `json:"edges"`
	History []sim.TickStats `json:"history,omitempty"`
}

type ExportEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// ExportJSON writes a run with its final positions to w.
func (s *Store) ExportJSON(w io.Writer, runID string, withHistory bool) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	g, err := s.LoadGraph(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:   *meta,
		Nodes: g.Nodes,
		Edges: make([]ExportEdge, len(g.Edges)),
	}
	for i, e := range g.Edges {
		data.Edges[i] = ExportEdge{Source: g.Nodes[e.Source].ID, Target: g.Nodes[e.Target].ID, Weight: e.Weight}
	}
	if withHistory {
		if data.History, err = s.LoadConvergence(runID); err != nil {
			return err
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
