// Package graph adapts edge lists and generated topologies to the flat node
// and edge buffers the simulator works on.
package graph

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/dynlayout/internal/buffer"
)

var (
	ErrFormat           = errors.New("graph: malformed input")
	ErrUnknownGenerator = errors.New("graph: unknown generator")
)

type Node struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Size   float64 `json:"size,omitempty"`
	Fixed  bool    `json:"fixed,omitempty"`
	Placed bool    `json:"-"`
}

// Edge refers to nodes by their index in Graph.Nodes.
type Edge struct {
	Source int
	Target int
	Weight float64
}

type Graph struct {
	Nodes []Node
	Edges []Edge
	index map[string]int
}

func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode returns the index of id, adding an unplaced node when it is new.
func (g *Graph) AddNode(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	g.index[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: id, Size: 1})
	return len(g.Nodes) - 1
}

func (g *Graph) AddEdge(source, target string, weight float64) {
	g.Edges = append(g.Edges, Edge{Source: g.AddNode(source), Target: g.AddNode(target), Weight: weight})
}

func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

func (g *Graph) Degrees() []int {
	deg := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		deg[e.Source]++
		deg[e.Target]++
	}
	return deg
}

// Buffers lays the graph out as simulator buffers. Mass is 1+degree and
// unplaced nodes get seeded random positions in a square that grows with
// the node count.
func (g *Graph) Buffers(sized bool, seed int64) (buffer.Nodes, buffer.Edges) {
	nodes := buffer.NewNodes(len(g.Nodes), sized)
	rng := rand.New(rand.NewSource(seed))
	spread := 10 * math.Sqrt(float64(len(g.Nodes)))
	deg := g.Degrees()

	for i, n := range g.Nodes {
		at := nodes.At(i)
		x, y := n.X, n.Y
		if !n.Placed {
			x = (rng.Float64() - 0.5) * spread
			y = (rng.Float64() - 0.5) * spread
		}
		nodes.Data[at+buffer.X] = x
		nodes.Data[at+buffer.Y] = y
		nodes.Data[at+buffer.Mass] = float64(1 + deg[i])
		if n.Fixed {
			nodes.Data[at+buffer.Fixed] = 1
		}
		if sized {
			nodes.Data[at+buffer.Size] = n.Size
		}
	}

	edges := buffer.Edges{Data: make([]float64, 0, len(g.Edges)*buffer.EdgeStride)}
	for _, e := range g.Edges {
		edges.Data = append(edges.Data, float64(nodes.At(e.Source)), float64(nodes.At(e.Target)), e.Weight)
	}
	return nodes, edges
}

// Apply copies positions from a node buffer back onto the graph.
func (g *Graph) Apply(nodes buffer.Nodes) error {
	if nodes.Len() != len(g.Nodes) {
		return fmt.Errorf("%w: %d nodes in buffer, graph has %d", buffer.ErrLength, nodes.Len(), len(g.Nodes))
	}
	for i := range g.Nodes {
		at := nodes.At(i)
		g.Nodes[i].X = nodes.Data[at+buffer.X]
		g.Nodes[i].Y = nodes.Data[at+buffer.Y]
		g.Nodes[i].Placed = true
	}
	return nil
}

// Bounds returns the bounding box of the node positions.
func (g *Graph) Bounds() (minX, minY, maxX, maxY float64) {
	if len(g.Nodes) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range g.Nodes {
		minX, maxX = math.Min(minX, n.X), math.Max(maxX, n.X)
		minY, maxY = math.Min(minY, n.Y), math.Max(maxY, n.Y)
	}
	return minX, minY, maxX, maxY
}
