package graph

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Generator builds a graph of roughly n nodes.
type Generator func(n int, rng *rand.Rand) *Graph

var generators = map[string]Generator{
	"ring":     Ring,
	"grid":     Grid,
	"random":   Random,
	"star":     Star,
	"clusters": Clusters,
}

func Generators() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate parses kind:n, e.g. ring:50, and builds that graph.
func Generate(desc string, seed int64) (*Graph, error) {
	kind, count, ok := strings.Cut(desc, ":")
	gen, known := generators[kind]
	if !known {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownGenerator, kind, strings.Join(Generators(), ", "))
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q needs a node count, e.g. %s:100", ErrFormat, desc, kind)
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("%w: node count %q", ErrFormat, count)
	}
	return gen(n, rand.New(rand.NewSource(seed))), nil
}

func id(i int) string { return strconv.Itoa(i) }

func Ring(n int, _ *rand.Rand) *Graph {
	g := New()
	for i := 0; i < n; i++ {
		g.AddNode(id(i))
	}
	if n < 2 {
		return g
	}
	for i := 0; i < n; i++ {
		g.AddEdge(id(i), id((i+1)%n), 1)
	}
	return g
}

// Grid builds the smallest square lattice holding n nodes.
func Grid(n int, _ *rand.Rand) *Graph {
	side := int(math.Ceil(math.Sqrt(float64(n))))
	g := New()
	for i := 0; i < side*side; i++ {
		g.AddNode(id(i))
	}
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			i := r*side + c
			if c+1 < side {
				g.AddEdge(id(i), id(i+1), 1)
			}
			if r+1 < side {
				g.AddEdge(id(i), id(i+side), 1)
			}
		}
	}
	return g
}

func Star(n int, _ *rand.Rand) *Graph {
	g := New()
	g.AddNode(id(0))
	for i := 1; i < n; i++ {
		g.AddEdge(id(0), id(i), 1)
	}
	return g
}

// Random joins every node to an earlier one, then adds as many random
// chords again, so the graph is connected with about 2n edges.
func Random(n int, rng *rand.Rand) *Graph {
	g := New()
	g.AddNode(id(0))
	for i := 1; i < n; i++ {
		g.AddEdge(id(i), id(rng.Intn(i)), 1)
	}
	if n < 2 {
		return g
	}
	for k := 0; k < n; k++ {
		a, b := rng.Intn(n), rng.Intn(n)
		if a != b {
			g.AddEdge(id(a), id(b), 1)
		}
	}
	return g
}

// Clusters builds dense groups of about ten nodes joined by a ring of
// light bridges.
func Clusters(n int, rng *rand.Rand) *Graph {
	groups := max(1, n/10)
	g := New()
	for i := 0; i < n; i++ {
		g.AddNode(id(i))
	}

	members := make([][]int, groups)
	for i := 0; i < n; i++ {
		members[i%groups] = append(members[i%groups], i)
	}
	for _, m := range members {
		for a := 0; a < len(m); a++ {
			for b := a + 1; b < len(m); b++ {
				if rng.Float64() < 0.6 {
					g.AddEdge(id(m[a]), id(m[b]), 1)
				}
			}
		}
	}
	if groups > 1 {
		for k := 0; k < groups; k++ {
			a := members[k][rng.Intn(len(members[k]))]
			b := members[(k+1)%groups][rng.Intn(len(members[(k+1)%groups]))]
			g.AddEdge(id(a), id(b), 0.2)
		}
	}
	return g
}
