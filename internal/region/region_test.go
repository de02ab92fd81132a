package region

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynlayout/internal/buffer"
)

func nodesFrom(coords []float64, equalMass bool) buffer.Nodes {
	n := len(coords) / 2
	nodes := buffer.NewNodes(n, false)
	for i := 0; i < n; i++ {
		s := nodes.At(i)
		nodes.Data[s+buffer.X] = coords[2*i]
		nodes.Data[s+buffer.Y] = coords[2*i+1]
		nodes.Data[s+buffer.Mass] = 1
		if !equalMass {
			nodes.Data[s+buffer.Mass] = float64(1 + i%5)
		}
	}
	return nodes
}

func TestPartitionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("leaves cover every node exactly once", prop.ForAll(
		func(coords []float64, depth int, equalMass bool) bool {
			nodes := nodesFrom(coords, equalMass)
			tree := New(depth)
			tree.Build(nodes)

			var seen []int
			for _, leaf := range tree.Leaves() {
				if len(leaf) > 1 {
					return false
				}
				seen = append(seen, leaf...)
			}
			if len(seen) != nodes.Len() {
				return false
			}
			sort.Ints(seen)
			for i, s := range seen {
				if s != nodes.At(i) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-100, 100)),
		gen.IntRange(1, 20),
		gen.Bool(),
	))

	properties.Property("regions respect the depth limit", prop.ForAll(
		func(coords []float64, depth int) bool {
			tree := New(depth)
			tree.Build(nodesFrom(coords, true))
			return tree.MaxDepth() <= depth+1
		},
		gen.SliceOf(gen.Float64Range(-5, 5)),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

func TestCoincidentNodesBecomeSingletons(t *testing.T) {
	for _, n := range []int{2, 7, 100} {
		coords := make([]float64, 2*n)
		for i := range coords {
			coords[i] = 3
		}
		tree := New(DefaultDepthLimit)
		tree.Build(nodesFrom(coords, true))

		root := tree.Root()
		require.NotNil(t, root)
		assert.Equal(t, n, root.NumChildren)
		assert.Len(t, tree.Leaves(), n)
		assert.Equal(t, 1, tree.MaxDepth())
	}
}

func TestBuildMassCenter(t *testing.T) {
	nodes := nodesFrom([]float64{0, 0, 10, 0, 0, 10, 10, 10}, false)
	tree := New(DefaultDepthLimit)
	tree.Build(nodes)

	root := tree.Root()
	require.NotNil(t, root)
	// masses 1, 2, 3, 4
	assert.InDelta(t, 10.0, root.Mass, 1e-12)
	assert.InDelta(t, 6.0, root.MassCenterX, 1e-12)
	assert.InDelta(t, 7.0, root.MassCenterY, 1e-12)
	assert.Equal(t, 4, root.NumChildren)
	for c := root.FirstChild; c < root.FirstChild+root.NumChildren; c++ {
		r := tree.Region(c)
		assert.True(t, r.IsLeaf())
		assert.Zero(t, r.Size)
		assert.Equal(t, 1, r.Depth)
	}
}

func TestZeroMassFallsBackToCentroid(t *testing.T) {
	nodes := nodesFrom([]float64{0, 0, 4, 2}, true)
	nodes.Data[buffer.Mass] = 0
	nodes.Data[buffer.NodeStride+buffer.Mass] = 0

	tree := New(DefaultDepthLimit)
	tree.Build(nodes)
	root := tree.Root()
	assert.InDelta(t, 2.0, root.MassCenterX, 1e-12)
	assert.InDelta(t, 1.0, root.MassCenterY, 1e-12)
}

func TestEmptyBuild(t *testing.T) {
	tree := New(0)
	tree.Build(buffer.NewNodes(0, false))
	assert.Nil(t, tree.Root())
	assert.Equal(t, DefaultDepthLimit, tree.DepthLimit)
	tree.ApplyForce(0, &inverseSquare{}, 1)
}

type inverseSquare struct {
	nodes []float64
	fx    map[int]float64
	fy    map[int]float64
}

func (l *inverseSquare) push(n int, x, y, mass float64) {
	dx := l.nodes[n+buffer.X] - x
	dy := l.nodes[n+buffer.Y] - y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		return
	}
	f := l.nodes[n+buffer.Mass] * mass / d2
	l.fx[n] += dx * f
	l.fy[n] += dy * f
}

func (l *inverseSquare) ApplyToNode(n, other int) {
	l.push(n, l.nodes[other+buffer.X], l.nodes[other+buffer.Y], l.nodes[other+buffer.Mass])
}

func (l *inverseSquare) ApplyToRegion(n int, r *Region) {
	l.push(n, r.MassCenterX, r.MassCenterY, r.Mass)
}

func TestApplyForceMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	coords := make([]float64, 40)
	for i := range coords {
		coords[i] = rng.Float64()*100 - 50
	}
	nodes := nodesFrom(coords, false)

	brute := &inverseSquare{nodes: nodes.Data, fx: map[int]float64{}, fy: map[int]float64{}}
	for i := 0; i < nodes.Len(); i++ {
		for j := 0; j < nodes.Len(); j++ {
			if i != j {
				brute.ApplyToNode(nodes.At(i), nodes.At(j))
			}
		}
	}

	tree := New(DefaultDepthLimit)
	tree.Build(nodes)
	for _, theta := range []float64{0, 1e-6} {
		approx := &inverseSquare{nodes: nodes.Data, fx: map[int]float64{}, fy: map[int]float64{}}
		for i := 0; i < nodes.Len(); i++ {
			tree.ApplyForce(nodes.At(i), approx, theta)
		}
		for n, fx := range brute.fx {
			assert.InDelta(t, fx, approx.fx[n], 1e-9, "theta %v node %d", theta, n)
			assert.InDelta(t, brute.fy[n], approx.fy[n], 1e-9, "theta %v node %d", theta, n)
		}
	}

	coarse := &inverseSquare{nodes: nodes.Data, fx: map[int]float64{}, fy: map[int]float64{}}
	for i := 0; i < nodes.Len(); i++ {
		tree.ApplyForce(nodes.At(i), coarse, 1.2)
	}
	var errSum, norm float64
	for n, fx := range brute.fx {
		errSum += math.Abs(fx-coarse.fx[n]) + math.Abs(brute.fy[n]-coarse.fy[n])
		norm += math.Abs(fx) + math.Abs(brute.fy[n])
	}
	assert.Less(t, errSum/norm, 0.5)
}
