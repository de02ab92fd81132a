package sim

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynlayout/internal/buffer"
)

func randomGraph(t testing.TB, n, m int, seed int64) (buffer.Nodes, buffer.Edges) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	nodes := buffer.NewNodes(n, false)
	degree := make([]int, n)
	edges := make([]float64, 0, m*buffer.EdgeStride)
	for i := 0; i < m; i++ {
		a, b := rng.Intn(n), rng.Intn(n)
		degree[a]++
		degree[b]++
		edges = append(edges, float64(nodes.At(a)), float64(nodes.At(b)), float64(1+rng.Intn(3)))
	}
	for i := 0; i < n; i++ {
		s := nodes.At(i)
		nodes.Data[s+buffer.X] = rng.Float64()*200 - 100
		nodes.Data[s+buffer.Y] = rng.Float64()*200 - 100
		nodes.Data[s+buffer.Mass] = float64(1 + degree[i])
	}
	e, err := buffer.WrapEdges(edges)
	require.NoError(t, err)
	return nodes, e
}

func twoNodeGraph(t *testing.T) (buffer.Nodes, buffer.Edges) {
	nodes := buffer.NewNodes(2, false)
	nodes.Data[buffer.Mass] = 1
	nodes.Data[buffer.NodeStride+buffer.X] = 10
	nodes.Data[buffer.NodeStride+buffer.Mass] = 1
	edges, err := buffer.WrapEdges([]float64{0, buffer.NodeStride, 1})
	require.NoError(t, err)
	return nodes, edges
}

func TestTwoConnectedNodesMoveCloser(t *testing.T) {
	nodes, edges := twoNodeGraph(t)
	p := DefaultParams()
	p.Gravity = 0

	s, err := New(nodes, edges, p)
	require.NoError(t, err)

	st, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Tick)

	x1, x2 := nodes.Data[buffer.X], nodes.Data[buffer.NodeStride+buffer.X]
	assert.Greater(t, x1, 0.0)
	assert.Less(t, x2, 10.0)
	assert.Less(t, x2-x1, 10.0)
	assert.InDelta(t, 5.0, (x1+x2)/2, 1e-9)
	assert.Zero(t, nodes.Data[buffer.Y])
	assert.Zero(t, nodes.Data[buffer.NodeStride+buffer.Y])
	assert.Equal(t, Cursor{}, s.Cursor())
}

func TestGravityPullsIsolatedNode(t *testing.T) {
	nodes := buffer.NewNodes(1, false)
	nodes.Data[buffer.X] = 10
	nodes.Data[buffer.Y] = 5
	nodes.Data[buffer.Mass] = 1

	s, err := New(nodes, buffer.Edges{}, DefaultParams())
	require.NoError(t, err)

	dist := func() float64 { return math.Hypot(nodes.Data[buffer.X], nodes.Data[buffer.Y]) }
	start := dist()
	prev := start
	for i := 0; i < 10; i++ {
		_, err := s.Tick()
		require.NoError(t, err)
		d := dist()
		assert.Less(t, d, prev, "tick %d", i+1)
		prev = d
	}

	_, err = s.Run(context.Background(), 20)
	require.NoError(t, err)
	assert.LessOrEqual(t, dist(), prev)
	assert.Less(t, dist(), start/10)
	assert.GreaterOrEqual(t, s.Tuning().Speed, 0.0)
}

func TestChunkSizeInvariance(t *testing.T) {
	for _, bh := range []bool{false, true} {
		nodesA, edges := randomGraph(t, 40, 80, 3)
		nodesB := nodesA.Clone()

		p := DefaultParams()
		p.BarnesHutOptimize = bh
		p.OutboundAttractionDistribution = true
		p.EdgeWeightInfluence = 1.5

		fine := p
		fine.ComplexIntervals, fine.SimpleIntervals = 1, 1
		coarse := p
		coarse.ComplexIntervals, coarse.SimpleIntervals = 1000, 1000

		a, err := New(nodesA, edges, fine)
		require.NoError(t, err)
		b, err := New(nodesB, edges, coarse)
		require.NoError(t, err)

		histA, err := a.Run(context.Background(), 3)
		require.NoError(t, err)
		histB, err := b.Run(context.Background(), 3)
		require.NoError(t, err)

		assert.Equal(t, nodesB.Data, nodesA.Data, "barnes-hut %v", bh)
		assert.Equal(t, b.Tuning(), a.Tuning())
		assert.Greater(t, histA[0].Chunks, histB[0].Chunks)
		// init, speed and one chunk each for the four chunked phases
		assert.Equal(t, 6, histB[0].Chunks)
	}
}

func TestBarnesHutApproachesBruteForce(t *testing.T) {
	exact, edges := randomGraph(t, 20, 30, 11)
	approx := exact.Clone()

	p := DefaultParams()
	s1, err := New(exact, edges, p)
	require.NoError(t, err)
	p.BarnesHutOptimize = true
	p.BarnesHutTheta = 0
	s2, err := New(approx, edges, p)
	require.NoError(t, err)

	_, err = s1.Tick()
	require.NoError(t, err)
	_, err = s2.Tick()
	require.NoError(t, err)

	for i := range exact.Data {
		assert.InDelta(t, exact.Data[i], approx.Data[i], 1e-6*math.Max(1, math.Abs(exact.Data[i])), "slot %d", i)
	}
}

func TestFixedNodeDoesNotMove(t *testing.T) {
	nodes, edges := randomGraph(t, 10, 20, 5)
	fixed := nodes.At(3)
	nodes.Data[fixed+buffer.Fixed] = 1
	x, y := nodes.Data[fixed+buffer.X], nodes.Data[fixed+buffer.Y]

	s, err := New(nodes, edges, DefaultParams())
	require.NoError(t, err)
	_, err = s.Run(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, x, nodes.Data[fixed+buffer.X])
	assert.Equal(t, y, nodes.Data[fixed+buffer.Y])
	assert.NotZero(t, nodes.Data[fixed+buffer.DX])
}

func TestApplyLeavesPreviousPositions(t *testing.T) {
	nodes, edges := twoNodeGraph(t)
	s, err := New(nodes, edges, DefaultParams())
	require.NoError(t, err)

	_, err = s.Tick()
	require.NoError(t, err)
	assert.Equal(t, 0.0, nodes.Data[buffer.OldDX])
	assert.Equal(t, 10.0, nodes.Data[buffer.NodeStride+buffer.OldDX])
}

func TestAdjustSizes(t *testing.T) {
	_, err := New(buffer.NewNodes(2, false), buffer.Edges{}, Params{AdjustSizes: true, ScalingRatio: 1, ComplexIntervals: 1, SimpleIntervals: 1})
	assert.True(t, errors.Is(err, buffer.ErrUnknownField))

	nodes := buffer.NewNodes(2, true)
	for i, x := range []float64{0, 1} {
		s := nodes.At(i)
		nodes.Data[s+buffer.X] = x
		nodes.Data[s+buffer.Mass] = 1
		nodes.Data[s+buffer.Size] = 2
	}
	p := DefaultParams()
	p.AdjustSizes = true
	p.Gravity = 0
	s, err := New(nodes, buffer.Edges{}, p)
	require.NoError(t, err)

	_, err = s.Tick()
	require.NoError(t, err)
	gap := nodes.Data[nodes.At(1)+buffer.X] - nodes.Data[buffer.X]
	assert.Greater(t, gap, 1.0)
	assert.LessOrEqual(t, gap, 21.0)
}

func TestInvalidPhaseAbortsTick(t *testing.T) {
	nodes, edges := twoNodeGraph(t)
	s, err := New(nodes, edges, DefaultParams())
	require.NoError(t, err)

	s.cursor = Cursor{Phase: 9, Index: 4}
	_, err = s.Tick()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPhase))

	var tickErr *TickError
	require.True(t, errors.As(err, &tickErr))
	assert.Equal(t, Phase(9), tickErr.Cursor.Phase)
	assert.Equal(t, Cursor{}, s.Cursor())

	_, err = s.Tick()
	assert.NoError(t, err)
}

func TestBadEdgeAbortsTick(t *testing.T) {
	nodes, _ := twoNodeGraph(t)
	edges, err := buffer.WrapEdges([]float64{0, 8, 1, 3, 0, 1})
	require.NoError(t, err)
	before := nodes.Clone()

	s, err := New(nodes, edges, DefaultParams())
	require.NoError(t, err)

	_, err = s.Tick()
	assert.True(t, errors.Is(err, buffer.ErrIndexAlignment))
	var tickErr *TickError
	require.True(t, errors.As(err, &tickErr))
	assert.Equal(t, Cursor{Phase: PhaseAttraction, Index: 1}, tickErr.Cursor)
	assert.Equal(t, Cursor{}, s.Cursor())
	assert.Equal(t, 0, s.Ticks())
	assert.Equal(t, before.Data[buffer.X], nodes.Data[buffer.X])

	edges.Data[3] = 16
	_, err = s.Tick()
	assert.True(t, errors.Is(err, buffer.ErrIndexRange))

	edges.Data[3] = math.Inf(1)
	_, err = s.Tick()
	assert.True(t, errors.Is(err, buffer.ErrIndexRange))
	assert.Equal(t, Cursor{}, s.Cursor())
}

func TestSetNodes(t *testing.T) {
	nodes, edges := twoNodeGraph(t)
	s, err := New(nodes, edges, DefaultParams())
	require.NoError(t, err)

	assert.Error(t, s.SetNodes(buffer.NewNodes(3, false)))

	edited := nodes.Clone()
	edited.Data[buffer.X] = -5
	require.NoError(t, s.SetNodes(edited))
	_, err = s.Tick()
	require.NoError(t, err)
	assert.NotEqual(t, -5.0, edited.Data[buffer.X])
	assert.Equal(t, 0.0, nodes.Data[buffer.X])
}

type tickRecorder struct{ ticks []int }

func (r *tickRecorder) OnTick(s TickStats) { r.ticks = append(r.ticks, s.Tick) }

type peakSpeed struct{ max float64 }

func (m *peakSpeed) Name() string        { return "max_speed" }
func (m *peakSpeed) Observe(s TickStats) { m.max = math.Max(m.max, s.Speed) }
func (m *peakSpeed) Value() float64      { return m.max }
func (m *peakSpeed) Reset()              { m.max = 0 }

func TestObserversAndMetrics(t *testing.T) {
	nodes, edges := randomGraph(t, 10, 15, 1)
	s, err := New(nodes, edges, DefaultParams())
	require.NoError(t, err)

	rec := &tickRecorder{}
	s.AddObserver(rec)
	s.AddMetric(&peakSpeed{max: 1e9})

	hist, err := s.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, rec.ticks)
	assert.Len(t, hist, 3)

	var want float64
	for _, h := range hist {
		want = math.Max(want, h.Speed)
	}
	assert.Equal(t, want, s.Metrics()["max_speed"])
}

func TestRunHonoursContext(t *testing.T) {
	nodes, edges := twoNodeGraph(t)
	s, err := New(nodes, edges, DefaultParams())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hist, err := s.Run(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hist)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero scaling", func(p *Params) { p.ScalingRatio = 0 }},
		{"zero chunk", func(p *Params) { p.ComplexIntervals = 0 }},
		{"negative theta", func(p *Params) { p.BarnesHutTheta = -1 }},
		{"negative speed", func(p *Params) { p.Speed = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}
	assert.NoError(t, DefaultParams().Validate())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "repulsion", PhaseRepulsion.String())
	assert.Equal(t, "phase(7)", Phase(7).String())
}
