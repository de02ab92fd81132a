package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/experiment"
	"github.com/san-kum/dynlayout/internal/graph"
	"github.com/san-kum/dynlayout/internal/sim"
)

func builder(t *testing.T, ticks int, tolerance float64) func(config.ParameterMap) (*experiment.Experiment, error) {
	return func(params config.ParameterMap) (*experiment.Experiment, error) {
		g, err := graph.Generate("ring:8", 1)
		require.NoError(t, err)

		exp := experiment.New(experiment.Config{Ticks: ticks, Seed: 1, Tolerance: tolerance, Params: params})
		if err := exp.Setup(g, experiment.NewLocal(), nil); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

func TestNewGridSearchValidates(t *testing.T) {
	_, err := NewGridSearch([]string{"gravity"}, nil)
	assert.ErrorIs(t, err, config.ErrInvalidParameter)

	_, err = NewGridSearch([]string{"gravity"}, [][]float64{{}})
	assert.ErrorIs(t, err, config.ErrInvalidParameter)

	g, err := NewGridSearch([]string{"gravity", "scalingRatio"}, [][]float64{{1, 2}, {1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 6, g.Size())
}

func TestSearchVisitsEveryPoint(t *testing.T) {
	g, err := NewGridSearch(
		[]string{config.KeyGravity, config.KeyScalingRatio},
		[][]float64{{0.5, 1}, {2, 10}},
	)
	require.NoError(t, err)

	trials, err := g.Search(context.Background(), config.ParameterMap{config.KeyLinLogMode: true}, builder(t, 5, 0),
		func(res *experiment.Result) float64 { return res.Params.Gravity * res.Params.ScalingRatio })
	require.NoError(t, err)

	require.Len(t, trials, 4)
	assert.Equal(t, 1.0, trials[0].Score)
	assert.Equal(t, 10.0, trials[3].Score)
	for _, tr := range trials {
		assert.NoError(t, tr.Err)
		assert.Equal(t, true, tr.Params[config.KeyLinLogMode])
	}
}

func TestSearchKeepsFailedTrialsLast(t *testing.T) {
	g, err := NewGridSearch([]string{config.KeyScalingRatio}, [][]float64{{-1, 2}})
	require.NoError(t, err)

	trials, err := g.Search(context.Background(), nil, builder(t, 3, 0), TicksToSettle)
	require.NoError(t, err)

	require.Len(t, trials, 2)
	assert.NoError(t, trials[0].Err)
	assert.ErrorIs(t, trials[1].Err, config.ErrInvalidParameter)
}

func TestSearchBuildError(t *testing.T) {
	g, err := NewGridSearch([]string{config.KeyGravity}, [][]float64{{1}})
	require.NoError(t, err)

	boom := errors.New("boom")
	trials, err := g.Search(context.Background(), nil,
		func(config.ParameterMap) (*experiment.Experiment, error) { return nil, boom }, TicksToSettle)
	require.NoError(t, err)
	require.Len(t, trials, 1)
	assert.ErrorIs(t, trials[0].Err, boom)
}

func TestSearchCancelled(t *testing.T) {
	g, err := NewGridSearch([]string{config.KeyGravity}, [][]float64{{1, 2, 3}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Search(ctx, nil, builder(t, 3, 0), TicksToSettle)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTicksToSettle(t *testing.T) {
	res := &experiment.Result{History: make([]sim.TickStats, 7)}
	assert.True(t, math.IsInf(TicksToSettle(res), 1))

	res.Converged = true
	assert.Equal(t, 7.0, TicksToSettle(res))
}
