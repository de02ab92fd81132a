// Package optim searches layout parameter grids for the settings that
// settle a graph fastest.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/experiment"
)

// Score rates a finished run; lower is better.
type Score func(res *experiment.Result) float64

// TicksToSettle scores converged runs by their tick count and runs that never
// converged as infinitely bad.
func TicksToSettle(res *experiment.Result) float64 {
	if !res.Converged {
		return math.Inf(1)
	}
	return float64(len(res.History))
}

type Trial struct {
	Params config.ParameterMap
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d parameter names for %d ranges", config.ErrInvalidParameter, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", config.ErrInvalidParameter, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs one experiment per grid point on top of base and returns all
// trials, best first. Failed trials are kept with their error and sorted last.
func (g *GridSearch) Search(
	ctx context.Context,
	base config.ParameterMap,
	buildExperiment func(params config.ParameterMap) (*experiment.Experiment, error),
	score Score,
) ([]Trial, error) {
	trials := make([]Trial, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, base, buildExperiment, score, &trials); err != nil {
		return trials, err
	}

	sort.SliceStable(trials, func(i, j int) bool {
		if (trials[i].Err == nil) != (trials[j].Err == nil) {
			return trials[i].Err == nil
		}
		return trials[i].Score < trials[j].Score
	})
	return trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current config.ParameterMap,
	buildExperiment func(config.ParameterMap) (*experiment.Experiment, error),
	score Score,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		trial := Trial{Params: current, Score: math.Inf(1)}
		exp, err := buildExperiment(current)
		if err != nil {
			trial.Err = err
			*trials = append(*trials, trial)
			return nil
		}
		defer exp.Close()

		result, err := exp.Run(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			trial.Err = err
		default:
			trial.Score = score(result)
		}
		*trials = append(*trials, trial)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := current.Merge(config.ParameterMap{paramName: val})
		if err := g.searchRecursive(ctx, depth+1, next, buildExperiment, score, trials); err != nil {
			return err
		}
	}
	return nil
}
