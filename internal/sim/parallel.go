package sim

import (
	"context"
	"sync"

	"github.com/san-kum/dynlayout/internal/buffer"
)

// Seeder produces the initial node buffer for one ensemble member.
type Seeder func(seed int64) (buffer.Nodes, error)

type EnsembleResult struct {
	Seed    int64
	Nodes   buffer.Nodes
	History []TickStats
}

// Ensemble runs independent layouts of one topology concurrently. The edge
// buffer is shared read-only; every member owns its node buffer.
type Ensemble struct {
	params    Params
	edges     buffer.Edges
	seeder    Seeder
	numRuns   int
	seedStart int64
}

func NewEnsemble(params Params, edges buffer.Edges, seeder Seeder, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{params: params, edges: edges, seeder: seeder, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, ticks int) ([]EnsembleResult, error) {
	results := make([]EnsembleResult, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			nodes, err := e.seeder(seed)
			if err != nil {
				errs[idx] = err
				return
			}
			sim, err := New(nodes, e.edges, e.params)
			if err != nil {
				errs[idx] = err
				return
			}

			history, err := sim.Run(ctx, ticks)
			results[idx] = EnsembleResult{Seed: seed, Nodes: sim.Nodes(), History: history}
			errs[idx] = err
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
