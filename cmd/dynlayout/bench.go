package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynlayout/internal/buffer"
	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/graph"
	"github.com/san-kum/dynlayout/internal/sim"
)

func benchLayout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	fmt.Printf("benchmarking %d concurrent layouts x %d ticks\n\n", benchRuns, benchTicks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODES\tEDGES\tMODE\tTIME\tTICKS/SEC\tFINAL SPEED")

	for _, n := range benchSizes {
		g, err := graph.Generate(fmt.Sprintf("random:%d", n), seed)
		if err != nil {
			return err
		}
		_, edges := g.Buffers(false, seed)
		seeder := func(s int64) (buffer.Nodes, error) {
			nodes, _ := g.Buffers(false, s)
			return nodes, nil
		}

		for _, bh := range []bool{false, true} {
			params, err := config.Resolve(config.ParameterMap{config.KeyBarnesHutOptimize: bh}, n)
			if err != nil {
				return err
			}

			start := time.Now()
			results, err := sim.NewEnsemble(params, edges, seeder, benchRuns, seed).Run(ctx, benchTicks)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			var speed float64
			for _, r := range results {
				if h := r.History; len(h) > 0 {
					speed += h[len(h)-1].Speed
				}
			}
			mode := "brute"
			if bh {
				mode = "barnes-hut"
			}
			total := float64(benchRuns * benchTicks)
			logger.Debug("bench", "nodes", n, "mode", mode, "elapsed", elapsed)
			fmt.Fprintf(w, "%d\t%d\t%s\t%v\t%.1f\t%.4g\n",
				n, len(g.Edges), mode, elapsed.Round(time.Millisecond), total/elapsed.Seconds(), speed/float64(len(results)))
		}
	}

	return w.Flush()
}
