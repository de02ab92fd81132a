package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/experiment"
	"github.com/san-kum/dynlayout/internal/optim"
)

// parseGrid turns repeated key=v1,v2 flags into a grid over layout keys.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("%w: need at least one --grid key=v1,v2", config.ErrInvalidParameter)
	}
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		key, list, ok := strings.Cut(entry, "=")
		if !ok || key == "" || list == "" {
			return nil, nil, fmt.Errorf("%w: bad grid %q", config.ErrInvalidParameter, entry)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: bad value in %q: %v", config.ErrInvalidParameter, entry, err)
			}
			values = append(values, v)
		}
		names = append(names, key)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func tuneLayout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, params, err := resolveRun(cmd.Flags(), args)
	if err != nil {
		return err
	}
	g, source, err := loadGraph(cfg)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}
	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	tol := cfg.Tolerance
	if tol <= 0 {
		tol = defaultConvergence
	}
	logger.Info("tuning", "source", source, "trials", search.Size(), "tolerance", tol)

	prog := newProgress(logger)
	trials, err := search.Search(ctx, params, func(p config.ParameterMap) (*experiment.Experiment, error) {
		exp := experiment.New(experiment.Config{Ticks: cfg.Ticks, Seed: cfg.Seed, Tolerance: tol, Params: p})
		if err := exp.Setup(g, experiment.NewLocal(), nil); err != nil {
			return nil, err
		}
		return exp, nil
	}, optim.TicksToSettle)
	if err != nil {
		return err
	}
	prog.done("grid done", "trials", len(trials))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTICKS\n", strings.ToUpper(strings.Join(names, "\t")))
	for _, tr := range trials {
		cols := make([]string, 0, len(names)+1)
		for _, n := range names {
			cols = append(cols, fmt.Sprint(tr.Params[n]))
		}
		switch {
		case tr.Err != nil:
			cols = append(cols, "error: "+tr.Err.Error())
		case math.IsInf(tr.Score, 1):
			cols = append(cols, "did not settle")
		default:
			cols = append(cols, fmt.Sprint(tr.Score))
		}
		fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	return w.Flush()
}
