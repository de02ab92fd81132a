package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/experiment"
	"github.com/san-kum/dynlayout/internal/graph"
	"github.com/san-kum/dynlayout/internal/metrics"
	"github.com/san-kum/dynlayout/internal/storage"
	"github.com/san-kum/dynlayout/internal/transport"
	"github.com/san-kum/dynlayout/internal/worker"
)

const defaultConvergence = 0.01

// resolveRun layers the run file, then the preset, then explicitly set
// flags. It returns the run description with its merged parameter map.
func resolveRun(flags *pflag.FlagSet, args []string) (*config.Config, config.ParameterMap, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Graph = args[0]
	}
	if flags.Changed("generate") {
		cfg.Generate = generate
	}
	if flags.Changed("preset") {
		cfg.Preset = preset
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = tolerance
	}

	params, err := cfg.Parameters()
	if err != nil {
		return nil, nil, err
	}
	return cfg, params.Merge(flagOverrides(flags)), nil
}

func flagOverrides(flags *pflag.FlagSet) config.ParameterMap {
	m := config.ParameterMap{}
	set := func(flag, key string, v any) {
		if flags.Changed(flag) {
			m[key] = v
		}
	}
	set("barnes-hut", config.KeyBarnesHutOptimize, barnesHut)
	set("theta", config.KeyBarnesHutTheta, theta)
	set("gravity", config.KeyGravity, gravity)
	set("scaling", config.KeyScalingRatio, scaling)
	set("linlog", config.KeyLinLogMode, linlog)
	set("strong-gravity", config.KeyStrongGravityMode, strongGravity)
	set("chunk", config.KeyComplexIntervals, chunk)
	set("chunk", config.KeySimpleIntervals, chunk)
	return m
}

// loadGraph reads the graph file, or generates one when no file is given.
func loadGraph(cfg *config.Config) (*graph.Graph, string, error) {
	switch {
	case cfg.Graph != "":
		g, err := graph.Load(cfg.Graph)
		return g, cfg.Graph, err
	case cfg.Generate != "":
		g, err := graph.Generate(cfg.Generate, cfg.Seed)
		return g, cfg.Generate, err
	default:
		return nil, "", errors.New("need a graph file or --generate kind:n")
	}
}

func openSession(ctx context.Context) (experiment.Session, error) {
	if connect != "" {
		return transport.Dial(connect, 30*time.Second)
	}
	return experiment.NewLocal(worker.WithLogger(loggerFromContext(ctx))), nil
}

func runLayout(cmd *cobra.Command, args []string) error {
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
	logger.Info("loaded graph", "source", source, "nodes", len(g.Nodes), "edges", len(g.Edges))

	session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	threshold := cfg.Tolerance
	if threshold <= 0 {
		threshold = defaultConvergence
	}

	exp := experiment.New(experiment.Config{
		Ticks:     cfg.Ticks,
		Seed:      cfg.Seed,
		Tolerance: cfg.Tolerance,
		Params:    params,
	})
	if err := exp.Setup(g, session, metrics.Standard(threshold)); err != nil {
		return err
	}

	prog := newProgress(logger)
	res, err := exp.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		logger.Warn("interrupted, keeping partial layout", "ticks", len(res.History))
	}
	prog.done("layout finished", "ticks", len(res.History), "converged", res.Converged)

	runID := "-"
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		if runID, err = st.Save(source, cfg.Seed, res); err != nil {
			return err
		}
	}

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", len(res.History))
	fmt.Printf("converged: %v\n", res.Converged)
	fmt.Println("\nmetrics:")

	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, res.Metrics[name])
	}
	return w.Flush()
}
