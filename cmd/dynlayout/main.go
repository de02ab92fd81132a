package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/graph"
)

var (
	dataDir string
	verbose bool

	configFile string
	preset     string
	generate   string
	ticks      int
	seed       int64
	tolerance  float64

	barnesHut     bool
	theta         float64
	gravity       float64
	scaling       float64
	linlog        bool
	strongGravity bool
	chunk         int

	connect string
	noSave  bool

	format      string
	output      string
	withHistory bool

	benchSizes []int
	benchRuns  int
	benchTicks int

	listen      string
	metricsAddr string

	gridSpecs []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dynlayout",
		Short:         "force-directed graph layout engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dynlayout", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [graph]",
		Short: "lay out a graph file or a generated graph",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLayout,
	}
	addLayoutFlags(runCmd)
	runCmd.Flags().StringVar(&connect, "connect", "", "run on a dynlayout server, e.g. tcp://127.0.0.1:40899")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot convergence of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export final positions as json, csv or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "json, csv or svg")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().BoolVar(&withHistory, "history", false, "include convergence history (json)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list parameter presets and graph generators",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time brute-force and Barnes-Hut ticks across graph sizes",
		RunE:  benchLayout,
	}
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{100, 1000, 5000}, "node counts")
	benchCmd.Flags().IntVar(&benchRuns, "runs", 4, "concurrent layouts per size")
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 20, "ticks per layout")
	benchCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")

	liveCmd := &cobra.Command{
		Use:   "live [graph]",
		Short: "watch a layout converge in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addLayoutFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "host a layout context behind a socket",
		RunE:  serveLayout,
	}
	serveCmd.Flags().StringVar(&listen, "listen", "tcp://127.0.0.1:40899", "socket address")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address, e.g. :9090")

	tuneCmd := &cobra.Command{
		Use:   "tune [graph]",
		Short: "grid search layout parameters for the fastest settle",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneLayout,
	}
	addLayoutFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridSpecs, "grid", nil, "parameter values to try, e.g. gravity=0.5,1,2 (repeatable)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, presetsCmd, benchCmd, liveCmd, serveCmd, tuneCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "run file (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "parameter preset")
	cmd.Flags().StringVar(&generate, "generate", "", "generate a graph, e.g. ring:100")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "maximum ticks")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed for initial positions")
	cmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "stop once mean displacement per node drops below this")

	cmd.Flags().BoolVar(&barnesHut, "barnes-hut", false, "approximate repulsion with a quadtree")
	cmd.Flags().Float64Var(&theta, "theta", 1.2, "Barnes-Hut accuracy")
	cmd.Flags().Float64Var(&gravity, "gravity", 1, "pull toward the origin")
	cmd.Flags().Float64Var(&scaling, "scaling", 1, "repulsion scaling ratio")
	cmd.Flags().BoolVar(&linlog, "linlog", false, "logarithmic attraction")
	cmd.Flags().BoolVar(&strongGravity, "strong-gravity", false, "distance-independent gravity")
	cmd.Flags().IntVar(&chunk, "chunk", 0, "nodes or edges per chunk (0 keeps the defaults)")
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPARAMETERS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		pairs := make([]string, 0, len(p))
		for _, k := range p.Keys() {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, p[k]))
		}
		if len(pairs) == 0 {
			pairs = append(pairs, "(auto settings)")
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(pairs, " "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ngenerators: %s\n", strings.Join(graph.Generators(), ", "))
	return nil
}
