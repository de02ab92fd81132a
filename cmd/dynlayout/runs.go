package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynlayout/internal/export"
	"github.com/san-kum/dynlayout/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tNODES\tEDGES\tTICKS\tCONVERGED\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%v\t%.2fs\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Nodes,
			run.Edges,
			run.Ticks,
			run.Converged,
			run.Elapsed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	history, err := st.LoadConvergence(runID)
	if err != nil {
		return err
	}
	if len(history) < 2 {
		return fmt.Errorf("run %s has %d ticks, need at least 2 to plot", runID, len(history))
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("ticks: %d\n\n", len(history))

	series := []struct {
		caption string
		value   func(i int) float64
	}{
		{"global speed", func(i int) float64 { return history[i].Speed }},
		{"mean displacement per node", func(i int) float64 { return history[i].Displacement }},
		{"swinging", func(i int) float64 { return history[i].Swinging }},
		{"effective traction", func(i int) float64 { return history[i].Traction }},
	}

	for _, s := range series {
		data := make([]float64, len(history))
		for i := range history {
			data[i] = s.value(i)
		}
		plot := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(plot)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return st.ExportJSON(w, runID, withHistory)
	case "csv":
		g, err := st.LoadGraph(runID)
		if err != nil {
			return err
		}
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"id", "x", "y"}); err != nil {
			return err
		}
		for _, n := range g.Nodes {
			x := strconv.FormatFloat(n.X, 'f', 6, 64)
			y := strconv.FormatFloat(n.Y, 'f', 6, 64)
			if err := cw.Write([]string{n.ID, x, y}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case "svg":
		g, err := st.LoadGraph(runID)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, export.GraphToSVG(g, export.DefaultSVGOptions()))
		return err
	default:
		return fmt.Errorf("unknown format %q (json, csv, svg)", format)
	}
}
