package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynlayout/internal/experiment"
	"github.com/san-kum/dynlayout/internal/viz"
	"github.com/san-kum/dynlayout/internal/worker"
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, params, err := resolveRun(cmd.Flags(), args)
	if err != nil {
		return err
	}
	g, source, err := loadGraph(cfg)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal; keep the worker quiet.
	session := experiment.NewLocal(worker.WithLogger(log.New(io.Discard)))
	defer session.Close()

	ticks := cfg.Ticks
	if !cmd.Flags().Changed("ticks") && configFile == "" {
		ticks = 0
	}

	m, err := viz.NewModel(cmd.Context(), session, g, viz.Options{
		Title:     source,
		Ticks:     ticks,
		Seed:      cfg.Seed,
		Tolerance: cfg.Tolerance,
		Params:    params,
	})
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fmt.Errorf("layout stopped: %w", fm.Err())
	}
	return nil
}
