package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dynlayout/internal/buffer"
	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/experiment"
	"github.com/san-kum/dynlayout/internal/graph"
	"github.com/san-kum/dynlayout/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	frameInterval   = time.Second / 30
)

type TickMsg time.Time

type Options struct {
	Title     string
	Ticks     int
	Seed      int64
	Tolerance float64
	Params    config.ParameterMap
}

// tunable is a numeric parameter the arrow keys can scale.
type tunable struct {
	key string
	get func(p sim.Params) float64
}

var tunables = []tunable{
	{config.KeyScalingRatio, func(p sim.Params) float64 { return p.ScalingRatio }},
	{config.KeyGravity, func(p sim.Params) float64 { return p.Gravity }},
	{config.KeyEdgeWeightInfluence, func(p sim.Params) float64 { return p.EdgeWeightInfluence }},
	{config.KeyJitterTolerance, func(p sim.Params) float64 { return p.JitterTolerance }},
	{config.KeyBarnesHutTheta, func(p sim.Params) float64 { return p.BarnesHutTheta }},
}

// Model drives a layout session from the Bubble Tea loop, one tick per
// frame.
type Model struct {
	ctx     context.Context
	session experiment.Session
	opts    Options

	graph   *graph.Graph
	nodes   buffer.Nodes
	edges   buffer.Edges
	initial []float64
	sized   bool

	params    config.ParameterMap
	effective sim.Params

	canvas    *Canvas
	started   bool
	running   bool
	converged bool
	err       error

	tick      int
	last      sim.TickStats
	speedHist []float64
	dispHist  []float64

	selected int
	showHelp bool
}

func NewModel(ctx context.Context, session experiment.Session, g *graph.Graph, opts Options) (Model, error) {
	params := config.ParameterMap{}.Merge(opts.Params)
	effective, err := config.Resolve(params, len(g.Nodes))
	if err != nil {
		return Model{}, err
	}

	sized := params.RequiresSizes()
	nodes, edges := g.Buffers(sized, opts.Seed)
	initial := make([]float64, len(nodes.Data))
	copy(initial, nodes.Data)

	if opts.Title == "" {
		opts.Title = fmt.Sprintf("%d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}

	return Model{
		ctx:       ctx,
		session:   session,
		opts:      opts,
		graph:     g,
		nodes:     nodes,
		edges:     edges,
		initial:   initial,
		sized:     sized,
		params:    params,
		effective: effective,
		canvas:    NewCanvas(width, height),
		running:   true,
		speedHist: make([]float64, 0, historyCapacity),
		dispHist:  make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "up", "k":
			m.adjust(1.1)
		case "down", "j":
			m.adjust(1 / 1.1)
		case "b":
			m.toggle(config.KeyBarnesHutOptimize, m.effective.BarnesHutOptimize)
		case "l":
			m.toggle(config.KeyLinLogMode, m.effective.LinLogMode)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// step sends one start or loop message and takes the buffer back.
func (m *Model) step() {
	var (
		reply sim.TickStats
		data  []float64
	)
	if !m.started {
		r, err := m.session.Start(m.ctx, m.nodes.Data, m.edges.Data, m.params)
		if err != nil {
			m.fail(err)
			return
		}
		m.started = true
		reply, data = r.Stats, r.Nodes
	} else {
		r, err := m.session.Loop(m.ctx, m.nodes.Data)
		if err != nil {
			m.fail(err)
			return
		}
		reply, data = r.Stats, r.Nodes
	}

	nodes, err := buffer.WrapNodes(data, m.sized)
	if err != nil {
		m.fail(err)
		return
	}
	m.nodes = nodes
	m.tick++
	m.last = reply
	m.speedHist = appendCapped(m.speedHist, reply.Speed)
	m.dispHist = appendCapped(m.dispHist, reply.Displacement)

	if m.opts.Tolerance > 0 && reply.Displacement < m.opts.Tolerance {
		m.converged = true
		m.running = false
	}
	if m.opts.Ticks > 0 && m.tick >= m.opts.Ticks {
		m.running = false
	}
}

func (m *Model) fail(err error) {
	m.err = err
	m.running = false
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// reset puts the initial positions back and restarts the layout.
func (m *Model) reset() {
	data := make([]float64, len(m.initial))
	copy(data, m.initial)
	m.nodes.Data = data
	m.restart()
	m.tick = 0
	m.speedHist = m.speedHist[:0]
	m.dispHist = m.dispHist[:0]
}

// restart makes the next frame send a start message with the current
// positions, so parameter changes take effect without losing the layout.
func (m *Model) restart() {
	m.started = false
	m.converged = false
	m.err = nil
	m.running = true
}

func (m *Model) adjust(factor float64) {
	t := tunables[m.selected]
	m.set(t.key, t.get(m.effective)*factor)
}

func (m *Model) toggle(key string, current bool) {
	m.set(key, !current)
}

func (m *Model) set(key string, v any) {
	next := m.params.Merge(config.ParameterMap{key: v})
	effective, err := config.Resolve(next, len(m.graph.Nodes))
	if err != nil {
		m.err = err
		return
	}
	m.params, m.effective = next, effective
	m.restart()
}

// Positions returns the latest node buffer.
func (m Model) Positions() buffer.Nodes { return m.nodes }

func (m Model) Err() error { return m.err }

func (m Model) View() string {
	m.canvas.DrawLayout(m.nodes, m.edges)
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("DYNLAYOUT · "+m.opts.Title) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("ERROR") + "\n" + errorStyle.Render(m.err.Error()) + "\n\n")
	case m.converged:
		s.WriteString(statusConverged.Render("CONVERGED") + "\n\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	if m.opts.Ticks > 0 {
		s.WriteString(ProgressBar(float64(m.tick)/float64(m.opts.Ticks), 30) + "\n\n")
	}
	if len(m.speedHist) > 1 {
		chart := asciigraph.Plot(tail(m.speedHist, 60), asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("Speed"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(labelStyle.Render("Displacement") + Sparkline(m.dispHist, 28) + "\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", m.tick))
	row("Speed", fmt.Sprintf("%.4g", m.last.Speed))
	row("Efficiency", fmt.Sprintf("%.4g", m.last.SpeedEfficiency))
	row("Swinging", fmt.Sprintf("%.4g", m.last.Swinging))
	row("Traction", fmt.Sprintf("%.4g", m.last.Traction))
	row("Displacement", fmt.Sprintf("%.4g", m.last.Displacement))
	row("Barnes-Hut", onOff(m.effective.BarnesHutOptimize))
	row("LinLog", onOff(m.effective.LinLogMode))

	s.WriteString("\nPARAMETERS\n")
	for i, t := range tunables {
		line := fmt.Sprintf("%-20s %.3g", t.key, t.get(m.effective))
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Width(0).Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit\nTab/↑↓:Tune B:Barnes-Hut L:LinLog ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart from seed        ║
║  Q        - Quit                     ║
║  Tab      - Select parameter         ║
║  Up/K     - Increase (+10%)          ║
║  Down/J   - Decrease (-10%)          ║
║  B        - Toggle Barnes-Hut        ║
║  L        - Toggle LinLog            ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

func tail(v []float64, n int) []float64 {
	if len(v) > n {
		return v[len(v)-n:]
	}
	return v
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
