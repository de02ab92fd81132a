package export

import (
	"strings"
	"testing"

	"github.com/san-kum/dynlayout/internal/graph"
)

func TestGraphToSVG(t *testing.T) {
	g := graph.New()
	g.AddEdge("a", "b<1>", 1)
	g.Nodes[0].X, g.Nodes[0].Y = -10, -10
	g.Nodes[1].X, g.Nodes[1].Y = 10, 10

	svg := GraphToSVG(g, DefaultSVGOptions())

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected a complete svg document")
	}
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 circles, got %d", got)
	}
	if got := strings.Count(svg, "<line"); got != 1 {
		t.Errorf("expected 1 line, got %d", got)
	}
	if !strings.Contains(svg, `x1="80.0" y1="720.0" x2="720.0" y2="80.0"`) {
		t.Errorf("edge not fitted to the 10%% margin:\n%s", svg)
	}
	if !strings.Contains(svg, "b&lt;1&gt;") {
		t.Error("expected node id to be escaped")
	}
}

func TestGraphToSVGEmpty(t *testing.T) {
	svg := GraphToSVG(graph.New(), DefaultSVGOptions())
	if strings.Contains(svg, "<circle") {
		t.Error("expected no nodes")
	}
}

func TestGraphToSVGSingleNode(t *testing.T) {
	g := graph.New()
	g.AddNode("solo")
	g.Nodes[0].X, g.Nodes[0].Y = 5, 5

	svg := GraphToSVG(g, SVGOptions{Width: 100, Height: 50, NodeRadius: 2, Background: "#000"})
	if !strings.Contains(svg, `cx="50.0" cy="25.0" r="2.0"`) {
		t.Errorf("expected node centered:\n%s", svg)
	}
}
