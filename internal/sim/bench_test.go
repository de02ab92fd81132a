package sim

import (
	"fmt"
	"testing"
)

func benchmarkTick(b *testing.B, n int, barnesHut bool) {
	nodes, edges := randomGraph(b, n, 2*n, 1)
	p := DefaultParams()
	p.BarnesHutOptimize = barnesHut
	s, err := New(nodes, edges, p)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Tick(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTick(b *testing.B) {
	for _, n := range []int{100, 1000} {
		b.Run(fmt.Sprintf("brute/%d", n), func(b *testing.B) { benchmarkTick(b, n, false) })
		b.Run(fmt.Sprintf("barneshut/%d", n), func(b *testing.B) { benchmarkTick(b, n, true) })
	}
}
