package sim

import (
	"sync"
	"sync/atomic"

	"github.com/san-kum/dynlayout/internal/buffer"
)

// NodePool recycles node buffers for one topology: a fixed node count and
// schema. A host that decodes a fresh buffer for every loop message takes it
// from the pool and puts back the one the simulator let go of.
//
// Buffers come back dirty. Every caller overwrites all values, so Put does
// not clear them.
type NodePool struct {
	pool   sync.Pool
	count  int
	stride int
	allocs atomic.Int64
}

func NewNodePool(count int, sized bool) *NodePool {
	p := &NodePool{count: count, stride: buffer.NodeStride}
	if sized {
		p.stride = buffer.SizedNodeStride
	}
	p.pool.New = func() any {
		p.allocs.Add(1)
		b := make([]float64, p.Len())
		return &b
	}
	return p
}

// Len is the number of values in each buffer.
func (p *NodePool) Len() int { return p.count * p.stride }

// Fits reports whether a buffer of n values belongs to this topology.
func (p *NodePool) Fits(n int) bool { return n == p.Len() }

func (p *NodePool) Get() []float64 {
	return *p.pool.Get().(*[]float64)
}

// Put returns b to the pool. Buffers of another topology are dropped.
func (p *NodePool) Put(b []float64) {
	if !p.Fits(len(b)) || len(b) == 0 {
		return
	}
	p.pool.Put(&b)
}

// Allocs counts the buffers made because none was free to reuse.
func (p *NodePool) Allocs() int64 { return p.allocs.Load() }
