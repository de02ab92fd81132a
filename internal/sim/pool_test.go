package sim

import (
	"testing"

	"github.com/san-kum/dynlayout/internal/buffer"
)

func TestNodePoolSizes(t *testing.T) {
	plain := NewNodePool(3, false)
	if plain.Len() != 3*buffer.NodeStride {
		t.Errorf("expected %d values, got %d", 3*buffer.NodeStride, plain.Len())
	}
	sized := NewNodePool(3, true)
	if sized.Len() != 3*buffer.SizedNodeStride {
		t.Errorf("expected %d values, got %d", 3*buffer.SizedNodeStride, sized.Len())
	}
	if plain.Fits(sized.Len()) {
		t.Error("a sized buffer should not fit the plain pool")
	}
}

func TestNodePoolReuse(t *testing.T) {
	pool := NewNodePool(2, false)

	b := pool.Get()
	if len(b) != 16 {
		t.Fatalf("expected 16 values, got %d", len(b))
	}
	if pool.Allocs() != 1 {
		t.Errorf("expected 1 allocation, got %d", pool.Allocs())
	}
	b[0] = 7
	pool.Put(b)
	if b[0] != 7 {
		t.Error("expected Put to leave the values alone")
	}

	pool.Put(make([]float64, 9))
	if got := pool.Get(); len(got) != 16 {
		t.Errorf("expected length 16, got %d", len(got))
	}
}
