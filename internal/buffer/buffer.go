package buffer

import "fmt"

// Nodes is a view over a node buffer. The underlying slice is shared, not copied.
type Nodes struct {
	Data   []float64
	schema *Schema
}

func WrapNodes(data []float64, sized bool) (Nodes, error) {
	schema := NodeSchema
	if sized {
		schema = SizedNodeSchema
	}
	if len(data)%schema.Stride() != 0 {
		return Nodes{}, fmt.Errorf("%w: node buffer of length %d, stride %d", ErrLength, len(data), schema.Stride())
	}
	return Nodes{Data: data, schema: schema}, nil
}

// NewNodes allocates a zeroed buffer for n nodes.
func NewNodes(n int, sized bool) Nodes {
	schema := NodeSchema
	if sized {
		schema = SizedNodeSchema
	}
	return Nodes{Data: make([]float64, n*schema.Stride()), schema: schema}
}

func (n Nodes) Schema() *Schema {
	if n.schema == nil {
		return NodeSchema
	}
	return n.schema
}

func (n Nodes) Stride() int { return n.Schema().Stride() }

func (n Nodes) Sized() bool { return n.Stride() == SizedNodeStride }

func (n Nodes) Len() int { return len(n.Data) / n.Stride() }

// At returns the record start of the i-th node.
func (n Nodes) At(i int) int { return i * n.Stride() }

func (n Nodes) Get(slot int, field string) (float64, error) {
	idx, err := n.Schema().Index(slot, field)
	if err != nil {
		return 0, err
	}
	if idx >= len(n.Data) {
		return 0, IndexRangeError{Schema: n.Schema().Name(), Index: float64(slot), Len: len(n.Data)}
	}
	return n.Data[idx], nil
}

func (n Nodes) Set(slot int, field string, v float64) error {
	idx, err := n.Schema().Index(slot, field)
	if err != nil {
		return err
	}
	if idx >= len(n.Data) {
		return IndexRangeError{Schema: n.Schema().Name(), Index: float64(slot), Len: len(n.Data)}
	}
	n.Data[idx] = v
	return nil
}

func (n Nodes) IsFixed(slot int) bool { return n.Data[slot+Fixed] != 0 }

func (n Nodes) Clone() Nodes {
	data := make([]float64, len(n.Data))
	copy(data, n.Data)
	return Nodes{Data: data, schema: n.schema}
}

// Edges is a view over an edge buffer.
type Edges struct {
	Data []float64
}

func WrapEdges(data []float64) (Edges, error) {
	if len(data)%EdgeStride != 0 {
		return Edges{}, fmt.Errorf("%w: edge buffer of length %d, stride %d", ErrLength, len(data), EdgeStride)
	}
	return Edges{Data: data}, nil
}

func (e Edges) Len() int { return len(e.Data) / EdgeStride }

// Endpoints resolves the edge starting at slot into validated node slots.
func (e Edges) Endpoints(slot int, nodes Nodes) (src, tgt int, weight float64, err error) {
	if _, err = EdgeSchema.Slot(float64(slot), len(e.Data)); err != nil {
		return 0, 0, 0, err
	}
	schema := nodes.Schema()
	if src, err = schema.Slot(e.Data[slot+Source], len(nodes.Data)); err != nil {
		return 0, 0, 0, err
	}
	if tgt, err = schema.Slot(e.Data[slot+Target], len(nodes.Data)); err != nil {
		return 0, 0, 0, err
	}
	return src, tgt, e.Data[slot+Weight], nil
}
