// Package transport carries layout messages across a process boundary as
// snappy-compressed binary frames over mangos req/rep sockets.
package transport

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/snappy"

	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/sim"
	"github.com/san-kum/dynlayout/internal/worker"
)

var ErrMalformedFrame = errors.New("transport: malformed frame")

// HeaderIgnored answers messages whose header the context does not know.
const HeaderIgnored worker.Header = "ignored"

const frameVersion = 2

// Frame is one message or reply on the wire.
type Frame struct {
	Header worker.Header
	Config config.ParameterMap
	Nodes  []float64
	Edges  []float64
	Stats  *sim.TickStats
	Err    string
}

type frameMeta struct {
	Config config.ParameterMap `json:"config,omitempty"`
	Err    string              `json:"error,omitempty"`
}

// statsSize is the encoded size of TickStats: tick, six f64 gauges,
// chunks and duration.
const statsSize = 8 + 6*8 + 4 + 8

// Encode lays the frame out as
// version | header | meta JSON | nodes | edges | stats, then compresses it.
// Stats travel as raw f64, so NaN and Inf survive the trip.
func Encode(f Frame) ([]byte, error) {
	meta, err := json.Marshal(frameMeta{Config: f.Config, Err: f.Err})
	if err != nil {
		return nil, fmt.Errorf("encode frame meta: %w", err)
	}

	size := 1 + 2 + len(f.Header) + 4 + len(meta) + 8 + 8*(len(f.Nodes)+len(f.Edges)) + 1 + statsSize
	raw := make([]byte, 0, size)
	raw = append(raw, frameVersion)
	raw = binary.LittleEndian.AppendUint16(raw, uint16(len(f.Header)))
	raw = append(raw, f.Header...)
	raw = binary.LittleEndian.AppendUint32(raw, uint32(len(meta)))
	raw = append(raw, meta...)
	raw = appendFloats(raw, f.Nodes)
	raw = appendFloats(raw, f.Edges)
	raw = appendStats(raw, f.Stats)

	return snappy.Encode(nil, raw), nil
}

func appendStats(dst []byte, st *sim.TickStats) []byte {
	if st == nil {
		return append(dst, 0)
	}
	dst = append(dst, 1)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(st.Tick))
	for _, v := range []float64{st.Speed, st.SpeedEfficiency, st.Swinging, st.Traction, st.JitterTolerance, st.Displacement} {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(st.Chunks))
	return binary.LittleEndian.AppendUint64(dst, uint64(st.Duration))
}

func appendFloats(dst []byte, vs []float64) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(vs)))
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	return dst
}

// Decode reverses Encode. alloc, if not nil, supplies the node buffer.
func Decode(data []byte, alloc func(n int) []float64) (Frame, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	r := &reader{buf: raw}
	if v := r.u8(); v != frameVersion && r.err == nil {
		return Frame{}, fmt.Errorf("%w: version %d", ErrMalformedFrame, v)
	}

	var f Frame
	f.Header = worker.Header(r.bytes(int(r.u16())))

	var meta frameMeta
	if m := r.bytes(int(r.u32())); r.err == nil && len(m) > 0 {
		if err := json.Unmarshal(m, &meta); err != nil {
			return Frame{}, fmt.Errorf("%w: meta: %v", ErrMalformedFrame, err)
		}
	}
	f.Config, f.Err = meta.Config, meta.Err

	f.Nodes = r.floats(alloc)
	f.Edges = r.floats(nil)
	f.Stats = r.stats()

	if r.err != nil {
		return Frame{}, r.err
	}
	if r.off != len(raw) {
		return Frame{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedFrame, len(raw)-r.off)
	}
	return f, nil
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d of %d", ErrMalformedFrame, n, r.off, len(r.buf))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) f64() float64 { return math.Float64frombits(r.u64()) }

func (r *reader) stats() *sim.TickStats {
	switch flag := r.u8(); {
	case r.err != nil, flag == 0:
		return nil
	case flag != 1:
		r.err = fmt.Errorf("%w: stats flag %d", ErrMalformedFrame, flag)
		return nil
	}
	st := &sim.TickStats{Tick: int(int64(r.u64()))}
	for _, dst := range []*float64{&st.Speed, &st.SpeedEfficiency, &st.Swinging, &st.Traction, &st.JitterTolerance, &st.Displacement} {
		*dst = r.f64()
	}
	st.Chunks = int(r.u32())
	st.Duration = time.Duration(r.u64())
	if r.err != nil {
		return nil
	}
	return st
}

func (r *reader) bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *reader) floats(alloc func(n int) []float64) []float64 {
	n := int(r.u32())
	b := r.take(8 * n)
	if b == nil || n == 0 {
		return nil
	}

	var vs []float64
	if alloc != nil {
		vs = alloc(n)
	}
	if len(vs) != n {
		vs = make([]float64, n)
	}
	for i := range vs {
		vs[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return vs
}
