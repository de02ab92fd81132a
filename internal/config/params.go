package config

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/dynlayout/internal/sim"
)

var ErrInvalidParameter = errors.New("config: invalid parameter")

// ParameterMap is the wire form of layout settings, keyed by camelCase names.
type ParameterMap map[string]any

const (
	KeyLinLogMode                     = "linLogMode"
	KeyOutboundAttractionDistribution = "outboundAttractionDistribution"
	KeyAdjustSizes                    = "adjustSizes"
	KeyEdgeWeightInfluence            = "edgeWeightInfluence"
	KeyScalingRatio                   = "scalingRatio"
	KeyStrongGravityMode              = "strongGravityMode"
	KeyGravity                        = "gravity"
	KeyJitterTolerance                = "jitterTolerance"
	KeyBarnesHutOptimize              = "barnesHutOptimize"
	KeyBarnesHutTheta                 = "barnesHutTheta"
	KeySpeed                          = "speed"
	KeySpeedEfficiency                = "speedEfficiency"
	KeyAutoSettings                   = "autoSettings"
	KeyComplexIntervals               = "complexIntervals"
	KeySimpleIntervals                = "simpleIntervals"
	KeyDepthLimit                     = "depthLimit"
)

// AutoSettings tunes parameters for a graph of n nodes.
func AutoSettings(p *sim.Params, n int) {
	if n >= 100 {
		p.ScalingRatio = 2
	} else {
		p.ScalingRatio = 10
	}
	p.StrongGravityMode = false
	p.Gravity = 1
	p.OutboundAttractionDistribution = false
	p.LinLogMode = false
	p.AdjustSizes = false
	p.EdgeWeightInfluence = 1
	p.BarnesHutOptimize = n >= 1000
	p.JitterTolerance = 1
	p.BarnesHutTheta = 1.2
}

// Resolve layers defaults, the auto-tuning preset (unless autoSettings is
// false) and the explicit keys of m, in that order. Unknown keys are ignored.
func Resolve(m ParameterMap, nodeCount int) (sim.Params, error) {
	p := sim.DefaultParams()

	auto := true
	if err := m.boolean(KeyAutoSettings, &auto); err != nil {
		return p, err
	}
	if auto {
		AutoSettings(&p, nodeCount)
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{KeyLinLogMode, &p.LinLogMode},
		{KeyOutboundAttractionDistribution, &p.OutboundAttractionDistribution},
		{KeyAdjustSizes, &p.AdjustSizes},
		{KeyStrongGravityMode, &p.StrongGravityMode},
		{KeyBarnesHutOptimize, &p.BarnesHutOptimize},
	}
	for _, b := range bools {
		if err := m.boolean(b.key, b.dst); err != nil {
			return p, err
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{KeyEdgeWeightInfluence, &p.EdgeWeightInfluence},
		{KeyScalingRatio, &p.ScalingRatio},
		{KeyGravity, &p.Gravity},
		{KeyJitterTolerance, &p.JitterTolerance},
		{KeyBarnesHutTheta, &p.BarnesHutTheta},
		{KeySpeed, &p.Speed},
		{KeySpeedEfficiency, &p.SpeedEfficiency},
	}
	for _, f := range floats {
		if err := m.number(f.key, f.dst); err != nil {
			return p, err
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{KeyComplexIntervals, &p.ComplexIntervals},
		{KeySimpleIntervals, &p.SimpleIntervals},
		{KeyDepthLimit, &p.DepthLimit},
	}
	for _, i := range ints {
		if err := m.integer(i.key, i.dst); err != nil {
			return p, err
		}
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return p, nil
}

// FromParams renders p as an explicit map with auto settings disabled, so
// resolving it again yields p.
func FromParams(p sim.Params) ParameterMap {
	return ParameterMap{
		KeyAutoSettings:                   false,
		KeyLinLogMode:                     p.LinLogMode,
		KeyOutboundAttractionDistribution: p.OutboundAttractionDistribution,
		KeyAdjustSizes:                    p.AdjustSizes,
		KeyEdgeWeightInfluence:            p.EdgeWeightInfluence,
		KeyScalingRatio:                   p.ScalingRatio,
		KeyStrongGravityMode:              p.StrongGravityMode,
		KeyGravity:                        p.Gravity,
		KeyJitterTolerance:                p.JitterTolerance,
		KeyBarnesHutOptimize:              p.BarnesHutOptimize,
		KeyBarnesHutTheta:                 p.BarnesHutTheta,
		KeySpeed:                          p.Speed,
		KeySpeedEfficiency:                p.SpeedEfficiency,
		KeyComplexIntervals:               p.ComplexIntervals,
		KeySimpleIntervals:                p.SimpleIntervals,
		KeyDepthLimit:                     p.DepthLimit,
	}
}

// Merge returns a copy of m overlaid with the entries of other.
func (m ParameterMap) Merge(other ParameterMap) ParameterMap {
	out := make(ParameterMap, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (m ParameterMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RequiresSizes reports whether the map enables anti-collision sizing.
func (m ParameterMap) RequiresSizes() bool {
	v, ok := m[KeyAdjustSizes].(bool)
	return ok && v
}

func (m ParameterMap) boolean(key string, dst *bool) error {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidParameter, key, v)
	}
	*dst = b
	return nil
}

func (m ParameterMap) number(key string, dst *float64) error {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidParameter, key, v)
	}
	*dst = f
	return nil
}

func (m ParameterMap) integer(key string, dst *int) error {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParameter, key, v)
	}
	*dst = int(f)
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
