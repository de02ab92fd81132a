package config

import "sort"

var Presets = map[string]ParameterMap{
	"default": {},
	"linlog": {
		KeyLinLogMode:                     true,
		KeyOutboundAttractionDistribution: true,
		KeyEdgeWeightInfluence:            1,
	},
	"large": {
		KeyBarnesHutOptimize: true,
		KeyBarnesHutTheta:    1.2,
		KeyScalingRatio:      2,
	},
	"compact": {
		KeyStrongGravityMode: true,
		KeyGravity:           0.5,
	},
	"sized": {
		KeyAdjustSizes: true,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) ParameterMap {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return ParameterMap{}.Merge(p)
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
