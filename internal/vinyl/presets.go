package vinyl

import "sort"

// Preset names accepted by Resolve. "custom" is the only parametrizable
// preset; the rest are returned verbatim from the catalog.
const (
	PresetRecommended = "AJW Recommended"
	PresetLight       = "light"
	PresetMedium      = "medium"
	PresetHeavy       = "heavy"
	PresetVintage     = "vintage"
	PresetCustom      = "custom"
)

// DefaultPreset is used when the caller supplies no preset name.
const DefaultPreset = PresetMedium

// presets maps preset names to their fixed settings. Loaded once at
// process start; treated as read-only thereafter.
var presets = map[string]Settings{
	PresetRecommended: {
		FrequencyResponse:   true,
		SurfaceNoise:        true,
		NoiseIntensity:      0.02,
		PopIntensity:        0.5,
		WowFlutter:          true,
		WowFlutterIntensity: 0.001,
		HarmonicDistortion:  true,
		DistortionAmount:    0.15,
		StereoReduction:     true,
		StereoWidth:         0.7,
		HPFCutoff:           30.0,
		LPFCutoff:           15000.0,
	},
	PresetLight: {
		FrequencyResponse:   true,
		SurfaceNoise:        true,
		NoiseIntensity:      0.01,
		PopIntensity:        0.3,
		WowFlutter:          true,
		WowFlutterIntensity: 0.0005,
		HarmonicDistortion:  true,
		DistortionAmount:    0.1,
		StereoReduction:     true,
		StereoWidth:         0.85,
		Treble:              1.0,
		HPFCutoff:           30.0,
		LPFCutoff:           16000.0,
	},
	PresetMedium: {
		FrequencyResponse:   true,
		SurfaceNoise:        true,
		NoiseIntensity:      0.02,
		PopIntensity:        0.5,
		WowFlutter:          true,
		WowFlutterIntensity: 0.001,
		HarmonicDistortion:  true,
		DistortionAmount:    0.15,
		StereoReduction:     true,
		StereoWidth:         0.75,
		HPFCutoff:           30.0,
		LPFCutoff:           15000.0,
	},
	PresetHeavy: {
		FrequencyResponse:   true,
		SurfaceNoise:        true,
		NoiseIntensity:      0.04,
		PopIntensity:        0.7,
		WowFlutter:          true,
		WowFlutterIntensity: 0.002,
		HarmonicDistortion:  true,
		DistortionAmount:    0.2,
		StereoReduction:     true,
		StereoWidth:         0.65,
		Bass:                2.0,
		Treble:              -1.0,
		HPFCutoff:           30.0,
		LPFCutoff:           14000.0,
	},
	PresetVintage: {
		FrequencyResponse:   true,
		SurfaceNoise:        true,
		NoiseIntensity:      0.05,
		PopIntensity:        0.9,
		WowFlutter:          true,
		WowFlutterIntensity: 0.003,
		HarmonicDistortion:  true,
		DistortionAmount:    0.25,
		StereoReduction:     true,
		StereoWidth:         0.5,
		Bass:                3.0,
		Treble:              -2.0,
		HPFEnabled:          true,
		HPFCutoff:           40.0,
		LPFEnabled:          true,
		LPFCutoff:           12000.0,
		MainsHum:            true,
		HumLevel:            0.004,
	},
}

// PresetNames returns all accepted preset names in sorted order,
// including "custom".
func PresetNames() []string {
	names := make([]string, 0, len(presets)+1)
	for name := range presets {
		names = append(names, name)
	}
	names = append(names, PresetCustom)
	sort.Strings(names)
	return names
}

// Preset returns the catalog entry for a named preset. The bool reports
// whether the name exists ("custom" is not a catalog entry).
func Preset(name string) (Settings, bool) {
	s, ok := presets[name]
	return s, ok
}
