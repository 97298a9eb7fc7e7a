// Package vinyl defines the vinyl effect settings model and preset catalog
package vinyl

import (
	"fmt"
	"strings"
)

// Settings holds the complete configuration for one pipeline run.
// Values are validated on construction via Resolve; a Settings value
// obtained from Resolve is always within the published ranges.
type Settings struct {
	// Frequency response - playback-chain coloration
	// Models the electrical/mechanical response of a turntable and phono
	// stage: high-frequency rolloff, rumble filtering, presence bump,
	// plus the user-facing 3-band EQ and optional HPF/LPF.
	FrequencyResponse bool

	// 3-band EQ gains in dB (-5 to +5)
	// Bass peaks at 100Hz, Mid peaks at 1kHz, Treble shelves at 8kHz
	Bass   float64
	Mid    float64
	Treble float64

	// Independent rumble/hiss filters (2nd-order Butterworth)
	HPFEnabled bool
	HPFCutoff  float64 // Hz, 20-500
	LPFEnabled bool
	LPFCutoff  float64 // Hz, 5000-20000

	// Surface noise - hiss, pops and crackle
	SurfaceNoise   bool
	NoiseIntensity float64 // 0-0.1, broadband hiss level
	PopIntensity   float64 // 0-1, pop rate and loudness multiplier

	// Mains hum - 50/60Hz turntable motor bleed
	// Frequency comes from the locally detected mains supply; see the
	// mains package. Off in every named preset except vintage.
	MainsHum bool
	HumLevel float64 // 0-0.02, hum fundamental amplitude

	// Wow and flutter - pitch instability from platter speed variation
	WowFlutter          bool
	WowFlutterIntensity float64 // 0-0.01, max fractional pitch deviation

	// Harmonic distortion - tanh soft-clip emulating preamp saturation
	HarmonicDistortion bool
	DistortionAmount   float64 // 0-1, wet mix and drive scaling

	// Stereo reduction - groove/cartridge crosstalk narrows the image
	StereoReduction bool
	StereoWidth     float64 // 0-1, side-channel scale (1 = untouched)
}

// numeric range limits, published in the API contract
const (
	MaxNoiseIntensity      = 0.1
	MaxPopIntensity        = 1.0
	MaxWowFlutterIntensity = 0.01
	MaxDistortionAmount    = 1.0
	MaxStereoWidth         = 1.0
	MaxHumLevel            = 0.02
	MinEQGainDB            = -5.0
	MaxEQGainDB            = 5.0
	MinHPFCutoff           = 20.0
	MaxHPFCutoff           = 500.0
	MinLPFCutoff           = 5000.0
	MaxLPFCutoff           = 20000.0
)

// DefaultSettings returns the standard default settings, matching the
// "medium" character: every stage on at moderate strength, EQ flat,
// filters off.
func DefaultSettings() Settings {
	return Settings{
		FrequencyResponse: true,

		Bass:   0.0,
		Mid:    0.0,
		Treble: 0.0,

		HPFEnabled: false,
		HPFCutoff:  30.0,
		LPFEnabled: false,
		LPFCutoff:  15000.0,

		SurfaceNoise:   true,
		NoiseIntensity: 0.02,
		PopIntensity:   0.5,

		MainsHum: false,
		HumLevel: 0.0,

		WowFlutter:          true,
		WowFlutterIntensity: 0.001,

		HarmonicDistortion: true,
		DistortionAmount:   0.15,

		StereoReduction: true,
		StereoWidth:     0.7,
	}
}

// Validate checks every numeric field against its published range and
// returns a *ValidationError listing all violations, not just the first.
func (s Settings) Validate() error {
	var fields []FieldError

	check := func(name string, value, min, max float64) {
		if value < min || value > max {
			fields = append(fields, FieldError{
				Field: name,
				Value: value,
				Min:   min,
				Max:   max,
			})
		}
	}

	check("noise_intensity", s.NoiseIntensity, 0, MaxNoiseIntensity)
	check("pop_intensity", s.PopIntensity, 0, MaxPopIntensity)
	check("wow_flutter_intensity", s.WowFlutterIntensity, 0, MaxWowFlutterIntensity)
	check("distortion_amount", s.DistortionAmount, 0, MaxDistortionAmount)
	check("stereo_width", s.StereoWidth, 0, MaxStereoWidth)
	check("hum_level", s.HumLevel, 0, MaxHumLevel)
	check("bass", s.Bass, MinEQGainDB, MaxEQGainDB)
	check("mid", s.Mid, MinEQGainDB, MaxEQGainDB)
	check("treble", s.Treble, MinEQGainDB, MaxEQGainDB)
	if s.HPFEnabled {
		check("hpf_cutoff", s.HPFCutoff, MinHPFCutoff, MaxHPFCutoff)
	}
	if s.LPFEnabled {
		check("lpf_cutoff", s.LPFCutoff, MinLPFCutoff, MaxLPFCutoff)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// FieldError describes one out-of-range settings field.
type FieldError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s must be between %g and %g, got %g", f.Field, f.Min, f.Max, f.Value)
}

// ValidationError reports every offending settings field at once so a
// caller can fix the whole submission in one round trip.
type ValidationError struct {
	Preset string // set when the preset name itself is unknown
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e.Preset != "" {
		return fmt.Sprintf("unknown preset %q (available: %s)", e.Preset, strings.Join(PresetNames(), ", "))
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return "invalid settings: " + strings.Join(msgs, "; ")
}
