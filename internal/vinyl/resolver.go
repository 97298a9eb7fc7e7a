package vinyl

// Overrides carries optional user-supplied values for the "custom"
// preset. Nil fields keep the default; non-nil fields replace it.
// Overrides are ignored for named presets - only "custom" is
// parametrizable.
type Overrides struct {
	FrequencyResponse   *bool
	SurfaceNoise        *bool
	NoiseIntensity      *float64
	PopIntensity        *float64
	MainsHum            *bool
	HumLevel            *float64
	WowFlutter          *bool
	WowFlutterIntensity *float64
	HarmonicDistortion  *bool
	DistortionAmount    *float64
	StereoReduction     *bool
	StereoWidth         *float64
	Bass                *float64
	Mid                 *float64
	Treble              *float64
	HPFEnabled          *bool
	HPFCutoff           *float64
	LPFEnabled          *bool
	LPFCutoff           *float64
}

// Resolve turns a preset name plus optional overrides into validated
// Settings. Named presets come back verbatim from the catalog. The
// "custom" preset starts from DefaultSettings, applies every non-nil
// override, then validates all numeric fields; on violation the returned
// *ValidationError lists every offending field. An unknown name also
// yields a *ValidationError.
func Resolve(name string, overrides *Overrides) (Settings, error) {
	if name == "" {
		name = DefaultPreset
	}

	if s, ok := Preset(name); ok {
		return s, nil
	}

	if name != PresetCustom {
		return Settings{}, &ValidationError{Preset: name}
	}

	s := DefaultSettings()
	if overrides != nil {
		overrides.apply(&s)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (o *Overrides) apply(s *Settings) {
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setBool(&s.FrequencyResponse, o.FrequencyResponse)
	setBool(&s.SurfaceNoise, o.SurfaceNoise)
	setFloat(&s.NoiseIntensity, o.NoiseIntensity)
	setFloat(&s.PopIntensity, o.PopIntensity)
	setBool(&s.MainsHum, o.MainsHum)
	setFloat(&s.HumLevel, o.HumLevel)
	setBool(&s.WowFlutter, o.WowFlutter)
	setFloat(&s.WowFlutterIntensity, o.WowFlutterIntensity)
	setBool(&s.HarmonicDistortion, o.HarmonicDistortion)
	setFloat(&s.DistortionAmount, o.DistortionAmount)
	setBool(&s.StereoReduction, o.StereoReduction)
	setFloat(&s.StereoWidth, o.StereoWidth)
	setFloat(&s.Bass, o.Bass)
	setFloat(&s.Mid, o.Mid)
	setFloat(&s.Treble, o.Treble)
	setBool(&s.HPFEnabled, o.HPFEnabled)
	setFloat(&s.HPFCutoff, o.HPFCutoff)
	setBool(&s.LPFEnabled, o.LPFEnabled)
	setFloat(&s.LPFCutoff, o.LPFCutoff)
}
