package dsp

// Playback-chain constants. A turntable and phono stage roll off above
// ~15kHz, filter rumble below 30Hz and add a gentle presence bump near
// 2kHz.
const (
	rolloffHz     = 15000.0
	rumbleHz      = 30.0
	presenceHz    = 2000.0
	presenceQ     = 1.0
	presenceMix   = 0.1
	bassCenterHz  = 100.0
	bassQ         = 0.7
	midCenterHz   = 1000.0
	midQ          = 1.0
	trebleShelfHz = 8000.0
)

// FrequencyResponse shapes the spectrum the way a playback chain does:
// optional user HPF/LPF, the 3-band EQ, then the fixed playback curve.
// All filtering is zero-phase so the stage adds no group delay.
type FrequencyResponse struct {
	Bass   float64
	Mid    float64
	Treble float64

	HPFEnabled bool
	HPFCutoff  float64
	LPFEnabled bool
	LPFCutoff  float64
}

// Name identifies the stage in progress reporting.
func (fr *FrequencyResponse) Name() string { return "frequency response" }

// Process applies the stage in place.
func (fr *FrequencyResponse) Process(buf *Buffer) {
	sr := float64(buf.SampleRate)
	nyquist := sr / 2

	for _, ch := range buf.Channels {
		if fr.HPFEnabled && fr.HPFCutoff < nyquist {
			newHighpass(sr, fr.HPFCutoff, butterworthQ).processZeroPhase(ch)
		}
		if fr.LPFEnabled {
			cutoff := fr.LPFCutoff
			if cutoff >= nyquist {
				cutoff = nyquist * 0.99
			}
			newLowpass(sr, cutoff, butterworthQ).processZeroPhase(ch)
		}

		fr.applyEQ(ch, sr)
		applyPlaybackCurve(ch, sr)
	}
}

// applyEQ runs the 3-band EQ. Gain filters are designed at half the
// requested dB because the zero-phase pass applies the magnitude twice.
func (fr *FrequencyResponse) applyEQ(ch []float64, sr float64) {
	if fr.Bass != 0 {
		newPeakingEQ(sr, bassCenterHz, bassQ, fr.Bass/2).processZeroPhase(ch)
	}
	if fr.Mid != 0 {
		newPeakingEQ(sr, midCenterHz, midQ, fr.Mid/2).processZeroPhase(ch)
	}
	if fr.Treble != 0 {
		newHighShelf(sr, trebleShelfHz, butterworthQ, fr.Treble/2).processZeroPhase(ch)
	}
}

// applyPlaybackCurve is the fixed coloration: 4th-order lowpass at
// 15kHz, 2nd-order highpass at 30Hz, and a 2kHz presence peak mixed in
// at 10%.
func applyPlaybackCurve(ch []float64, sr float64) {
	for _, q := range fourthOrderButterworthQs {
		newLowpass(sr, rolloffHz, q).processZeroPhase(ch)
	}
	newHighpass(sr, rumbleHz, butterworthQ).processZeroPhase(ch)

	peaked := make([]float64, len(ch))
	copy(peaked, ch)
	newBandpass(sr, presenceHz, presenceQ).processZeroPhase(peaked)

	for i := range ch {
		ch[i] = ch[i]*(1-presenceMix) + peaked[i]*presenceMix
	}
}
