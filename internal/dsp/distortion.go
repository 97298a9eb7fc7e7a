package dsp

import "math"

// HarmonicDistortion is a tanh soft clipper emulating phono preamp
// saturation. Amount sets both the drive (gain 1+2*amount into the
// waveshaper) and the wet mix, so amount 0 is a bit-exact no-op and
// amount 1 is fully saturated.
type HarmonicDistortion struct {
	Amount float64
}

func (hd *HarmonicDistortion) Name() string { return "harmonic distortion" }

func (hd *HarmonicDistortion) Process(buf *Buffer) {
	if hd.Amount <= 0 {
		return
	}
	gain := 1 + hd.Amount*2
	norm := math.Tanh(gain)
	wet := hd.Amount
	dry := 1 - wet

	for _, ch := range buf.Channels {
		for i, s := range ch {
			shaped := math.Tanh(s*gain) / norm
			ch[i] = shaped*wet + s*dry
		}
	}
}
