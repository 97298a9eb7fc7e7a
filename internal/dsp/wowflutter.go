package dsp

import (
	"math"
	"math/rand"
)

// Wow and flutter rates. Wow is the once-per-revolution speed error of
// the platter, flutter the faster motor/belt vibration. Both center
// frequencies get a small random offset per run so repeated renders of
// the same file don't phase-align.
const (
	wowCenterHz    = 0.5
	wowJitterHz    = 0.1
	flutterHz      = 6.0
	flutterJitter  = 1.0
	flutterRelAmpl = 0.5 // flutter depth relative to wow depth
)

// WowFlutter emulates platter speed instability by resampling the
// signal along a modulated read position. Intensity is the maximum
// fractional pitch deviation: 0.001 means the pitch wanders within
// roughly ±0.1%. Output length always equals input length.
type WowFlutter struct {
	Intensity float64

	Rand *rand.Rand
}

func (wf *WowFlutter) Name() string { return "wow and flutter" }

func (wf *WowFlutter) Process(buf *Buffer) {
	if wf.Intensity <= 0 {
		return
	}
	rng := wf.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	n := buf.NumSamples()
	sr := float64(buf.SampleRate)

	wowFreq := wowCenterHz + (rng.Float64()*2-1)*wowJitterHz
	flutterFreq := flutterHz + (rng.Float64()*2-1)*flutterJitter
	wowPhase := rng.Float64() * 2 * math.Pi
	flutterPhase := rng.Float64() * 2 * math.Pi

	// Integrate the instantaneous speed deviation into a read-position
	// offset, in samples. Analytic integral of the two sinusoids keeps
	// the offset exactly zero-mean over whole modulation cycles.
	wowDepth := wf.Intensity * sr / (2 * math.Pi * wowFreq)
	flutterDepth := wf.Intensity * flutterRelAmpl * sr / (2 * math.Pi * flutterFreq)
	wWow := 2 * math.Pi * wowFreq / sr
	wFlut := 2 * math.Pi * flutterFreq / sr

	positions := make([]float64, n)
	for i := range positions {
		t := float64(i)
		offset := -wowDepth*(math.Cos(wWow*t+wowPhase)-math.Cos(wowPhase)) -
			flutterDepth*(math.Cos(wFlut*t+flutterPhase)-math.Cos(flutterPhase))
		positions[i] = t + offset
	}

	for ci, ch := range buf.Channels {
		buf.Channels[ci] = resampleAt(ch, positions)
	}
}

// resampleAt reads src at fractional positions using Catmull-Rom cubic
// interpolation, clamping reads at the edges.
func resampleAt(src []float64, positions []float64) []float64 {
	out := make([]float64, len(positions))
	n := len(src)
	at := func(i int) float64 {
		if i < 0 {
			i = 0
		} else if i >= n {
			i = n - 1
		}
		return src[i]
	}

	for i, pos := range positions {
		idx := int(math.Floor(pos))
		frac := pos - float64(idx)

		y0 := at(idx - 1)
		y1 := at(idx)
		y2 := at(idx + 1)
		y3 := at(idx + 2)

		a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
		a1 := y0 - 2.5*y1 + 2.0*y2 - 0.5*y3
		a2 := -0.5*y0 + 0.5*y2

		out[i] = ((a0*frac+a1)*frac+a2)*frac + y1
	}
	return out
}
