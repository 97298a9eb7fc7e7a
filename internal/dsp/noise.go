package dsp

import (
	"math"
	"math/rand"
)

// Surface-noise constants, tuned against real 33rpm pressings.
const (
	hissScale = 0.5 // hiss sigma = intensity * hissScale

	// Pops arrive as a Poisson process. At full pop intensity a record
	// averages about 26 pops per second; the impulse itself is a
	// band-limited click with an exponential decay tail.
	popRatePerSec  = 26.0
	popAmpScale    = 12.0
	popDecaySec    = 0.003
	popBodyHz      = 1200.0
	crackleProb    = 0.0003
	crackleScale   = 4.0
	humSecondHarm  = 0.4 // level of the 2nd harmonic relative to fundamental
	humThirdHarm   = 0.2
	humDriftDepth  = 0.15 // slow amplitude wobble on the hum
	humDriftRateHz = 0.3
)

// SurfaceNoise adds hiss, pops, crackle and optional mains hum on top
// of the program material. The generator is seeded explicitly so runs
// are reproducible under test.
type SurfaceNoise struct {
	Intensity    float64
	PopIntensity float64

	HumEnabled bool
	HumLevel   float64
	HumHz      float64 // 50 or 60, from mains detection

	Rand *rand.Rand
}

func (sn *SurfaceNoise) Name() string { return "surface noise" }

func (sn *SurfaceNoise) rng() *rand.Rand {
	if sn.Rand == nil {
		sn.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	return sn.Rand
}

// Process adds the noise floor in place. Hiss and crackle are
// uncorrelated per channel; pops and hum land on all channels at once,
// the way a physical scratch or motor does.
func (sn *SurfaceNoise) Process(buf *Buffer) {
	rng := sn.rng()
	n := buf.NumSamples()
	sr := float64(buf.SampleRate)

	for _, ch := range buf.Channels {
		sigma := sn.Intensity * hissScale
		for i := range ch {
			ch[i] += rng.NormFloat64() * sigma
		}
		crackleSigma := sn.Intensity * crackleScale
		for i := range ch {
			if rng.Float64() < crackleProb {
				ch[i] += rng.NormFloat64() * crackleSigma
			}
		}
	}

	sn.addPops(buf, rng)

	if sn.HumEnabled && sn.HumLevel > 0 && sn.HumHz > 0 {
		hum := renderHum(n, sr, sn.HumHz, sn.HumLevel, rng)
		for _, ch := range buf.Channels {
			for i := range ch {
				ch[i] += hum[i]
			}
		}
	}
}

// addPops draws pop arrival times from a Poisson process and stamps a
// decaying band-limited click at each one.
func (sn *SurfaceNoise) addPops(buf *Buffer, rng *rand.Rand) {
	rate := popRatePerSec * sn.PopIntensity
	if rate <= 0 {
		return
	}
	n := buf.NumSamples()
	sr := float64(buf.SampleRate)
	amp := sn.Intensity * popAmpScale * sn.PopIntensity

	// Exponential inter-arrival gaps in samples.
	pos := 0.0
	for {
		pos += rng.ExpFloat64() / rate * sr
		at := int(pos)
		if at >= n {
			return
		}
		sn.stampPop(buf, at, amp, sr, rng)
	}
}

func (sn *SurfaceNoise) stampPop(buf *Buffer, at int, amp, sr float64, rng *rand.Rand) {
	// Random polarity and loudness per pop.
	peak := amp * (0.5 + rng.Float64()*0.5)
	if rng.Intn(2) == 0 {
		peak = -peak
	}

	tail := int(popDecaySec * sr * 5)
	omega := 2 * math.Pi * popBodyHz / sr
	decay := 1.0 / (popDecaySec * sr)
	for _, ch := range buf.Channels {
		for k := 0; k <= tail && at+k < len(ch); k++ {
			env := math.Exp(-float64(k) * decay)
			ch[at+k] += peak * env * math.Cos(omega*float64(k))
		}
	}
}

// renderHum synthesizes mains hum as a fundamental plus 2nd and 3rd
// harmonics with a slow amplitude drift, matching the bleed of a
// synchronous turntable motor.
func renderHum(n int, sr, humHz, level float64, rng *rand.Rand) []float64 {
	phase := rng.Float64() * 2 * math.Pi
	driftPhase := rng.Float64() * 2 * math.Pi

	out := make([]float64, n)
	w := 2 * math.Pi * humHz / sr
	wd := 2 * math.Pi * humDriftRateHz / sr
	for i := range out {
		t := float64(i)
		drift := 1 + humDriftDepth*math.Sin(wd*t+driftPhase)
		s := math.Sin(w*t+phase) +
			humSecondHarm*math.Sin(2*(w*t+phase)) +
			humThirdHarm*math.Sin(3*(w*t+phase))
		out[i] = level * drift * s
	}
	return out
}
