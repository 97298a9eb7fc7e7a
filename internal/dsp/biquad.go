package dsp

import "math"

// biquad is a second-order IIR filter section (RBJ cookbook designs),
// Direct Form I with scalar state. The pipeline runs one instance per
// channel and resets state between passes.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

func (f *biquad) setCoefficients(b0, b1, b2, a0, a1, a2 float64) {
	inv := 1.0 / a0
	f.b0 = b0 * inv
	f.b1 = b1 * inv
	f.b2 = b2 * inv
	f.a1 = a1 * inv
	f.a2 = a2 * inv
}

func (f *biquad) reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// process filters the slice in place, single forward pass.
func (f *biquad) process(buf []float64) {
	x1, x2, y1, y2 := f.x1, f.x2, f.y1, f.y2
	for i, x0 := range buf {
		y0 := f.b0*x0 + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x0
		y2, y1 = y1, y0
		buf[i] = y0
	}
	f.x1, f.x2, f.y1, f.y2 = x1, x2, y1, y2
}

// processZeroPhase applies the filter forward then backward so the net
// response has zero group delay. The magnitude response is applied
// twice; design functions that carry gain take that into account.
func (f *biquad) processZeroPhase(buf []float64) {
	f.reset()
	f.process(buf)
	reverse(buf)
	f.reset()
	f.process(buf)
	reverse(buf)
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}

// butterworthQ is the Q of a single-section 2nd-order Butterworth.
const butterworthQ = 0.7071067811865476

// fourthOrderButterworthQs are the section Qs for a 4th-order
// Butterworth realized as two cascaded biquads.
var fourthOrderButterworthQs = [2]float64{0.5411961001461969, 1.3065629648763766}

func newLowpass(sampleRate, frequency, q float64) *biquad {
	omega := 2.0 * math.Pi * frequency / sampleRate
	sinw, cosw := math.Sin(omega), math.Cos(omega)
	alpha := sinw / (2.0 * q)

	f := &biquad{}
	f.setCoefficients(
		(1.0-cosw)/2.0,
		1.0-cosw,
		(1.0-cosw)/2.0,
		1.0+alpha,
		-2.0*cosw,
		1.0-alpha,
	)
	return f
}

func newHighpass(sampleRate, frequency, q float64) *biquad {
	omega := 2.0 * math.Pi * frequency / sampleRate
	sinw, cosw := math.Sin(omega), math.Cos(omega)
	alpha := sinw / (2.0 * q)

	f := &biquad{}
	f.setCoefficients(
		(1.0+cosw)/2.0,
		-(1.0 + cosw),
		(1.0+cosw)/2.0,
		1.0+alpha,
		-2.0*cosw,
		1.0-alpha,
	)
	return f
}

// newBandpass designs a constant 0 dB peak-gain bandpass (resonator).
func newBandpass(sampleRate, frequency, q float64) *biquad {
	omega := 2.0 * math.Pi * frequency / sampleRate
	sinw, cosw := math.Sin(omega), math.Cos(omega)
	alpha := sinw / (2.0 * q)

	f := &biquad{}
	f.setCoefficients(
		alpha,
		0.0,
		-alpha,
		1.0+alpha,
		-2.0*cosw,
		1.0-alpha,
	)
	return f
}

func newPeakingEQ(sampleRate, frequency, q, gainDB float64) *biquad {
	omega := 2.0 * math.Pi * frequency / sampleRate
	sinw, cosw := math.Sin(omega), math.Cos(omega)
	A := math.Pow(10.0, gainDB/40.0)
	alpha := sinw / (2.0 * q)

	f := &biquad{}
	f.setCoefficients(
		1.0+alpha*A,
		-2.0*cosw,
		1.0-alpha*A,
		1.0+alpha/A,
		-2.0*cosw,
		1.0-alpha/A,
	)
	return f
}

func newHighShelf(sampleRate, frequency, q, gainDB float64) *biquad {
	omega := 2.0 * math.Pi * frequency / sampleRate
	sinw, cosw := math.Sin(omega), math.Cos(omega)
	A := math.Pow(10.0, gainDB/40.0)
	alpha := sinw / (2.0 * q)

	sqrtA := math.Sqrt(A)
	sqrtAAlpha := 2.0 * sqrtA * alpha

	f := &biquad{}
	f.setCoefficients(
		A*((A+1)+(A-1)*cosw+sqrtAAlpha),
		-2.0*A*((A-1)+(A+1)*cosw),
		A*((A+1)+(A-1)*cosw-sqrtAAlpha),
		(A+1)-(A-1)*cosw+sqrtAAlpha,
		2.0*((A-1)-(A+1)*cosw),
		(A+1)-(A-1)*cosw-sqrtAAlpha,
	)
	return f
}
