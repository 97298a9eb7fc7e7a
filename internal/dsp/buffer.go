// Package dsp implements the vinyl signal-processing pipeline
package dsp

// Buffer holds decoded PCM audio as per-channel float64 sample slices.
// Samples are nominally in [-1, 1]. Every stage except the wow/flutter
// resampler preserves the sample count exactly; the resampler preserves
// it too, by construction.
type Buffer struct {
	Channels   [][]float64
	SampleRate int
}

// NewBuffer allocates a silent buffer with the given shape.
func NewBuffer(channels, samples, sampleRate int) *Buffer {
	chs := make([][]float64, channels)
	for i := range chs {
		chs[i] = make([]float64, samples)
	}
	return &Buffer{Channels: chs, SampleRate: sampleRate}
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// NumSamples returns the per-channel sample count.
func (b *Buffer) NumSamples() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.NumSamples()) / float64(b.SampleRate)
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Channels:   make([][]float64, len(b.Channels)),
		SampleRate: b.SampleRate,
	}
	for i, ch := range b.Channels {
		out.Channels[i] = make([]float64, len(ch))
		copy(out.Channels[i], ch)
	}
	return out
}

// Peak returns the largest absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.Channels {
		for _, s := range ch {
			if s > peak {
				peak = s
			} else if -s > peak {
				peak = -s
			}
		}
	}
	return peak
}
