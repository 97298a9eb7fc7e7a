package dsp

// StereoWidth narrows the stereo image with mid/side processing: the
// side signal is scaled by Width (1 leaves the image untouched, 0
// collapses to mono). Mono and multichannel buffers pass through; the
// groove crosstalk being modeled is a two-channel phenomenon.
type StereoWidth struct {
	Width float64
}

func (sw *StereoWidth) Name() string { return "stereo width" }

func (sw *StereoWidth) Process(buf *Buffer) {
	if buf.NumChannels() != 2 {
		return
	}
	left, right := buf.Channels[0], buf.Channels[1]
	for i := range left {
		mid := (left[i] + right[i]) / 2
		side := (left[i] - right[i]) / 2 * sw.Width
		left[i] = mid + side
		right[i] = mid - side
	}
}
