package codec

import (
	"errors"
	"fmt"
	"unsafe"

	ffmpeg "github.com/csnewman/ffmpeg-go"

	"github.com/vinylfy/vinylfy/internal/dsp"
)

// Reader wraps ffmpeg-go demuxer and decoder for audio file reading
type Reader struct {
	fmtCtx    *ffmpeg.AVFormatContext
	decCtx    *ffmpeg.AVCodecContext
	streamIdx int
	frame     *ffmpeg.AVFrame
	packet    *ffmpeg.AVPacket
}

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	SampleFmt  string
	ChLayout   string
	BitDepth   int
}

// OpenAudioFile opens an audio file for reading
func OpenAudioFile(filename string) (*Reader, *Metadata, error) {
	// Format context will be allocated by AVFormatOpenInput
	var fmtCtx *ffmpeg.AVFormatContext

	filenameC := ffmpeg.ToCStr(filename)
	defer filenameC.Free()

	if _, err := ffmpeg.AVFormatOpenInput(&fmtCtx, filenameC, nil, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}

	if _, err := ffmpeg.AVFormatFindStreamInfo(fmtCtx, nil); err != nil {
		ffmpeg.AVFormatCloseInput(&fmtCtx)
		return nil, nil, fmt.Errorf("failed to find stream info: %w", err)
	}

	// Find audio stream
	streamIdx := -1
	var audioStream *ffmpeg.AVStream
	streams := fmtCtx.Streams()
	for i := 0; i < int(fmtCtx.NbStreams()); i++ {
		stream := streams.Get(uintptr(i))
		if stream.Codecpar().CodecType() == ffmpeg.AVMediaTypeAudio {
			streamIdx = i
			audioStream = stream
			break
		}
	}

	if streamIdx == -1 {
		ffmpeg.AVFormatCloseInput(&fmtCtx)
		return nil, nil, fmt.Errorf("no audio stream found in file: %s", filename)
	}

	// Find decoder
	codecPar := audioStream.Codecpar()
	decoder := ffmpeg.AVCodecFindDecoder(codecPar.CodecId())
	if decoder == nil {
		ffmpeg.AVFormatCloseInput(&fmtCtx)
		return nil, nil, fmt.Errorf("decoder not found for codec ID %d in file: %s", codecPar.CodecId(), filename)
	}

	decCtx := ffmpeg.AVCodecAllocContext3(decoder)
	if decCtx == nil {
		ffmpeg.AVFormatCloseInput(&fmtCtx)
		return nil, nil, fmt.Errorf("failed to allocate decoder context for file: %s", filename)
	}

	if _, err := ffmpeg.AVCodecParametersToContext(decCtx, codecPar); err != nil {
		ffmpeg.AVCodecFreeContext(&decCtx)
		ffmpeg.AVFormatCloseInput(&fmtCtx)
		return nil, nil, fmt.Errorf("failed to copy codec parameters: %w", err)
	}

	if _, err := ffmpeg.AVCodecOpen2(decCtx, decoder, nil); err != nil {
		ffmpeg.AVCodecFreeContext(&decCtx)
		ffmpeg.AVFormatCloseInput(&fmtCtx)
		return nil, nil, fmt.Errorf("failed to open decoder: %w", err)
	}

	duration := float64(fmtCtx.Duration()) / float64(ffmpeg.AVTimeBase)

	// Get channel layout description
	layoutPtr := ffmpeg.AllocCStr(64)
	defer layoutPtr.Free()

	if _, err := ffmpeg.AVChannelLayoutDescribe(decCtx.ChLayout(), layoutPtr, 64); err != nil {
		ffmpeg.AVCodecFreeContext(&decCtx)
		ffmpeg.AVFormatCloseInput(&fmtCtx)
		return nil, nil, fmt.Errorf("failed to get channel layout: %w", err)
	}

	sampleFmtName := ffmpeg.AVGetSampleFmtName(decCtx.SampleFmt())
	bytesPerSample, _ := ffmpeg.AVGetBytesPerSample(decCtx.SampleFmt())

	metadata := &Metadata{
		Duration:   duration,
		SampleRate: decCtx.SampleRate(),
		Channels:   decCtx.ChLayout().NbChannels(),
		SampleFmt:  sampleFmtName.String(),
		ChLayout:   layoutPtr.String(),
		BitDepth:   bytesPerSample * 8,
	}

	reader := &Reader{
		fmtCtx:    fmtCtx,
		decCtx:    decCtx,
		streamIdx: streamIdx,
		frame:     ffmpeg.AVFrameAlloc(),
		packet:    ffmpeg.AVPacketAlloc(),
	}

	return reader, metadata, nil
}

// ReadFrame reads the next decoded audio frame
// Returns nil when end of file is reached
func (r *Reader) ReadFrame() (*ffmpeg.AVFrame, error) {
	for {
		// Try to receive a frame from the decoder
		if _, err := ffmpeg.AVCodecReceiveFrame(r.decCtx, r.frame); err == nil {
			return r.frame, nil
		} else if !errors.Is(err, ffmpeg.EAgain) {
			if errors.Is(err, ffmpeg.AVErrorEOF) {
				return nil, nil // EOF
			}
			return nil, fmt.Errorf("failed to receive frame: %w", err)
		}

		// Need more packets, read from file
		if _, err := ffmpeg.AVReadFrame(r.fmtCtx, r.packet); err != nil {
			if errors.Is(err, ffmpeg.AVErrorEOF) {
				// Flush decoder
				if _, err := ffmpeg.AVCodecSendPacket(r.decCtx, nil); err != nil {
					return nil, fmt.Errorf("failed to flush decoder: %w", err)
				}
				continue
			}
			return nil, fmt.Errorf("failed to read frame: %w", err)
		}

		// Skip non-audio packets
		if r.packet.StreamIndex() != r.streamIdx {
			ffmpeg.AVPacketUnref(r.packet)
			continue
		}

		if _, err := ffmpeg.AVCodecSendPacket(r.decCtx, r.packet); err != nil {
			ffmpeg.AVPacketUnref(r.packet)
			return nil, fmt.Errorf("failed to send packet: %w", err)
		}

		ffmpeg.AVPacketUnref(r.packet)
	}
}

// Close releases all resources
func (r *Reader) Close() {
	if r.frame != nil {
		ffmpeg.AVFrameFree(&r.frame)
	}
	if r.packet != nil {
		ffmpeg.AVPacketFree(&r.packet)
	}
	if r.decCtx != nil {
		ffmpeg.AVCodecFreeContext(&r.decCtx)
	}
	if r.fmtCtx != nil {
		ffmpeg.AVFormatCloseInput(&r.fmtCtx)
	}
}

// appendFrame converts one decoded frame to float64 and appends it to
// the per-channel slices. Planar formats keep one plane per channel;
// packed formats interleave everything in plane 0.
func appendFrame(channels [][]float64, frame *ffmpeg.AVFrame) ([][]float64, error) {
	nbSamples := int(frame.NbSamples())
	nbChannels := frame.ChLayout().NbChannels()
	if nbSamples == 0 || nbChannels == 0 {
		return channels, nil
	}
	if len(channels) == 0 {
		channels = make([][]float64, nbChannels)
	}

	sampleFmt := ffmpeg.AVSampleFormat(frame.Format())
	planar := false
	switch sampleFmt {
	case ffmpeg.AVSampleFmtS16P, ffmpeg.AVSampleFmtS32P, ffmpeg.AVSampleFmtFltp, ffmpeg.AVSampleFmtDblp:
		planar = true
	}

	for c := 0; c < nbChannels && c < len(channels); c++ {
		plane, offset, stride := 0, c, nbChannels
		if planar {
			plane, offset, stride = c, 0, 1
		}
		dataPtr := frame.Data().Get(uintptr(plane))
		if dataPtr == nil {
			return nil, fmt.Errorf("missing data plane %d in decoded frame", plane)
		}
		total := nbSamples * stride

		switch sampleFmt {
		case ffmpeg.AVSampleFmtS16, ffmpeg.AVSampleFmtS16P:
			samples := unsafe.Slice((*int16)(dataPtr), total)
			for i := 0; i < nbSamples; i++ {
				channels[c] = append(channels[c], float64(samples[offset+i*stride])/32768.0)
			}
		case ffmpeg.AVSampleFmtS32, ffmpeg.AVSampleFmtS32P:
			samples := unsafe.Slice((*int32)(dataPtr), total)
			for i := 0; i < nbSamples; i++ {
				channels[c] = append(channels[c], float64(samples[offset+i*stride])/2147483648.0)
			}
		case ffmpeg.AVSampleFmtFlt, ffmpeg.AVSampleFmtFltp:
			samples := unsafe.Slice((*float32)(dataPtr), total)
			for i := 0; i < nbSamples; i++ {
				channels[c] = append(channels[c], float64(samples[offset+i*stride]))
			}
		case ffmpeg.AVSampleFmtDbl, ffmpeg.AVSampleFmtDblp:
			samples := unsafe.Slice((*float64)(dataPtr), total)
			for i := 0; i < nbSamples; i++ {
				channels[c] = append(channels[c], samples[offset+i*stride])
			}
		default:
			return nil, fmt.Errorf("unsupported sample format: %d", frame.Format())
		}
	}
	return channels, nil
}

// DecodeFile decodes an entire audio file into a buffer. Samples keep
// the file's native rate and channel count.
func DecodeFile(path string) (*dsp.Buffer, *Metadata, error) {
	reader, meta, err := OpenAudioFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	var channels [][]float64
	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			return nil, nil, err
		}
		if frame == nil {
			break
		}
		channels, err = appendFrame(channels, frame)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, nil, fmt.Errorf("no audio samples decoded from %s", path)
	}

	return &dsp.Buffer{Channels: channels, SampleRate: meta.SampleRate}, meta, nil
}
