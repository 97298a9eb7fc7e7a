package codec

import (
	"errors"
	"fmt"
	"unsafe"

	ffmpeg "github.com/csnewman/ffmpeg-go"

	"github.com/vinylfy/vinylfy/internal/dsp"
)

// fallbackFrameSize is used for encoders without a fixed frame size.
const fallbackFrameSize = 4096

// encoderSpec ties an output format to the ffmpeg codec and the sample
// format we feed it.
type encoderSpec struct {
	codecID   ffmpeg.AVCodecId
	sampleFmt ffmpeg.AVSampleFormat
	planar    bool
	bitrate   int64
}

func specFor(format Format) (encoderSpec, error) {
	switch format {
	case FormatWAV:
		return encoderSpec{codecID: ffmpeg.AVCodecIdPcmS16le, sampleFmt: ffmpeg.AVSampleFmtS16}, nil
	case FormatFLAC:
		return encoderSpec{codecID: ffmpeg.AVCodecIdFlac, sampleFmt: ffmpeg.AVSampleFmtS16}, nil
	case FormatMP3:
		return encoderSpec{codecID: ffmpeg.AVCodecIdMp3, sampleFmt: ffmpeg.AVSampleFmtS16P, planar: true, bitrate: lossyBitrate}, nil
	case FormatOGG:
		return encoderSpec{codecID: ffmpeg.AVCodecIdVorbis, sampleFmt: ffmpeg.AVSampleFmtFltp, planar: true, bitrate: lossyBitrate}, nil
	default:
		return encoderSpec{}, &UnsupportedFormatError{Name: string(format)}
	}
}

// Writer wraps the audio encoding and muxing functionality
type Writer struct {
	fmtCtx    *ffmpeg.AVFormatContext
	encCtx    *ffmpeg.AVCodecContext
	stream    *ffmpeg.AVStream
	packet    *ffmpeg.AVPacket
	spec      encoderSpec
	frameSize int
	channels  int
	pts       int64
}

// NewWriter creates an encoder writing to outputPath in the given
// format.
func NewWriter(outputPath string, format Format, sampleRate, channels int) (*Writer, error) {
	spec, err := specFor(format)
	if err != nil {
		return nil, err
	}

	outputPathC := ffmpeg.ToCStr(outputPath)
	defer outputPathC.Free()

	var fmtCtx *ffmpeg.AVFormatContext
	if _, err := ffmpeg.AVFormatAllocOutputContext2(&fmtCtx, nil, nil, outputPathC); err != nil {
		return nil, fmt.Errorf("failed to allocate output context: %w", err)
	}

	codec := ffmpeg.AVCodecFindEncoder(spec.codecID)
	if codec == nil {
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("%s encoder not found for output: %s", format, outputPath)
	}

	stream := ffmpeg.AVFormatNewStream(fmtCtx, nil)
	if stream == nil {
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to create stream for output: %s", outputPath)
	}

	encCtx := ffmpeg.AVCodecAllocContext3(codec)
	if encCtx == nil {
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to allocate encoder context for output: %s", outputPath)
	}

	encCtx.SetSampleFmt(spec.sampleFmt)
	encCtx.SetSampleRate(sampleRate)
	ffmpeg.AVChannelLayoutDefault(encCtx.ChLayout(), channels)
	if spec.bitrate > 0 {
		encCtx.SetBitRate(spec.bitrate)
	}

	if spec.codecID == ffmpeg.AVCodecIdFlac {
		ffmpeg.AVOptSetInt(encCtx.RawPtr(), ffmpeg.GlobalCStr("compression_level"), 5, 0)
		encCtx.SetFrameSize(fallbackFrameSize)
	}

	if fmtCtx.Oformat().Flags()&ffmpeg.AVFmtGlobalheader != 0 {
		encCtx.SetFlags(encCtx.Flags() | ffmpeg.AVCodecFlagGlobalHeader)
	}

	// Audio encoders default their time base to 1/sample_rate at open;
	// frame PTS below are written in sample counts to match.
	if _, err := ffmpeg.AVCodecOpen2(encCtx, codec, nil); err != nil {
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to open encoder: %w", err)
	}

	if _, err := ffmpeg.AVCodecParametersFromContext(stream.Codecpar(), encCtx); err != nil {
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to copy encoder parameters: %w", err)
	}
	stream.SetTimeBase(encCtx.TimeBase())

	if fmtCtx.Oformat().Flags()&ffmpeg.AVFmtNofile == 0 {
		var pb *ffmpeg.AVIOContext
		if _, err := ffmpeg.AVIOOpen(&pb, outputPathC, ffmpeg.AVIOFlagWrite); err != nil {
			ffmpeg.AVCodecFreeContext(&encCtx)
			ffmpeg.AVFormatFreeContext(fmtCtx)
			return nil, fmt.Errorf("failed to open output file: %w", err)
		}
		fmtCtx.SetPb(pb)
	}

	if _, err := ffmpeg.AVFormatWriteHeader(fmtCtx, nil); err != nil {
		if fmtCtx.Pb() != nil {
			ffmpeg.AVIOClose(fmtCtx.Pb())
		}
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	packet := ffmpeg.AVPacketAlloc()
	if packet == nil {
		if fmtCtx.Pb() != nil {
			ffmpeg.AVIOClose(fmtCtx.Pb())
		}
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to allocate packet for output: %s", outputPath)
	}

	frameSize := encCtx.FrameSize()
	if frameSize <= 0 {
		frameSize = fallbackFrameSize
	}

	return &Writer{
		fmtCtx:    fmtCtx,
		encCtx:    encCtx,
		stream:    stream,
		packet:    packet,
		spec:      spec,
		frameSize: frameSize,
		channels:  channels,
	}, nil
}

// WriteBuffer encodes the whole buffer as a sequence of fixed-size
// frames.
func (w *Writer) WriteBuffer(buf *dsp.Buffer) error {
	total := buf.NumSamples()
	for start := 0; start < total; start += w.frameSize {
		n := w.frameSize
		if start+n > total {
			n = total - start
		}
		if err := w.writeChunk(buf, start, n); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeChunk(buf *dsp.Buffer, start, n int) error {
	frame := ffmpeg.AVFrameAlloc()
	if frame == nil {
		return fmt.Errorf("failed to allocate frame")
	}
	defer ffmpeg.AVFrameFree(&frame)

	frame.SetNbSamples(n)
	frame.SetFormat(int(w.spec.sampleFmt))
	frame.SetSampleRate(w.encCtx.SampleRate())
	ffmpeg.AVChannelLayoutDefault(frame.ChLayout(), w.channels)

	if _, err := ffmpeg.AVFrameGetBuffer(frame, 0); err != nil {
		return fmt.Errorf("failed to allocate frame buffer: %w", err)
	}

	if err := w.fillFrame(frame, buf, start, n); err != nil {
		return err
	}

	frame.SetPts(w.pts)
	w.pts += int64(n)

	if _, err := ffmpeg.AVCodecSendFrame(w.encCtx, frame); err != nil {
		return fmt.Errorf("failed to send frame to encoder: %w", err)
	}
	return w.receivePackets()
}

// fillFrame copies float64 samples into the frame's data planes in the
// encoder's sample format.
func (w *Writer) fillFrame(frame *ffmpeg.AVFrame, buf *dsp.Buffer, start, n int) error {
	if w.spec.planar {
		for c := 0; c < w.channels; c++ {
			dataPtr := frame.Data().Get(uintptr(c))
			if dataPtr == nil {
				return fmt.Errorf("missing data plane %d in output frame", c)
			}
			src := buf.Channels[c][start : start+n]
			switch w.spec.sampleFmt {
			case ffmpeg.AVSampleFmtS16P:
				dst := unsafe.Slice((*int16)(dataPtr), n)
				for i, s := range src {
					dst[i] = floatToS16(s)
				}
			case ffmpeg.AVSampleFmtFltp:
				dst := unsafe.Slice((*float32)(dataPtr), n)
				for i, s := range src {
					dst[i] = float32(clamp(s))
				}
			default:
				return fmt.Errorf("unsupported planar sample format: %d", w.spec.sampleFmt)
			}
		}
		return nil
	}

	dataPtr := frame.Data().Get(0)
	if dataPtr == nil {
		return fmt.Errorf("missing data plane in output frame")
	}
	switch w.spec.sampleFmt {
	case ffmpeg.AVSampleFmtS16:
		dst := unsafe.Slice((*int16)(dataPtr), n*w.channels)
		for c := 0; c < w.channels; c++ {
			src := buf.Channels[c][start : start+n]
			for i, s := range src {
				dst[i*w.channels+c] = floatToS16(s)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported packed sample format: %d", w.spec.sampleFmt)
	}
}

func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

func floatToS16(s float64) int16 {
	v := clamp(s) * 32767.0
	if v >= 0 {
		return int16(v + 0.5)
	}
	return int16(v - 0.5)
}

// Flush drains the encoder.
func (w *Writer) Flush() error {
	if _, err := ffmpeg.AVCodecSendFrame(w.encCtx, nil); err != nil {
		return fmt.Errorf("failed to flush encoder: %w", err)
	}
	return w.receivePackets()
}

// receivePackets receives and writes packets from the encoder
func (w *Writer) receivePackets() error {
	for {
		ffmpeg.AVPacketUnref(w.packet)

		if _, err := ffmpeg.AVCodecReceivePacket(w.encCtx, w.packet); err != nil {
			if errors.Is(err, ffmpeg.EAgain) || errors.Is(err, ffmpeg.AVErrorEOF) {
				break
			}
			return fmt.Errorf("failed to receive packet: %w", err)
		}

		w.packet.SetStreamIndex(0)
		ffmpeg.AVPacketRescaleTs(w.packet, w.encCtx.TimeBase(), w.stream.TimeBase())

		if _, err := ffmpeg.AVInterleavedWriteFrame(w.fmtCtx, w.packet); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	}
	return nil
}

// Close closes the encoder and output file
// Safe to call multiple times - subsequent calls are no-ops.
func (w *Writer) Close() error {
	if w.fmtCtx == nil {
		return nil
	}

	if _, err := ffmpeg.AVWriteTrailer(w.fmtCtx); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}

	ffmpeg.AVPacketFree(&w.packet)
	ffmpeg.AVCodecFreeContext(&w.encCtx)

	if w.fmtCtx.Oformat().Flags()&ffmpeg.AVFmtNofile == 0 {
		if w.fmtCtx.Pb() != nil {
			if _, err := ffmpeg.AVIOClose(w.fmtCtx.Pb()); err != nil {
				return fmt.Errorf("failed to close output file: %w", err)
			}
			w.fmtCtx.SetPb(nil)
		}
	}

	ffmpeg.AVFormatFreeContext(w.fmtCtx)
	w.fmtCtx = nil

	return nil
}

// EncodeFile writes a buffer to path in the given format, handling
// flush and close.
func EncodeFile(path string, buf *dsp.Buffer, format Format) error {
	w, err := NewWriter(path, format, buf.SampleRate, buf.NumChannels())
	if err != nil {
		return err
	}
	if err := w.WriteBuffer(buf); err != nil {
		w.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
