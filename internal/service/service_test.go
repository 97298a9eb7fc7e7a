package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vinylfy/vinylfy/internal/codec"
	"github.com/vinylfy/vinylfy/internal/dsp"
	"github.com/vinylfy/vinylfy/internal/store"
	"github.com/vinylfy/vinylfy/internal/vinyl"
)

// fakeCodec produces a synthetic tone on decode and writes a marker
// payload on encode, so tests run without ffmpeg.
type fakeCodec struct {
	decodeErr error
	encodeErr error

	mu      sync.Mutex
	decodes int
	encoded []*dsp.Buffer
	active  int32
	peak    int32
}

func (f *fakeCodec) Decode(string) (*dsp.Buffer, *codec.Metadata, error) {
	if f.decodeErr != nil {
		return nil, nil, f.decodeErr
	}
	f.mu.Lock()
	f.decodes++
	f.mu.Unlock()

	buf := dsp.NewBuffer(2, 44100/2, 44100)
	for _, ch := range buf.Channels {
		for i := range ch {
			ch[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100)
		}
	}
	meta := &codec.Metadata{Duration: 0.5, SampleRate: 44100, Channels: 2}
	return buf, meta, nil
}

func (f *fakeCodec) Encode(path string, buf *dsp.Buffer, _ codec.Format) error {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		old := atomic.LoadInt32(&f.peak)
		if n <= old || atomic.CompareAndSwapInt32(&f.peak, old, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if f.encodeErr != nil {
		return f.encodeErr
	}
	f.mu.Lock()
	f.encoded = append(f.encoded, buf.Clone())
	f.mu.Unlock()
	return os.WriteFile(path, []byte("rendered"), 0o644)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, fc *fakeCodec, workers int) *Service {
	t.Helper()
	st, err := store.New(t.TempDir(), time.Hour, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	return New(fc, st, quietLogger(), workers, WithHumFrequency(50), WithSeed(1))
}

func request() Request {
	return Request{
		InputPath:    "/tmp/in.mp3",
		OriginalName: "My Song.mp3",
		Preset:       vinyl.PresetMedium,
		OutputFormat: "wav",
	}
}

func TestProcessStoresArtifact(t *testing.T) {
	fc := &fakeCodec{}
	svc := newTestService(t, fc, 2)

	res, err := svc.Process(context.Background(), request(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Artifact.ID == "" {
		t.Fatal("no artifact ID")
	}
	if res.Artifact.Preset != vinyl.PresetMedium {
		t.Errorf("Preset = %q", res.Artifact.Preset)
	}
	if res.Input.SampleRate != 44100 {
		t.Errorf("input metadata not propagated: %+v", res.Input)
	}

	data, err := os.ReadFile(res.Artifact.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rendered" {
		t.Errorf("payload = %q", data)
	}

	// The rendered buffer differs from a clean tone (noise stage on).
	if len(fc.encoded) != 1 {
		t.Fatalf("encoded %d buffers", len(fc.encoded))
	}
}

func TestProcessDefaultsPresetAndFormat(t *testing.T) {
	svc := newTestService(t, &fakeCodec{}, 1)

	res, err := svc.Process(context.Background(), Request{
		InputPath:    "/tmp/in.wav",
		OriginalName: "in.wav",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Artifact.Preset != vinyl.DefaultPreset {
		t.Errorf("Preset = %q, want %q", res.Artifact.Preset, vinyl.DefaultPreset)
	}
	if res.Artifact.Format != codec.DefaultFormat {
		t.Errorf("Format = %q, want %q", res.Artifact.Format, codec.DefaultFormat)
	}
}

func TestProcessRejectsBadInput(t *testing.T) {
	svc := newTestService(t, &fakeCodec{}, 1)

	t.Run("extension", func(t *testing.T) {
		req := request()
		req.OriginalName = "document.pdf"
		_, err := svc.Process(context.Background(), req, nil)
		var ierr *InputError
		if !errors.As(err, &ierr) {
			t.Fatalf("want *InputError, got %v", err)
		}
	})

	t.Run("output format", func(t *testing.T) {
		req := request()
		req.OutputFormat = "aiff"
		_, err := svc.Process(context.Background(), req, nil)
		var ferr *codec.UnsupportedFormatError
		if !errors.As(err, &ferr) {
			t.Fatalf("want *UnsupportedFormatError, got %v", err)
		}
	})

	t.Run("settings", func(t *testing.T) {
		req := request()
		req.Preset = vinyl.PresetCustom
		bad := 5.0
		req.Overrides = &vinyl.Overrides{NoiseIntensity: &bad}
		_, err := svc.Process(context.Background(), req, nil)
		var verr *vinyl.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want *ValidationError, got %v", err)
		}
	})
}

func TestProcessDecodeFailure(t *testing.T) {
	fc := &fakeCodec{decodeErr: fmt.Errorf("corrupt header")}
	svc := newTestService(t, fc, 1)

	_, err := svc.Process(context.Background(), request(), nil)
	var perr *ProcessingError
	if !errors.As(err, &perr) {
		t.Fatalf("want *ProcessingError, got %v", err)
	}
	if perr.Phase != "decode" {
		t.Errorf("Phase = %q, want decode", perr.Phase)
	}
	if svc.Stats().TotalFiles != 0 {
		t.Error("failed job left an artifact")
	}
}

func TestProcessRejectsDRMProtected(t *testing.T) {
	fc := &fakeCodec{decodeErr: fmt.Errorf("Invalid data found when processing input")}
	svc := newTestService(t, fc, 1)

	req := request()
	req.OriginalName = "Purchased Album.m4a"
	_, err := svc.Process(context.Background(), req, nil)
	var derr *codec.DRMProtectedError
	if !errors.As(err, &derr) {
		t.Fatalf("want *DRMProtectedError, got %v", err)
	}
	if derr.Scheme != "FairPlay (Apple Music)" {
		t.Errorf("Scheme = %q", derr.Scheme)
	}
	if svc.Stats().TotalFiles != 0 {
		t.Error("rejected job left an artifact")
	}

	// The same decode error on a plain mp3 stays a generic failure.
	_, err = svc.Process(context.Background(), request(), nil)
	var perr *ProcessingError
	if !errors.As(err, &perr) || perr.Phase != "decode" {
		t.Fatalf("want decode *ProcessingError, got %v", err)
	}
}

func TestProcessEncodeFailure(t *testing.T) {
	fc := &fakeCodec{encodeErr: fmt.Errorf("disk full")}
	svc := newTestService(t, fc, 1)

	_, err := svc.Process(context.Background(), request(), nil)
	var perr *ProcessingError
	if !errors.As(err, &perr) {
		t.Fatalf("want *ProcessingError, got %v", err)
	}
	if perr.Phase != "encode" {
		t.Errorf("Phase = %q, want encode", perr.Phase)
	}
	if svc.Stats().TotalFiles != 0 {
		t.Error("failed encode left an artifact registered")
	}
}

func TestProcessProgress(t *testing.T) {
	svc := newTestService(t, &fakeCodec{}, 1)

	var stages []string
	_, err := svc.Process(context.Background(), request(), func(stage string, index, total int) {
		stages = append(stages, stage)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(stages) == 0 {
		t.Fatal("no progress reported")
	}
	if stages[len(stages)-1] != "limiter" {
		t.Errorf("stages = %v", stages)
	}
}

func TestWorkerLimit(t *testing.T) {
	fc := &fakeCodec{}
	svc := newTestService(t, fc, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Process(context.Background(), request(), nil); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if peak := atomic.LoadInt32(&fc.peak); peak > 2 {
		t.Errorf("observed %d concurrent renders, limit is 2", peak)
	}
	if fc.decodes != 6 {
		t.Errorf("decodes = %d, want 6", fc.decodes)
	}
}

func TestProcessCanceledWhileQueued(t *testing.T) {
	svc := newTestService(t, &fakeCodec{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Process(ctx, request(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestDownloadName(t *testing.T) {
	svc := newTestService(t, &fakeCodec{}, 1)
	res, err := svc.Process(context.Background(), request(), nil)
	if err != nil {
		t.Fatal(err)
	}

	a, name, mime, err := svc.Download(res.Artifact.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != res.Artifact.ID {
		t.Error("wrong artifact returned")
	}
	if name != "My_Song_vinylfy.wav" {
		t.Errorf("download name = %q", name)
	}
	if mime != "audio/wav" {
		t.Errorf("mime = %q", mime)
	}
}

func TestDownloadUnknownID(t *testing.T) {
	svc := newTestService(t, &fakeCodec{}, 1)
	_, _, _, err := svc.Download("missing")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("want *NotFoundError, got %v", err)
	}
}

func TestPreviewAndDelete(t *testing.T) {
	svc := newTestService(t, &fakeCodec{}, 1)
	res, err := svc.Process(context.Background(), request(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, mime, err := svc.Preview(res.Artifact.ID); err != nil || mime != "audio/wav" {
		t.Fatalf("Preview: mime=%q err=%v", mime, err)
	}

	if !svc.Delete(res.Artifact.ID) {
		t.Error("delete reported nothing removed")
	}
	if svc.Delete(res.Artifact.ID) {
		t.Error("second delete reported a removal")
	}
	if _, _, err := svc.Preview(res.Artifact.ID); err == nil {
		t.Error("preview served a deleted artifact")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Song", "My_Song"},
		{"../../etc/passwd", "______etc_passwd"},
		{"très chic", "trs_chic"},
		{"", "audio"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
