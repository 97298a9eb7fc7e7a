// Package service orchestrates decoding, rendering and storage.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vinylfy/vinylfy/internal/codec"
	"github.com/vinylfy/vinylfy/internal/dsp"
	"github.com/vinylfy/vinylfy/internal/mains"
	"github.com/vinylfy/vinylfy/internal/store"
	"github.com/vinylfy/vinylfy/internal/vinyl"
)

// maxDownloadNameLen bounds sanitized download filenames.
const maxDownloadNameLen = 64

// Codec decodes uploads and encodes rendered audio. The production
// implementation sits on ffmpeg; tests inject a fake.
type Codec interface {
	Decode(path string) (*dsp.Buffer, *codec.Metadata, error)
	Encode(path string, buf *dsp.Buffer, format codec.Format) error
}

// FFmpegCodec is the production Codec.
type FFmpegCodec struct{}

func (FFmpegCodec) Decode(path string) (*dsp.Buffer, *codec.Metadata, error) {
	return codec.DecodeFile(path)
}

func (FFmpegCodec) Encode(path string, buf *dsp.Buffer, format codec.Format) error {
	return codec.EncodeFile(path, buf, format)
}

// Request describes one processing job.
type Request struct {
	InputPath    string // uploaded audio on local disk
	OriginalName string // filename as supplied by the user
	Preset       string
	Overrides    *vinyl.Overrides // only honored for the custom preset
	OutputFormat string
}

// Result is a finished job.
type Result struct {
	Artifact store.Artifact
	Settings vinyl.Settings
	Input    codec.Metadata

	// Linear peak levels before and after the render.
	InputPeak  float64
	OutputPeak float64
}

// Progress reports pipeline stage transitions during a render.
type Progress func(stage string, index, total int)

// ProcessingError wraps a failure inside the render path, tagged with
// the phase that failed.
type ProcessingError struct {
	Phase string // "decode", "render" or "encode"
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// InputError reports a rejected upload.
type InputError struct {
	Name   string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("rejected input %q: %s", e.Name, e.Reason)
}

// NotFoundError reports a missing or expired artifact.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file %q not found or expired", e.ID)
}

// Service ties the settings resolver, the signal pipeline, the codec
// and the artifact store together. Concurrent renders are bounded by a
// worker semaphore; everything else is unbounded.
type Service struct {
	codec Codec
	store *store.Store
	log   *logrus.Entry

	humHz float64
	seed  int64
	sem   chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithHumFrequency overrides mains detection.
func WithHumFrequency(hz float64) Option {
	return func(s *Service) { s.humHz = hz }
}

// WithSeed fixes the noise generators for reproducible output.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.seed = seed }
}

// New creates a Service with at most workers concurrent renders.
func New(c Codec, st *store.Store, log *logrus.Logger, workers int, opts ...Option) *Service {
	if workers < 1 {
		workers = 1
	}
	s := &Service{
		codec: c,
		store: st,
		log:   log.WithField("component", "service"),
		humHz: mains.HumFrequency(),
		sem:   make(chan struct{}, workers),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log.WithFields(logrus.Fields{
		"workers": workers,
		"hum_hz":  s.humHz,
	}).Info("processing service ready")
	return s
}

// Process validates the request, renders the vinyl effect and stores
// the result. It blocks while all workers are busy; ctx cancels the
// wait and the pauses between stages.
func (s *Service) Process(ctx context.Context, req Request, progress Progress) (Result, error) {
	if !codec.InputAllowed(req.OriginalName) {
		return Result{}, &InputError{Name: req.OriginalName, Reason: "unsupported file extension"}
	}
	format, err := codec.ParseFormat(req.OutputFormat)
	if err != nil {
		return Result{}, err
	}
	settings, err := vinyl.Resolve(req.Preset, req.Overrides)
	if err != nil {
		return Result{}, err
	}
	preset := req.Preset
	if preset == "" {
		preset = vinyl.DefaultPreset
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	log := s.log.WithFields(logrus.Fields{
		"input":  req.OriginalName,
		"preset": preset,
		"format": format,
	})
	log.Info("processing started")

	buf, meta, err := s.codec.Decode(req.InputPath)
	if err != nil {
		if drmErr := codec.ClassifyDRM(req.OriginalName, err); drmErr != nil {
			log.WithError(err).WithField("scheme", drmErr.Scheme).Warn("rejected DRM-protected input")
			return Result{}, drmErr
		}
		log.WithError(err).Error("decode failed")
		return Result{}, &ProcessingError{Phase: "decode", Err: err}
	}

	inPeak := buf.Peak()

	pipeline := dsp.NewPipeline(settings, s.humHz, s.seed)
	pipeline.Process(buf, progress)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	outPeak := buf.Peak()

	artifact, err := s.store.Create(store.Info{
		OriginalName: req.OriginalName,
		Format:       format,
		Preset:       preset,
		Settings:     settings,
	}, func(path string) error {
		return s.codec.Encode(path, buf, format)
	})
	if err != nil {
		log.WithError(err).Error("encode failed")
		return Result{}, &ProcessingError{Phase: "encode", Err: err}
	}

	log.WithFields(logrus.Fields{
		"id":       artifact.ID,
		"size":     artifact.Size,
		"duration": buf.Duration(),
	}).Info("processing finished")

	return Result{
		Artifact:   artifact,
		Settings:   settings,
		Input:      *meta,
		InputPeak:  inPeak,
		OutputPeak: outPeak,
	}, nil
}

// Download returns the artifact plus the filename and MIME type to
// serve it under. The download name is the sanitized original base
// name with a "_vinylfy" suffix.
func (s *Service) Download(id string) (store.Artifact, string, string, error) {
	a, ok := s.store.Get(id)
	if !ok {
		return store.Artifact{}, "", "", &NotFoundError{ID: id}
	}
	base := strings.TrimSuffix(a.OriginalName, filepath.Ext(a.OriginalName))
	name := sanitizeFilename(base) + "_vinylfy" + a.Format.Extension()
	return a, name, a.Format.MIMEType(), nil
}

// Preview returns the artifact for inline playback.
func (s *Service) Preview(id string) (store.Artifact, string, error) {
	a, ok := s.store.Get(id)
	if !ok {
		return store.Artifact{}, "", &NotFoundError{ID: id}
	}
	return a, a.Format.MIMEType(), nil
}

// Delete removes a stored artifact. Unknown IDs are not an error.
func (s *Service) Delete(id string) bool {
	return s.store.Delete(id)
}

// Stats reports store usage.
func (s *Service) Stats() store.Stats {
	return s.store.Stats()
}

// List returns the live artifacts, newest first.
func (s *Service) List() []store.Artifact {
	return s.store.List()
}

// sanitizeFilename strips everything but letters, digits, dashes and
// underscores, and bounds the length. An empty result falls back to
// "audio".
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.' || r == '/' || r == '\\':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > maxDownloadNameLen {
		out = out[:maxDownloadNameLen]
	}
	if out == "" {
		return "audio"
	}
	return out
}
