package dsp

import (
	"math"
	"math/rand"
	"time"

	"github.com/vinylfy/vinylfy/internal/vinyl"
)

// limiterDrive sets the knee of the final soft limiter.
const limiterDrive = 0.95

// Stage is one in-place transform over a buffer. Stages run in a fixed
// order; each preserves channel count and sample count.
type Stage interface {
	Name() string
	Process(buf *Buffer)
}

// Pipeline renders the vinyl effect: frequency response, surface
// noise, wow/flutter, distortion, stereo width, then a soft limiter.
// With every stage disabled the pipeline is a bit-exact identity.
type Pipeline struct {
	stages []Stage
}

// NewPipeline builds a pipeline from validated settings. humHz is the
// detected mains frequency (50 or 60), used only when the settings
// enable mains hum. seed fixes the noise and modulation generators;
// pass 0 to randomize per run.
func NewPipeline(settings vinyl.Settings, humHz float64, seed int64) *Pipeline {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	p := &Pipeline{}
	if settings.FrequencyResponse {
		p.stages = append(p.stages, &FrequencyResponse{
			Bass:       settings.Bass,
			Mid:        settings.Mid,
			Treble:     settings.Treble,
			HPFEnabled: settings.HPFEnabled,
			HPFCutoff:  settings.HPFCutoff,
			LPFEnabled: settings.LPFEnabled,
			LPFCutoff:  settings.LPFCutoff,
		})
	}
	if settings.SurfaceNoise || settings.MainsHum {
		sn := &SurfaceNoise{
			HumEnabled: settings.MainsHum,
			HumLevel:   settings.HumLevel,
			HumHz:      humHz,
			Rand:       rand.New(rand.NewSource(rng.Int63())),
		}
		if settings.SurfaceNoise {
			sn.Intensity = settings.NoiseIntensity
			sn.PopIntensity = settings.PopIntensity
		}
		p.stages = append(p.stages, sn)
	}
	if settings.WowFlutter {
		p.stages = append(p.stages, &WowFlutter{
			Intensity: settings.WowFlutterIntensity,
			Rand:      rand.New(rand.NewSource(rng.Int63())),
		})
	}
	if settings.HarmonicDistortion {
		p.stages = append(p.stages, &HarmonicDistortion{Amount: settings.DistortionAmount})
	}
	if settings.StereoReduction {
		p.stages = append(p.stages, &StereoWidth{Width: settings.StereoWidth})
	}
	return p
}

// NumStages returns how many stages are active.
func (p *Pipeline) NumStages() int { return len(p.stages) }

// Process runs every active stage in place, then the final limiter.
// progress, if non-nil, is called before each stage with its name and
// 1-based position.
func (p *Pipeline) Process(buf *Buffer, progress func(stage string, index, total int)) {
	if len(p.stages) == 0 {
		return
	}
	total := len(p.stages) + 1
	for i, st := range p.stages {
		if progress != nil {
			progress(st.Name(), i+1, total)
		}
		st.Process(buf)
	}
	if progress != nil {
		progress("limiter", total, total)
	}
	limit(buf)
}

// limit clips hard at full scale, then applies a gentle tanh ceiling
// so pops and boosted EQ cannot push the output over 0 dBFS.
func limit(buf *Buffer) {
	norm := math.Tanh(limiterDrive)
	for _, ch := range buf.Channels {
		for i, s := range ch {
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			ch[i] = math.Tanh(s*limiterDrive) / norm
		}
	}
}
