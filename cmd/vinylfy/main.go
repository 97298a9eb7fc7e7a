package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	ffmpeg "github.com/csnewman/ffmpeg-go"
	"github.com/sirupsen/logrus"

	"github.com/vinylfy/vinylfy/internal/cli"
	"github.com/vinylfy/vinylfy/internal/config"
	"github.com/vinylfy/vinylfy/internal/logging"
	"github.com/vinylfy/vinylfy/internal/mains"
	"github.com/vinylfy/vinylfy/internal/service"
	"github.com/vinylfy/vinylfy/internal/store"
	"github.com/vinylfy/vinylfy/internal/ui"
	"github.com/vinylfy/vinylfy/internal/vinyl"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Preset  string `short:"p" default:"medium" help:"Effect preset: light, medium, heavy, vintage, custom or 'AJW Recommended'"`
	Format  string `short:"f" default:"" placeholder:"FORMAT" help:"Output format: wav, mp3, flac or ogg"`
	Seed    int64  `help:"Fix the noise generators for reproducible output (0 = random)"`
	Report  bool   `help:"Save a processing report next to each output file"`
	Debug   bool   `help:"Write debug logs to vinylfy-debug.log"`

	// Store maintenance
	Stats  bool   `help:"Show storage usage and exit"`
	List   bool   `help:"List stored files and exit"`
	Delete string `placeholder:"ID" help:"Delete a stored file and exit"`

	// Custom preset overrides, only honored with --preset=custom
	Noise      *float64 `placeholder:"N" help:"Surface noise intensity (0-0.1)"`
	Pops       *float64 `placeholder:"N" help:"Pop intensity (0-1)"`
	Wow        *float64 `placeholder:"N" help:"Wow/flutter intensity (0-0.01)"`
	Distortion *float64 `placeholder:"N" help:"Harmonic distortion amount (0-1)"`
	Width      *float64 `placeholder:"N" help:"Stereo width (0-1)"`
	Bass       *float64 `placeholder:"DB" help:"Bass EQ gain (-5 to +5 dB)"`
	Mid        *float64 `placeholder:"DB" help:"Mid EQ gain (-5 to +5 dB)"`
	Treble     *float64 `placeholder:"DB" help:"Treble EQ gain (-5 to +5 dB)"`
	Hpf        *float64 `placeholder:"HZ" help:"Enable the rumble high-pass filter at this cutoff (20-500 Hz)"`
	Lpf        *float64 `placeholder:"HZ" help:"Enable the hiss low-pass filter at this cutoff (5000-20000 Hz)"`
	Hum        *float64 `placeholder:"N" help:"Enable mains hum at this level (0-0.02)"`

	Files []string `arg:"" name:"files" help:"Audio files to process" type:"existingfile" optional:""`
}

func main() {
	// Suppress FFmpeg info/verbose logging to keep console clean
	ffmpeg.AVLogSetLevel(ffmpeg.AVLogError)

	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("vinylfy"),
		kong.Description("Vinyl record effect for digital audio"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cliArgs.Debug {
		debugLog, err := os.Create("vinylfy-debug.log")
		if err == nil {
			defer debugLog.Close()
			logger.SetFormatter(&logrus.JSONFormatter{})
			logger.SetOutput(debugLog)
		}
	} else {
		// The TUI owns the terminal while files render
		logger.SetOutput(io.Discard)
	}

	st, err := store.New(cfg.StorageDir, cfg.FileTTL, logger, store.WithSweepInterval(cfg.SweepInterval))
	if err != nil {
		cli.PrintError(fmt.Sprintf("storage: %v", err))
		os.Exit(1)
	}
	st.Start()
	defer st.Stop()

	seed := cliArgs.Seed
	if seed == 0 {
		seed = cfg.RandomSeed
	}
	humHz := mains.HumFrequency()
	svc := service.New(service.FFmpegCodec{}, st, logger, cfg.Workers,
		service.WithSeed(seed),
		service.WithHumFrequency(humHz),
	)

	// Maintenance flags run without the TUI
	switch {
	case cliArgs.Stats:
		printStats(svc)
		os.Exit(0)
	case cliArgs.List:
		printList(svc)
		os.Exit(0)
	case cliArgs.Delete != "":
		if svc.Delete(cliArgs.Delete) {
			fmt.Printf("deleted %s\n", cliArgs.Delete)
		} else {
			fmt.Printf("no stored file with ID %s\n", cliArgs.Delete)
		}
		os.Exit(0)
	}

	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	outputFormat := cliArgs.Format
	if outputFormat == "" {
		outputFormat = cfg.OutputFormat
	}
	overrides := cliArgs.overrides()

	// Create the Bubbletea UI model
	model := ui.NewModel(cliArgs.Files, cliArgs.Preset, outputFormat)
	progressChan := model.ProgressChan

	p := tea.NewProgram(model, tea.WithAltScreen())

	// Start processing in background
	go func() {
		for i, inputPath := range cliArgs.Files {
			fileStartTime := time.Now()

			progressChan <- ui.FileStartMsg{
				FileIndex: i,
				FileName:  inputPath,
			}

			timer := &stageTimer{}
			result, err := svc.Process(context.Background(), service.Request{
				InputPath:    inputPath,
				OriginalName: inputPath,
				Preset:       cliArgs.Preset,
				Overrides:    overrides,
				OutputFormat: outputFormat,
			}, func(stage string, index, total int) {
				timer.mark(stage)
				progressChan <- ui.StageMsg{Stage: stage, Index: index, Total: total}
			})
			timer.mark("")
			if err != nil {
				progressChan <- ui.FileCompleteMsg{FileIndex: i, Error: err}
				continue
			}

			if cliArgs.Report {
				reportData := logging.ReportData{
					InputPath:    inputPath,
					OutputPath:   result.Artifact.Path,
					Preset:       result.Artifact.Preset,
					Settings:     result.Settings,
					HumHz:        humHz,
					StartTime:    fileStartTime,
					EndTime:      time.Now(),
					Stages:       timer.timings,
					SampleRate:   result.Input.SampleRate,
					Channels:     result.Input.Channels,
					DurationSecs: result.Input.Duration,
					InputPeak:    result.InputPeak,
					OutputPeak:   result.OutputPeak,
				}
				if err := logging.GenerateReport(reportData); err != nil {
					logger.WithError(err).Warn("failed to write processing report")
				}
			}

			progressChan <- ui.FileCompleteMsg{
				FileIndex: i,
				Artifact:  result.Artifact,
				Duration:  result.Input.Duration,
			}
		}

		progressChan <- ui.AllCompleteMsg{}
	}()

	// Run the program
	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}
}

// overrides maps the custom-preset flags onto the settings overrides.
// Filter and hum flags both enable the feature and set its parameter.
func (c *CLI) overrides() *vinyl.Overrides {
	o := &vinyl.Overrides{
		NoiseIntensity:      c.Noise,
		PopIntensity:        c.Pops,
		WowFlutterIntensity: c.Wow,
		DistortionAmount:    c.Distortion,
		StereoWidth:         c.Width,
		Bass:                c.Bass,
		Mid:                 c.Mid,
		Treble:              c.Treble,
		HPFCutoff:           c.Hpf,
		LPFCutoff:           c.Lpf,
		HumLevel:            c.Hum,
	}
	enabled := true
	if c.Hpf != nil {
		o.HPFEnabled = &enabled
	}
	if c.Lpf != nil {
		o.LPFEnabled = &enabled
	}
	if c.Hum != nil {
		o.MainsHum = &enabled
	}
	return o
}

// stageTimer turns the stream of stage transitions into per-stage timings.
type stageTimer struct {
	timings []logging.StageTiming
	current string
	started time.Time
}

// mark closes the running stage and opens the named one. An empty name
// only closes.
func (t *stageTimer) mark(stage string) {
	now := time.Now()
	if t.current != "" {
		t.timings = append(t.timings, logging.StageTiming{
			Name:    t.current,
			Elapsed: now.Sub(t.started),
		})
	}
	t.current = stage
	t.started = now
}

func printStats(svc *service.Service) {
	s := svc.Stats()
	fmt.Printf("%s %s\n", cli.KeyStyle.Render("Directory:"), cli.ValueStyle.Render(s.Dir))
	fmt.Printf("%s %s\n", cli.KeyStyle.Render("Files:"), cli.ValueStyle.Render(fmt.Sprintf("%d", s.TotalFiles)))
	fmt.Printf("%s %s\n", cli.KeyStyle.Render("Size:"), cli.ValueStyle.Render(fmt.Sprintf("%.1f MB", float64(s.TotalBytes)/(1<<20))))
}

func printList(svc *service.Service) {
	artifacts := svc.List()
	if len(artifacts) == 0 {
		fmt.Println("no stored files")
		return
	}
	for _, a := range artifacts {
		fmt.Printf("%s  %-8s %-10s %s (expires %s)\n",
			a.ID, a.Format, a.Preset, a.OriginalName,
			a.ExpiresAt.Format("15:04:05"))
	}
}
