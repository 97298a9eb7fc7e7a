// Package logging handles generation of processing reports for rendered audio files

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vinylfy/vinylfy/internal/vinyl"
)

// StageTiming records how long a single pipeline stage took.
type StageTiming struct {
	Name    string
	Elapsed time.Duration
}

// ReportData contains all the information needed to generate a processing report
type ReportData struct {
	InputPath    string
	OutputPath   string
	Preset       string
	Settings     vinyl.Settings
	HumHz        float64 // detected mains frequency, shown when hum is enabled
	StartTime    time.Time
	EndTime      time.Time
	Stages       []StageTiming
	SampleRate   int
	Channels     int
	DurationSecs float64 // Duration in seconds
	InputPeak    float64 // linear peak before processing
	OutputPeak   float64 // linear peak after processing
}

// GenerateReport creates a processing report and saves it alongside the output file.
// The report filename will be <output>.log
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - per-stage timings and real-time factor
// 3. Effect Chain - each stage with its parameters, in processing order
// 4. Levels - input vs output peak comparison
func GenerateReport(data ReportData) error {
	logPath := strings.TrimSuffix(data.OutputPath, filepath.Ext(data.OutputPath)) + ".log"

	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	writeReportHeader(f, data)
	writeProcessingSummary(f, data)
	writeEffectChain(f, data)
	writeLevelsTable(f, data)

	return nil
}

// writeSection outputs a section title with a dashed underline.
func writeSection(f *os.File, title string) {
	fmt.Fprintln(f, title)
	fmt.Fprintln(f, strings.Repeat("-", len(title)))
}

// writeReportHeader outputs the report title and basic file facts.
func writeReportHeader(f *os.File, data ReportData) {
	fmt.Fprintln(f, "Vinylfy Processing Report")
	fmt.Fprintln(f, "=========================")
	fmt.Fprintf(f, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(f, "Output: %s\n", filepath.Base(data.OutputPath))
	fmt.Fprintf(f, "Preset: %s\n", data.Preset)
	fmt.Fprintf(f, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(f, "Audio: %s, %d Hz, %s\n",
		formatDuration(time.Duration(data.DurationSecs*float64(time.Second))),
		data.SampleRate, channelName(data.Channels))
	fmt.Fprintln(f, "")
}

// writeProcessingSummary outputs per-stage render timings.
func writeProcessingSummary(f *os.File, data ReportData) {
	writeSection(f, "Processing Summary")

	labelWidth := 0
	for _, st := range data.Stages {
		if len(st.Name) > labelWidth {
			labelWidth = len(st.Name)
		}
	}
	for _, st := range data.Stages {
		fmt.Fprintf(f, "%-*s  %s\n", labelWidth+1, st.Name+":", formatDuration(st.Elapsed))
	}

	totalTime := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(f, "%-*s  %s", labelWidth+1, "Total:", formatDuration(totalTime))

	if data.DurationSecs > 0 && totalTime > 0 {
		audioDuration := time.Duration(data.DurationSecs * float64(time.Second))
		rtf := float64(audioDuration) / float64(totalTime)
		fmt.Fprintf(f, " (%.0fx real-time)", rtf)
	}
	fmt.Fprintln(f, "")
	fmt.Fprintln(f, "")
}

// writeEffectChain outputs each effect stage with its parameters.
// Disabled stages are listed too, so the report documents the full
// decision rather than just the survivors.
func writeEffectChain(f *os.File, data ReportData) {
	writeSection(f, "Effect Chain (in processing order)")

	s := data.Settings

	if s.FrequencyResponse {
		fmt.Fprintf(f, " 1. Frequency response: enabled (bass %s dB, mid %s dB, treble %s dB)\n",
			formatMetricSigned(s.Bass, 1), formatMetricSigned(s.Mid, 1), formatMetricSigned(s.Treble, 1))
		if s.HPFEnabled {
			fmt.Fprintf(f, "    High-pass filter at %.0f Hz\n", s.HPFCutoff)
		}
		if s.LPFEnabled {
			fmt.Fprintf(f, "    Low-pass filter at %.0f Hz\n", s.LPFCutoff)
		}
	} else {
		fmt.Fprintln(f, " 1. Frequency response: disabled")
	}

	if s.SurfaceNoise || s.MainsHum {
		fmt.Fprint(f, " 2. Surface noise: enabled")
		if s.SurfaceNoise {
			fmt.Fprintf(f, " (intensity %s, pops %s)", formatMetric(s.NoiseIntensity, 3), formatMetric(s.PopIntensity, 2))
		}
		fmt.Fprintln(f, "")
		if s.MainsHum {
			fmt.Fprintf(f, "    Mains hum at %.0f Hz, level %s\n", data.HumHz, formatMetric(s.HumLevel, 4))
		}
	} else {
		fmt.Fprintln(f, " 2. Surface noise: disabled")
	}

	if s.WowFlutter {
		fmt.Fprintf(f, " 3. Wow/flutter: enabled (intensity %s)\n", formatMetric(s.WowFlutterIntensity, 4))
	} else {
		fmt.Fprintln(f, " 3. Wow/flutter: disabled")
	}

	if s.HarmonicDistortion {
		fmt.Fprintf(f, " 4. Harmonic distortion: enabled (amount %s)\n", formatMetric(s.DistortionAmount, 2))
	} else {
		fmt.Fprintln(f, " 4. Harmonic distortion: disabled")
	}

	if s.StereoReduction {
		fmt.Fprintf(f, " 5. Stereo width: enabled (width %s)\n", formatMetric(s.StereoWidth, 2))
	} else {
		fmt.Fprintln(f, " 5. Stereo width: disabled")
	}

	fmt.Fprintln(f, "")
}

// writeLevelsTable outputs the input/output peak comparison.
func writeLevelsTable(f *os.File, data ReportData) {
	writeSection(f, "Levels")

	table := NewMetricTable()
	table.AddRow("Peak Level",
		[]string{formatMetricPeak(data.InputPeak, 1), formatMetricPeak(data.OutputPeak, 1)},
		"dBFS", interpretPeak(data.OutputPeak))

	fmt.Fprint(f, table.String())
	fmt.Fprintln(f, "")
}

// interpretPeak flags output levels a listener or mastering step would care about.
func interpretPeak(peak float64) string {
	switch {
	case peak <= 0:
		return "digital silence"
	case peak > 1.0:
		return "clipped"
	case peak > 0.99:
		return "at the limiter ceiling"
	default:
		return ""
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}
