package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vinylfy/vinylfy/internal/vinyl"
)

func TestGenerateReport(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "song.wav")

	settings, ok := vinyl.Preset("vintage")
	if !ok {
		t.Fatal("vintage preset missing")
	}

	start := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	data := ReportData{
		InputPath:  "/tmp/uploads/song.mp3",
		OutputPath: outputPath,
		Preset:     "vintage",
		Settings:   settings,
		HumHz:      50,
		StartTime:  start,
		EndTime:    start.Add(3 * time.Second),
		Stages: []StageTiming{
			{Name: "frequency response", Elapsed: 800 * time.Millisecond},
			{Name: "surface noise", Elapsed: 400 * time.Millisecond},
			{Name: "limiter", Elapsed: 100 * time.Millisecond},
		},
		SampleRate:   44100,
		Channels:     2,
		DurationSecs: 180,
		InputPeak:    0.5,
		OutputPeak:   0.995,
	}

	if err := GenerateReport(data); err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}

	logPath := filepath.Join(dir, "song.log")
	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("report not written to %s: %v", logPath, err)
	}
	output := string(raw)

	wantFragments := []string{
		"Vinylfy Processing Report",
		"File: song.mp3",
		"Output: song.wav",
		"Preset: vintage",
		"3m 0s, 44100 Hz, stereo",
		"Processing Summary",
		"frequency response:",
		"(60x real-time)",
		"Effect Chain (in processing order)",
		"1. Frequency response: enabled",
		"Mains hum at 50 Hz",
		"Levels",
		"Peak Level",
		"at the limiter ceiling",
	}
	for _, want := range wantFragments {
		if !strings.Contains(output, want) {
			t.Errorf("report missing %q\nfull report:\n%s", want, output)
		}
	}
}

func TestGenerateReportDisabledStages(t *testing.T) {
	dir := t.TempDir()

	var settings vinyl.Settings // everything off
	data := ReportData{
		InputPath:  "in.wav",
		OutputPath: filepath.Join(dir, "out.flac"),
		Preset:     "custom",
		Settings:   settings,
		StartTime:  time.Now(),
		EndTime:    time.Now(),
		SampleRate: 48000,
		Channels:   1,
	}

	if err := GenerateReport(data); err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out.log"))
	if err != nil {
		t.Fatal(err)
	}
	output := string(raw)

	for _, want := range []string{
		"1. Frequency response: disabled",
		"2. Surface noise: disabled",
		"3. Wow/flutter: disabled",
		"4. Harmonic distortion: disabled",
		"5. Stereo width: disabled",
		"mono",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("report missing %q\nfull report:\n%s", want, output)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{3723 * time.Second, "1h 2m 3s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestChannelName(t *testing.T) {
	tests := []struct {
		channels int
		want     string
	}{
		{1, "mono"},
		{2, "stereo"},
		{6, "6 channels"},
	}
	for _, tt := range tests {
		if got := channelName(tt.channels); got != tt.want {
			t.Errorf("channelName(%d) = %q, want %q", tt.channels, got, tt.want)
		}
	}
}
