package ui

import (
	"github.com/vinylfy/vinylfy/internal/store"
)

// StageMsg represents a pipeline stage transition for the active file
type StageMsg struct {
	Stage string // e.g. "surface noise"
	Index int    // 1-based position in the pipeline
	Total int
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex int
	Artifact  store.Artifact
	Duration  float64 // seconds of audio rendered
	Error     error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}
