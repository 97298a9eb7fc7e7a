package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DRMProtectedError reports an input that failed to decode because it
// carries DRM protection. Surfaced as a user-facing rejection; the
// file cannot be processed until the protection is removed.
type DRMProtectedError struct {
	Name   string // filename as supplied by the user
	Scheme string // e.g. "FairPlay (Apple Music)"
}

func (e *DRMProtectedError) Error() string {
	return fmt.Sprintf("cannot process DRM-protected file %q (%s)", e.Name, e.Scheme)
}

// drmIndicators are decode-error fragments that point at protection
// regardless of container.
var drmIndicators = []string{
	"drm",
	"protected",
	"encrypted",
	"decrypt",
	"fairplay",
	"rights",
	"license",
	"authorization",
}

// drmProneIndicators only count on containers that carry DRM in the
// wild. FFmpeg reports the same text for plain corruption, so matching
// them everywhere would turn every damaged mp3 into a DRM rejection.
var drmProneIndicators = []string{
	"codec not found",
	"invalid data found",
}

// drmSchemes maps DRM-prone extensions to the scheme used there.
var drmSchemes = map[string]string{
	".m4p": "FairPlay (Apple Music)",
	".m4a": "FairPlay (Apple Music)",
	".m4b": "FairPlay (Apple Music)",
	".wma": "Windows Media DRM",
}

// ClassifyDRM decides whether a decode failure was caused by DRM
// protection. name supplies the extension, decodeErr the error text.
// Returns nil when the failure does not look like DRM.
func ClassifyDRM(name string, decodeErr error) *DRMProtectedError {
	if decodeErr == nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	scheme, prone := drmSchemes[ext]

	text := strings.ToLower(decodeErr.Error())
	for _, ind := range drmIndicators {
		if strings.Contains(text, ind) {
			if !prone {
				scheme = "unknown DRM"
			}
			return &DRMProtectedError{Name: name, Scheme: scheme}
		}
	}
	if prone {
		for _, ind := range drmProneIndicators {
			if strings.Contains(text, ind) {
				return &DRMProtectedError{Name: name, Scheme: scheme}
			}
		}
	}

	// .m4p never decodes without stripping FairPlay first
	if ext == ".m4p" {
		return &DRMProtectedError{Name: name, Scheme: scheme}
	}
	return nil
}
