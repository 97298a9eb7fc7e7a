package codec

import (
	"errors"
	"testing"
)

func TestClassifyDRM(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		err        error
		wantScheme string // "" means no DRM detected
	}{
		{
			name:       "fairplay_keyword_in_m4a",
			filename:   "album.m4a",
			err:        errors.New("this stream is FairPlay encrypted"),
			wantScheme: "FairPlay (Apple Music)",
		},
		{
			name:       "generic_failure_on_m4a",
			filename:   "album.m4a",
			err:        errors.New("Invalid data found when processing input"),
			wantScheme: "FairPlay (Apple Music)",
		},
		{
			name:       "missing_codec_on_wma",
			filename:   "track.WMA",
			err:        errors.New("codec not found"),
			wantScheme: "Windows Media DRM",
		},
		{
			name:       "m4p_always_protected",
			filename:   "song.m4p",
			err:        errors.New("could not open file"),
			wantScheme: "FairPlay (Apple Music)",
		},
		{
			name:       "drm_keyword_on_other_container",
			filename:   "song.mp3",
			err:        errors.New("stream is encrypted"),
			wantScheme: "unknown DRM",
		},
		{
			name:       "corrupt_mp3_is_not_drm",
			filename:   "song.mp3",
			err:        errors.New("Invalid data found when processing input"),
			wantScheme: "",
		},
		{
			name:       "clean_failure_on_m4a_is_not_drm",
			filename:   "album.m4a",
			err:        errors.New("no such file or directory"),
			wantScheme: "",
		},
		{
			name:       "nil_error",
			filename:   "album.m4a",
			err:        nil,
			wantScheme: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDRM(tt.filename, tt.err)
			if tt.wantScheme == "" {
				if got != nil {
					t.Fatalf("ClassifyDRM(%q, %v) = %v, want nil", tt.filename, tt.err, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ClassifyDRM(%q, %v) = nil, want scheme %q", tt.filename, tt.err, tt.wantScheme)
			}
			if got.Scheme != tt.wantScheme {
				t.Errorf("scheme = %q, want %q", got.Scheme, tt.wantScheme)
			}
			if got.Name != tt.filename {
				t.Errorf("name = %q, want %q", got.Name, tt.filename)
			}
		})
	}
}
