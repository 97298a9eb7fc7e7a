// Package codec handles audio file decoding and encoding via ffmpeg-go
package codec

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Format is an output container/codec choice.
type Format string

// Supported output formats.
const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatFLAC Format = "flac"
	FormatOGG  Format = "ogg"
)

// DefaultFormat is used when the caller requests no output format.
const DefaultFormat = FormatWAV

// lossyBitrate is the encoder bitrate for mp3 and ogg output.
const lossyBitrate = 192_000

var outputFormats = map[Format]string{
	FormatWAV:  "audio/wav",
	FormatMP3:  "audio/mpeg",
	FormatFLAC: "audio/flac",
	FormatOGG:  "audio/ogg",
}

// inputExtensions are the upload types the decoder accepts. Decoding
// goes through ffmpeg, so this is a policy allowlist rather than a
// technical limit.
var inputExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".aac":  true,
}

// ParseFormat validates a requested output format name. An empty name
// selects DefaultFormat.
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return DefaultFormat, nil
	}
	f := Format(strings.ToLower(strings.TrimPrefix(name, ".")))
	if _, ok := outputFormats[f]; !ok {
		return "", &UnsupportedFormatError{Name: name}
	}
	return f, nil
}

// MIMEType returns the content type served for downloads.
func (f Format) MIMEType() string {
	if mt, ok := outputFormats[f]; ok {
		return mt
	}
	return "application/octet-stream"
}

// Extension returns the filename extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// OutputFormats lists the supported output formats in sorted order.
func OutputFormats() []string {
	names := make([]string, 0, len(outputFormats))
	for f := range outputFormats {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// InputAllowed reports whether a filename has an accepted upload
// extension.
func InputAllowed(filename string) bool {
	return inputExtensions[strings.ToLower(filepath.Ext(filename))]
}

// UnsupportedFormatError reports a request for an output format the
// encoder does not produce.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported output format %q (supported: %s)",
		e.Name, strings.Join(OutputFormats(), ", "))
}
