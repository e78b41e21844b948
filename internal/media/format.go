// Package media detects audio container formats and probes files for the
// structural attributes (duration, bitrate, sample rate, channels) and
// embedded tags the rest of the pipeline consumes.
package media

import (
	"path/filepath"
	"strings"
)

// Format is the closed set of audio container formats the pipeline handles.
// The variant is selected once at probe time; downstream code switches on it
// instead of re-inspecting path extensions.
type Format int

const (
	FormatUnknown Format = iota
	FormatFLAC
	FormatALAC
	FormatWAV
	FormatAIFF
	FormatMP3
	FormatAAC
	FormatOGG
	FormatOpus
	FormatWMA
)

var formatNames = map[Format]string{
	FormatUnknown: "unknown",
	FormatFLAC:    "flac",
	FormatALAC:    "alac",
	FormatWAV:     "wav",
	FormatAIFF:    "aiff",
	FormatMP3:     "mp3",
	FormatAAC:     "aac",
	FormatOGG:     "ogg",
	FormatOpus:    "opus",
	FormatWMA:     "wma",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat maps a stored format name back to its variant.
func ParseFormat(name string) Format {
	name = strings.ToLower(strings.TrimSpace(name))
	for format, candidate := range formatNames {
		if candidate == name {
			return format
		}
	}
	return FormatUnknown
}

// Lossless reports whether the format preserves the source signal exactly.
func (f Format) Lossless() bool {
	switch f {
	case FormatFLAC, FormatALAC, FormatWAV, FormatAIFF:
		return true
	default:
		return false
	}
}

// PreferenceRank orders formats for duplicate keeper tie-breaking. Lower is
// better: lossless first, then modern lossy codecs, then legacy ones.
func (f Format) PreferenceRank() int {
	switch f {
	case FormatFLAC:
		return 0
	case FormatALAC:
		return 1
	case FormatWAV, FormatAIFF:
		return 2
	case FormatOpus:
		return 3
	case FormatAAC:
		return 4
	case FormatOGG:
		return 5
	case FormatMP3:
		return 6
	case FormatWMA:
		return 7
	default:
		return 8
	}
}

var extensionFormats = map[string]Format{
	".flac": FormatFLAC,
	".m4a":  FormatAAC, // refined to ALAC at probe time when the codec says so
	".alac": FormatALAC,
	".wav":  FormatWAV,
	".aif":  FormatAIFF,
	".aiff": FormatAIFF,
	".mp3":  FormatMP3,
	".aac":  FormatAAC,
	".ogg":  FormatOGG,
	".oga":  FormatOGG,
	".opus": FormatOpus,
	".wma":  FormatWMA,
}

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if format, ok := extensionFormats[ext]; ok {
		return format
	}
	return FormatUnknown
}

// IsAudioPath reports whether the extension belongs to a supported format.
func IsAudioPath(path string) bool {
	return FormatFromPath(path) != FormatUnknown
}
