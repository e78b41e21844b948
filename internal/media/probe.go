package media

import (
	"fmt"
	"os"
	"time"

	"github.com/dhowden/tag"
)

// Tags holds the embedded tag fields the resolver consumes. Readable is false
// when the tag block could not be parsed at all.
type Tags struct {
	Artist   string
	Title    string
	Album    string
	Genre    string
	Year     int
	Readable bool
}

// Info captures the structural attributes of a probed audio file.
type Info struct {
	Path        string
	Size        int64
	ModTime     time.Time
	Format      Format
	DurationSec float64
	BitrateKbps int
	SampleRate  int
	Channels    int
	HeaderValid bool
	Tags        Tags
}

// Probe inspects the file at path: it selects the format variant, runs the
// variant's header parser, and reads embedded tags. Unreadable tags or an
// invalid header are recorded on the Info rather than returned as errors;
// only filesystem failures abort the probe.
func Probe(path string) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat audio file: %w", err)
	}

	info := &Info{
		Path:    path,
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
		Format:  FormatFromPath(path),
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	if parse := headerParser(info.Format); parse != nil {
		if err := parse(file, info); err == nil {
			info.HeaderValid = true
		}
	}

	if info.BitrateKbps == 0 && info.DurationSec > 0 {
		info.BitrateKbps = int(float64(info.Size) * 8 / info.DurationSec / 1000)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return info, nil
	}
	if meta, err := tag.ReadFrom(file); err == nil {
		info.Tags = Tags{
			Artist:   meta.Artist(),
			Title:    meta.Title(),
			Album:    meta.Album(),
			Genre:    meta.Genre(),
			Year:     meta.Year(),
			Readable: true,
		}
		if meta.FileType() == tag.ALAC {
			info.Format = FormatALAC
		}
	} else if info.Format == FormatWAV || info.Format == FormatAIFF {
		// RIFF and AIFF tagging is optional; an absent tag block in an
		// otherwise valid container is not corruption.
		info.Tags.Readable = info.HeaderValid
	}

	return info, nil
}
