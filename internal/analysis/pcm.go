package analysis

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"tonearm/internal/media"
)

const (
	pcmSampleBudget = 4 * 1024 * 1024 // bytes of PCM inspected per file
	silenceFloor    = 128             // |amplitude| below this counts as silence (16-bit scale)
	clipCeiling     = 32700
	silenceRatioMax = 0.90
	clipRatioMax    = 0.02
)

// analyzePCMContent runs sample-domain heuristics for formats whose payload
// is directly decodable (16-bit PCM WAV). Silence and clipping ratios are
// soft signals; complete silence is the only critical outcome.
func analyzePCMContent(info *media.Info) []Defect {
	samples, err := readPCM16(info.Path)
	if err != nil || len(samples) == 0 {
		return nil
	}

	var silent, clipped int
	for _, sample := range samples {
		amp := int(sample)
		if amp < 0 {
			amp = -amp
		}
		if amp < silenceFloor {
			silent++
		}
		if amp >= clipCeiling {
			clipped++
		}
	}

	silenceRatio := float64(silent) / float64(len(samples))
	clipRatio := float64(clipped) / float64(len(samples))

	var defects []Defect
	switch {
	case silenceRatio >= 0.999:
		defects = append(defects, Defect{
			Type:        DefectCompleteSilence,
			Severity:    100,
			Description: "audio content is entirely silent",
		})
	case silenceRatio >= silenceRatioMax:
		defects = append(defects, Defect{
			Type:        DefectExcessiveSilence,
			Severity:    int(silenceRatio * 60),
			Description: fmt.Sprintf("%.0f%% of sampled audio is silence", silenceRatio*100),
		})
	}
	if clipRatio >= clipRatioMax {
		severity := int(clipRatio * 1000)
		if severity > 70 {
			severity = 70
		}
		defects = append(defects, Defect{
			Type:        DefectClipping,
			Severity:    severity,
			Description: fmt.Sprintf("%.1f%% of sampled audio clips at full scale", clipRatio*100),
		})
	}
	return defects
}

// readPCM16 extracts up to pcmSampleBudget bytes of 16-bit samples from a
// WAV data chunk.
func readPCM16(path string) ([]int16, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(file, header); err != nil {
		return nil, err
	}
	if !bytes.Equal(header[:4], []byte("RIFF")) || !bytes.Equal(header[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	chunk := make([]byte, 8)
	var bitsPerSample uint16 = 16
	for {
		if _, err := io.ReadFull(file, chunk); err != nil {
			return nil, err
		}
		size := binary.LittleEndian.Uint32(chunk[4:])
		// RIFF pads odd-sized chunks with one byte not counted in the
		// size field.
		skip := int64(size) + int64(size%2)
		switch string(chunk[:4]) {
		case "fmt ":
			body := make([]byte, skip)
			if _, err := io.ReadFull(file, body); err != nil {
				return nil, err
			}
			if size >= 16 {
				bitsPerSample = binary.LittleEndian.Uint16(body[14:16])
			}
		case "data":
			if bitsPerSample != 16 {
				return nil, fmt.Errorf("unsupported sample width %d", bitsPerSample)
			}
			budget := int64(size)
			if budget > pcmSampleBudget {
				budget = pcmSampleBudget
			}
			raw := make([]byte, budget)
			n, err := io.ReadFull(file, raw)
			if err != nil && n == 0 {
				return nil, err
			}
			raw = raw[:n&^1]
			samples := make([]int16, len(raw)/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
			}
			return samples, nil
		default:
			if _, err := file.Seek(skip, io.SeekCurrent); err != nil {
				return nil, err
			}
		}
	}
}
