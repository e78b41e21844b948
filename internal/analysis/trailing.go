package analysis

import (
	"fmt"
	"io"
	"os"
)

const (
	trailingWindow = 64 * 1024
	// A run of one repeated byte this long at EOF usually means the encoder
	// died mid-write and the filesystem padded the tail.
	identicalRunThreshold = 16 * 1024
	paddingRatioThreshold = 0.85
)

// analyzeTrailingBytes inspects the final window of the file for the
// signatures of truncated writes: long runs of a single byte and excessive
// zero/0xFF padding.
func analyzeTrailingBytes(path string, size int64) []Defect {
	if size == 0 {
		return []Defect{{
			Type:        DefectTruncation,
			Severity:    100,
			Description: "file is empty",
		}}
	}

	window := int64(trailingWindow)
	if size < window {
		window = size
	}

	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	buf := make([]byte, window)
	if _, err := file.ReadAt(buf, size-window); err != nil && err != io.EOF {
		return nil
	}

	var defects []Defect

	if run, value := longestTrailingRun(buf); run >= identicalRunThreshold {
		defects = append(defects, Defect{
			Type:     DefectTruncation,
			Severity: 65,
			Description: fmt.Sprintf("trailing run of %d identical bytes (0x%02X) suggests a truncated write",
				run, value),
		})
	}

	if ratio := paddingRatio(buf); ratio >= paddingRatioThreshold {
		defects = append(defects, Defect{
			Type:     DefectSuspiciousPadding,
			Severity: 40,
			Description: fmt.Sprintf("%.0f%% of the final %d KB is zero/0xFF padding",
				ratio*100, window/1024),
		})
	}

	return defects
}

// longestTrailingRun returns the length of the run of identical bytes ending
// at EOF and the repeated byte value.
func longestTrailingRun(buf []byte) (int, byte) {
	if len(buf) == 0 {
		return 0, 0
	}
	last := buf[len(buf)-1]
	run := 1
	for i := len(buf) - 2; i >= 0 && buf[i] == last; i-- {
		run++
	}
	return run, last
}

// paddingRatio reports the fraction of bytes that are 0x00 or 0xFF.
func paddingRatio(buf []byte) float64 {
	if len(buf) == 0 {
		return 0
	}
	padding := 0
	for _, b := range buf {
		if b == 0x00 || b == 0xFF {
			padding++
		}
	}
	return float64(padding) / float64(len(buf))
}
