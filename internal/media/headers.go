package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
)

type headerParseFunc func(*os.File, *Info) error

// headerParser returns the structural parser for the format variant. The
// variant is chosen once at probe entry; there is no per-call re-dispatch.
func headerParser(format Format) headerParseFunc {
	switch format {
	case FormatFLAC:
		return parseFLACHeader
	case FormatMP3:
		return parseMP3Header
	case FormatWAV:
		return parseWAVHeader
	case FormatAIFF:
		return parseAIFFHeader
	case FormatOGG, FormatOpus:
		return parseOggHeader
	case FormatAAC, FormatALAC:
		return parseMP4Header
	case FormatWMA:
		return parseASFHeader
	default:
		return nil
	}
}

var errBadHeader = errors.New("invalid header")

// parseFLACHeader reads the fLaC magic and the mandatory STREAMINFO block.
func parseFLACHeader(file *os.File, info *Info) error {
	header := make([]byte, 4+4+34)
	if _, err := io.ReadFull(file, header); err != nil {
		return errBadHeader
	}
	if !bytes.Equal(header[:4], []byte("fLaC")) {
		return errBadHeader
	}
	if header[4]&0x7F != 0 { // first block must be STREAMINFO
		return errBadHeader
	}

	stream := header[8:]
	// 20 bits sample rate, 3 bits channels-1, 5 bits bits-per-sample-1,
	// 36 bits total samples, starting at byte 10 of STREAMINFO.
	sampleRate := int(stream[10])<<12 | int(stream[11])<<4 | int(stream[12])>>4
	channels := int(stream[12]>>1&0x07) + 1
	totalSamples := int64(stream[13]&0x0F)<<32 |
		int64(stream[14])<<24 | int64(stream[15])<<16 |
		int64(stream[16])<<8 | int64(stream[17])
	if sampleRate == 0 {
		return errBadHeader
	}

	info.SampleRate = sampleRate
	info.Channels = channels
	if totalSamples > 0 {
		info.DurationSec = float64(totalSamples) / float64(sampleRate)
	}
	return nil
}

var mp3Bitrates = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}

var mp3SampleRates = [4]int{44100, 48000, 32000, 0}

// parseMP3Header skips any ID3v2 block, locates the first frame sync, and
// decodes the MPEG-1 Layer III frame header. Duration is estimated from the
// audio payload size at the first frame's bitrate.
func parseMP3Header(file *os.File, info *Info) error {
	lead := make([]byte, 10)
	if _, err := io.ReadFull(file, lead); err != nil {
		return errBadHeader
	}

	var audioStart int64
	if bytes.Equal(lead[:3], []byte("ID3")) {
		// Syncsafe 28-bit tag size follows the 10-byte ID3v2 header.
		tagSize := int64(lead[6]&0x7F)<<21 | int64(lead[7]&0x7F)<<14 |
			int64(lead[8]&0x7F)<<7 | int64(lead[9]&0x7F)
		audioStart = 10 + tagSize
	}

	if _, err := file.Seek(audioStart, io.SeekStart); err != nil {
		return errBadHeader
	}
	window := make([]byte, 4096)
	n, err := io.ReadFull(file, window)
	if err != nil && n < 4 {
		return errBadHeader
	}
	window = window[:n]

	for i := 0; i+4 <= len(window); i++ {
		if window[i] != 0xFF || window[i+1]&0xE0 != 0xE0 {
			continue
		}
		frame := window[i : i+4]
		if frame[1]&0x18>>3 != 0x03 || frame[1]&0x06>>1 != 0x01 {
			continue // only MPEG-1 Layer III
		}
		bitrate := mp3Bitrates[frame[2]>>4]
		sampleRate := mp3SampleRates[frame[2]>>2&0x03]
		if bitrate == 0 || sampleRate == 0 {
			continue
		}
		channels := 2
		if frame[3]>>6 == 0x03 {
			channels = 1
		}
		info.BitrateKbps = bitrate
		info.SampleRate = sampleRate
		info.Channels = channels
		audioBytes := info.Size - audioStart
		if audioBytes > 0 {
			info.DurationSec = float64(audioBytes) * 8 / float64(bitrate*1000)
		}
		return nil
	}
	return errBadHeader
}

// parseWAVHeader validates the RIFF/WAVE container and decodes the fmt chunk.
func parseWAVHeader(file *os.File, info *Info) error {
	header := make([]byte, 12)
	if _, err := io.ReadFull(file, header); err != nil {
		return errBadHeader
	}
	if !bytes.Equal(header[:4], []byte("RIFF")) || !bytes.Equal(header[8:12], []byte("WAVE")) {
		return errBadHeader
	}

	var byteRate uint32
	var dataSize uint32
	chunk := make([]byte, 8)
scan:
	for {
		if _, err := io.ReadFull(file, chunk); err != nil {
			break
		}
		size := binary.LittleEndian.Uint32(chunk[4:])
		// RIFF pads odd-sized chunks with one byte not counted in the
		// size field.
		skip := int64(size) + int64(size%2)
		switch string(chunk[:4]) {
		case "fmt ":
			body := make([]byte, skip)
			if _, err := io.ReadFull(file, body); err != nil || size < 16 {
				return errBadHeader
			}
			info.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			byteRate = binary.LittleEndian.Uint32(body[8:12])
		case "data":
			dataSize = size
			// Chunk body is the PCM payload; no need to read it.
			if _, err := file.Seek(skip, io.SeekCurrent); err != nil {
				break scan
			}
		default:
			if _, err := file.Seek(skip, io.SeekCurrent); err != nil {
				break scan
			}
		}
		if byteRate > 0 && dataSize > 0 {
			break
		}
	}

	if info.SampleRate == 0 {
		return errBadHeader
	}
	if byteRate > 0 {
		info.BitrateKbps = int(byteRate * 8 / 1000)
		if dataSize > 0 {
			info.DurationSec = float64(dataSize) / float64(byteRate)
		}
	}
	return nil
}

// parseAIFFHeader validates the FORM/AIFF container and decodes the COMM chunk.
func parseAIFFHeader(file *os.File, info *Info) error {
	header := make([]byte, 12)
	if _, err := io.ReadFull(file, header); err != nil {
		return errBadHeader
	}
	if !bytes.Equal(header[:4], []byte("FORM")) || !bytes.Equal(header[8:12], []byte("AIFF")) {
		return errBadHeader
	}

	chunk := make([]byte, 8)
	for {
		if _, err := io.ReadFull(file, chunk); err != nil {
			return errBadHeader
		}
		size := binary.BigEndian.Uint32(chunk[4:])
		if string(chunk[:4]) != "COMM" {
			// IFF chunks pad to even offsets like RIFF.
			if _, err := file.Seek(int64(size)+int64(size%2), io.SeekCurrent); err != nil {
				return errBadHeader
			}
			continue
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(file, body); err != nil || size < 18 {
			return errBadHeader
		}
		info.Channels = int(binary.BigEndian.Uint16(body[0:2]))
		frames := binary.BigEndian.Uint32(body[2:6])
		info.SampleRate = decodeExtendedFloat(body[8:18])
		if info.SampleRate > 0 && frames > 0 {
			info.DurationSec = float64(frames) / float64(info.SampleRate)
		}
		return nil
	}
}

// decodeExtendedFloat converts the 80-bit IEEE 754 extended sample rate used
// by AIFF into an integer. Only the positive integral range matters here.
func decodeExtendedFloat(b []byte) int {
	exponent := int(binary.BigEndian.Uint16(b[0:2])&0x7FFF) - 16383
	mantissa := binary.BigEndian.Uint64(b[2:10])
	if exponent < 0 || exponent > 63 {
		return 0
	}
	return int(mantissa >> (63 - exponent))
}

// parseOggHeader validates the OggS capture pattern and reads the Vorbis or
// Opus identification header for sample rate and channel count.
func parseOggHeader(file *os.File, info *Info) error {
	page := make([]byte, 512)
	n, err := io.ReadFull(file, page)
	if err != nil && n < 28 {
		return errBadHeader
	}
	page = page[:n]
	if !bytes.Equal(page[:4], []byte("OggS")) {
		return errBadHeader
	}

	if idx := bytes.Index(page, []byte("\x01vorbis")); idx >= 0 && idx+16 <= len(page) {
		body := page[idx+7:]
		if len(body) >= 9 {
			info.Channels = int(body[4])
			info.SampleRate = int(binary.LittleEndian.Uint32(body[5:9]))
		}
		return nil
	}
	if idx := bytes.Index(page, []byte("OpusHead")); idx >= 0 {
		body := page[idx+8:]
		if len(body) >= 2 {
			info.Channels = int(body[1])
		}
		info.SampleRate = 48000 // Opus always decodes at 48kHz
		return nil
	}
	return nil
}

// parseMP4Header validates the ftyp box and scans for mvhd to recover the
// declared duration.
func parseMP4Header(file *os.File, info *Info) error {
	header := make([]byte, 8)
	if _, err := io.ReadFull(file, header); err != nil {
		return errBadHeader
	}
	if string(header[4:8]) != "ftyp" {
		return errBadHeader
	}
	size := binary.BigEndian.Uint32(header[:4])
	if size < 8 {
		return errBadHeader
	}
	if _, err := file.Seek(int64(size)-8, io.SeekCurrent); err != nil {
		return errBadHeader
	}

	// Scan the first boxes for moov/mvhd. Metadata-last files simply report
	// no duration; tag reading still works through the tag library.
	window := make([]byte, 64*1024)
	n, _ := file.Read(window)
	window = window[:n]
	if idx := bytes.Index(window, []byte("mvhd")); idx >= 0 && idx+24 <= len(window) {
		body := window[idx+4:]
		version := body[0]
		if version == 0 && len(body) >= 20 {
			timescale := binary.BigEndian.Uint32(body[12:16])
			duration := binary.BigEndian.Uint32(body[16:20])
			if timescale > 0 {
				info.DurationSec = float64(duration) / float64(timescale)
			}
		} else if version == 1 && len(body) >= 32 {
			timescale := binary.BigEndian.Uint32(body[20:24])
			duration := binary.BigEndian.Uint64(body[24:32])
			if timescale > 0 {
				info.DurationSec = float64(duration) / float64(timescale)
			}
		}
	}
	return nil
}

var asfHeaderGUID = []byte{
	0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
	0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
}

// parseASFHeader validates the ASF header object GUID.
func parseASFHeader(file *os.File, info *Info) error {
	guid := make([]byte, 16)
	if _, err := io.ReadFull(file, guid); err != nil {
		return errBadHeader
	}
	if !bytes.Equal(guid, asfHeaderGUID) {
		return errBadHeader
	}
	return nil
}
