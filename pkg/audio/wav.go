package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var ErrNotWAV = errors.New("not a RIFF/WAVE stream")

// WAVDuration reads the fmt and data chunks of a RIFF/WAVE payload and
// returns its length in seconds. Streamed WAVs that leave the data size at
// 0 or 0xFFFFFFFF fall back to the remaining payload length.
func WAVDuration(data []byte) (float64, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return 0, ErrNotWAV
	}

	var byteRate uint32
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		switch id {
		case "fmt ":
			if body+12 > len(data) {
				return 0, errors.New("truncated fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			if byteRate == 0 {
				return 0, errors.New("data chunk before fmt chunk")
			}
			available := uint32(len(data) - body)
			if size == 0 || size == 0xFFFFFFFF || size > available {
				size = available
			}
			return float64(size) / float64(byteRate), nil
		}

		next := body + int(size)
		if size%2 == 1 {
			next++
		}
		if next <= offset {
			break
		}
		offset = next
	}

	return 0, errors.New("no data chunk found")
}
