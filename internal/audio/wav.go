package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

const (
	formatPCM   = 1
	formatFloat = 3
)

// WAV is a parsed RIFF/WAVE buffer. Samples aliases the input slice.
type WAV struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	Samples       []byte
}

// Duration is the playing time of the complete frames in Samples.
func (w WAV) Duration() time.Duration {
	frame := int(w.Channels) * int(w.BitsPerSample/8)
	if frame == 0 || w.SampleRate == 0 {
		return 0
	}
	frames := len(w.Samples) / frame
	return time.Duration(frames) * time.Second / time.Duration(w.SampleRate)
}

// ParseWAV walks the RIFF chunks of data and returns the fmt and data chunks.
// A data chunk that claims more bytes than present is truncated to what exists.
func ParseWAV(data []byte) (WAV, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAV{}, ErrInvalidWAV
	}

	var (
		out     WAV
		hasFmt  bool
		hasData bool
	)

	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		end := body + size
		if end > len(data) || end < body {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return WAV{}, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			chunk := data[body:end]
			out.AudioFormat = binary.LittleEndian.Uint16(chunk[0:2])
			out.Channels = binary.LittleEndian.Uint16(chunk[2:4])
			out.SampleRate = binary.LittleEndian.Uint32(chunk[4:8])
			out.BitsPerSample = binary.LittleEndian.Uint16(chunk[14:16])
			hasFmt = true
		case "data":
			out.Samples = data[body:end]
			hasData = true
		}

		off = end
		if size%2 != 0 {
			off++
		}
	}

	if !hasFmt || !hasData {
		return WAV{}, ErrInvalidWAV
	}
	if err := checkEncoding(out.AudioFormat, out.BitsPerSample); err != nil {
		return WAV{}, err
	}
	return out, nil
}

func checkEncoding(audioFormat, bits uint16) error {
	switch audioFormat {
	case formatPCM:
		switch bits {
		case 8, 16, 24, 32:
			return nil
		}
	case formatFloat:
		switch bits {
		case 32, 64:
			return nil
		}
	}
	return ErrUnsupportedWAV
}
