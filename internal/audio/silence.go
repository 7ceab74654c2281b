package audio

import (
	"encoding/binary"
	"math"
	"time"
)

type Levels struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
	Duration time.Duration
}

// Silent reports whether the levels sit under thresholdDBFS. Peaks get 6 dB of
// headroom so a single click does not count as speech.
func (l Levels) Silent(thresholdDBFS float64) bool {
	if l.Samples == 0 {
		return true
	}
	if math.IsInf(l.RMSdBFS, -1) && math.IsInf(l.PeakdBFS, -1) {
		return true
	}
	return l.RMSdBFS <= thresholdDBFS && l.PeakdBFS <= thresholdDBFS+6
}

func Measure(w WAV) (Levels, error) {
	width := int(w.BitsPerSample / 8)
	if width <= 0 {
		return Levels{}, ErrUnsupportedWAV
	}

	var (
		peak    float64
		squares float64
		count   int64
	)
	for i := 0; i+width <= len(w.Samples); i += width {
		v, err := sampleValue(w.Samples[i:i+width], w.AudioFormat, w.BitsPerSample)
		if err != nil {
			return Levels{}, err
		}
		peak = math.Max(peak, math.Abs(v))
		squares += v * v
		count++
	}

	if count == 0 {
		return Levels{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1), Duration: w.Duration()}, nil
	}
	return Levels{
		RMSdBFS:  toDBFS(math.Sqrt(squares / float64(count))),
		PeakdBFS: toDBFS(peak),
		Samples:  count,
		Duration: w.Duration(),
	}, nil
}

// IsSilentWAV parses data as WAV and applies the silence threshold.
func IsSilentWAV(data []byte, thresholdDBFS float64) (bool, Levels, error) {
	w, err := ParseWAV(data)
	if err != nil {
		return false, Levels{}, err
	}
	levels, err := Measure(w)
	if err != nil {
		return false, Levels{}, err
	}
	return levels.Silent(thresholdDBFS), levels, nil
}

func sampleValue(b []byte, audioFormat, bits uint16) (float64, error) {
	if audioFormat == formatFloat {
		switch bits {
		case 32:
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
		case 64:
			return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
		}
		return 0, ErrUnsupportedWAV
	}

	switch bits {
	case 8:
		return (float64(b[0]) - 128) / 128, nil
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(b))) / 32768, nil
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608, nil
	case 32:
		return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648, nil
	}
	return 0, ErrUnsupportedWAV
}

func toDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amplitude)
}
