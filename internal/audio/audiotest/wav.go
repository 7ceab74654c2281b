// Package audiotest builds WAV buffers for tests that need real audio bytes.
package audiotest

import (
	"encoding/binary"
	"math"
)

const SampleRate = 16000

// PCM16 encodes mono or interleaved 16-bit PCM samples as a WAV file.
func PCM16(samples []int16, sampleRate, channels int) []byte {
	const fmtSize = 16
	dataSize := len(samples) * 2
	out := make([]byte, 0, 44+dataSize)

	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(4+8+fmtSize+8+dataSize))
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, fmtSize)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint16(out, uint16(channels))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate*channels*2))
	out = binary.LittleEndian.AppendUint16(out, uint16(channels*2))
	out = binary.LittleEndian.AppendUint16(out, 16)

	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(dataSize))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}
	return out
}

// Tone is a mono sine at freq Hz whose peak sample is amplitude.
func Tone(n int, freq, amplitude float64) []byte {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(amplitude * math.Sin(2*math.Pi*freq*float64(i)/SampleRate))
	}
	return PCM16(samples, SampleRate, 1)
}

// Silence is n mono samples of digital silence.
func Silence(n int) []byte {
	return PCM16(make([]int16, n), SampleRate, 1)
}
