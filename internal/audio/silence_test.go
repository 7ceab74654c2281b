package audio

import (
	"math"
	"testing"
	"time"

	"github.com/fmueller/meetnotes/internal/audio/audiotest"
	"github.com/stretchr/testify/require"
)

func tone(n int, amplitude float64) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(amplitude * 32767 * math.Sin(2*math.Pi*440*float64(i)/16000.0))
	}
	return samples
}

func TestIsSilentWAVDetectsSilence(t *testing.T) {
	t.Parallel()

	silent, levels, err := IsSilentWAV(audiotest.PCM16(make([]int16, 16000), 16000, 1), -65)
	require.NoError(t, err)
	require.True(t, silent)
	require.True(t, math.IsInf(levels.RMSdBFS, -1))
	require.True(t, math.IsInf(levels.PeakdBFS, -1))
	require.EqualValues(t, 16000, levels.Samples)
	require.Equal(t, time.Second, levels.Duration)
}

func TestIsSilentWAVDetectsSpeechLikeSignal(t *testing.T) {
	t.Parallel()

	silent, levels, err := IsSilentWAV(audiotest.PCM16(tone(16000, 0.25), 16000, 1), -65)
	require.NoError(t, err)
	require.False(t, silent)
	require.Greater(t, levels.PeakdBFS, -20.0)
	require.Greater(t, levels.RMSdBFS, -20.0)
}

func TestIsSilentWAVRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, _, err := IsSilentWAV([]byte("hello"), -65)
	require.ErrorIs(t, err, ErrInvalidWAV)

	_, _, err = IsSilentWAV(append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 32)...), -65)
	require.ErrorIs(t, err, ErrInvalidWAV)
}

func TestParseWAVReportsFormatAndDuration(t *testing.T) {
	t.Parallel()

	w, err := ParseWAV(audiotest.PCM16(make([]int16, 32000), 16000, 2))
	require.NoError(t, err)
	require.EqualValues(t, 2, w.Channels)
	require.EqualValues(t, 16000, w.SampleRate)
	require.EqualValues(t, 16, w.BitsPerSample)
	require.Equal(t, time.Second, w.Duration())
}

func TestParseWAVTruncatedDataChunk(t *testing.T) {
	t.Parallel()

	data := audiotest.PCM16(make([]int16, 100), 16000, 1)
	w, err := ParseWAV(data[:len(data)-50])
	require.NoError(t, err)
	require.Len(t, w.Samples, 150)
}

func TestLevelsSilentPeakHeadroom(t *testing.T) {
	t.Parallel()

	require.True(t, Levels{RMSdBFS: -70, PeakdBFS: -60, Samples: 10}.Silent(-65))
	require.False(t, Levels{RMSdBFS: -70, PeakdBFS: -50, Samples: 10}.Silent(-65))
	require.False(t, Levels{RMSdBFS: -40, PeakdBFS: -40, Samples: 10}.Silent(-65))
	require.True(t, Levels{}.Silent(-65))
}
