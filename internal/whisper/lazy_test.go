package whisper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type echoEngine struct{}

func (echoEngine) Name() string { return "echo" }

func (echoEngine) Transcribe(_ context.Context, req Request) (string, error) {
	return req.AudioPath, nil
}

func TestLazyBuildsOnce(t *testing.T) {
	t.Parallel()

	builds := 0
	lazy := NewLazy("echo", func() (Engine, error) {
		builds++
		return echoEngine{}, nil
	})
	require.Equal(t, "echo", lazy.Name())
	require.Zero(t, builds)

	for range 3 {
		text, err := lazy.Transcribe(context.Background(), Request{AudioPath: "a.wav"})
		require.NoError(t, err)
		require.Equal(t, "a.wav", text)
	}
	require.Equal(t, 1, builds)
}

func TestLazyRepeatsBuildError(t *testing.T) {
	t.Parallel()

	boom := errors.New("whisper-cli not found")
	lazy := NewLazy(KindCPP, func() (Engine, error) { return nil, boom })

	_, err := lazy.Transcribe(context.Background(), Request{})
	require.ErrorIs(t, err, boom)
	_, err = lazy.Get()
	require.ErrorIs(t, err, boom)
}
