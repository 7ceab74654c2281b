package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestOptionsLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, zapcore.InfoLevel, Options{}.level())
	require.Equal(t, zapcore.DebugLevel, Options{Verbose: true}.level())
	require.Equal(t, zapcore.WarnLevel, Options{Quiet: true}.level())
	require.Equal(t, zapcore.DebugLevel, Options{Verbose: true, Quiet: true}.level())
}

func TestNewBuildsBothEncodings(t *testing.T) {
	t.Parallel()

	for _, opts := range []Options{{}, {JSON: true}, {Verbose: true}} {
		logger, err := New(opts)
		require.NoError(t, err)
		require.NotNil(t, logger)
		require.Equal(t, opts.level() == zapcore.DebugLevel, logger.Core().Enabled(zapcore.DebugLevel))
	}
}
