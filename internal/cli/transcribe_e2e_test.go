//go:build e2e

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fmueller/meetnotes/internal/config"
	"github.com/fmueller/meetnotes/internal/transcribe"
	"github.com/stretchr/testify/require"
)

const (
	e2eWhisperPathEnv = "MEETNOTES_E2E_WHISPER_PATH"
	e2eModelDirEnv    = "MEETNOTES_E2E_MODEL_DIR"
	e2eAudioEnv       = "MEETNOTES_E2E_AUDIO"
)

func e2eArgs(t *testing.T, args ...string) []string {
	t.Helper()

	whisperPath := strings.TrimSpace(os.Getenv(e2eWhisperPathEnv))
	if whisperPath == "" {
		t.Skip("set MEETNOTES_E2E_WHISPER_PATH to run e2e tests")
	}
	modelDir := strings.TrimSpace(os.Getenv(e2eModelDirEnv))
	if modelDir == "" {
		modelDir = t.TempDir()
	}

	return append(args,
		"--whisper-path", whisperPath,
		"--model", "tiny",
		"--model-dir", modelDir,
		"--no-progress",
		"--env-file", filepath.Join(t.TempDir(), "none.env"),
	)
}

func TestSetupAndTranscribeRecordingEndToEnd(t *testing.T) {
	audio := strings.TrimSpace(os.Getenv(e2eAudioEnv))
	if audio == "" {
		t.Skip("set MEETNOTES_E2E_AUDIO to a short speech recording")
	}

	_, stderr, err := runCommand(t, e2eArgs(t, "setup"))
	require.NoErrorf(t, err, "setup command failed: %s", stderr)

	stdout, stderr, err := runCommand(t, e2eArgs(t, "transcribe", audio))
	require.NoErrorf(t, err, "transcribe command failed: %s", stderr)
	require.GreaterOrEqual(t, len([]rune(strings.TrimSpace(stdout))), transcribe.MinTranscriptLength)
}

func TestTranscribeSilenceEndToEnd(t *testing.T) {
	audio := writeAudio(t, t.TempDir(), "silence.wav", silentWAV())

	_, _, err := runCommand(t, e2eArgs(t, "transcribe", audio, "--silence-gate=false"))
	require.ErrorIs(t, err, transcribe.ErrNoSpeechDetected)
}

func TestSummarizeRecordingEndToEnd(t *testing.T) {
	audio := strings.TrimSpace(os.Getenv(e2eAudioEnv))
	if audio == "" {
		t.Skip("set MEETNOTES_E2E_AUDIO to a short speech recording")
	}
	if os.Getenv(config.EnvGeminiKey) == "" && os.Getenv(config.EnvGoogleKey) == "" {
		t.Skip("set GEMINI_API_KEY to run the summary e2e test")
	}

	outDir := t.TempDir()
	stdout, stderr, err := runCommand(t, e2eArgs(t, "summarize", audio, "-o", outDir))
	require.NoErrorf(t, err, "summarize command failed: %s", stderr)
	require.Contains(t, stdout, "Report saved to: ")
	require.NotContains(t, stdout, "Error generating summary")

	matches, err := filepath.Glob(filepath.Join(outDir, "*_meeting_summary_*.txt"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}
