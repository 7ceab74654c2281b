package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fmueller/meetnotes/internal/config"
	"github.com/fmueller/meetnotes/internal/whisper"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersCoreFlags(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	flags := cmd.PersistentFlags()

	for _, name := range []string{
		"config", "env-file", "verbose", "quiet", "json", "no-progress",
		"model", "model-dir", "language", "engine", "whisper-path", "ffmpeg",
		"auto-download", "silence-gate", "silence-threshold-dbfs",
		"provider", "summary-model", "strict-summary", "output-dir", "docx", "no-transcript-file",
	} {
		require.NotNil(t, flags.Lookup(name), "flag %s", name)
	}
	require.Equal(t, "true", flags.Lookup("auto-download").DefValue)
	require.Equal(t, "true", flags.Lookup("silence-gate").DefValue)
	require.Equal(t, "-65", flags.Lookup("silence-threshold-dbfs").DefValue)
	require.Equal(t, "false", flags.Lookup("strict-summary").DefValue)
	require.Equal(t, ".env", flags.Lookup("env-file").DefValue)
}

func TestRootHelpParsesSuccessfully(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)
	for _, sub := range []string{"summarize", "transcribe", "watch", "serve", "setup", "version"} {
		require.Contains(t, out.String(), sub)
	}
}

func TestSubcommandHelpParsesSuccessfully(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "summarize", args: []string{"summarize", "--help"}, contains: "Transcribe and summarize meeting recordings"},
		{name: "transcribe", args: []string{"transcribe", "--help"}, contains: "Transcribe an audio file"},
		{name: "watch", args: []string{"watch", "--help"}, contains: "as they appear in a directory"},
		{name: "serve", args: []string{"serve", "--help"}, contains: "minimal upload form"},
		{name: "setup", args: []string{"setup", "--help"}, contains: "Download and verify speech model assets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewRootCmd()
			out := new(bytes.Buffer)
			cmd.SetOut(out)
			cmd.SetErr(out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.NoError(t, err)
			require.Contains(t, out.String(), tt.contains)
		})
	}
}

func TestRootWithoutArgsPrintsHelp(t *testing.T) {
	t.Parallel()

	stdout, _, err := runApp(t, testApp())
	require.NoError(t, err)
	require.Contains(t, stdout, "meetnotes [audio-file...]")
}

func TestConfigLayering(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
whisper:
  model: tiny
  language: DE
  auto_download: false
summary:
  provider: openai
  model: from-file
output:
  dir: /from/file
`), 0o600))

	app := testApp()
	app.lookup = func(key string) (string, bool) {
		switch key {
		case config.EnvSummaryModel:
			return "from-env", true
		case config.EnvOutputDir:
			return "/from/env", true
		case config.EnvOpenAIKey:
			return "sk-test", true
		}
		return "", false
	}

	cmd := newRootCmd(app)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"version",
		"--config", cfgPath,
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--output-dir", "/from/flag",
		"--engine", whisper.KindPython,
		"--quiet",
	})
	require.NoError(t, cmd.Execute())

	cfg := app.cfg
	require.Equal(t, "tiny", cfg.Whisper.Model, "file beats default")
	require.Equal(t, "de", cfg.Whisper.Language, "language is normalized")
	require.Equal(t, whisper.KindPython, cfg.Whisper.Engine, "flag beats default")
	require.Equal(t, "from-env", cfg.Summary.Model, "env beats file")
	require.Equal(t, "/from/flag", cfg.Output.Dir, "flag beats env")
	require.Equal(t, "sk-test", cfg.Summary.Credential())
	require.True(t, cfg.Output.Transcript)
	require.False(t, cfg.Whisper.AutoDownload, "file beats default")
	require.True(t, cfg.Logging.Quiet)
}

func TestAutoDownloadFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	app := testApp()
	app.lookup = func(key string) (string, bool) {
		if key == config.EnvAutoDownload {
			return "false", true
		}
		return "", false
	}

	_, _, err := runApp(t, app, "version", "--auto-download=true")
	require.NoError(t, err)
	require.True(t, app.cfg.Whisper.AutoDownload)
}

func TestMissingModelWithoutAutoDownload(t *testing.T) {
	t.Parallel()

	app := testApp()
	app.cfg.Whisper.Model = "tiny"
	app.cfg.Whisper.ModelDir = t.TempDir()
	app.cfg.Whisper.AutoDownload = false

	_, err := app.ensureModelAvailable(context.Background())
	require.ErrorIs(t, err, whisper.ErrEngineNotFound)
	require.ErrorContains(t, err, "meetnotes setup --model tiny")
}

func TestSanitizeLanguage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "auto", sanitizeLanguage(""))
	require.Equal(t, "auto", sanitizeLanguage("  "))
	require.Equal(t, "en", sanitizeLanguage(" EN "))
}
