package cli

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fmueller/meetnotes/internal/audio/audiotest"
	"github.com/fmueller/meetnotes/internal/media"
	"github.com/fmueller/meetnotes/internal/pipeline"
	"github.com/fmueller/meetnotes/internal/summarize"
	"github.com/fmueller/meetnotes/internal/transcribe"
	"github.com/fmueller/meetnotes/internal/whisper"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// testApp never reads the real environment, config files or engines.
func testApp() *appState {
	app := newAppState()
	app.lookup = func(string) (string, bool) { return "", false }
	app.preflightFn = func(context.Context, bool) error { return nil }
	app.now = func() time.Time { return fixedNow }
	return app
}

// runApp executes args against app with an empty config file and no dotenv.
func runApp(t *testing.T, app *appState, args ...string) (stdout string, stderr string, err error) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o600))

	cmd := newRootCmd(app)
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append(args, "--config", cfgPath, "--env-file", filepath.Join(dir, ".env"), "--no-progress"))

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

type fakeEngine struct {
	text string
	err  error
}

func (fakeEngine) Name() string { return "fake" }

func (e fakeEngine) Transcribe(context.Context, whisper.Request) (string, error) {
	return e.text, e.err
}

type fakeGenerator struct {
	text string
	err  error
}

func (fakeGenerator) Name() string { return "fake" }

func (g fakeGenerator) Generate(context.Context, string) (string, error) { return g.text, g.err }

// copyPreparer validates sizes like media.Validator but needs no ffmpeg.
type copyPreparer struct {
	dir string
}

func (p copyPreparer) Prepare(_ context.Context, blob media.Blob) (*media.TempAudio, error) {
	switch {
	case len(blob.Data) == 0:
		return nil, media.ErrEmptyInput
	case len(blob.Data) < media.MinBlobSize:
		return nil, fmt.Errorf("%w: got %d bytes", media.ErrTooSmallInput, len(blob.Data))
	}
	f, err := os.CreateTemp(p.dir, "audio-*"+blob.Ext())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Write(blob.Data); err != nil {
		return nil, err
	}
	return &media.TempAudio{Path: f.Name(), Data: blob.Data}, nil
}

func fakePipeline(t *testing.T, transcript string, gen summarize.Generator) func(context.Context, pipeline.Observer) (*pipeline.Pipeline, error) {
	t.Helper()

	dir := t.TempDir()
	return func(_ context.Context, obs pipeline.Observer) (*pipeline.Pipeline, error) {
		return &pipeline.Pipeline{
			Validator:   copyPreparer{dir: dir},
			Transcriber: &transcribe.Transcriber{Engine: fakeEngine{text: transcript}, ModelPath: "test.bin"},
			Summarizer:  &summarize.Summarizer{Generator: gen},
			Observer:    obs,
			Now:         func() time.Time { return fixedNow },
		}, nil
	}
}

func speechWAV() []byte {
	samples := make([]int16, 16000)
	for i := range samples {
		samples[i] = int16(7000 * math.Sin(float64(i)*2*math.Pi*200/16000))
	}
	return audiotest.PCM16(samples, 16000, 1)
}

func silentWAV() []byte {
	return audiotest.PCM16(make([]int16, 16000), 16000, 1)
}

func writeAudio(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
