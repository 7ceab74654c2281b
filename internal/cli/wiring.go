package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fmueller/meetnotes/internal/download"
	"github.com/fmueller/meetnotes/internal/media"
	"github.com/fmueller/meetnotes/internal/pipeline"
	"github.com/fmueller/meetnotes/internal/platform"
	"github.com/fmueller/meetnotes/internal/report"
	"github.com/fmueller/meetnotes/internal/summarize"
	"github.com/fmueller/meetnotes/internal/transcribe"
	"github.com/fmueller/meetnotes/internal/whisper"
	"go.uber.org/zap"
)

// ensureReady checks everything a run depends on before the first input is
// touched: the API credential, ffmpeg, the speech engine and its model.
func (a *appState) ensureReady(ctx context.Context, needSummary bool) error {
	if needSummary {
		if err := a.cfg.RequireCredential(); err != nil {
			return err
		}
	}
	if _, err := a.newValidator().ProbePath(); err != nil {
		return err
	}
	if _, err := a.newEngine(); err != nil {
		return err
	}
	if _, err := a.ensureModelAvailable(ctx); err != nil {
		return err
	}
	return nil
}

func (a *appState) newValidator() *media.Validator {
	return &media.Validator{
		Probe:   a.cfg.Probe.Path,
		TempDir: a.cfg.Probe.TempDir,
		Logger:  a.log(),
	}
}

func (a *appState) newEngine() (whisper.Engine, error) {
	return whisper.New(whisper.Options{
		Kind:       a.cfg.Whisper.Engine,
		Executable: a.cfg.Whisper.BinaryPath,
		Logger:     a.log(),
	})
}

func (a *appState) newTranscriber(ctx context.Context) (*transcribe.Transcriber, error) {
	model, err := a.ensureModelAvailable(ctx)
	if err != nil {
		return nil, err
	}

	return &transcribe.Transcriber{
		Engine:               whisper.NewLazy(a.cfg.Whisper.Engine, a.newEngine),
		ModelPath:            model,
		Language:             a.cfg.Whisper.Language,
		SilenceGate:          a.cfg.Whisper.SilenceGate,
		SilenceThresholdDBFS: a.cfg.Whisper.SilenceThresholdDBFS,
		Logger:               a.log(),
	}, nil
}

func (a *appState) newSummarizer() (*summarize.Summarizer, error) {
	gen, err := summarize.New(summarize.Options{
		Provider: a.cfg.Summary.Provider,
		APIKey:   a.cfg.Summary.Credential(),
		Model:    a.cfg.Summary.Model,
		BaseURL:  a.cfg.Summary.BaseURL,
		Logger:   a.log(),
	})
	if err != nil {
		return nil, err
	}
	return &summarize.Summarizer{Generator: gen, Strict: a.cfg.Summary.Strict, Logger: a.log()}, nil
}

func (a *appState) newPipeline(ctx context.Context, observer pipeline.Observer) (*pipeline.Pipeline, error) {
	tr, err := a.newTranscriber(ctx)
	if err != nil {
		return nil, err
	}
	sum, err := a.newSummarizer()
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Validator:   a.newValidator(),
		Transcriber: tr,
		Summarizer:  sum,
		Observer:    observer,
		Logger:      a.log(),
		Now:         a.now,
	}, nil
}

// ensureModelAvailable returns what the engine expects as its model argument:
// a ggml file for whisper.cpp, downloaded on demand, or the model name for the
// python tool, which manages its own weights.
func (a *appState) ensureModelAvailable(ctx context.Context) (string, error) {
	if a.cfg.Whisper.Engine == whisper.KindPython {
		return a.cfg.Whisper.Model, nil
	}

	modelDir, err := a.modelStorageDir()
	if err != nil {
		return "", err
	}

	resolved, err := whisper.ResolveModel(a.cfg.Whisper.Model, modelDir)
	if err != nil {
		return "", err
	}
	if !resolved.NeedsDownload {
		return resolved.Path, nil
	}

	if !a.cfg.Whisper.AutoDownload {
		return "", fmt.Errorf("%w: model %q is missing at %s; run `meetnotes setup --model %s` or use --auto-download=true",
			whisper.ErrEngineNotFound, resolved.Name, resolved.Path, resolved.Name)
	}

	a.log().Info("model not found, downloading", zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
	if err := download.File(ctx, download.Options{
		URL:            resolved.URL,
		Destination:    resolved.Path,
		ExpectedSHA256: resolved.SHA256,
		NoProgress:     a.noProgress,
		Logger:         a.log(),
	}); err != nil {
		return "", fmt.Errorf("download model %q: %w", resolved.Name, err)
	}
	return resolved.Path, nil
}

func (a *appState) modelStorageDir() (string, error) {
	dir, err := platform.ResolveModelDir(a.cfg.Whisper.ModelDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory %s: %w", dir, err)
	}
	return dir, nil
}

func (a *appState) writeReport(res pipeline.Result) (report.Files, error) {
	return report.Write(res.Report, report.WriteOptions{
		Dir:            a.cfg.Output.Dir,
		Docx:           a.cfg.Output.Docx,
		TranscriptFile: a.cfg.Output.Transcript,
	})
}

func fileSources(paths []string) []pipeline.Source {
	sources := make([]pipeline.Source, 0, len(paths))
	for _, path := range paths {
		path := filepath.Clean(path)
		sources = append(sources, pipeline.Source{
			Name: path,
			Load: func() (media.Blob, error) { return readBlob(path) },
		})
	}
	return sources
}

func readBlob(path string) (media.Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return media.Blob{}, fmt.Errorf("audio file not found: %w", err)
	}
	return media.Blob{Data: data, Name: path}, nil
}
