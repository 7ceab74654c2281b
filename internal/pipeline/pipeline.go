package pipeline

import (
	"context"
	"time"

	"github.com/fmueller/meetnotes/internal/media"
	"github.com/fmueller/meetnotes/internal/report"
	"github.com/fmueller/meetnotes/internal/summarize"
	"github.com/fmueller/meetnotes/internal/transcribe"
	"go.uber.org/zap"
)

type Preparer interface {
	Prepare(ctx context.Context, blob media.Blob) (*media.TempAudio, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio *media.TempAudio) (transcribe.Result, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (summarize.Result, error)
}

// Pipeline runs one blob through validation, transcription and summarization.
// It holds no per-run state, but callers must not run it concurrently when the
// engines behind it are not safe for that.
type Pipeline struct {
	Validator   Preparer
	Transcriber Transcriber
	Summarizer  Summarizer
	Observer    Observer
	Logger      *zap.Logger
	Now         func() time.Time
}

type Result struct {
	Report  report.Report
	Summary summarize.Result
}

// Run drives blob to StageAssembled. Validation and transcription failures end
// the run with an *Error; a failed summary is embedded in the report unless the
// summarizer is strict.
func (p *Pipeline) Run(ctx context.Context, blob media.Blob) (Result, error) {
	log := p.log().With(zap.String("audio", blob.SourceID()))

	p.emit(StageValidating, 10)
	tmp, err := p.Validator.Prepare(ctx, blob)
	if err != nil {
		return Result{}, p.fail(StageValidating, KindInputValidation, err)
	}
	log.Debug("audio validated", zap.String("path", tmp.Path), zap.Int("bytes", len(blob.Data)))

	p.emit(StageTranscribing, 30)
	transcript, err := p.Transcriber.Transcribe(ctx, tmp)
	// The transcriber owns tmp; this only matters if it returned early.
	tmp.Remove()
	if err != nil {
		return Result{}, p.fail(StageTranscribing, KindTranscription, err)
	}
	p.emit(StageTranscribing, 60)
	log.Info("transcript ready", zap.Int("chars", len(transcript.Text)))

	p.emit(StageSummarizing, 80)
	summary, err := p.Summarizer.Summarize(ctx, transcript.Text)
	if err != nil {
		return Result{}, p.fail(StageSummarizing, KindSummarization, err)
	}

	rep := report.New(blob.SourceID(), p.now(), transcript.Text, summary.Text, summary.Failed)
	p.emit(StageAssembled, 100)
	return Result{Report: rep, Summary: summary}, nil
}

// fail wraps err with the stage it happened in. Kind falls back to def when the
// error carries no sentinel of its own, so a missing probe found while
// validating is still a configuration error.
func (p *Pipeline) fail(stage Stage, def Kind, err error) error {
	kind := classify(err)
	if kind == KindUnknown {
		kind = def
	}
	p.observer().Observe(Event{Stage: StageFailed})
	p.log().Debug("pipeline failed", zap.Stringer("stage", stage), zap.Stringer("kind", kind), zap.Error(err))
	return &Error{Stage: stage, Kind: kind, Err: err}
}

func (p *Pipeline) emit(stage Stage, percent int) {
	p.observer().Observe(Event{Stage: stage, Percent: percent})
}

func (p *Pipeline) observer() Observer {
	if p.Observer == nil {
		return nopObserver{}
	}
	return p.Observer
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) log() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
