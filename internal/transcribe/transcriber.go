package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fmueller/meetnotes/internal/audio"
	"github.com/fmueller/meetnotes/internal/media"
	"github.com/fmueller/meetnotes/internal/whisper"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat   = errors.New("audio file appears to be corrupted or in an unsupported format; try converting it to WAV first")
	ErrNoSpeechDetected    = errors.New("no speech detected in the audio file")
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// MinTranscriptLength is the shortest trimmed transcript accepted as speech.
const MinTranscriptLength = 3

// DefaultSilenceThresholdDBFS only catches near digital silence; quiet speech
// sits well above it.
const DefaultSilenceThresholdDBFS = -65.0

const blankAudioToken = "[BLANK_AUDIO]"

type Result struct {
	Text string
}

type Transcriber struct {
	Engine    whisper.Engine
	ModelPath string
	Language  string
	// SilenceGate skips the engine for WAV input whose level stays under
	// SilenceThresholdDBFS (zero means DefaultSilenceThresholdDBFS) and
	// reports ErrNoSpeechDetected directly.
	SilenceGate          bool
	SilenceThresholdDBFS float64
	Logger               *zap.Logger
}

// Transcribe takes ownership of audio and removes it before returning,
// whatever the outcome.
func (t *Transcriber) Transcribe(ctx context.Context, tmp *media.TempAudio) (Result, error) {
	defer tmp.Remove()

	if t.silent(tmp) {
		return Result{}, ErrNoSpeechDetected
	}

	req := whisper.Request{
		AudioPath: tmp.Path,
		ModelPath: t.ModelPath,
		Language:  t.Language,
	}

	started := time.Now()
	text, err := t.Engine.Transcribe(ctx, req)
	if err != nil && Classify(err) == FailureAccelerator && ctx.Err() == nil {
		t.log().Warn("accelerated transcription failed; retrying on CPU", zap.Error(err))
		req.ForceCPU = true
		text, err = t.Engine.Transcribe(ctx, req)
	}
	if err != nil {
		t.log().Warn("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return Result{}, wrapEngineError(err)
	}
	t.log().Info("transcription finished", zap.Duration("elapsed", time.Since(started)), zap.Bool("cpu", req.ForceCPU))

	return accept(text)
}

func accept(text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, blankAudioToken) {
		return Result{}, ErrNoSpeechDetected
	}
	if utf8.RuneCountInString(text) < MinTranscriptLength {
		return Result{}, fmt.Errorf("%w: transcript %q is too short, the audio may not contain clear speech", ErrNoSpeechDetected, text)
	}
	return Result{Text: text}, nil
}

func wrapEngineError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	if Classify(err) == FailureUnsupportedFormat {
		return fmt.Errorf("%w (%v)", ErrUnsupportedFormat, err)
	}
	return fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
}

func (t *Transcriber) silent(tmp *media.TempAudio) bool {
	if !t.SilenceGate || len(tmp.Data) == 0 {
		return false
	}

	threshold := t.SilenceThresholdDBFS
	if threshold == 0 {
		threshold = DefaultSilenceThresholdDBFS
	}

	silent, levels, err := audio.IsSilentWAV(tmp.Data, threshold)
	if err != nil {
		// Not a WAV we can read; let the engine decide.
		return false
	}
	if silent {
		t.log().Info("audio considered silent; skipping transcription",
			zap.Float64("rms_dbfs", levels.RMSdBFS),
			zap.Float64("peak_dbfs", levels.PeakdBFS),
			zap.Float64("threshold_dbfs", threshold),
			zap.Duration("duration", levels.Duration),
		)
	}
	return silent
}

func (t *Transcriber) log() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}
