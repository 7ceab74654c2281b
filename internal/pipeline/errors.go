package pipeline

import (
	"errors"

	"github.com/fmueller/meetnotes/internal/config"
	"github.com/fmueller/meetnotes/internal/media"
	"github.com/fmueller/meetnotes/internal/summarize"
	"github.com/fmueller/meetnotes/internal/transcribe"
	"github.com/fmueller/meetnotes/internal/whisper"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration aborts the whole run, not just the current input.
	KindConfiguration
	KindInputValidation
	KindTranscription
	KindSummarization
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInputValidation:
		return "input validation"
	case KindTranscription:
		return "transcription"
	case KindSummarization:
		return "summarization"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind should stop processing further inputs.
func (k Kind) Fatal() bool { return k == KindConfiguration }

// Error records where a run stopped.
type Error struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	return e.Kind.String() + " error while " + e.Stage.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf maps err to its Kind. Errors returned by Run carry their kind; other
// errors are matched against the package sentinels.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, media.ErrMissingDependency),
		errors.Is(err, config.ErrMissingCredential),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, summarize.ErrMissingAPIKey),
		errors.Is(err, summarize.ErrUnknownProvider),
		errors.Is(err, whisper.ErrUnknownEngine),
		errors.Is(err, whisper.ErrEngineNotFound):
		return KindConfiguration
	case errors.Is(err, media.ErrEmptyInput),
		errors.Is(err, media.ErrTooSmallInput),
		errors.Is(err, media.ErrInvalidFormat):
		return KindInputValidation
	case errors.Is(err, transcribe.ErrUnsupportedFormat),
		errors.Is(err, transcribe.ErrNoSpeechDetected),
		errors.Is(err, transcribe.ErrTranscriptionFailed):
		return KindTranscription
	case errors.Is(err, summarize.ErrSummarizationFailed):
		return KindSummarization
	default:
		return KindUnknown
	}
}
