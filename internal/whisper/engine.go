package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

const (
	KindCPP    = "whisper-cpp"
	KindPython = "openai-whisper"
)

// Request is one transcription call. HalfPrecision and Verbose stay false for
// reproducible runs; ForceCPU is set when retrying after an accelerator fault.
type Request struct {
	AudioPath     string
	ModelPath     string
	Language      string
	HalfPrecision bool
	Verbose       bool
	ForceCPU      bool
}

type Engine interface {
	Name() string
	Transcribe(ctx context.Context, req Request) (string, error)
}

// RunError is returned when the engine process exits unsuccessfully. Stderr is
// kept so callers can classify the failure.
type RunError struct {
	Engine string
	Stderr string
	Err    error
}

func (e *RunError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s failed: %v", e.Engine, e.Err)
	}
	return fmt.Sprintf("%s failed: %v (%s)", e.Engine, e.Err, e.Stderr)
}

func (e *RunError) Unwrap() error { return e.Err }

var (
	ErrUnknownEngine  = errors.New("unknown speech engine")
	ErrEngineNotFound = errors.New("speech engine not found")
)

type Options struct {
	Kind       string
	Executable string
	Logger     *zap.Logger
}

// New builds the engine named by opts.Kind. An empty kind means whisper.cpp.
func New(opts Options) (Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	switch strings.TrimSpace(opts.Kind) {
	case "", KindCPP:
		return NewCPPEngine(opts.Executable, opts.Logger)
	case KindPython:
		return NewPythonEngine(opts.Executable, opts.Logger)
	default:
		return nil, fmt.Errorf("%w %q (known: %s, %s)", ErrUnknownEngine, opts.Kind, KindCPP, KindPython)
	}
}

func run(ctx context.Context, logger *zap.Logger, name, executable string, args []string) error {
	cmd := exec.CommandContext(ctx, executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	logger.Debug("running speech engine", zap.String("engine", executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return &RunError{Engine: name, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return nil
}
