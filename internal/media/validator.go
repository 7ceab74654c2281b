package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrEmptyInput        = errors.New("audio file is empty")
	ErrTooSmallInput     = errors.New("audio file is too small (less than 1KB); check that the file is valid")
	ErrInvalidFormat     = errors.New("invalid audio file format or corrupted file")
	ErrMissingDependency = errors.New("ffmpeg not found; install ffmpeg and make sure it is on PATH")
)

const DefaultProbe = "ffmpeg"

// Validator decides whether a Blob plausibly holds audio before any model runs.
type Validator struct {
	// Probe is the ffmpeg executable, a name looked up on PATH or a path.
	Probe string
	// TempDir holds the scratch copies; empty means os.TempDir().
	TempDir string
	Logger  *zap.Logger
}

// TempAudio is a scratch copy of a validated blob. Whoever holds it must call
// Remove.
type TempAudio struct {
	Path string
	Data []byte

	once   sync.Once
	logger *zap.Logger
}

// Remove deletes the scratch file. It is safe to call more than once; failures
// are logged and otherwise ignored.
func (t *TempAudio) Remove() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		if err := os.Remove(t.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if t.logger != nil {
				t.logger.Warn("failed to remove temporary audio", zap.String("path", t.Path), zap.Error(err))
			}
		}
	})
}

// Check validates blob and always removes the scratch file it creates.
func (v *Validator) Check(ctx context.Context, blob Blob) error {
	tmp, err := v.Prepare(ctx, blob)
	if err != nil {
		return err
	}
	tmp.Remove()
	return nil
}

// Prepare validates blob and, on success, hands the caller a scratch copy on
// disk. On failure nothing is left behind.
func (v *Validator) Prepare(ctx context.Context, blob Blob) (*TempAudio, error) {
	switch {
	case len(blob.Data) == 0:
		return nil, ErrEmptyInput
	case len(blob.Data) < MinBlobSize:
		return nil, fmt.Errorf("%w: got %d bytes", ErrTooSmallInput, len(blob.Data))
	}

	probe, err := v.ProbePath()
	if err != nil {
		return nil, err
	}

	tmp, err := v.persist(blob)
	if err != nil {
		return nil, err
	}

	if err := v.probe(ctx, probe, tmp.Path); err != nil {
		tmp.Remove()
		return nil, err
	}
	return tmp, nil
}

// ProbePath resolves the probing tool. Its absence is ErrMissingDependency,
// which callers treat as fatal rather than per-input.
func (v *Validator) ProbePath() (string, error) {
	name := strings.TrimSpace(v.Probe)
	if name == "" {
		name = DefaultProbe
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	return path, nil
}

func (v *Validator) persist(blob Blob) (*TempAudio, error) {
	f, err := os.CreateTemp(v.TempDir, "meetnotes-*"+blob.Ext())
	if err != nil {
		return nil, fmt.Errorf("create temporary audio file: %w", err)
	}
	tmp := &TempAudio{Path: f.Name(), Data: blob.Data, logger: v.log()}

	if _, err := f.Write(blob.Data); err != nil {
		_ = f.Close()
		tmp.Remove()
		return nil, fmt.Errorf("write temporary audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		tmp.Remove()
		return nil, fmt.Errorf("close temporary audio file: %w", err)
	}
	return tmp, nil
}

func (v *Validator) probe(ctx context.Context, probe, path string) error {
	cmd := exec.CommandContext(ctx, probe, "-v", "quiet", "-i", path, "-f", "null", "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	v.log().Debug("probing audio", zap.String("probe", probe), zap.String("path", path))
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("%w: ffmpeg exited with status %d (%s)", ErrInvalidFormat, exitErr.ExitCode(), detail)
		}
		return fmt.Errorf("%w: ffmpeg exited with status %d", ErrInvalidFormat, exitErr.ExitCode())
	}
	return fmt.Errorf("run ffmpeg: %w", err)
}

func (v *Validator) log() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}
