package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// PythonEngine drives the openai-whisper `whisper` command. ModelPath carries
// the model name (tiny, base, ...); the tool manages its own weights.
type PythonEngine struct {
	Executable string
	Logger     *zap.Logger
}

func NewPythonEngine(executable string, logger *zap.Logger) (*PythonEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(executable) == "" {
		executable = "whisper"
	}

	path, err := exec.LookPath(executable)
	if err != nil {
		return nil, fmt.Errorf("%w: openai-whisper CLI %q is missing; install it with `pip install openai-whisper`: %v", ErrEngineNotFound, executable, err)
	}
	return &PythonEngine{Executable: path, Logger: logger}, nil
}

func (e *PythonEngine) Name() string { return KindPython }

func (e *PythonEngine) Transcribe(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", errors.New("audio path is required")
	}

	outDir, err := os.MkdirTemp("", "meetnotes-whisper-*")
	if err != nil {
		return "", fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := run(ctx, logger, e.Name(), e.Executable, pythonArgs(req, outDir)); err != nil {
		return "", err
	}

	base := filepath.Base(req.AudioPath)
	txt := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".txt")
	content, err := os.ReadFile(txt)
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	return strings.TrimSpace(string(content)), nil
}

func pythonArgs(req Request, outDir string) []string {
	model := strings.TrimSpace(req.ModelPath)
	if model == "" {
		model = DefaultModel
	}

	args := []string{
		req.AudioPath,
		"--model", model,
		"--output_dir", outDir,
		"--output_format", "txt",
		"--fp16", pyBool(req.HalfPrecision),
		"--verbose", pyBool(req.Verbose),
	}
	if lang := strings.TrimSpace(req.Language); lang != "" && lang != "auto" {
		args = append(args, "--language", lang)
	}
	if req.ForceCPU {
		args = append(args, "--device", "cpu")
	}
	return args
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
