package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// CPPEngine drives a whisper.cpp `whisper-cli` binary.
type CPPEngine struct {
	Executable string
	Logger     *zap.Logger
}

// NewCPPEngine resolves whisper-cli in this order: explicit path,
// MEETNOTES_WHISPER_PATH, the release layout next to the meetnotes binary, PATH.
func NewCPPEngine(executable string, logger *zap.Logger) (*CPPEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if override := strings.TrimSpace(executable); override != "" {
		if err := ensureExecutable(override); err != nil {
			return nil, fmt.Errorf("%w: whisper executable %s: %w", ErrEngineNotFound, override, err)
		}
		return &CPPEngine{Executable: override, Logger: logger}, nil
	}

	if override := strings.TrimSpace(os.Getenv("MEETNOTES_WHISPER_PATH")); override != "" {
		if err := ensureExecutable(override); err != nil {
			return nil, fmt.Errorf("%w: MEETNOTES_WHISPER_PATH is not executable: %w", ErrEngineNotFound, err)
		}
		return &CPPEngine{Executable: override, Logger: logger}, nil
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve meetnotes executable path: %w", err)
	}
	if path, err := ResolveBundledPath(self); err == nil {
		return &CPPEngine{Executable: path, Logger: logger}, nil
	}
	if path, err := exec.LookPath(cliBinaryName()); err == nil {
		return &CPPEngine{Executable: path, Logger: logger}, nil
	}

	return nil, fmt.Errorf("%w: whisper-cli not found near %s or on PATH; install whisper.cpp or set MEETNOTES_WHISPER_PATH", ErrEngineNotFound, self)
}

func ResolveBundledPath(selfExecutable string) (string, error) {
	for _, candidate := range BundledPathCandidates(selfExecutable) {
		if err := ensureExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("bundled whisper engine not found near %s, expected at ../libexec/whisper/%s", selfExecutable, cliBinaryName())
}

func BundledPathCandidates(selfExecutable string) []string {
	binDir := filepath.Dir(selfExecutable)
	name := cliBinaryName()
	target := runtime.GOOS + "_" + normalizeArch(runtime.GOARCH)

	return []string{
		filepath.Join(binDir, "..", "libexec", "whisper", name),
		filepath.Join(binDir, "libexec", "whisper", name),
		filepath.Join(binDir, "packaging", "whisper", target, name),
		filepath.Join(binDir, name),
	}
}

func (e *CPPEngine) Name() string { return KindCPP }

func (e *CPPEngine) Transcribe(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", errors.New("audio path is required")
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return "", errors.New("model path is required")
	}
	if err := ensureExecutable(e.Executable); err != nil {
		return "", fmt.Errorf("whisper engine missing or not executable: %w", err)
	}

	outDir, err := os.MkdirTemp("", "meetnotes-whisper-*")
	if err != nil {
		return "", fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)
	outBase := filepath.Join(outDir, "transcript")

	err = run(ctx, e.logger(), e.Name(), e.Executable, cppArgs(req, outBase))
	if err != nil {
		var runErr *RunError
		if errors.As(err, &runErr) {
			if isMissingSharedLibrary(runErr.Stderr) {
				return "", fmt.Errorf("whisper engine at %s is missing required shared libraries; rebuild whisper-cli with BUILD_SHARED_LIBS=OFF: %w", e.Executable, err)
			}
			if isIllegalInstruction(runErr.Stderr) || isIllegalInstruction(runErr.Err.Error()) {
				return "", fmt.Errorf("whisper engine crashed with an illegal CPU instruction; set MEETNOTES_WHISPER_PATH to a whisper-cli built for this CPU: %w", err)
			}
		}
		return "", err
	}

	content, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	return strings.TrimSpace(string(content)), nil
}

// whisper.cpp has no fp16 switch on the CLI; weights run in the precision the
// model file was converted with, so HalfPrecision is not mapped.
func cppArgs(req Request, outBase string) []string {
	args := []string{"-m", req.ModelPath, "-f", req.AudioPath, "-nt", "-otxt", "-of", outBase}
	if lang := strings.TrimSpace(req.Language); lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}
	if req.ForceCPU {
		args = append(args, "-ng")
	}
	if !req.Verbose {
		args = append(args, "-np")
	}
	return args
}

func (e *CPPEngine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func cliBinaryName() string {
	if runtime.GOOS == "windows" {
		return "whisper-cli.exe"
	}
	return "whisper-cli"
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func isMissingSharedLibrary(stderr string) bool {
	value := strings.ToLower(strings.TrimSpace(stderr))
	if value == "" {
		return false
	}
	for _, pattern := range []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	} {
		if strings.Contains(value, pattern) {
			return true
		}
	}
	return false
}

func isIllegalInstruction(text string) bool {
	return strings.Contains(strings.ToLower(text), "illegal instruction")
}

func normalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}
