package transcribe

import (
	"errors"
	"strings"

	"github.com/fmueller/meetnotes/internal/whisper"
)

// Failure is the best-effort category of an engine error.
type Failure int

const (
	FailureGeneric Failure = iota
	// FailureUnsupportedFormat means the decoder produced a tensor it could not
	// reshape, which in practice is a corrupt or exotic container.
	FailureUnsupportedFormat
	// FailureAccelerator means the GPU path failed; a CPU run may still work.
	FailureAccelerator
)

func (f Failure) String() string {
	switch f {
	case FailureUnsupportedFormat:
		return "unsupported-format"
	case FailureAccelerator:
		return "accelerator"
	default:
		return "generic"
	}
}

var (
	reshapeSignatures = []string{
		"reshape tensor",
		"cannot reshape",
		"failed to read audio",
		"failed to read the frames of audio data",
	}
	acceleratorSignatures = []string{
		"cuda",
		"cublas",
		"cudnn",
		"ggml_metal",
		"metal:",
		"mps backend",
		"vulkan",
		"hip error",
		"rocm",
	}
	// errorMarkers pick the stderr lines that report a failure, leaving out
	// the device banners engines print while starting up.
	errorMarkers = []string{
		"error",
		"failed",
		"fatal",
		"abort",
		"exception",
		"out of memory",
		"not implemented",
		"device lost",
	}
)

// Classify maps an engine error to a Failure by matching its message. Engines
// expose no structured codes, so this is the one place that knows their wording.
func Classify(err error) Failure {
	if err == nil {
		return FailureGeneric
	}
	msg := strings.ToLower(err.Error())

	for _, sig := range reshapeSignatures {
		if strings.Contains(msg, sig) {
			return FailureUnsupportedFormat
		}
	}

	faults := acceleratorText(err)
	for _, sig := range acceleratorSignatures {
		if strings.Contains(faults, sig) {
			return FailureAccelerator
		}
	}
	return FailureGeneric
}

// acceleratorText is the part of err that may name a GPU fault: the error
// lines of a failed engine run's stderr, or the whole message otherwise. File
// paths are dropped in both cases.
func acceleratorText(err error) string {
	var runErr *whisper.RunError
	if !errors.As(err, &runErr) {
		return withoutPaths(strings.ToLower(err.Error()))
	}

	var b strings.Builder
	for _, line := range strings.Split(strings.ToLower(runErr.Stderr), "\n") {
		if isErrorLine(line) {
			b.WriteString(withoutPaths(line))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func isErrorLine(line string) bool {
	for _, marker := range errorMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func withoutPaths(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if strings.ContainsAny(f, `/\`) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
