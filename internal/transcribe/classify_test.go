package transcribe

import (
	"errors"
	"testing"

	"github.com/fmueller/meetnotes/internal/whisper"
	"github.com/stretchr/testify/require"
)

func engineFailure(stderr string) error {
	return &whisper.RunError{Engine: whisper.KindCPP, Stderr: stderr, Err: errors.New("exit status 1")}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Failure
	}{
		{name: "nil", err: nil, want: FailureGeneric},
		{name: "reshape", err: errors.New("RuntimeError: cannot reshape tensor of 0 elements"), want: FailureUnsupportedFormat},
		{name: "whisper cpp read failure", err: errors.New("error: failed to read audio file 'x.m4a'"), want: FailureUnsupportedFormat},
		{name: "cuda", err: errors.New("CUDA error: no kernel image is available"), want: FailureAccelerator},
		{name: "cublas", err: errors.New("cuBLAS error 15 at ggml-cuda.cu"), want: FailureAccelerator},
		{name: "metal", err: errors.New("ggml_metal_init: error: load pipeline failed"), want: FailureAccelerator},
		{name: "mps", err: errors.New("NotImplementedError: operator not implemented for the MPS backend"), want: FailureAccelerator},
		{name: "vulkan", err: errors.New("ggml_vulkan: device lost"), want: FailureAccelerator},
		{name: "rocm", err: errors.New("HIP error: invalid device function"), want: FailureAccelerator},
		{name: "generic", err: errors.New("exit status 2"), want: FailureGeneric},
		{name: "engine stderr with gpu fault", err: engineFailure("ggml_cuda_init: found 1 CUDA devices\nCUDA error: out of memory"), want: FailureAccelerator},
		{name: "engine stderr with startup banner only", err: engineFailure("ggml_metal_init: picking default device: Apple M2\nerror: model file is truncated"), want: FailureGeneric},
		{name: "gpu word only in the audio path", err: engineFailure("error: failed to open /tmp/meetnotes-123.cuda"), want: FailureGeneric},
		{name: "gpu word only in a plain error path", err: errors.New("open /tmp/meetnotes-123.cuda: permission denied"), want: FailureGeneric},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestFailureString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "generic", FailureGeneric.String())
	require.Equal(t, "unsupported-format", FailureUnsupportedFormat.String())
	require.Equal(t, "accelerator", FailureAccelerator.String())
}
