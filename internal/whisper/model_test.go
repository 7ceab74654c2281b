package whisper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveModel(t *testing.T) {
	t.Parallel()

	modelDir := t.TempDir()
	present := filepath.Join(modelDir, "ggml-tiny.bin")
	require.NoError(t, os.WriteFile(present, []byte("ok"), 0o644))
	custom := filepath.Join(t.TempDir(), "meeting-finetune.bin")
	require.NoError(t, os.WriteFile(custom, []byte("x"), 0o644))

	tests := []struct {
		name string
		ref  string
		want ResolvedModel
	}{
		{
			name: "empty ref uses the default",
			ref:  "",
			want: ResolvedModel{
				Name:          DefaultModel,
				Path:          filepath.Join(modelDir, "ggml-base.bin"),
				URL:           hfBase + "ggml-base.bin",
				SHA256:        registry[DefaultModel].SHA256,
				NeedsDownload: true,
			},
		},
		{
			name: "downloaded named model",
			ref:  " tiny ",
			want: ResolvedModel{
				Name:   "tiny",
				Path:   present,
				URL:    hfBase + "ggml-tiny.bin",
				SHA256: registry["tiny"].SHA256,
			},
		},
		{
			name: "custom file",
			ref:  custom,
			want: ResolvedModel{Name: "meeting-finetune.bin", Path: custom, IsCustomPath: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveModel(tt.ref, modelDir)
			require.NoError(t, err)
			require.Equal(t, tt.want.Name, got.Name)
			require.Equal(t, tt.want.Path, got.Path)
			require.Equal(t, tt.want.URL, got.URL)
			require.Equal(t, tt.want.SHA256, got.SHA256)
			require.Equal(t, tt.want.NeedsDownload, got.NeedsDownload)
			require.Equal(t, tt.want.IsCustomPath, got.IsCustomPath)
		})
	}
}

func TestResolveModelRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref, dir, msg string
	}{
		{ref: "super-huge", dir: t.TempDir(), msg: "unknown model"},
		{ref: "/no/such/model.bin", dir: t.TempDir(), msg: "custom model path does not exist"},
		{ref: "tiny", dir: "", msg: "model directory must not be empty"},
	}
	for _, tt := range tests {
		_, err := ResolveModel(tt.ref, tt.dir)
		require.ErrorContains(t, err, tt.msg, tt.ref)
	}
}

func TestEveryRegistryModelIsDownloadable(t *testing.T) {
	t.Parallel()

	names := ModelNames()
	require.Contains(t, names, DefaultModel)
	for _, name := range names {
		model, ok := LookupModel(name)
		require.True(t, ok)
		require.Lenf(t, model.SHA256, 64, "model %s needs a pinned sha256", name)
		require.Equal(t, hfBase+model.FileName, model.URL())
	}
}
