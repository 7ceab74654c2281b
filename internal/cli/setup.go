package cli

import (
	"fmt"

	"github.com/fmueller/meetnotes/internal/download"
	"github.com/fmueller/meetnotes/internal/whisper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSetupCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Download and verify speech model assets and check external tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if probe, err := app.newValidator().ProbePath(); err != nil {
				app.log().Warn("ffmpeg unavailable", zap.Error(err))
				fmt.Fprintf(out, "ffmpeg: missing (%v)\n", err)
			} else {
				fmt.Fprintf(out, "ffmpeg: %s\n", probe)
			}

			if engine, err := app.newEngine(); err != nil {
				app.log().Warn("speech engine unavailable", zap.Error(err))
				fmt.Fprintf(out, "speech engine: missing (%v)\n", err)
			} else {
				fmt.Fprintf(out, "speech engine: %s\n", engine.Name())
			}

			if err := app.cfg.RequireCredential(); err != nil {
				fmt.Fprintf(out, "summary provider %s: no API key (%s)\n", app.cfg.Summary.Provider, app.cfg.Summary.CredentialEnv())
			} else {
				fmt.Fprintf(out, "summary provider %s: API key found\n", app.cfg.Summary.Provider)
			}

			if app.cfg.Whisper.Engine == whisper.KindPython {
				fmt.Fprintf(out, "Model %s is managed by openai-whisper\n", app.cfg.Whisper.Model)
				return nil
			}
			return app.installModel(cmd)
		},
	}
}

func (a *appState) installModel(cmd *cobra.Command) error {
	modelDir, err := a.modelStorageDir()
	if err != nil {
		return err
	}

	resolved, err := whisper.ResolveModel(a.cfg.Whisper.Model, modelDir)
	if err != nil {
		return err
	}
	if resolved.IsCustomPath {
		return fmt.Errorf("setup expects a named model; got custom path %s", resolved.Path)
	}

	if !resolved.NeedsDownload && resolved.SHA256 != "" {
		if err := download.VerifyFile(resolved.Path, resolved.SHA256); err != nil {
			a.log().Warn("model checksum verification failed; downloading fresh copy", zap.String("model", resolved.Name), zap.Error(err))
			resolved.NeedsDownload = true
		}
	}

	if !resolved.NeedsDownload {
		a.log().Info("model already present", zap.String("model", resolved.Name), zap.String("path", resolved.Path))
		fmt.Fprintf(cmd.OutOrStdout(), "Model %s already present at %s\n", resolved.Name, resolved.Path)
		return nil
	}

	a.log().Info("downloading model", zap.String("model", resolved.Name), zap.String("path", resolved.Path))
	if err := download.File(cmd.Context(), download.Options{
		URL:            resolved.URL,
		Destination:    resolved.Path,
		ExpectedSHA256: resolved.SHA256,
		NoProgress:     a.noProgress,
		Logger:         a.log(),
	}); err != nil {
		return fmt.Errorf("download model %s: %w", resolved.Name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Model %s installed at %s\n", resolved.Name, resolved.Path)
	return nil
}
