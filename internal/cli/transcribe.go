package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fmueller/meetnotes/internal/report"
	"github.com/fmueller/meetnotes/internal/transcribe"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file without summarizing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := app.transcribeFile(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, transcribe.ErrNoSpeechDetected) {
					app.log().Warn(noSpeechHint())
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), transcript)
			if !save {
				return nil
			}

			path := filepath.Join(app.cfg.Output.Dir, report.TranscriptName(report.Report{SourceID: args[0], GeneratedAt: app.clock()}))
			if err := os.MkdirAll(app.cfg.Output.Dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			content := report.TranscriptOnly(filepath.Base(args[0]), app.clock(), transcript)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write transcript: %w", err)
			}
			app.log().Info("transcript saved", zap.String("path", path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Also write a transcript file to the output directory")
	return cmd
}

func (a *appState) transcribeFile(ctx context.Context, audioPath string) (string, error) {
	audioPath = filepath.Clean(audioPath)
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file not found: %w", err)
	}

	preflightFn := a.preflightFn
	if preflightFn == nil {
		preflightFn = a.ensureReady
	}
	if err := preflightFn(ctx, false); err != nil {
		return "", err
	}

	blob, err := readBlob(audioPath)
	if err != nil {
		return "", err
	}
	tmp, err := a.newValidator().Prepare(ctx, blob)
	if err != nil {
		return "", err
	}

	tr, err := a.transcriberFor(ctx)
	if err != nil {
		tmp.Remove()
		return "", err
	}

	a.log().Info("transcribing...", zap.String("audio", audioPath), zap.String("model", tr.ModelPath), zap.String("language", tr.Language))
	stopSpinner := startSpinner(a.progressEnabled(), "Transcribing")
	res, err := tr.Transcribe(ctx, tmp)
	stopSpinner()
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (a *appState) transcriberFor(ctx context.Context) (*transcribe.Transcriber, error) {
	if a.transcriberFn != nil {
		return a.transcriberFn(ctx)
	}
	return a.newTranscriber(ctx)
}

func noSpeechHint() string {
	return "No speech detected. Check that the recording is not muted or empty, then try again."
}
