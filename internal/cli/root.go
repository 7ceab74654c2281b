package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fmueller/meetnotes/internal/config"
	"github.com/fmueller/meetnotes/internal/logging"
	"github.com/fmueller/meetnotes/internal/pipeline"
	"github.com/fmueller/meetnotes/internal/platform"
	"github.com/fmueller/meetnotes/internal/transcribe"
	"github.com/fmueller/meetnotes/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

type appState struct {
	configPath string
	envFile    string
	verbose    bool
	quiet      bool
	jsonLogs   bool
	noProgress bool

	model         string
	modelDir      string
	language      string
	engine        string
	whisperPath   string
	probe         string
	autoDownload  bool
	silenceGate   bool
	silenceDBFS   float64
	provider      string
	summaryModel  string
	strictSummary bool
	outputDir     string
	docx          bool
	noTranscript  bool

	cfg    config.Config
	logger *zap.Logger
	now    func() time.Time
	out    io.Writer
	errOut io.Writer
	lookup func(string) (string, bool)

	preflightFn   func(ctx context.Context, needSummary bool) error
	pipelineFn    func(ctx context.Context, observer pipeline.Observer) (*pipeline.Pipeline, error)
	transcriberFn func(ctx context.Context) (*transcribe.Transcriber, error)
}

func newAppState() *appState {
	app := &appState{
		autoDownload: true,
		silenceGate:  true,
		silenceDBFS:  config.DefaultSilenceThresholdDBFS,
		now:          time.Now,
		lookup:       os.LookupEnv,
		cfg:          config.Default(),
	}
	app.preflightFn = app.ensureReady
	app.pipelineFn = app.newPipeline
	return app
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newAppState())
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetnotes [audio-file...]",
		Short: "Transcribe meeting recordings and summarize them with an LLM",
		Long: "meetnotes validates each recording with ffmpeg, transcribes it with a local whisper engine,\n" +
			"asks Gemini or an OpenAI-compatible model for bullet-point notes and writes a combined report.",
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           version.Resolve(),
		PersistentPreRunE: app.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return app.runSummarize(cmd.Context(), args)
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindGlobalFlags(cmd, app)
	bindTranscriptionFlags(cmd, app)
	bindSummaryFlags(cmd, app)

	cmd.AddCommand(newSummarizeCmd(app))
	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindGlobalFlags(cmd *cobra.Command, app *appState) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&app.configPath, "config", app.configPath, "Config file (default: meetnotes/config.yaml in the user config dir)")
	flags.StringVar(&app.envFile, "env-file", ".env", "Dotenv file with API keys; missing files are ignored")
	flags.BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	flags.BoolVarP(&app.quiet, "quiet", "q", app.quiet, "Only log warnings and errors")
	flags.BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
	flags.BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindTranscriptionFlags(cmd *cobra.Command, app *appState) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&app.model, "model", app.model, "Whisper model name or model file path (default: base)")
	flags.StringVar(&app.modelDir, "model-dir", app.modelDir, "Directory where models are stored")
	flags.StringVar(&app.language, "language", app.language, "Language code (auto|en|de|...) for transcription")
	flags.StringVar(&app.engine, "engine", app.engine, "Speech engine: whisper-cpp|openai-whisper")
	flags.StringVar(&app.whisperPath, "whisper-path", app.whisperPath, "Path to the speech engine executable")
	flags.StringVar(&app.probe, "ffmpeg", app.probe, "ffmpeg executable used to validate audio")
	flags.BoolVar(&app.autoDownload, "auto-download", app.autoDownload, "Automatically download missing models")
	flags.BoolVar(&app.silenceGate, "silence-gate", app.silenceGate, "Detect near-silent WAV audio and skip transcription")
	flags.Float64Var(&app.silenceDBFS, "silence-threshold-dbfs", app.silenceDBFS, "Silence gate threshold in dBFS")
}

func bindSummaryFlags(cmd *cobra.Command, app *appState) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&app.provider, "provider", app.provider, "Summary provider: gemini|openai")
	flags.StringVar(&app.summaryModel, "summary-model", app.summaryModel, "Model used for the summary")
	flags.BoolVar(&app.strictSummary, "strict-summary", app.strictSummary, "Fail the input when the summary cannot be generated")
	flags.StringVarP(&app.outputDir, "output-dir", "o", app.outputDir, "Directory for reports")
	flags.BoolVar(&app.docx, "docx", app.docx, "Also write the report as a .docx document")
	flags.BoolVar(&app.noTranscript, "no-transcript-file", app.noTranscript, "Skip the separate transcript file")
}

func newSummarizeCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <audio-file>...",
		Short: "Transcribe and summarize meeting recordings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runSummarize(cmd.Context(), args)
		},
	}
}

// setup builds the effective configuration: defaults, config file, dotenv,
// environment, then flags set on the command line.
func (a *appState) setup(cmd *cobra.Command, _ []string) error {
	if a.out == nil {
		a.out = cmd.OutOrStdout()
	}
	if a.errOut == nil {
		a.errOut = cmd.ErrOrStderr()
	}

	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}

	path, required := a.configPath, true
	if strings.TrimSpace(path) == "" {
		required = false
		if env, err := platform.CurrentEnv(); err == nil {
			path, _ = env.ConfigFile()
		}
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(a.lookup); err != nil {
		return err
	}
	a.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Verbose: cfg.Logging.Verbose,
		Quiet:   cfg.Logging.Quiet,
		JSON:    cfg.Logging.JSON,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *appState) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }

	if changed("verbose") {
		cfg.Logging.Verbose = a.verbose
	}
	if changed("quiet") {
		cfg.Logging.Quiet = a.quiet
	}
	if changed("json") {
		cfg.Logging.JSON = a.jsonLogs
	}
	if changed("model") {
		cfg.Whisper.Model = a.model
	}
	if changed("model-dir") {
		cfg.Whisper.ModelDir = a.modelDir
	}
	if changed("language") {
		cfg.Whisper.Language = a.language
	}
	if changed("engine") {
		cfg.Whisper.Engine = a.engine
	}
	if changed("auto-download") {
		cfg.Whisper.AutoDownload = a.autoDownload
	}
	if changed("whisper-path") {
		cfg.Whisper.BinaryPath = a.whisperPath
	}
	if changed("silence-gate") {
		cfg.Whisper.SilenceGate = a.silenceGate
	}
	if changed("silence-threshold-dbfs") {
		cfg.Whisper.SilenceThresholdDBFS = a.silenceDBFS
	}
	if changed("ffmpeg") {
		cfg.Probe.Path = a.probe
	}
	if changed("provider") {
		cfg.Summary.Provider = a.provider
	}
	if changed("summary-model") {
		cfg.Summary.Model = a.summaryModel
	}
	if changed("strict-summary") {
		cfg.Summary.Strict = a.strictSummary
	}
	if changed("output-dir") {
		cfg.Output.Dir = a.outputDir
	}
	if changed("docx") {
		cfg.Output.Docx = a.docx
	}
	if changed("no-transcript-file") {
		cfg.Output.Transcript = !a.noTranscript
	}
	cfg.Whisper.Language = sanitizeLanguage(cfg.Whisper.Language)
}

func (a *appState) runSummarize(ctx context.Context, paths []string) error {
	preflightFn := a.preflightFn
	if preflightFn == nil {
		preflightFn = a.ensureReady
	}
	pipelineFn := a.pipelineFn
	if pipelineFn == nil {
		pipelineFn = a.newPipeline
	}

	if err := preflightFn(ctx, true); err != nil {
		return err
	}

	bar := newStageProgress(a.progressEnabled())
	defer bar.Close()

	p, err := pipelineFn(ctx, bar)
	if err != nil {
		return err
	}

	failed := 0
	err = p.RunAll(ctx, fileSources(paths), func(o pipeline.Outcome) {
		bar.Reset()
		if !a.handleOutcome(o) {
			failed++
		}
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d recordings could not be processed", failed, len(paths))
	}
	return nil
}

// handleOutcome reports one finished input and writes its files. It returns
// false when the input failed.
func (a *appState) handleOutcome(o pipeline.Outcome) bool {
	log := a.log().With(zap.String("audio", o.Source))

	if o.Err != nil {
		kind := pipeline.KindOf(o.Err)
		log.Error("processing failed", zap.Stringer("kind", kind), zap.Error(o.Err))
		if !kind.Fatal() {
			fmt.Fprintf(a.errWriter(), "%s: %v\n", o.Source, o.Err)
		}
		return false
	}

	if o.Result.Summary.Failed {
		log.Warn("summary could not be generated; the report contains the error instead")
	}

	files, err := a.writeReport(o.Result)
	if err != nil {
		log.Error("failed to write report", zap.Error(err))
		fmt.Fprintf(a.errWriter(), "%s: %v\n", o.Source, err)
		return false
	}

	out := a.outWriter()
	fmt.Fprintf(out, "Summary for %s:\n%s\n\n", o.Source, o.Result.Report.Summary)
	fmt.Fprintf(out, "Report saved to: %s\n", files.ReportPath)
	if files.TranscriptPath != "" {
		fmt.Fprintf(out, "Transcript saved to: %s\n", files.TranscriptPath)
	}
	if files.DocxPath != "" {
		fmt.Fprintf(out, "Document saved to: %s\n", files.DocxPath)
	}
	return true
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress || a.cfg.Logging.JSON {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func (a *appState) errWriter() io.Writer {
	if a.errOut == nil {
		return os.Stderr
	}
	return a.errOut
}

func (a *appState) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "auto"
	}
	return trimmed
}

// IsConfigurationError reports whether err should be presented as a setup
// problem rather than a problem with one recording.
func IsConfigurationError(err error) bool {
	return pipeline.KindOf(err) == pipeline.KindConfiguration || errors.Is(err, pipeline.ErrNoInputs)
}
