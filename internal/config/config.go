package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fmueller/meetnotes/internal/media"
	"github.com/fmueller/meetnotes/internal/summarize"
	"github.com/fmueller/meetnotes/internal/transcribe"
	"github.com/fmueller/meetnotes/internal/whisper"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrInvalid           = errors.New("invalid configuration")
)

const (
	DefaultSilenceThresholdDBFS = transcribe.DefaultSilenceThresholdDBFS
	DefaultServeAddr            = "127.0.0.1:8080"
	// DefaultMaxUploadMB matches the upload limit of the hosted form.
	DefaultMaxUploadMB = 200
)

type Config struct {
	Whisper WhisperConfig `yaml:"whisper"`
	Probe   ProbeConfig   `yaml:"probe"`
	Summary SummaryConfig `yaml:"summary"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Serve   ServeConfig   `yaml:"serve"`
}

type WhisperConfig struct {
	Engine               string  `yaml:"engine"`
	BinaryPath           string  `yaml:"binary_path"`
	Model                string  `yaml:"model"`
	ModelDir             string  `yaml:"model_dir"`
	Language             string  `yaml:"language"`
	AutoDownload         bool    `yaml:"auto_download"`
	SilenceGate          bool    `yaml:"silence_gate"`
	SilenceThresholdDBFS float64 `yaml:"silence_threshold_dbfs"`
}

type ProbeConfig struct {
	Path    string `yaml:"path"`
	TempDir string `yaml:"temp_dir"`
}

type SummaryConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Strict   bool   `yaml:"strict"`

	geminiKey string
	openAIKey string
}

type OutputConfig struct {
	Dir        string `yaml:"dir"`
	Transcript bool   `yaml:"transcript"`
	Docx       bool   `yaml:"docx"`
}

type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
	Quiet   bool `yaml:"quiet"`
	JSON    bool `yaml:"json"`
}

type ServeConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

func Default() Config {
	return Config{
		Whisper: WhisperConfig{
			Engine:               whisper.KindCPP,
			Model:                whisper.DefaultModel,
			AutoDownload:         true,
			SilenceGate:          true,
			SilenceThresholdDBFS: DefaultSilenceThresholdDBFS,
		},
		Probe:   ProbeConfig{Path: media.DefaultProbe},
		Summary: SummaryConfig{Provider: summarize.ProviderGemini},
		Output:  OutputConfig{Dir: ".", Transcript: true},
		Serve:   ServeConfig{Addr: DefaultServeAddr, MaxUploadMB: DefaultMaxUploadMB},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is only
// an error when required is set, which is the case for an explicit --config.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}
	return cfg, nil
}

// Credential returns the API key for the configured provider. An explicit
// api_key wins over the provider's environment variable.
func (s SummaryConfig) Credential() string {
	if key := strings.TrimSpace(s.APIKey); key != "" {
		return key
	}
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case summarize.ProviderOpenAI:
		return s.openAIKey
	default:
		return s.geminiKey
	}
}

// CredentialEnv names the environment variable that supplies the key.
func (s SummaryConfig) CredentialEnv() string {
	if strings.EqualFold(strings.TrimSpace(s.Provider), summarize.ProviderOpenAI) {
		return EnvOpenAIKey
	}
	return EnvGeminiKey
}

// Validate normalizes values and fills unset fields with defaults.
func (c *Config) Validate() error {
	def := Default()

	c.Whisper.Engine = strings.TrimSpace(c.Whisper.Engine)
	switch c.Whisper.Engine {
	case "":
		c.Whisper.Engine = def.Whisper.Engine
	case whisper.KindCPP, whisper.KindPython:
	default:
		return fmt.Errorf("%w: whisper.engine %q (known: %s, %s)", ErrInvalid, c.Whisper.Engine, whisper.KindCPP, whisper.KindPython)
	}
	if strings.TrimSpace(c.Whisper.Model) == "" {
		c.Whisper.Model = def.Whisper.Model
	}
	if c.Whisper.SilenceThresholdDBFS == 0 {
		c.Whisper.SilenceThresholdDBFS = def.Whisper.SilenceThresholdDBFS
	}
	if c.Whisper.SilenceThresholdDBFS > 0 {
		return fmt.Errorf("%w: whisper.silence_threshold_dbfs must be negative, got %g", ErrInvalid, c.Whisper.SilenceThresholdDBFS)
	}

	if strings.TrimSpace(c.Probe.Path) == "" {
		c.Probe.Path = def.Probe.Path
	}

	c.Summary.Provider = strings.ToLower(strings.TrimSpace(c.Summary.Provider))
	switch c.Summary.Provider {
	case "":
		c.Summary.Provider = def.Summary.Provider
	case summarize.ProviderGemini, summarize.ProviderOpenAI:
	default:
		return fmt.Errorf("%w: summary.provider %q (known: %s, %s)", ErrInvalid, c.Summary.Provider, summarize.ProviderGemini, summarize.ProviderOpenAI)
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = def.Output.Dir
	}

	if strings.TrimSpace(c.Serve.Addr) == "" {
		c.Serve.Addr = def.Serve.Addr
	}
	if c.Serve.MaxUploadMB <= 0 {
		c.Serve.MaxUploadMB = def.Serve.MaxUploadMB
	}
	return nil
}

// RequireCredential fails when no key is available for the summary provider.
func (c *Config) RequireCredential() error {
	if c.Summary.Credential() == "" {
		return fmt.Errorf("%w: set %s or summary.api_key in the config file", ErrMissingCredential, c.Summary.CredentialEnv())
	}
	return nil
}
