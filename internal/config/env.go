package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvGoogleKey    = "GOOGLE_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvOpenAIBase   = "OPENAI_BASE_URL"
	EnvProvider     = "MEETNOTES_PROVIDER"
	EnvSummaryModel = "MEETNOTES_SUMMARY_MODEL"
	EnvStrict       = "MEETNOTES_STRICT_SUMMARY"
	EnvEngine       = "MEETNOTES_ENGINE"
	EnvWhisperModel = "MEETNOTES_MODEL"
	EnvAutoDownload = "MEETNOTES_AUTO_DOWNLOAD"
	EnvLanguage     = "MEETNOTES_LANGUAGE"
	EnvProbe        = "MEETNOTES_FFMPEG"
	EnvOutputDir    = "MEETNOTES_OUTPUT_DIR"
)

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables that are already set keep their value and a missing file is fine.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// ApplyEnv overlays environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvGeminiKey); ok {
		c.Summary.geminiKey = v
	} else if v, ok := get(EnvGoogleKey); ok {
		c.Summary.geminiKey = v
	}
	if v, ok := get(EnvOpenAIKey); ok {
		c.Summary.openAIKey = v
	}
	if v, ok := get(EnvOpenAIBase); ok {
		c.Summary.BaseURL = v
	}
	if v, ok := get(EnvProvider); ok {
		c.Summary.Provider = v
	}
	if v, ok := get(EnvSummaryModel); ok {
		c.Summary.Model = v
	}
	if v, ok := get(EnvStrict); ok {
		strict, err := parseBool(EnvStrict, v)
		if err != nil {
			return err
		}
		c.Summary.Strict = strict
	}

	if v, ok := get(EnvEngine); ok {
		c.Whisper.Engine = v
	}
	if v, ok := get(EnvWhisperModel); ok {
		c.Whisper.Model = v
	}
	if v, ok := get(EnvAutoDownload); ok {
		auto, err := parseBool(EnvAutoDownload, v)
		if err != nil {
			return err
		}
		c.Whisper.AutoDownload = auto
	}
	if v, ok := get(EnvLanguage); ok {
		c.Whisper.Language = v
	}
	if v, ok := get(EnvProbe); ok {
		c.Probe.Path = v
	}
	if v, ok := get(EnvOutputDir); ok {
		c.Output.Dir = v
	}
	return nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, value)
	}
	return b, nil
}
