package summarize

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

var (
	ErrMissingAPIKey   = errors.New("summary API key is not set")
	ErrUnknownProvider = errors.New("unknown summary provider")
	ErrEmptyResponse   = errors.New("empty response from summary engine")
)

type Options struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL points the OpenAI provider at a compatible endpoint.
	BaseURL string
	Logger  *zap.Logger
}

// New returns a generator for opts.Provider. No network client is created
// until the first Generate call.
func New(opts Options) (Generator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderGemini:
		return NewGemini(opts.APIKey, opts.Model, opts.Logger), nil
	case ProviderOpenAI:
		return NewOpenAI(opts.APIKey, opts.Model, opts.BaseURL, opts.Logger), nil
	default:
		return nil, fmt.Errorf("%w %q (known: %s, %s)", ErrUnknownProvider, opts.Provider, ProviderGemini, ProviderOpenAI)
	}
}
