package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrSummarizationFailed = errors.New("summary generation failed")

// FailurePrefix starts the summary text that stands in for a failed engine call.
const FailurePrefix = "Error generating summary: "

const promptTemplate = "You are an expert note taker. Using the following transcript of a meeting, " +
	"generate a bullet point formatted summary. Do not speculate, use details from the given transcript alone.\n\n" +
	"Transcript: [%s]"

// Prompt renders the fixed summary prompt around transcript.
func Prompt(transcript string) string {
	return fmt.Sprintf(promptTemplate, transcript)
}

// Generator is a hosted text model that turns a prompt into text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

type Result struct {
	Text string
	// Failed marks Text as the degraded error message rather than a summary.
	Failed bool
}

type Summarizer struct {
	Generator Generator
	// Strict returns ErrSummarizationFailed instead of a degraded Result.
	Strict bool
	Logger *zap.Logger
}

// Summarize asks the generator once. Without Strict it never returns an error:
// a failed call becomes a Result whose Text explains the failure.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (Result, error) {
	started := time.Now()
	text, err := s.Generator.Generate(ctx, Prompt(transcript))
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		s.log().Warn("summary generation failed",
			zap.String("engine", s.Generator.Name()),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		if s.Strict {
			return Result{}, fmt.Errorf("%w: %w", ErrSummarizationFailed, err)
		}
		return Result{Text: FailurePrefix + err.Error(), Failed: true}, nil
	}

	s.log().Info("summary generated",
		zap.String("engine", s.Generator.Name()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return Result{Text: strings.TrimSpace(text)}, nil
}

func (s *Summarizer) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
