package report

import (
	"strings"
	"time"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	// FileStampLayout is used in output file names.
	FileStampLayout = "20060102_150405"

	combinedTitle   = "Meeting Transcript and Summary"
	transcriptTitle = "Meeting Transcript"
	transcriptLabel = "ORIGINAL TRANSCRIPT:"
	summaryLabel    = "AI-GENERATED SUMMARY:"
)

var (
	heavyRule   = strings.Repeat("=", 60)
	sectionRule = strings.Repeat("-", 30)
	plainRule   = strings.Repeat("-", 50)
)

// Report is one finished run. It is built once and only read afterwards.
type Report struct {
	SourceID      string
	GeneratedAt   time.Time
	Transcript    string
	Summary       string
	SummaryFailed bool
}

func New(sourceID string, generatedAt time.Time, transcript, summary string, summaryFailed bool) Report {
	return Report{
		SourceID:      sourceID,
		GeneratedAt:   generatedAt,
		Transcript:    transcript,
		Summary:       summary,
		SummaryFailed: summaryFailed,
	}
}

// String renders the combined report.
func (r Report) String() string {
	return Assemble(r.SourceID, r.GeneratedAt, r.Transcript, r.Summary)
}

// TranscriptText renders the transcript-only file.
func (r Report) TranscriptText() string {
	return TranscriptOnly(r.SourceID, r.GeneratedAt, r.Transcript)
}

// Assemble renders the combined transcript and summary report. Transcript and
// summary are copied verbatim. The "Audio file:" line is only written when
// sourceID is set.
func Assemble(sourceID string, generatedAt time.Time, transcript, summary string) string {
	var b strings.Builder
	writeHeader(&b, combinedTitle, sourceID, generatedAt)
	b.WriteString(heavyRule)
	b.WriteString("\n\n")

	b.WriteString(transcriptLabel + "\n")
	b.WriteString(sectionRule + "\n")
	b.WriteString(transcript)
	b.WriteString("\n\n")

	b.WriteString(summaryLabel + "\n")
	b.WriteString(sectionRule + "\n")
	b.WriteString(summary)
	b.WriteString("\n")
	return b.String()
}

func TranscriptOnly(sourceID string, generatedAt time.Time, transcript string) string {
	var b strings.Builder
	writeHeader(&b, transcriptTitle, sourceID, generatedAt)
	b.WriteString(plainRule)
	b.WriteString("\n\n")
	b.WriteString(transcript)
	b.WriteString("\n")
	return b.String()
}

func writeHeader(b *strings.Builder, title, sourceID string, generatedAt time.Time) {
	b.WriteString(title + "\n")
	b.WriteString("Generated on: " + generatedAt.Format(TimestampLayout) + "\n")
	if sourceID != "" {
		b.WriteString("Audio file: " + sourceID + "\n")
	}
}
