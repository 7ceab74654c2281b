package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 3, 14, 9, 30, 5, 0, time.UTC)

func TestAssembleExactLayout(t *testing.T) {
	t.Parallel()

	got := Assemble("", fixedTime, "hello world", "- greeted everyone")
	want := "Meeting Transcript and Summary\n" +
		"Generated on: 2025-03-14 09:30:05\n" +
		"============================================================\n" +
		"\n" +
		"ORIGINAL TRANSCRIPT:\n" +
		"------------------------------\n" +
		"hello world\n" +
		"\n" +
		"AI-GENERATED SUMMARY:\n" +
		"------------------------------\n" +
		"- greeted everyone\n"
	require.Equal(t, want, got)
}

func TestAssembleWritesSourceLine(t *testing.T) {
	t.Parallel()

	got := Assemble("standup.m4a", fixedTime, "t", "s")
	lines := strings.Split(got, "\n")
	require.Equal(t, "Generated on: 2025-03-14 09:30:05", lines[1])
	require.Equal(t, "Audio file: standup.m4a", lines[2])
	require.Equal(t, strings.Repeat("=", 60), lines[3])
}

func TestAssembleKeepsTextVerbatim(t *testing.T) {
	t.Parallel()

	inputs := []struct{ transcript, summary string }{
		{"hello world", "- hi"},
		{"  padded  \n\nlines\t", "Error generating summary: quota exceeded"},
		{"ORIGINAL TRANSCRIPT:\nnested header", "AI-GENERATED SUMMARY:"},
		{"ünïcödé 会议", "* 要点"},
	}

	for _, in := range inputs {
		got := Assemble("a.wav", fixedTime, in.transcript, in.summary)

		transcriptAt := strings.Index(got, "ORIGINAL TRANSCRIPT:\n"+strings.Repeat("-", 30)+"\n")
		summaryAt := strings.LastIndex(got, "\n\nAI-GENERATED SUMMARY:\n")
		require.GreaterOrEqual(t, transcriptAt, 0)
		require.Greater(t, summaryAt, transcriptAt)

		body := got[transcriptAt+len("ORIGINAL TRANSCRIPT:\n")+31 : summaryAt]
		require.Equal(t, in.transcript, body)
		require.True(t, strings.HasSuffix(got, "------------------------------\n"+in.summary+"\n"))
	}
}

func TestAssembleTranscriptAppearsOnce(t *testing.T) {
	t.Parallel()

	got := Assemble("", fixedTime, "hello world", "- a greeting")
	require.Equal(t, 1, strings.Count(got, "hello world"))
}

func TestAssembleIdempotentExceptTimestamp(t *testing.T) {
	t.Parallel()

	a := Assemble("x.wav", fixedTime, "t", "s")
	b := Assemble("x.wav", fixedTime, "t", "s")
	require.Equal(t, a, b)

	c := Assemble("x.wav", fixedTime.Add(time.Hour), "t", "s")
	require.NotEqual(t, a, c)
	require.Equal(t, stripGenerated(a), stripGenerated(c))
}

func stripGenerated(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if !strings.HasPrefix(l, "Generated on: ") {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func TestTranscriptOnlyLayout(t *testing.T) {
	t.Parallel()

	got := TranscriptOnly("call.mp3", fixedTime, "we shipped")
	want := "Meeting Transcript\n" +
		"Generated on: 2025-03-14 09:30:05\n" +
		"Audio file: call.mp3\n" +
		strings.Repeat("-", 50) + "\n\n" +
		"we shipped\n"
	require.Equal(t, want, got)
}

func TestStem(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"standup.m4a":            "standup",
		"/tmp/rec/Team Sync.wav": "Team Sync",
		"":                       "meeting",
		"noext":                  "noext",
		"weird:name?.mp3":        "weird_name_",
	}
	for in, want := range tests {
		require.Equal(t, want, Stem(in), "input %q", in)
	}
}

func TestWriteCreatesTimestampedFiles(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	r := New("standup.wav", fixedTime, "hello world", "- hi", false)

	files, err := Write(r, WriteOptions{Dir: dir, TranscriptFile: true, Docx: true})
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "standup_meeting_summary_20250314_093005.txt"), files.ReportPath)
	require.Equal(t, filepath.Join(dir, "standup_transcript_20250314_093005.txt"), files.TranscriptPath)
	require.Equal(t, filepath.Join(dir, "standup_meeting_summary_20250314_093005.docx"), files.DocxPath)

	data, err := os.ReadFile(files.ReportPath)
	require.NoError(t, err)
	require.Equal(t, r.String(), string(data))

	data, err = os.ReadFile(files.TranscriptPath)
	require.NoError(t, err)
	require.Equal(t, r.TranscriptText(), string(data))

	info, err := os.Stat(files.DocxPath)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestWriteReportOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files, err := Write(New("", fixedTime, "t", "s", false), WriteOptions{Dir: dir})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "meeting_meeting_summary_20250314_093005.txt"), files.ReportPath)
	require.Empty(t, files.TranscriptPath)
	require.Empty(t, files.DocxPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestBullet(t *testing.T) {
	t.Parallel()

	rest, ok := bullet("- **Owner**: Ana")
	require.True(t, ok)
	require.Equal(t, "Owner: Ana", rest)

	_, ok = bullet("plain line")
	require.False(t, ok)
}

func TestWriteNeverOverwritesEarlierReports(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := New("/calls/monday/standup.wav", fixedTime, "monday notes", "- monday", false)
	second := New("/calls/tuesday/standup.wav", fixedTime, "tuesday notes", "- tuesday", false)
	opts := WriteOptions{Dir: dir, TranscriptFile: true}

	a, err := Write(first, opts)
	require.NoError(t, err)
	b, err := Write(second, opts)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "standup_meeting_summary_20250314_093005.txt"), a.ReportPath)
	require.Equal(t, filepath.Join(dir, "standup_meeting_summary_20250314_093005_2.txt"), b.ReportPath)
	require.Equal(t, filepath.Join(dir, "standup_transcript_20250314_093005_2.txt"), b.TranscriptPath)

	data, err := os.ReadFile(a.ReportPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "monday notes")

	data, err = os.ReadFile(b.ReportPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "tuesday notes")
}

func TestWriteSkipsNamesTakenByOtherOutputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := New("standup.wav", fixedTime, "hello world", "- hi", false)
	require.NoError(t, os.WriteFile(filepath.Join(dir, TranscriptName(r)), []byte("older"), 0o644))

	files, err := Write(r, WriteOptions{Dir: dir, TranscriptFile: true})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "standup_meeting_summary_20250314_093005_2.txt"), files.ReportPath)

	data, err := os.ReadFile(filepath.Join(dir, TranscriptName(r)))
	require.NoError(t, err)
	require.Equal(t, "older", string(data))
}
