package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Files lists what Write produced. DocxPath is empty unless docx output was asked for.
type Files struct {
	ReportPath     string
	TranscriptPath string
	DocxPath       string
}

type WriteOptions struct {
	Dir  string
	Docx bool
	// TranscriptFile also writes the transcript on its own.
	TranscriptFile bool
}

// Stem derives the file name prefix from a source id: the base name without
// its extension, or "meeting" when nothing usable is left.
func Stem(sourceID string) string {
	base := filepath.Base(strings.TrimSpace(sourceID))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, base)
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "meeting"
	}
	return base
}

func ReportName(r Report) string {
	return fmt.Sprintf("%s_meeting_summary_%s.txt", Stem(r.SourceID), r.GeneratedAt.Format(FileStampLayout))
}

func TranscriptName(r Report) string {
	return fmt.Sprintf("%s_transcript_%s.txt", Stem(r.SourceID), r.GeneratedAt.Format(FileStampLayout))
}

func DocxName(r Report) string {
	return fmt.Sprintf("%s_meeting_summary_%s.docx", Stem(r.SourceID), r.GeneratedAt.Format(FileStampLayout))
}

// maxNameAttempts bounds the numbered suffixes Write tries before giving up.
const maxNameAttempts = 1000

// Write serializes r into opts.Dir, creating the directory when needed. Files
// that already exist are never overwritten: when a name is taken, all outputs
// of this report get the next free "_<n>" suffix.
func Write(r Report, opts WriteOptions) (Files, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("create output directory: %w", err)
	}

	files, err := claimReport(dir, r, opts)
	if err != nil {
		return Files{}, err
	}

	if files.TranscriptPath != "" {
		if err := writeExclusive(files.TranscriptPath, []byte(r.TranscriptText())); err != nil {
			return files, fmt.Errorf("write transcript: %w", err)
		}
	}

	if files.DocxPath != "" {
		if err := WriteDocx(r, files.DocxPath); err != nil {
			return files, fmt.Errorf("write docx: %w", err)
		}
	}
	return files, nil
}

// claimReport writes the report under the first free name and returns the
// matching names for the other outputs.
func claimReport(dir string, r Report, opts WriteOptions) (Files, error) {
	for n := 1; n <= maxNameAttempts; n++ {
		suffix := ""
		if n > 1 {
			suffix = fmt.Sprintf("_%d", n)
		}

		files := Files{ReportPath: filepath.Join(dir, withSuffix(ReportName(r), suffix))}
		if opts.TranscriptFile {
			files.TranscriptPath = filepath.Join(dir, withSuffix(TranscriptName(r), suffix))
		}
		if opts.Docx {
			files.DocxPath = filepath.Join(dir, withSuffix(DocxName(r), suffix))
		}
		if exists(files.TranscriptPath) || exists(files.DocxPath) {
			continue
		}

		err := writeExclusive(files.ReportPath, []byte(r.String()))
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return Files{}, fmt.Errorf("write report: %w", err)
		}
		return files, nil
	}
	return Files{}, fmt.Errorf("write report: no free file name for %s in %s", ReportName(r), dir)
}

func withSuffix(name, suffix string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Lstat(path)
	return err == nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
