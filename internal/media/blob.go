package media

import (
	"path/filepath"
	"strings"
	"unicode"
)

// MinBlobSize is the smallest buffer that can plausibly hold meaningful audio.
const MinBlobSize = 1024

const defaultExt = ".wav"

// Blob is an uploaded or read audio file held in memory for one pipeline run.
type Blob struct {
	Data []byte
	// Name is the original file name; only its extension is used.
	Name string
}

// Ext returns the lower-cased extension hint, ".wav" when there is none or
// when it contains anything other than letters and digits.
func (b Blob) Ext() string {
	ext := strings.ToLower(filepath.Ext(b.Name))
	if len(ext) < 2 || len(ext) > 10 {
		return defaultExt
	}
	for _, r := range ext[1:] {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return defaultExt
		}
	}
	return ext
}

// SourceID is the identifier printed in reports.
func (b Blob) SourceID() string {
	if strings.TrimSpace(b.Name) == "" {
		return ""
	}
	return filepath.Base(b.Name)
}
