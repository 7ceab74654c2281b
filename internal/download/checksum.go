package download

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrChecksumMismatch = errors.New("checksum mismatch")

// VerifyFile checks the sha256 of the file at path. An empty expected digest
// skips the check.
func VerifyFile(path, expected string) error {
	expected = normalizeDigest(expected)
	if expected == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}
	return compareDigest(expected, hex.EncodeToString(h.Sum(nil)))
}

func compareDigest(expected, actual string) error {
	if expected != "" && expected != actual {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	return nil
}

func normalizeDigest(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
