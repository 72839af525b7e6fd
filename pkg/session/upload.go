package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFile rejects uploads that are not plain-text persona files.
var ErrUnsupportedFile = errors.New("unsupported file type (only .txt and .rtf)")

// ReadUploadFile reads a persona source file as raw text. Only .txt and
// .rtf extensions are accepted; RTF control codes pass through untouched.
func ReadUploadFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".txt" && ext != ".rtf" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	return string(data), nil
}

// DefaultProfileName derives a display name from the file name, dropping
// the extension.
func DefaultProfileName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
