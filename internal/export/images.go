package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes images into a directory, creating it on first use.
type DirSink struct {
	Dir string
}

// DefaultImageDir is where page images go when no directory is configured:
// next to the source document.
func DefaultImageDir(pdfPath string) string {
	return filepath.Join(filepath.Dir(pdfPath), "extracted_images")
}

func (s DirSink) Save(name string, png []byte) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteContent writes the final document, creating parent directories.
func WriteContent(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
