// Package filex contains file-system helpers for the SQLite store and the
// recipe image uploader.
package filex

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize caps recipe image uploads.
const MaxImageSize = 10 << 20

var ErrNotAnImage = errors.New("file is not an image")

// EnsureParentDir creates the directory that will hold path, if any.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ReadImage loads an image file and sniffs its content type.
func ReadImage(path string) ([]byte, string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if fi.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", path)
	}
	if fi.Size() > MaxImageSize {
		return nil, "", fmt.Errorf("%s is larger than %d bytes", path, MaxImageSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%w: %s", ErrNotAnImage, contentType)
	}

	return data, contentType, nil
}
