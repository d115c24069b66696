package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Uploader stores generated artifacts (tweet dumps, changelogs, audio) and
// returns a URL for them.
type Uploader interface {
	UploadBytes(ctx context.Context, objectPath string, contentType string, data []byte) (string, error)
}

type localUploader struct {
	rootDir string
}

func NewLocalUploader(rootDir string) Uploader {
	if rootDir == "" {
		rootDir = "."
	}
	return &localUploader{rootDir: rootDir}
}

// UploadBytes writes data under rootDir through a temp file so readers never
// observe a partial artifact. contentType is unused on local disk.
func (u *localUploader) UploadBytes(ctx context.Context, objectPath string, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(objectPath))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", fmt.Errorf("invalid artifact path %q", objectPath)
	}
	dst := filepath.Join(u.rootDir, clean)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	abs, _ := filepath.Abs(dst)
	return "file://" + abs, nil
}
