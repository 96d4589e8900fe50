// Package storage keeps copies of generated exports on local disk, one
// directory per day.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/estr/backoffice/internal/application/port"
	"go.uber.org/zap"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

const dayLayout = "2006-01-02"

// DiskArchive writes exports to <root>/<yyyy-mm-dd>/<name>
type DiskArchive struct {
	root   string
	logger *zap.Logger
}

var _ port.ExportArchive = (*DiskArchive)(nil)

func NewDiskArchive(root string, logger *zap.Logger) *DiskArchive {
	return &DiskArchive{root: root, logger: logger}
}

// CleanName reduces name to [A-Za-z0-9-_.], turning spaces into underscores.
// Names that clean down to nothing or to dots only are rejected.
func CleanName(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeNameChars.ReplaceAllString(name, "")
	if strings.Trim(name, ".") == "" {
		return "", fmt.Errorf("export name %q has no usable characters", name)
	}
	return name, nil
}

// Archive stores content atomically; an existing file of the same name on
// the same day is replaced.
func (a *DiskArchive) Archive(ctx context.Context, at time.Time, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean, err := CleanName(name)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(a.root, at.Format(dayLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	target := filepath.Join(dir, clean)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move archive file into place: %w", err)
	}

	a.logger.Debug("Export archived",
		zap.String("path", target),
		zap.Int("bytes", len(content)))
	return target, nil
}
