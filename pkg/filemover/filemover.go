// Package filemover implements the source-file relocation step: once a
// document's terminal outcome is known it is moved into a processed/ or
// failed/ directory.
package filemover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

// DirMover implements pipeline.FileMover over plain directories on the
// same filesystem as the source documents.
type DirMover struct {
	ProcessedDir string
	FailedDir    string
}

// NewDirMover constructs a DirMover, creating both destination
// directories if they don't already exist.
func NewDirMover(processedDir, failedDir string) (*DirMover, error) {
	for _, dir := range []string{processedDir, failedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &DirMover{ProcessedDir: processedDir, FailedDir: failedDir}, nil
}

// MoveTo implements pipeline.FileMover.
func (m *DirMover) MoveTo(ctx context.Context, area pipeline.Area, sourcePath string) error {
	var destDir string
	switch area {
	case pipeline.AreaProcessed:
		destDir = m.ProcessedDir
	case pipeline.AreaFailed:
		destDir = m.FailedDir
	default:
		return fmt.Errorf("unknown file-movement area %q", area)
	}

	dest := filepath.Join(destDir, filepath.Base(sourcePath))
	if err := os.Rename(sourcePath, dest); err != nil {
		return fmt.Errorf("move %s to %s: %w", sourcePath, dest, err)
	}
	return nil
}

var _ pipeline.FileMover = (*DirMover)(nil)
