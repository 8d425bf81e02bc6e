package filemover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

func TestNewDirMoverCreatesDestinationDirectories(t *testing.T) {
	base := t.TempDir()
	processed := filepath.Join(base, "processed")
	failed := filepath.Join(base, "failed")

	_, err := NewDirMover(processed, failed)
	require.NoError(t, err)

	assert.DirExists(t, processed)
	assert.DirExists(t, failed)
}

func TestMoveToRelocatesFileToProcessedArea(t *testing.T) {
	base := t.TempDir()
	mover, err := NewDirMover(filepath.Join(base, "processed"), filepath.Join(base, "failed"))
	require.NoError(t, err)

	src := filepath.Join(base, "deed.pdf")
	require.NoError(t, os.WriteFile(src, []byte("pdf bytes"), 0o644))

	err = mover.MoveTo(context.Background(), pipeline.AreaProcessed, src)
	require.NoError(t, err)

	assert.NoFileExists(t, src)
	assert.FileExists(t, filepath.Join(base, "processed", "deed.pdf"))
}

func TestMoveToRelocatesFileToFailedArea(t *testing.T) {
	base := t.TempDir()
	mover, err := NewDirMover(filepath.Join(base, "processed"), filepath.Join(base, "failed"))
	require.NoError(t, err)

	src := filepath.Join(base, "bad.pdf")
	require.NoError(t, os.WriteFile(src, []byte("pdf bytes"), 0o644))

	err = mover.MoveTo(context.Background(), pipeline.AreaFailed, src)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(base, "failed", "bad.pdf"))
}

func TestMoveToRejectsUnknownArea(t *testing.T) {
	base := t.TempDir()
	mover, err := NewDirMover(filepath.Join(base, "processed"), filepath.Join(base, "failed"))
	require.NoError(t, err)

	src := filepath.Join(base, "deed.pdf")
	require.NoError(t, os.WriteFile(src, []byte("pdf bytes"), 0o644))

	err = mover.MoveTo(context.Background(), pipeline.Area("quarantine"), src)
	assert.Error(t, err)
}
