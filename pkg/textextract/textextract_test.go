package textextract

import (
	"context"
	"image"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

func TestNewTesseractExtractorDefaultsLangToEnglish(t *testing.T) {
	e := NewTesseractExtractor("", log.New(nil))
	assert.Equal(t, "eng", e.Lang)
	assert.Equal(t, 6, e.PSM)
	assert.Equal(t, 3, e.OEM)
}

func TestNewTesseractExtractorKeepsExplicitLang(t *testing.T) {
	e := NewTesseractExtractor("hin", log.New(nil))
	assert.Equal(t, "hin", e.Lang)
}

func TestTesseractPerPageWithNoPagesReturnsEmptyWithoutShellingOut(t *testing.T) {
	e := NewTesseractExtractor("", log.New(nil))
	out, err := e.PerPage(context.Background(), "unused.pdf", nil, pipeline.TextExtractOptions{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestWriteTempPNGProducesAReadableFile(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	path, err := writeTempPNG(img, 1)
	require.NoError(t, err)
	defer os.Remove(path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestNativePerPageWithNonexistentFileErrors(t *testing.T) {
	e := &NativeExtractor{Logger: log.New(nil)}
	_, err := e.PerPage(context.Background(), "/nonexistent/deed.pdf", nil, pipeline.TextExtractOptions{})
	assert.Error(t, err)
}
