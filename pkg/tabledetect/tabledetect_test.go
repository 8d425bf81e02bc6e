package tabledetect

import (
	"context"
	"image"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	byPage map[int][]Region
	calls  []int
}

func (s *stubDetector) Detect(ctx context.Context, page image.Image) ([]Region, error) {
	s.calls = append(s.calls, len(s.calls))
	return s.byPage[len(s.calls)-1], nil
}

func blankPage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 100, 100))
}

func TestDetectAndCropStopsAtFirstConfidentPage(t *testing.T) {
	det := &stubDetector{byPage: map[int][]Region{
		0: {{Bounds: image.Rect(0, 0, 10, 10), Confidence: 0.2}},
		1: {{Bounds: image.Rect(5, 5, 20, 20), Confidence: 0.9}},
		2: {{Bounds: image.Rect(0, 0, 5, 5), Confidence: 0.99}},
	}}
	d := NewDetector(det, log.New(nil))

	pages := []image.Image{blankPage(), blankPage(), blankPage()}
	crop, found, err := d.DetectAndCrop(context.Background(), pages, 0.5)

	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, crop)
	assert.Len(t, det.calls, 2, "must stop scanning once page 2 clears the confidence threshold")
}

func TestDetectAndCropReturnsNotFoundWhenNoRegionClearsThreshold(t *testing.T) {
	det := &stubDetector{byPage: map[int][]Region{
		0: {{Bounds: image.Rect(0, 0, 10, 10), Confidence: 0.1}},
	}}
	d := NewDetector(det, log.New(nil))

	_, found, err := d.DetectAndCrop(context.Background(), []image.Image{blankPage()}, 0.5)

	require.NoError(t, err)
	assert.False(t, found)
}

func TestDetectAndCropWithNilDetectorIsNoop(t *testing.T) {
	d := NewDetector(nil, log.New(nil))
	_, found, err := d.DetectAndCrop(context.Background(), []image.Image{blankPage()}, 0.5)
	require.NoError(t, err)
	assert.False(t, found)
}
