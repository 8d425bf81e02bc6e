package raster

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSkipsNarrowImages(t *testing.T) {
	r := &PopplerRasterizer{TargetWidth: 2000}
	img := image.NewRGBA(image.Rect(0, 0, 2100, 3000)) // under the 1.2x threshold
	out := r.normalize(img)
	assert.Equal(t, 2100, out.Bounds().Dx())
}

func TestNormalizeResizesWideImages(t *testing.T) {
	r := &PopplerRasterizer{TargetWidth: 2000}
	img := image.NewRGBA(image.Rect(0, 0, 4000, 6000)) // well over the 1.2x threshold
	out := r.normalize(img)
	assert.Equal(t, 2000, out.Bounds().Dx())
}

func TestNormalizeDisabledWhenTargetWidthZero(t *testing.T) {
	r := &PopplerRasterizer{TargetWidth: 0}
	img := image.NewRGBA(image.Rect(0, 0, 9000, 1))
	out := r.normalize(img)
	assert.Equal(t, 9000, out.Bounds().Dx())
}
