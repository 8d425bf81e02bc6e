// Package raster rasterizes PDF pages into normalized images (C2).
package raster

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	_ "image/png" // pdftoppm output decoding

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
)

// PopplerRasterizer shells out to the Poppler `pdftoppm` binary and
// decodes the resulting PNGs. Width normalization uses a Lanczos
// resample against a `target_width` / 1.2x-threshold rule.
type PopplerRasterizer struct {
	// DPI controls the rasterization resolution handed to pdftoppm.
	DPI int
	// TargetWidth is the normalized output width; 0 disables resizing.
	TargetWidth int
	Logger      *log.Logger
}

// NewPopplerRasterizer constructs a rasterizer with the given defaults.
func NewPopplerRasterizer(dpi, targetWidth int, logger *log.Logger) *PopplerRasterizer {
	if dpi == 0 {
		dpi = 200
	}
	return &PopplerRasterizer{DPI: dpi, TargetWidth: targetWidth, Logger: logger}
}

// resizeThreshold is the "wider than targetWidth * 1.2" resize trigger.
const resizeThreshold = 1.2

// ToPages converts sourcePath (a PDF) into up to maxPages ordered page
// images. It fails loudly (ErrRasterizerMissing) when pdftoppm is not on
// PATH.
func (r *PopplerRasterizer) ToPages(ctx context.Context, sourcePath string, maxPages int) ([]image.Image, error) {
	binPath, err := exec.LookPath("pdftoppm")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftoppm not found on PATH", ErrRasterizerMissing)
	}

	tmpDir, err := os.MkdirTemp("", "raster-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPrefix := filepath.Join(tmpDir, "page")
	args := []string{"-png", "-r", fmt.Sprintf("%d", r.DPI)}
	if maxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", maxPages))
	}
	args = append(args, sourcePath, outPrefix)

	cmd := exec.CommandContext(ctx, binPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, string(out))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("read rasterized pages: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	images := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, err := decodeImage(filepath.Join(tmpDir, name))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		images = append(images, r.normalize(img))
	}

	r.Logger.Infof("rasterized %d pages at %d DPI from %s", len(images), r.DPI, sourcePath)
	return images, nil
}

func (r *PopplerRasterizer) normalize(img image.Image) image.Image {
	if r.TargetWidth == 0 {
		return img
	}
	width := img.Bounds().Dx()
	if float64(width) <= float64(r.TargetWidth)*resizeThreshold {
		return img
	}
	return imaging.Resize(img, r.TargetWidth, 0, imaging.Lanczos)
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
