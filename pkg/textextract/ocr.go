package textextract

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

// TesseractExtractor shells out to the external `tesseract` CLI. When
// PageConcurrency > 1, each page image is serialized to a uniquely-named
// temp file before dispatch rather than copied across worker boundaries,
// and the temp file is removed on every exit path via defer.
type TesseractExtractor struct {
	Lang   string
	PSM    int
	OEM    int
	Logger *log.Logger
}

// NewTesseractExtractor constructs an extractor with documented defaults
// (OEM 3, tesseract's own default engine mode; PSM 6, a single uniform
// block of text).
func NewTesseractExtractor(lang string, logger *log.Logger) *TesseractExtractor {
	if lang == "" {
		lang = "eng"
	}
	return &TesseractExtractor{Lang: lang, PSM: 6, OEM: 3, Logger: logger}
}

// PerPage implements pipeline.TextExtractor. sourcePath is unused — OCR
// reads from the already-rasterized page images.
func (e *TesseractExtractor) PerPage(ctx context.Context, sourcePath string, pages []image.Image, opts pipeline.TextExtractOptions) ([]pipeline.PageText, error) {
	concurrency := opts.PageConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(pages) {
		concurrency = len(pages)
	}
	if concurrency <= 1 {
		return e.sequential(ctx, pages)
	}
	return e.parallel(ctx, pages, concurrency)
}

func (e *TesseractExtractor) sequential(ctx context.Context, pages []image.Image) ([]pipeline.PageText, error) {
	out := make([]pipeline.PageText, 0, len(pages))
	for i, img := range pages {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		text, err := e.ocrImage(ctx, img)
		if err != nil {
			e.Logger.Warnf("ocr error on page %d: %v", i+1, err)
			continue
		}
		out = append(out, pipeline.PageText{PageNumber: i + 1, Text: text})
	}
	return out, nil
}

func (e *TesseractExtractor) parallel(ctx context.Context, pages []image.Image, concurrency int) ([]pipeline.PageText, error) {
	type pageResult struct {
		pageNumber int
		text       string
		err        error
	}

	jobs := make(chan int, len(pages))
	for i := range pages {
		jobs <- i
	}
	close(jobs)

	results := make(chan pageResult, len(pages))
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tempPath, err := writeTempPNG(pages[i], i+1)
				if err != nil {
					results <- pageResult{pageNumber: i + 1, err: fmt.Errorf("stage page %d: %w", i+1, err)}
					continue
				}
				text, err := func() (string, error) {
					defer os.Remove(tempPath)
					return e.ocrFile(ctx, tempPath)
				}()
				results <- pageResult{pageNumber: i + 1, text: text, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]pipeline.PageText, 0, len(pages))
	for r := range results {
		if r.err != nil {
			e.Logger.Warnf("ocr error on page %d: %v", r.pageNumber, r.err)
			continue
		}
		out = append(out, pipeline.PageText{PageNumber: r.pageNumber, Text: r.text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageNumber < out[j].PageNumber })
	return out, nil
}

func writeTempPNG(img image.Image, pageNum int) (string, error) {
	f, err := os.CreateTemp("", fmt.Sprintf("ocr-page-%d-*.png", pageNum))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (e *TesseractExtractor) ocrImage(ctx context.Context, img image.Image) (string, error) {
	tempPath, err := writeTempPNG(img, 0)
	if err != nil {
		return "", err
	}
	defer os.Remove(tempPath)
	return e.ocrFile(ctx, tempPath)
}

func (e *TesseractExtractor) ocrFile(ctx context.Context, imagePath string) (string, error) {
	binPath, err := exec.LookPath("tesseract")
	if err != nil {
		return "", fmt.Errorf("tesseract not found on PATH: %w", err)
	}

	args := []string{imagePath, "stdout", "-l", e.Lang, "--oem", fmt.Sprintf("%d", e.OEM), "--psm", fmt.Sprintf("%d", e.PSM)}
	cmd := exec.CommandContext(ctx, binPath, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return string(out), nil
}
