package textextract

import (
	"context"
	"fmt"
	"image"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

// NativeExtractor pulls the embedded text layer out of a PDF page by page,
// without ever rasterizing. It is the fast path; Stage-1 still rasterizes
// every document in this mode, so page images remain available to the
// fee-table fallback.
type NativeExtractor struct {
	Logger *log.Logger
}

// PerPage implements pipeline.TextExtractor. pages/opts are ignored — the
// native path reads directly from sourcePath's embedded text layer.
func (e *NativeExtractor) PerPage(ctx context.Context, sourcePath string, pages []image.Image, opts pipeline.TextExtractOptions) ([]pipeline.PageText, error) {
	f, r, err := pdf.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", sourcePath, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	out := make([]pipeline.PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			e.Logger.Warnf("native text extraction failed on page %d of %s: %v", i, sourcePath, err)
			continue
		}
		out = append(out, pipeline.PageText{PageNumber: i, Text: text})
	}

	return out, nil
}
