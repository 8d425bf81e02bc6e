// Package tabledetect implements C5: locate a fee-table region on a page
// image via an injected object detector, then extract the amount from the
// cropped region via a vision language model.
package tabledetect

import (
	"context"
	"image"

	"github.com/charmbracelet/log"
)

// Region is a detected bounding box with its confidence score.
type Region struct {
	Bounds     image.Rectangle
	Confidence float64
}

// ObjectDetector scans a page image for table-like regions. Concrete
// detectors (YOLO weights, a cloud layout-detection API) are out of scope
// for this core — only the abstract contract is defined here.
type ObjectDetector interface {
	Detect(ctx context.Context, page image.Image) ([]Region, error)
}

// Detector implements pipeline.TableDetector: it scans pages in ascending
// order until a region at or above minConfidence is found, then crops it.
type Detector struct {
	ObjectDetector ObjectDetector
	Logger         *log.Logger
}

// NewDetector constructs a Detector over an injected ObjectDetector.
func NewDetector(detector ObjectDetector, logger *log.Logger) *Detector {
	return &Detector{ObjectDetector: detector, Logger: logger}
}

// DetectAndCrop implements pipeline.TableDetector.
func (d *Detector) DetectAndCrop(ctx context.Context, pages []image.Image, minConfidence float64) (image.Image, bool, error) {
	if d.ObjectDetector == nil {
		return nil, false, nil
	}

	for pageNum, page := range pages {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}

		regions, err := d.ObjectDetector.Detect(ctx, page)
		if err != nil {
			d.Logger.Warnf("table detection failed on page %d: %v", pageNum+1, err)
			continue
		}

		for _, r := range regions {
			if r.Confidence >= minConfidence {
				d.Logger.Infof("table region found on page %d, confidence %.2f", pageNum+1, r.Confidence)
				return cropTo(page, r.Bounds), true, nil
			}
		}
	}

	return nil, false, nil
}

func cropTo(img image.Image, bounds image.Rectangle) image.Image {
	bounds = bounds.Intersect(img.Bounds())
	if bounds.Empty() {
		return img
	}
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(bounds)
	}
	return img
}
