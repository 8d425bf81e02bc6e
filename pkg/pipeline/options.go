package pipeline

import "time"

// TextMode selects which TextExtractor mode Stage-1 runs.
type TextMode string

const (
	ModeNative TextMode = "native"
	ModeOCR    TextMode = "ocr"
)

// Options is the pipeline's recognized configuration envelope.
// A Coordinator owns one Options value per batch; UpdateOptions swaps the cell
// for the next batch rather than mutating fields mid-run, avoiding races on
// worker counts while a batch is in flight.
type Options struct {
	OCRWorkers         int
	LLMWorkers         int
	HandoffCapacity    int
	OCRPageConcurrency int

	MaxPages    int
	TargetWidth int

	MinFee     float64
	MaxMiscFee float64

	TableConfidence float64

	Mode TextMode

	LLMTimeout time.Duration
}

// DefaultOptions returns the documented default configuration.
func DefaultOptions() Options {
	return Options{
		OCRWorkers:         2,
		LLMWorkers:         8,
		HandoffCapacity:    1,
		OCRPageConcurrency: 1,
		MaxPages:           30,
		TargetWidth:        2000,
		MinFee:             100,
		MaxMiscFee:         3000,
		TableConfidence:    0.86,
		Mode:               ModeOCR,
		LLMTimeout:         300 * time.Second,
	}
}

// clampInt bounds v to [lo, hi], substituting def when v is zero (unset).
func clampInt(v, def, lo, hi int) int {
	if v == 0 {
		v = def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize fills zero-valued fields with defaults and clamps bounded ones
// to their documented 1..20 / 1..10 / 1..8 ranges.
func (o Options) Normalize() Options {
	def := DefaultOptions()

	o.OCRWorkers = clampInt(o.OCRWorkers, def.OCRWorkers, 1, 20)
	o.LLMWorkers = clampInt(o.LLMWorkers, def.LLMWorkers, 1, 20)
	o.HandoffCapacity = clampInt(o.HandoffCapacity, def.HandoffCapacity, 1, 10)
	o.OCRPageConcurrency = clampInt(o.OCRPageConcurrency, def.OCRPageConcurrency, 1, 8)

	if o.MaxPages == 0 {
		o.MaxPages = def.MaxPages
	}
	// TargetWidth: 0 is a valid explicit value meaning "disable resizing",
	// so it is NOT defaulted here — callers that want the default must use
	// DefaultOptions() as their starting point.
	if o.MinFee == 0 {
		o.MinFee = def.MinFee
	}
	if o.MaxMiscFee == 0 {
		o.MaxMiscFee = def.MaxMiscFee
	}
	if o.TableConfidence == 0 {
		o.TableConfidence = def.TableConfidence
	}
	if o.Mode == "" {
		o.Mode = def.Mode
	}
	if o.LLMTimeout == 0 {
		o.LLMTimeout = def.LLMTimeout
	}

	return o
}
