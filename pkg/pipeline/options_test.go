package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFillsZeroValuedFieldsWithDefaults(t *testing.T) {
	out := Options{}.Normalize()
	def := DefaultOptions()

	assert.Equal(t, def.OCRWorkers, out.OCRWorkers)
	assert.Equal(t, def.LLMWorkers, out.LLMWorkers)
	assert.Equal(t, def.HandoffCapacity, out.HandoffCapacity)
	assert.Equal(t, def.OCRPageConcurrency, out.OCRPageConcurrency)
	assert.Equal(t, def.MaxPages, out.MaxPages)
	assert.Equal(t, def.MinFee, out.MinFee)
	assert.Equal(t, def.MaxMiscFee, out.MaxMiscFee)
	assert.Equal(t, def.TableConfidence, out.TableConfidence)
	assert.Equal(t, def.Mode, out.Mode)
	assert.Equal(t, def.LLMTimeout, out.LLMTimeout)
}

func TestNormalizeClampsOutOfRangeWorkerCounts(t *testing.T) {
	out := Options{OCRWorkers: 999, LLMWorkers: 0, HandoffCapacity: -5, OCRPageConcurrency: 100}.Normalize()

	assert.Equal(t, 20, out.OCRWorkers)
	assert.Equal(t, 8, out.LLMWorkers)
	assert.Equal(t, 1, out.HandoffCapacity)
	assert.Equal(t, 8, out.OCRPageConcurrency)
}

func TestNormalizePreservesExplicitZeroTargetWidth(t *testing.T) {
	out := Options{TargetWidth: 0}.Normalize()
	assert.Equal(t, 0, out.TargetWidth)
}

func TestNormalizeLeavesInRangeValuesUntouched(t *testing.T) {
	in := Options{
		OCRWorkers:         5,
		LLMWorkers:         5,
		HandoffCapacity:    3,
		OCRPageConcurrency: 2,
		MaxPages:           10,
		TargetWidth:        1500,
		MinFee:             200,
		MaxMiscFee:         4000,
		TableConfidence:    0.9,
		Mode:               ModeNative,
		LLMTimeout:         90 * time.Second,
	}
	out := in.Normalize()
	assert.Equal(t, in, out)
}
