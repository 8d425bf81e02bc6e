package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestFormatNumericRendersIntegerLikeFloatsWithoutADecimalPoint(t *testing.T) {
	s := formatNumeric(floatPtr(150000))
	assert.Equal(t, "150000", *s)
}

func TestFormatNumericRendersFractionalFloatsToTwoDecimalPlaces(t *testing.T) {
	s := formatNumeric(floatPtr(150000.5))
	assert.Equal(t, "150000.50", *s)

	s = formatNumeric(floatPtr(99.999))
	assert.Equal(t, "100.00", *s)
}

func TestFormatNumericPassesThroughNil(t *testing.T) {
	assert.Nil(t, formatNumeric(nil))
}

func TestFormatNumericHandlesZero(t *testing.T) {
	s := formatNumeric(floatPtr(0))
	assert.Equal(t, "0", *s)
}
