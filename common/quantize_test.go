package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantize_RoundTripWithinRange(t *testing.T) {
	for f := -QuantizeLimit; f <= QuantizeLimit; f += 0.0173 {
		got := Dequantize(Quantize(f))
		assert.InDelta(t, f, got, 0.0005, "value %f", f)
	}
	assert.InDelta(t, QuantizeLimit, Dequantize(Quantize(QuantizeLimit)), 0.0005)
	assert.InDelta(t, -QuantizeLimit, Dequantize(Quantize(-QuantizeLimit)), 0.0005)
}

func TestQuantize_SaturatesOutsideRange(t *testing.T) {
	assert.Equal(t, int16(math.MaxInt16), Quantize(40))
	assert.Equal(t, int16(math.MaxInt16), Quantize(1e9))
	assert.Equal(t, int16(-math.MaxInt16), Quantize(-40))
	assert.Equal(t, int16(-math.MaxInt16), Quantize(math.Inf(-1)))
	assert.Equal(t, int16(0), Quantize(math.NaN()))
}

func TestQuantize_KnownValues(t *testing.T) {
	assert.Equal(t, int16(0), Quantize(0))
	assert.Equal(t, int16(1000), Quantize(1))
	assert.Equal(t, int16(-707), Quantize(-0.7071))
	assert.Equal(t, 1.234, Dequantize(1234))
}
