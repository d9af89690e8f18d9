package common

import "math"

// QuantizePrecision is the number of quantization steps per unit. With a signed 16-bit carrier this gives
// a representable range of ±32.767 at a resolution of 0.001.
const QuantizePrecision = 1000.0

// QuantizeLimit is the largest magnitude Quantize can represent without saturating.
const QuantizeLimit = math.MaxInt16 / QuantizePrecision

// Quantize encodes f as a fixed-precision signed 16-bit value.
// Values outside ±QuantizeLimit saturate to the nearest representable value instead of wrapping.
// NaN encodes as zero.
//
// Parameters:
//   - f: the value to encode
//
// Returns:
//   - int16: the quantized value
func Quantize(f float64) int16 {
	if math.IsNaN(f) {
		return 0
	}
	v := math.Round(f * QuantizePrecision)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < -math.MaxInt16 {
		return -math.MaxInt16
	}
	return int16(v)
}

// Dequantize decodes a value produced by Quantize.
//
// Parameters:
//   - q: the quantized value
//
// Returns:
//   - float64: the decoded value
func Dequantize(q int16) float64 {
	return float64(q) / QuantizePrecision
}
