package testutil

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// RMS returns the root-mean-square level of x, or 0 for an empty slice.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return math.Sqrt(vecmath.DotProduct(x, x) / float64(len(x)))
}

// Peak returns the index and value of the largest magnitude in x. Ties go
// to the earliest index.
func Peak(x []float64) (int, float64) {
	if len(x) == 0 {
		return 0, 0
	}

	at := 0
	for i, v := range x {
		if math.Abs(v) > math.Abs(x[at]) {
			at = i
		}
	}

	return at, x[at]
}

// ToneGainDB feeds a one-second sine at freqHz through process and returns
// the steady-state gain in dB, measured over the second half.
func ToneGainDB(process func([]float64), freqHz, sampleRate float64) float64 {
	n := int(sampleRate)
	in := Sine(freqHz, sampleRate, 0.25, n)
	out := append([]float64(nil), in...)
	process(out)

	return 20 * math.Log10(RMS(out[n/2:])/RMS(in[n/2:]))
}
