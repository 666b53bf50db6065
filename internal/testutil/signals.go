// Package testutil holds test signals and assertions shared by the audio
// packages.
package testutil

import (
	"math"
	"math/rand"
)

// Sine returns n samples of a sine starting at phase zero.
func Sine(freqHz, sampleRate, amplitude float64, n int) []float64 {
	w := 2 * math.Pi * freqHz / sampleRate

	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(w*float64(i))
	}

	return out
}

// Noise returns n uniform samples in [-amplitude, amplitude). The same seed
// yields the same block.
func Noise(seed int64, amplitude float64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))

	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}

	return out
}

// Impulse returns n samples with a single 1 at index at. An out-of-range
// index yields silence.
func Impulse(n, at int) []float64 {
	out := make([]float64, n)
	if at >= 0 && at < n {
		out[at] = 1
	}

	return out
}

// Constant returns n copies of v.
func Constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}
