package testutil

import (
	"math"
	"testing"
)

func TestSineStartsAtZero(t *testing.T) {
	s := Sine(1000, 48000, 0.5, 48)

	if len(s) != 48 || s[0] != 0 {
		t.Fatalf("len %d, s[0] = %v", len(s), s[0])
	}

	// A quarter period at 1 kHz and 48 kHz is 12 samples.
	if math.Abs(s[12]-0.5) > 1e-12 {
		t.Fatalf("s[12] = %v, want 0.5", s[12])
	}
}

func TestNoiseIsSeeded(t *testing.T) {
	a := Noise(7, 0.25, 512)
	b := Noise(7, 0.25, 512)
	c := Noise(8, 0.25, 512)

	if MaxDiff(a, b) != 0 {
		t.Fatal("same seed produced different noise")
	}

	if MaxDiff(a, c) == 0 {
		t.Fatal("different seeds produced the same noise")
	}

	for i, v := range a {
		if v < -0.25 || v >= 0.25 {
			t.Fatalf("sample %d = %v out of range", i, v)
		}
	}
}

func TestImpulseAndConstant(t *testing.T) {
	RequireNearlyEqual(t, Impulse(4, 2), []float64{0, 0, 1, 0}, 0)
	RequireNearlyEqual(t, Impulse(3, 5), Constant(0, 3), 0)
	RequireNearlyEqual(t, Constant(-2, 2), []float64{-2, -2}, 0)
}

func TestLevels(t *testing.T) {
	if RMS(nil) != 0 {
		t.Fatal("RMS(nil) != 0")
	}

	if got := RMS(Constant(-0.5, 16)); math.Abs(got-0.5) > 1e-15 {
		t.Fatalf("RMS = %v, want 0.5", got)
	}

	if got := RMS(Sine(1000, 48000, 1, 48000)); math.Abs(got-math.Sqrt2/2) > 1e-6 {
		t.Fatalf("RMS(sine) = %v", got)
	}

	at, v := Peak([]float64{0.1, -0.9, 0.9, 0.3})
	if at != 1 || v != -0.9 {
		t.Fatalf("Peak = %d, %v", at, v)
	}
}

func TestToneGainDB(t *testing.T) {
	half := func(buf []float64) {
		for i := range buf {
			buf[i] *= 0.5
		}
	}

	if got := ToneGainDB(half, 440, 48000); math.Abs(got-20*math.Log10(0.5)) > 1e-9 {
		t.Fatalf("ToneGainDB = %v", got)
	}
}

func TestMaxDiffLengthMismatch(t *testing.T) {
	if !math.IsInf(MaxDiff([]float64{1}, []float64{1, 2}), 1) {
		t.Fatal("length mismatch must report +Inf")
	}
}
