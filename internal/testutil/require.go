package testutil

import (
	"math"
	"testing"
)

// RequireNearlyEqual fails t on a length mismatch or on the first sample
// where got and want differ by more than eps.
func RequireNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}

	for i, g := range got {
		if d := math.Abs(g - want[i]); d > eps {
			t.Fatalf("sample %d: got %g, want %g (|diff| %g > %g)", i, g, want[i], d, eps)
		}
	}
}

// RequireFinite fails t on the first NaN or infinite sample.
func RequireFinite(t *testing.T, x []float64) {
	t.Helper()

	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d is %v", i, v)
		}
	}
}

// RequireWithinDB fails t when got is more than tol dB away from want.
func RequireWithinDB(t *testing.T, label string, got, want, tol float64) {
	t.Helper()

	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Fatalf("%s: %.2f dB, want %.2f ±%.2f dB", label, got, want, tol)
	}
}

// MaxDiff returns the largest absolute sample difference of a and b, or
// +Inf when their lengths differ.
func MaxDiff(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	var m float64
	for i := range a {
		m = max(m, math.Abs(a[i]-b[i]))
	}

	return m
}
