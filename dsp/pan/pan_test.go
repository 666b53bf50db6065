package pan

import (
	"math"
	"testing"
)

func TestLawsConservePower(t *testing.T) {
	for _, kind := range []Kind{KindStereoPanner, KindLegacy3D} {
		t.Run(kind.String(), func(t *testing.T) {
			p := New(kind, 48000)
			if p.Kind() != kind {
				t.Fatalf("Kind() = %v, want %v", p.Kind(), kind)
			}

			for v := -1.0; v <= 1.0; v += 0.05 {
				l, r := p.Gains(v)
				if math.Abs(l*l+r*r-1) > 1e-12 {
					t.Fatalf("Gains(%v): l²+r² = %v", v, l*l+r*r)
				}
			}
		})
	}
}

func TestCenterIsBalanced(t *testing.T) {
	for _, kind := range []Kind{KindStereoPanner, KindLegacy3D} {
		l, r := New(kind, 48000).Gains(0)
		if math.Abs(l-r) > 1e-12 {
			t.Fatalf("%v: center gains (%v, %v) differ by %g", kind, l, r, l-r)
		}

		if math.Abs(l*l+r*r-1) > 1e-12 {
			t.Fatalf("%v: center power = %v", kind, l*l+r*r)
		}
	}
}

func TestLawsAgreeAtCenterAndExtremes(t *testing.T) {
	native := NewStereoPanner(48000)
	legacy := NewLegacy3D(48000)

	for _, v := range []float64{-1, 0, 1} {
		nl, nr := native.Gains(v)
		ll, lr := legacy.Gains(v)

		if math.Abs(nl-ll) > 1e-5 || math.Abs(nr-lr) > 1e-5 {
			t.Fatalf("pan %v: native (%v, %v) legacy (%v, %v)", v, nl, nr, ll, lr)
		}
	}

	l, r := native.Gains(0)
	if math.Abs(l-math.Sqrt2/2) > 1e-5 || math.Abs(r-math.Sqrt2/2) > 1e-5 {
		t.Fatalf("center gains = (%v, %v), want -3 dB each", l, r)
	}

	l, r = native.Gains(-1)
	if math.Abs(l-1) > 1e-5 || math.Abs(r) > 1e-5 {
		t.Fatalf("hard left gains = (%v, %v)", l, r)
	}
}

func TestLegacyIsCloserToCenterInBetween(t *testing.T) {
	native := NewStereoPanner(48000)
	legacy := NewLegacy3D(48000)

	_, nr := native.Gains(0.25)
	_, lr := legacy.Gains(0.25)

	if lr >= nr {
		t.Fatalf("legacy right gain %v should be below native %v at 0.25", lr, nr)
	}
}

func TestProcessGlidesToTarget(t *testing.T) {
	p := NewStereoPanner(48000)
	p.SetPan(5)

	if p.PanTarget() != 1 {
		t.Fatalf("PanTarget() = %v, want clamp to 1", p.PanTarget())
	}

	mono := make([]float64, 48000)
	for i := range mono {
		mono[i] = 1
	}

	left := make([]float64, len(mono))
	right := make([]float64, len(mono))
	p.Process(mono, left, right)

	if left[0] < 0.6 || right[0] > 0.8 {
		t.Fatalf("first sample jumped: (%v, %v)", left[0], right[0])
	}

	last := len(mono) - 1
	if math.Abs(left[last]) > 1e-4 || math.Abs(right[last]-1) > 1e-4 {
		t.Fatalf("final gains = (%v, %v), want (0, 1)", left[last], right[last])
	}
}

func TestProcessAllowsAliasedLeft(t *testing.T) {
	p := NewLegacy3D(48000)

	buf := []float64{1, 1, 1, 1}
	right := make([]float64, 4)
	p.Process(buf, buf, right)

	for i := range buf {
		if math.Abs(buf[i]-right[i]) > 1e-9 {
			t.Fatalf("centered aliased output differs at %d: %v vs %v", i, buf[i], right[i])
		}
	}
}
