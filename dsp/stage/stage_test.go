package stage

import (
	"math"
	"testing"

	"github.com/gregorizeidler/Rigmaster-sub006/internal/testutil"
)

const testFS = 48000.0

func TestFilterSettledResponseMatchesDesign(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		freq   float64
	}{
		{"lowpass passband", NewFilter(Lowpass, 4000, 0.707, 0, testFS), 200},
		{"lowpass stopband", NewFilter(Lowpass, 1000, 0.707, 0, testFS), 8000},
		{"highpass stopband", NewFilter(Highpass, 65, 0.707, 0, testFS), 20},
		{"peak center", NewFilter(Peak, 1000, 1.5, 6, testFS), 1000},
		{"lowshelf", NewFilter(LowShelf, 200, 0.707, 4, testFS), 50},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want := tc.filter.MagnitudeDB(tc.freq)
			got := testutil.ToneGainDB(tc.filter.ProcessInPlace, tc.freq, testFS)
			if math.Abs(got-want) > 0.25 {
				t.Fatalf("measured %.3f dB, designed %.3f dB", got, want)
			}
		})
	}
}

func TestFilterPeakGainAtCenter(t *testing.T) {
	f := NewFilter(Peak, 2000, 1, 6, testFS)
	if got := f.MagnitudeDB(2000); math.Abs(got-6) > 1e-6 {
		t.Fatalf("MagnitudeDB(2000) = %v, want 6", got)
	}
}

func TestFilterAtOrAboveNyquistIsTransparent(t *testing.T) {
	f := NewFilter(Lowpass, 20000, 0.707, 0, 32000)

	in := testutil.Noise(7, 0.5, 256)
	out := append([]float64(nil), in...)
	f.ProcessInPlace(out)

	testutil.RequireNearlyEqual(t, out, in, 0)
}

func TestFilterGlidesInsteadOfStepping(t *testing.T) {
	f := NewFilter(Lowpass, 8000, 0.707, 0, testFS)
	f.Set(500, 0.707, 0)

	buf := make([]float64, controlChunk)
	f.ProcessInPlace(buf)

	got := f.Frequency.Value()
	if got >= 8000 || got <= 500 {
		t.Fatalf("frequency after one chunk = %v, want strictly between 500 and 8000", got)
	}

	if f.Frequency.Target() != 500 {
		t.Fatalf("target = %v, want 500", f.Frequency.Target())
	}

	f.Reset()
	if f.Frequency.Value() != 500 {
		t.Fatalf("Reset should snap to target, got %v", f.Frequency.Value())
	}
}

func TestKindString(t *testing.T) {
	if Notch.String() != "notch" {
		t.Fatalf("Notch.String() = %q", Notch.String())
	}

	if Kind(99).String() != "Kind(99)" {
		t.Fatalf("Kind(99).String() = %q", Kind(99).String())
	}
}

func TestDelayIntegerDelay(t *testing.T) {
	const fs = 1000.0

	tests := []struct {
		name    string
		seconds float64
		want    int
	}{
		{"zero", 0, 0},
		{"one sample", 0.001, 1},
		{"five samples", 0.005, 5},
		{"forty samples", 0.04, 40},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := NewDelay(0.05, tc.seconds, fs)
			if err != nil {
				t.Fatalf("NewDelay: %v", err)
			}

			buf := testutil.Impulse(64, 0)
			d.ProcessInPlace(buf)

			testutil.RequireNearlyEqual(t, buf, testutil.Impulse(64, tc.want), 1e-12)
		})
	}
}

func TestDelayFractionalSplitsImpulse(t *testing.T) {
	d, err := NewDelay(0.01, 0.0025, 1000)
	if err != nil {
		t.Fatalf("NewDelay: %v", err)
	}

	buf := testutil.Impulse(8, 0)
	d.ProcessInPlace(buf)

	if math.Abs(buf[2]-0.5) > 1e-12 || math.Abs(buf[3]-0.5) > 1e-12 {
		t.Fatalf("2.5-sample delay = %v, want 0.5 at indices 2 and 3", buf)
	}
}

func TestDelayClampsTime(t *testing.T) {
	d, err := NewDelay(0.05, 0, testFS)
	if err != nil {
		t.Fatalf("NewDelay: %v", err)
	}

	d.SetTime(3)
	if got := d.Time.Target(); got != 0.05 {
		t.Fatalf("target = %v, want 0.05", got)
	}

	d.SetTime(-1)
	if got := d.Time.Target(); got != 0 {
		t.Fatalf("target = %v, want 0", got)
	}
}

func TestNewDelayRejectsInvalidArguments(t *testing.T) {
	if _, err := NewDelay(0.05, 0, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := NewDelay(0, 0, testFS); err == nil {
		t.Fatal("expected error for zero max time")
	}
}

func TestGainSettledScales(t *testing.T) {
	g := NewGain(0.5, testFS)

	buf := testutil.Constant(1, 4)
	g.ProcessInPlace(buf)

	testutil.RequireNearlyEqual(t, buf, testutil.Constant(0.5, 4), 0)
}

func TestGainRampIsContinuous(t *testing.T) {
	g := NewGain(1, testFS)
	g.Set(-1)

	left := testutil.Constant(1, 2048)
	right := testutil.Constant(1, 2048)
	g.ProcessStereo(left, right)

	for i := 1; i < len(left); i++ {
		if left[i] > left[i-1] {
			t.Fatalf("ramp toward -1 increased at %d: %v -> %v", i, left[i-1], left[i])
		}

		if math.Abs(left[i]-left[i-1]) > 0.01 {
			t.Fatalf("step at %d too large: %v -> %v", i, left[i-1], left[i])
		}
	}

	testutil.RequireNearlyEqual(t, right, left, 0)
}

func TestGainSetDB(t *testing.T) {
	g := NewGain(1, testFS)
	g.SetDB(-6)

	want := math.Pow(10, -6.0/20)
	if got := g.Level.Target(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("target = %v, want %v", got, want)
	}
}

func TestEqualPowerConservesEnergy(t *testing.T) {
	for pct := -10.0; pct <= 110; pct += 0.5 {
		a, b := EqualPower(pct)
		if math.Abs(a*a+b*b-1) > 1e-12 {
			t.Fatalf("EqualPower(%v): a²+b² = %v", pct, a*a+b*b)
		}

		dry, wet := DryWet(pct)
		if math.Abs(dry*dry+wet*wet-1) > 1e-12 {
			t.Fatalf("DryWet(%v): dry²+wet² = %v", pct, dry*dry+wet*wet)
		}
	}
}

func TestEqualPowerEndpoints(t *testing.T) {
	a, b := EqualPower(0)
	if a != 1 || b != 0 {
		t.Fatalf("EqualPower(0) = (%v, %v), want (1, 0)", a, b)
	}

	a, b = EqualPower(100)
	if math.Abs(a) > 1e-15 || b != 1 {
		t.Fatalf("EqualPower(100) = (%v, %v), want (0, 1)", a, b)
	}

	dry, wet := DryWet(25)
	if math.Abs(dry-math.Sqrt(0.75)) > 1e-15 || math.Abs(wet-0.5) > 1e-15 {
		t.Fatalf("DryWet(25) = (%v, %v)", dry, wet)
	}
}

func TestCrossfadeSetPosition(t *testing.T) {
	c := NewCrossfade(0, testFS)
	c.SetPosition(150)

	if c.Position() != 100 {
		t.Fatalf("Position() = %v, want 100", c.Position())
	}

	if c.A.Level.Target() > 1e-15 || c.B.Level.Target() != 1 {
		t.Fatalf("targets = (%v, %v), want (0, 1)", c.A.Level.Target(), c.B.Level.Target())
	}

	c.SetPosition(math.NaN())
	if c.Position() != 100 {
		t.Fatalf("NaN must be ignored, Position() = %v", c.Position())
	}
}

func TestSoftLimiterBoundsOutput(t *testing.T) {
	l, err := NewSoftLimiter(0.9, testFS)
	if err != nil {
		t.Fatalf("NewSoftLimiter: %v", err)
	}

	buf := testutil.Sine(100, testFS, 20, 4800)
	l.ProcessStereo(buf, nil)

	for i, v := range buf {
		if math.Abs(v) > 0.9 {
			t.Fatalf("sample %d = %v exceeds ceiling", i, v)
		}
	}

	small := []float64{0.001, -0.001}
	l.ProcessStereo(small, nil)
	if math.Abs(small[0]-0.001) > 1e-6 {
		t.Fatalf("small signal altered: %v", small[0])
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	c, err := NewCompressor(testFS, DefaultCompressorSettings())
	if err != nil {
		t.Fatalf("NewCompressor: %v", err)
	}

	in := testutil.Sine(200, testFS, 1, 48000)
	left := append([]float64(nil), in...)
	right := append([]float64(nil), in...)
	c.ProcessStereo(left, right)

	if testutil.RMS(left[24000:]) >= testutil.RMS(in[24000:]) {
		t.Fatal("compressor did not reduce a 0 dBFS sine")
	}

	testutil.RequireNearlyEqual(t, right, left, 1e-12)
}

func TestNewCompressorRejectsBadSettings(t *testing.T) {
	s := DefaultCompressorSettings()
	s.Ratio = 0

	if _, err := NewCompressor(testFS, s); err == nil {
		t.Fatal("expected error for ratio 0")
	}
}
