package response

import (
	"errors"
	"math"
	"testing"

	"github.com/gregorizeidler/Rigmaster-sub006/cabinet"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/stage"
	"github.com/gregorizeidler/Rigmaster-sub006/internal/testutil"
)

const fs = 48000.0

func TestAnalyzeImpulseIsFlat(t *testing.T) {
	r, err := Analyze(testutil.Impulse(1024, 0), Config{SampleRate: fs})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(r.MagnitudeDB) != 513 || r.BinHz != fs/1024 {
		t.Fatalf("bins = %d, BinHz = %v", len(r.MagnitudeDB), r.BinHz)
	}

	for i, db := range r.MagnitudeDB {
		if math.Abs(db) > 1e-9 {
			t.Fatalf("bin %d = %v dB, want 0", i, db)
		}
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	if _, err := Analyze(nil, Config{SampleRate: fs}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("error = %v, want ErrEmpty", err)
	}

	if _, err := Analyze([]float64{1}, Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestMeasurePeakFilter(t *testing.T) {
	f := stage.NewFilter(stage.Peak, 1000, 2, 6, fs)

	r, err := Measure(f.ProcessInPlace, Config{SampleRate: fs})
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}

	if got := r.At(1000); math.Abs(got-6) > 0.1 {
		t.Fatalf("At(1000) = %.3f dB, want 6", got)
	}

	freq, db := r.Peak(200, 5000)
	if math.Abs(freq-1000) > 10 || math.Abs(db-6) > 0.1 {
		t.Fatalf("Peak = %.1f Hz %.2f dB", freq, db)
	}
}

func TestMeasureMatchesChainDesign(t *testing.T) {
	c, err := cabinet.BuildPreset("2x12_open", "sm7b", "edge", fs)
	if err != nil {
		t.Fatalf("BuildPreset: %v", err)
	}

	r, err := Measure(c.ProcessInPlace, Config{SampleRate: fs})
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}

	for _, freq := range LogFrequencies(100, 3000, 8) {
		got, want := r.At(freq), c.MagnitudeDB(freq)
		if math.Abs(got-want) > 0.5 {
			t.Fatalf("%.0f Hz: measured %.2f dB, designed %.2f dB", freq, got, want)
		}
	}
}

func TestLogFrequencies(t *testing.T) {
	got := LogFrequencies(20, 20000, 4)
	want := []float64{20, 200, 2000, 20000}

	testutil.RequireNearlyEqual(t, got, want, 1e-9)

	if LogFrequencies(100, 10, 3) != nil {
		t.Fatal("expected nil for an inverted range")
	}
}

func TestBands(t *testing.T) {
	r := Result{SampleRate: fs, BinHz: 100, MagnitudeDB: []float64{0, -10, -20}}

	testutil.RequireNearlyEqual(t, r.Bands([]float64{-5, 50, 150, 900}), []float64{0, -5, -15, -20}, 1e-12)
}
