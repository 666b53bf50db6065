package cabinet

import (
	"errors"
	"math"
	"testing"

	"github.com/gregorizeidler/Rigmaster-sub006/internal/testutil"
)

const testRate = 48000.0

func TestBuildStageLayout(t *testing.T) {
	for _, cab := range Cabinets() {
		c, err := Build(cab, Microphones()[0], Position{DistanceCm: 2}, testRate)
		if err != nil {
			t.Fatalf("Build(%s): %v", cab.ID, err)
		}

		want := 10 + len(cab.Breakup)
		if c.Len() != want {
			t.Fatalf("%s: Len() = %d, want %d", cab.ID, c.Len(), want)
		}

		stages := c.Stages()
		if len(stages) != want {
			t.Fatalf("%s: %d stage infos, want %d", cab.ID, len(stages), want)
		}

		if stages[0].Name != "rumble" || stages[0].Frequency != RumbleFreq {
			t.Fatalf("%s: first stage = %+v", cab.ID, stages[0])
		}

		last := stages[len(stages)-1]
		if last.Kind != "delay" || last.Seconds != c.TimeOfFlight() {
			t.Fatalf("%s: last stage = %+v", cab.ID, last)
		}
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	if _, err := BuildNamed("4x12_vintage", "sm57", Position{}, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	_, err := BuildNamed("nope", "sm57", Position{}, testRate)
	if !errors.Is(err, ErrInvalidProfile) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown cabinet error = %v", err)
	}

	_, err = BuildNamed("4x12_vintage", "nope", Position{}, testRate)
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("unknown microphone error = %v", err)
	}

	_, err = BuildPreset("4x12_vintage", "sm57", "nope", testRate)
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("unknown preset error = %v", err)
	}
}

func TestSetPositionMatchesRebuild(t *testing.T) {
	positions := []Position{
		{DistanceCm: 0, AngleDeg: 0, Height: 0},
		{DistanceCm: 12, AngleDeg: 35, Height: -0.5},
		{DistanceCm: 50, AngleDeg: 90, Height: 1},
		{DistanceCm: 80, AngleDeg: -20, Height: 3},
	}

	c, err := BuildNamed("2x12_closed", "md421", Position{DistanceCm: 5}, testRate)
	if err != nil {
		t.Fatalf("BuildNamed: %v", err)
	}

	for _, pos := range positions {
		c.SetPosition(pos)

		fresh, err := BuildNamed("2x12_closed", "md421", pos, testRate)
		if err != nil {
			t.Fatalf("BuildNamed: %v", err)
		}

		if c.Position() != fresh.Position() || c.Targets() != fresh.Targets() {
			t.Fatalf("%+v: targets differ\n got  %+v\n want %+v", pos, c.Targets(), fresh.Targets())
		}

		got, want := c.Stages(), fresh.Stages()
		for i := range want {
			if math.Abs(got[i].Frequency-want[i].Frequency) > 1e-9 ||
				math.Abs(got[i].Q-want[i].Q) > 1e-9 ||
				math.Abs(got[i].GainDB-want[i].GainDB) > 1e-9 ||
				math.Abs(got[i].Seconds-want[i].Seconds) > 1e-12 {
				t.Fatalf("%+v: stage %s = %+v, want %+v", pos, want[i].Name, got[i], want[i])
			}
		}
	}
}

func TestChainResponseMatchesDesign(t *testing.T) {
	c, err := BuildPreset("4x12_vintage", "sm57", "edge", testRate)
	if err != nil {
		t.Fatalf("BuildPreset: %v", err)
	}

	for _, freq := range []float64{120, 1000, 3000} {
		c.Reset()

		got := testutil.ToneGainDB(c.ProcessInPlace, freq, testRate)
		want := c.MagnitudeDB(freq)

		if math.Abs(got-want) > 0.3 {
			t.Fatalf("%v Hz: measured %.2f dB, designed %.2f dB", freq, got, want)
		}
	}
}

func TestChainRumbleFilter(t *testing.T) {
	c, err := BuildNamed("1x12_open", "u87", Position{DistanceCm: 2}, testRate)
	if err != nil {
		t.Fatalf("BuildNamed: %v", err)
	}

	if c.MagnitudeDB(20) > c.MagnitudeDB(200)-12 {
		t.Fatalf("20 Hz (%.1f dB) not rolled off against 200 Hz (%.1f dB)", c.MagnitudeDB(20), c.MagnitudeDB(200))
	}
}

func TestChainDelaysByTimeOfFlight(t *testing.T) {
	cab, mic := mustProfiles(t, "4x12_vintage", "sm57")
	pos := Position{DistanceCm: 34.3, AngleDeg: 0}

	c, err := Build(cab, mic, pos, testRate)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ref, err := Build(cab, mic, Position{AngleDeg: 0}, testRate)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Match every stage except the delay.
	ref.SetPosition(pos)
	ref.timeOfFlight.SetTime(0)
	ref.Reset()

	n := 4096
	a := make([]float64, n)
	b := make([]float64, n)
	a[0], b[0] = 1, 1

	c.ProcessInPlace(a)
	ref.ProcessInPlace(b)

	// 0.343 m at 343 m/s is 1 ms, 48 samples.
	shift := 48
	for i := shift; i < n; i++ {
		if math.Abs(a[i]-b[i-shift]) > 1e-9 {
			t.Fatalf("sample %d: delayed %.6g, reference %.6g", i, a[i], b[i-shift])
		}
	}
}

func TestChainOutputStaysFinite(t *testing.T) {
	c, err := BuildNamed("4x12_greenback", "royer121", Position{DistanceCm: 1, AngleDeg: 60, Height: -1}, testRate)
	if err != nil {
		t.Fatalf("BuildNamed: %v", err)
	}

	buf := testutil.Sine(440, testRate, 1, 8192)
	c.ProcessInPlace(buf)
	c.SetPosition(Position{DistanceCm: 50, AngleDeg: 5, Height: 1})
	c.ProcessInPlace(buf)

	for i, v := range buf {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d is %v", i, v)
		}
	}
}
