package cabinet

import (
	"errors"
	"math"
	"testing"
)

func TestProfileTablesAreComplete(t *testing.T) {
	cabs := Cabinets()
	if len(cabs) != 8 {
		t.Fatalf("len(Cabinets()) = %d, want 8", len(cabs))
	}

	for i, c := range cabs {
		if i > 0 && cabs[i-1].ID >= c.ID {
			t.Fatalf("cabinets not sorted: %q before %q", cabs[i-1].ID, c.ID)
		}

		if n := len(c.Breakup); n < 1 || n > 3 {
			t.Fatalf("%s: %d breakup peaks, want 1..3", c.ID, n)
		}

		if c.ResonanceFreq <= 0 || c.LowpassFreq <= 0 || c.Name == "" {
			t.Fatalf("%s: incomplete profile %+v", c.ID, c)
		}
	}

	mics := Microphones()
	if len(mics) != 6 {
		t.Fatalf("len(Microphones()) = %d, want 6", len(mics))
	}

	for _, m := range mics {
		if m.ProximityDecay <= 0 || m.HighpassFreq >= m.LowpassFreq {
			t.Fatalf("%s: invalid profile %+v", m.ID, m)
		}
	}

	if len(Positions()) != 4 {
		t.Fatalf("len(Positions()) = %d, want 4", len(Positions()))
	}
}

func TestLookupNormalizesNames(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"4x12_vintage", "4x12_vintage"},
		{"4X12-Vintage", "4x12_vintage"},
		{" 4x12_v30 ", "4x12_vintage"},
		{"1x10 tweed", "1x10_tweed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := LookupCabinet(tc.name)
			if err != nil {
				t.Fatalf("LookupCabinet(%q): %v", tc.name, err)
			}

			if c.ID != tc.want {
				t.Fatalf("ID = %q, want %q", c.ID, tc.want)
			}
		})
	}

	m, err := LookupMicrophone("Ribbon")
	if err != nil || m.ID != "royer121" {
		t.Fatalf("LookupMicrophone(Ribbon) = %q, %v", m.ID, err)
	}
}

func TestLookupUnknownNames(t *testing.T) {
	if _, err := LookupCabinet("8x10_fridge"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cabinet error = %v, want ErrNotFound", err)
	}

	if _, err := LookupMicrophone("tin-can"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("microphone error = %v, want ErrNotFound", err)
	}

	if _, err := LookupPosition("ceiling"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("position error = %v, want ErrNotFound", err)
	}
}

func TestLookupReturnsCopies(t *testing.T) {
	a, _ := LookupCabinet("4x12_vintage")
	a.Breakup[0].GainDB = 99

	b, _ := LookupCabinet("4x12_vintage")
	if b.Breakup[0].GainDB == 99 {
		t.Fatal("profile table was mutated through a lookup result")
	}
}

func TestPositionClamping(t *testing.T) {
	tests := []struct {
		name string
		in   Position
		want Position
	}{
		{"inside", Position{10, 30, 0.5}, Position{10, 30, 0.5}},
		{"negative", Position{-5, -45, -3}, Position{0, 0, -1}},
		{"huge", Position{1e9, 720, 42}, Position{50, 90, 1}},
		{"infinite", Position{math.Inf(1), math.Inf(-1), math.Inf(1)}, Position{50, 0, 1}},
		{"nan", Position{math.NaN(), math.NaN(), math.NaN()}, Position{0, 0, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Clamped(); got != tc.want {
				t.Fatalf("Clamped() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNamedPositionsAreValid(t *testing.T) {
	for _, p := range Positions() {
		if p.Position != p.Position.Clamped() {
			t.Fatalf("%s: preset %+v outside valid range", p.ID, p.Position)
		}
	}

	room, err := LookupPosition("room")
	if err != nil {
		t.Fatalf("LookupPosition(room): %v", err)
	}

	center, _ := LookupPosition("center")
	if room.Position.DistanceCm <= center.Position.DistanceCm {
		t.Fatal("room preset should sit further back than center")
	}
}
