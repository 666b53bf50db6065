package ir

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Synthetic selects a generated reverb response.
type Synthetic int

const (
	Room Synthetic = iota
	Hall
	Plate
	Spring
)

var syntheticNames = [...]string{
	Room:   "room",
	Hall:   "hall",
	Plate:  "plate",
	Spring: "spring",
}

// decay time constants in seconds
var syntheticDecay = [...]float64{
	Room:   0.5,
	Hall:   2.0,
	Plate:  1.5,
	Spring: 0.3,
}

func (s Synthetic) String() string {
	if s < 0 || int(s) >= len(syntheticNames) {
		return fmt.Sprintf("Synthetic(%d)", int(s))
	}

	return syntheticNames[s]
}

// ParseSynthetic resolves a response name such as "hall".
func ParseSynthetic(name string) (Synthetic, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range syntheticNames {
		if n == name {
			return Synthetic(i), nil
		}
	}

	return 0, fmt.Errorf("ir: unknown synthetic response %q", name)
}

// Generate renders duration seconds of a noise-based reverb response.
// Equal seeds give equal responses.
func Generate(kind Synthetic, duration, sampleRate float64, seed int64) ([]float64, error) {
	if kind < 0 || int(kind) >= len(syntheticNames) {
		return nil, fmt.Errorf("ir: unknown synthetic response %d", int(kind))
	}

	if sampleRate <= 0 || duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("%w: duration %f at %f Hz", ErrEmpty, duration, sampleRate)
	}

	n := int(duration * sampleRate)
	if n == 0 {
		return nil, ErrEmpty
	}

	rng := rand.New(rand.NewSource(seed))
	tau := syntheticDecay[kind] * sampleRate
	early := int(0.05 * sampleRate)

	out := make([]float64, n)
	for i := range out {
		decay := math.Exp(-float64(i) / tau)
		noise := rng.Float64()*2 - 1

		switch kind {
		case Room:
			out[i] = noise * decay
			if i < early {
				out[i] += rng.Float64() * 0.3
			}
		case Hall:
			out[i] = noise * decay
		case Plate:
			out[i] = noise * decay * rng.Float64() * 0.8
		case Spring:
			out[i] = (noise + 0.5*math.Sin(0.1*float64(i))) * decay
		}
	}

	return out, nil
}
