package cabinet

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrNotFound is returned by profile lookups for unknown names.
	ErrNotFound = errors.New("cabinet: profile not found")
	// ErrInvalidProfile is returned when a chain cannot be built because a
	// cabinet, microphone or position name is unknown.
	ErrInvalidProfile = errors.New("cabinet: invalid profile")
)

// BreakupPeak is one cone-breakup resonance.
type BreakupPeak struct {
	Frequency float64
	GainDB    float64
	Q         float64
}

// CabinetProfile describes the acoustics of a speaker cabinet.
type CabinetProfile struct {
	ID          string
	Name        string
	Description string

	ResonanceFreq   float64
	ResonanceQ      float64
	ResonanceGainDB float64

	LowpassFreq float64
	LowpassQ    float64

	// Breakup lists one to three cone-breakup peaks in ascending frequency.
	Breakup []BreakupPeak
}

// MicrophoneProfile describes a microphone's coloration.
type MicrophoneProfile struct {
	ID          string
	Name        string
	Description string

	PresenceBoostDB float64
	PresenceFreq    float64
	PresenceQ       float64

	ProximityBoostDB float64
	// ProximityDecay is the distance in metres over which the proximity
	// boost falls to 1/e.
	ProximityDecay float64
	ProximityFreq  float64

	HighpassFreq float64
	LowpassFreq  float64
}

var cabinets = map[string]CabinetProfile{
	"1x12_open": {
		Name: `1x12" Open Back`, Description: "Fender-style combo, warm and open",
		ResonanceFreq: 100, ResonanceQ: 2.5, ResonanceGainDB: 2,
		LowpassFreq: 4800, LowpassQ: 0.8,
		Breakup: []BreakupPeak{{2200, 2.5, 3}, {3600, -2, 4}},
	},
	"1x12_closed": {
		Name: `1x12" Closed Back`, Description: "Tight, focused single speaker",
		ResonanceFreq: 120, ResonanceQ: 3.0, ResonanceGainDB: 3,
		LowpassFreq: 4500, LowpassQ: 1.0,
		Breakup: []BreakupPeak{{2000, 3, 2.5}, {3400, 2, 3}},
	},
	"2x12_open": {
		Name: `2x12" Open Back`, Description: "Vox AC30 style, rich and full",
		ResonanceFreq: 90, ResonanceQ: 2.0, ResonanceGainDB: 1.5,
		LowpassFreq: 5000, LowpassQ: 0.7,
		Breakup: []BreakupPeak{{2400, 2, 3}, {4000, -1.5, 4}},
	},
	"2x12_closed": {
		Name: `2x12" Closed Back`, Description: "Marshall-style, punchy mids",
		ResonanceFreq: 110, ResonanceQ: 2.8, ResonanceGainDB: 2.5,
		LowpassFreq: 4700, LowpassQ: 0.9,
		Breakup: []BreakupPeak{{2100, 3, 2.5}, {3700, 2.5, 3}, {5200, -2, 4}},
	},
	"4x12_vintage": {
		Name: `4x12" Vintage 30`, Description: "Classic Marshall stack, aggressive",
		ResonanceFreq: 80, ResonanceQ: 3.5, ResonanceGainDB: 4,
		LowpassFreq: 5200, LowpassQ: 1.2,
		Breakup: []BreakupPeak{{2500, 4, 2}, {3600, 3, 3}, {5000, -3, 4}},
	},
	"4x12_greenback": {
		Name: `4x12" Greenback`, Description: "Warm vintage British tone",
		ResonanceFreq: 75, ResonanceQ: 3.0, ResonanceGainDB: 3.5,
		LowpassFreq: 4200, LowpassQ: 1.1,
		Breakup: []BreakupPeak{{1800, 3, 2}, {3200, 2, 3}},
	},
	"1x10_tweed": {
		Name: `1x10" Tweed`, Description: "Vintage Fender, bright and snappy",
		ResonanceFreq: 140, ResonanceQ: 2.0, ResonanceGainDB: 1,
		LowpassFreq: 5500, LowpassQ: 0.6,
		Breakup: []BreakupPeak{{2800, 2.5, 3}},
	},
	"4x10_bassman": {
		Name: `4x10" Bassman`, Description: "Full range, clean headroom",
		ResonanceFreq: 95, ResonanceQ: 2.2, ResonanceGainDB: 2,
		LowpassFreq: 6000, LowpassQ: 0.5,
		Breakup: []BreakupPeak{{1500, 2, 2}, {3000, 1.5, 3}},
	},
}

var microphones = map[string]MicrophoneProfile{
	"sm57": {
		Name: "Shure SM57", Description: "Industry standard dynamic, bright",
		PresenceBoostDB: 4, PresenceFreq: 5000, PresenceQ: 1.5,
		ProximityBoostDB: 3, ProximityDecay: 0.08, ProximityFreq: 200,
		HighpassFreq: 80, LowpassFreq: 15000,
	},
	"sm7b": {
		Name: "Shure SM7B", Description: "Dynamic broadcast mic, full bodied",
		PresenceBoostDB: 2, PresenceFreq: 4000, PresenceQ: 1.0,
		ProximityBoostDB: 4, ProximityDecay: 0.10, ProximityFreq: 150,
		HighpassFreq: 70, LowpassFreq: 18000,
	},
	"royer121": {
		Name: "Royer R-121", Description: "Ribbon mic, smooth and dark",
		PresenceBoostDB: -2, PresenceFreq: 6000, PresenceQ: 0.8,
		ProximityBoostDB: 5, ProximityDecay: 0.12, ProximityFreq: 120,
		HighpassFreq: 60, LowpassFreq: 12000,
	},
	"u87": {
		Name: "Neumann U87", Description: "Large diaphragm condenser, detailed",
		PresenceBoostDB: 3, PresenceFreq: 8000, PresenceQ: 1.2,
		ProximityBoostDB: 2, ProximityDecay: 0.09, ProximityFreq: 180,
		HighpassFreq: 40, LowpassFreq: 20000,
	},
	"md421": {
		Name: "Sennheiser MD421", Description: "Dynamic, scooped mids",
		PresenceBoostDB: 3.5, PresenceFreq: 5500, PresenceQ: 1.3,
		ProximityBoostDB: 3.5, ProximityDecay: 0.10, ProximityFreq: 160,
		HighpassFreq: 75, LowpassFreq: 17000,
	},
	"e906": {
		Name: "Sennheiser e906", Description: "Modern dynamic, tight low end",
		PresenceBoostDB: 4.5, PresenceFreq: 4500, PresenceQ: 1.4,
		ProximityBoostDB: 2.5, ProximityDecay: 0.07, ProximityFreq: 190,
		HighpassFreq: 85, LowpassFreq: 16000,
	},
}

var aliases = map[string]string{
	"4x12_v30": "4x12_vintage",
	"v30":      "4x12_vintage",
	"57":       "sm57",
	"7b":       "sm7b",
	"ribbon":   "royer121",
	"r121":     "royer121",
	"421":      "md421",
	"906":      "e906",
}

func init() {
	for id, c := range cabinets {
		c.ID = id
		cabinets[id] = c
	}

	for id, m := range microphones {
		m.ID = id
		microphones[id] = m
	}
}

// Canonical normalizes a profile name: lower case, '-' and ' ' become '_',
// and aliases resolve to their profile ID.
func Canonical(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.NewReplacer("-", "_", " ", "_").Replace(id)

	if target, ok := aliases[id]; ok {
		return target
	}

	return id
}

// LookupCabinet returns the cabinet profile registered under name.
func LookupCabinet(name string) (CabinetProfile, error) {
	c, ok := cabinets[Canonical(name)]
	if !ok {
		return CabinetProfile{}, fmt.Errorf("%w: cabinet %q", ErrNotFound, name)
	}

	c.Breakup = slices.Clone(c.Breakup)

	return c, nil
}

// LookupMicrophone returns the microphone profile registered under name.
func LookupMicrophone(name string) (MicrophoneProfile, error) {
	m, ok := microphones[Canonical(name)]
	if !ok {
		return MicrophoneProfile{}, fmt.Errorf("%w: microphone %q", ErrNotFound, name)
	}

	return m, nil
}

// Cabinets returns every cabinet profile sorted by ID.
func Cabinets() []CabinetProfile {
	out := make([]CabinetProfile, 0, len(cabinets))
	for _, id := range sortedKeys(cabinets) {
		c, _ := LookupCabinet(id)
		out = append(out, c)
	}

	return out
}

// Microphones returns every microphone profile sorted by ID.
func Microphones() []MicrophoneProfile {
	out := make([]MicrophoneProfile, 0, len(microphones))
	for _, id := range sortedKeys(microphones) {
		out = append(out, microphones[id])
	}

	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
