package cabinet

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// Position bounds.
const (
	MaxDistanceCm = 50.0
	MaxAngleDeg   = 90.0
	MaxHeight     = 1.0
)

// Position places the microphone in front of the speaker.
type Position struct {
	// DistanceCm is the distance from the grille in [0, 50] cm.
	DistanceCm float64 `json:"distanceCm"`
	// AngleDeg is the off-axis angle in [0, 90] degrees.
	AngleDeg float64 `json:"angleDeg"`
	// Height is the normalized vertical offset in [-1, 1]; -1, 0 and +1
	// are below, on and above the cone center.
	Height float64 `json:"height"`
}

// NewPosition returns a clamped position.
func NewPosition(distanceCm, angleDeg, height float64) Position {
	return Position{DistanceCm: distanceCm, AngleDeg: angleDeg, Height: height}.Clamped()
}

// Clamped returns p with every field forced into its valid range. NaN fields
// become 0.
func (p Position) Clamped() Position {
	return Position{
		DistanceCm: clampField(p.DistanceCm, 0, MaxDistanceCm),
		AngleDeg:   clampField(p.AngleDeg, 0, MaxAngleDeg),
		Height:     clampField(p.Height, -MaxHeight, MaxHeight),
	}
}

// DistanceM returns the distance in metres.
func (p Position) DistanceM() float64 { return p.DistanceCm / 100 }

func (p Position) String() string {
	return fmt.Sprintf("%.1fcm %.0f° h%+.1f", p.DistanceCm, p.AngleDeg, p.Height)
}

func clampField(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return core.Clamp(v, lo, hi)
}

// NamedPosition is a preset microphone placement.
type NamedPosition struct {
	ID          string
	Name        string
	Description string
	Position    Position
}

var namedPositions = map[string]NamedPosition{
	"center": {
		Name: "Center (On-Axis)", Description: "Bright, focused, most aggressive",
		Position: Position{DistanceCm: 2, AngleDeg: 0, Height: 0},
	},
	"edge": {
		Name: "Edge (Off-Center)", Description: "Warmer, fuller, balanced",
		Position: Position{DistanceCm: 3, AngleDeg: 20, Height: 0},
	},
	"off_axis": {
		Name: "Off-Axis", Description: "Natural, less harsh, smooth",
		Position: Position{DistanceCm: 5, AngleDeg: 45, Height: 0},
	},
	"room": {
		Name: "Room (1ft back)", Description: "Ambient, airy, spacious",
		Position: Position{DistanceCm: 30, AngleDeg: 15, Height: 0},
	},
}

func init() {
	for id, p := range namedPositions {
		p.ID = id
		namedPositions[id] = p
	}
}

// LookupPosition returns the preset placement registered under name.
func LookupPosition(name string) (NamedPosition, error) {
	p, ok := namedPositions[Canonical(name)]
	if !ok {
		return NamedPosition{}, fmt.Errorf("%w: position %q", ErrNotFound, name)
	}

	return p, nil
}

// Positions returns every preset placement sorted by ID.
func Positions() []NamedPosition {
	out := make([]NamedPosition, 0, len(namedPositions))
	for _, id := range sortedKeys(namedPositions) {
		out = append(out, namedPositions[id])
	}

	return out
}
