// Package pan places a mono signal in the stereo field.
//
// Two Positioner implementations share one interface: StereoPanner applies
// the constant-power law directly, while Legacy3D emulates placing a source
// on the listener's horizontal plane and deriving gains from its azimuth.
// A host picks one at construction time.
package pan

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/gregorizeidler/Rigmaster-sub006/dsp/param"
)

// controlChunk is the number of samples per pan-gain refresh while the
// position glides.
const controlChunk = 32

// Kind identifies a Positioner implementation.
type Kind int

const (
	// KindStereoPanner is the native constant-power panner.
	KindStereoPanner Kind = iota
	// KindLegacy3D emulates panning with a positioned 3D source.
	KindLegacy3D
)

func (k Kind) String() string {
	switch k {
	case KindStereoPanner:
		return "stereo"
	case KindLegacy3D:
		return "legacy3d"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Positioner pans a mono block into a stereo pair.
type Positioner interface {
	// SetPan retargets the position in [-1, 1]; -1 is hard left.
	SetPan(p float64)
	// PanTarget returns the most recent target position.
	PanTarget() float64
	// Gains returns the left and right gains for a position.
	Gains(p float64) (left, right float64)
	// Process writes mono panned into left and right. left may alias mono.
	Process(mono, left, right []float64)
	// Reset jumps the position to its target.
	Reset()
	// Kind reports the implementation.
	Kind() Kind
}

// New returns the Positioner implementation for kind.
func New(kind Kind, sampleRate float64, opts ...param.Option) Positioner {
	if kind == KindLegacy3D {
		return NewLegacy3D(sampleRate, opts...)
	}

	return NewStereoPanner(sampleRate, opts...)
}

// positioner carries the smoothing shared by both implementations.
type positioner struct {
	sampleRate float64
	pan        *param.Smoothed
	law        func(p float64) (float64, float64)
}

func newPositioner(sampleRate float64, law func(float64) (float64, float64), opts []param.Option) positioner {
	return positioner{
		sampleRate: sampleRate,
		pan:        param.New(0, -1, 1, opts...),
		law:        law,
	}
}

func (p *positioner) SetPan(v float64)   { p.pan.SetTarget(v) }
func (p *positioner) PanTarget() float64 { return p.pan.Target() }
func (p *positioner) Reset()             { p.pan.Snap() }
func (p *positioner) Gains(v float64) (float64, float64) {
	return p.law(core.Clamp(v, -1, 1))
}

func (p *positioner) Process(mono, left, right []float64) {
	for off := 0; off < len(mono); off += controlChunk {
		end := min(off+controlChunk, len(mono))
		n := end - off

		l0, r0 := p.law(p.pan.Value())
		l1, r1 := p.law(p.pan.Next(n, p.sampleRate))
		dl := (l1 - l0) / float64(n)
		dr := (r1 - r0) / float64(n)

		for i := off; i < end; i++ {
			l0 += dl
			r0 += dr
			x := mono[i]
			right[i] = x * r0
			left[i] = x * l0
		}
	}
}

// StereoPanner is the constant-power panner: with x = (p+1)/2 the gains are
// cos(x·π/2) and sin(x·π/2).
type StereoPanner struct {
	positioner
}

// NewStereoPanner returns a centered constant-power panner.
func NewStereoPanner(sampleRate float64, opts ...param.Option) *StereoPanner {
	return &StereoPanner{newPositioner(sampleRate, constantPower, opts)}
}

// Kind reports KindStereoPanner.
func (*StereoPanner) Kind() Kind { return KindStereoPanner }

func constantPower(p float64) (float64, float64) {
	sin, cos := math.Sincos((p + 1) / 2 * math.Pi / 2)
	return cos, sin
}

// Legacy3D places the source at (p, 0, 1-|p|) in front of the listener and
// pans by azimuth with the equal-power model. Intermediate positions sit
// slightly closer to center than StereoPanner; the extremes and the center
// agree.
type Legacy3D struct {
	positioner
}

// NewLegacy3D returns a centered 3D-emulation panner.
func NewLegacy3D(sampleRate float64, opts ...param.Option) *Legacy3D {
	return &Legacy3D{newPositioner(sampleRate, azimuthPower, opts)}
}

// Kind reports KindLegacy3D.
func (*Legacy3D) Kind() Kind { return KindLegacy3D }

func azimuthPower(p float64) (float64, float64) {
	azimuth := math.Atan2(p, 1-math.Abs(p)) // radians in [-π/2, π/2]
	sin, cos := math.Sincos((azimuth + math.Pi/2) / 2)
	return cos, sin
}
