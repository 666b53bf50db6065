package stage

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/gregorizeidler/Rigmaster-sub006/dsp/param"
)

// maxGain bounds linear gain stages (about +18 dB either polarity).
const maxGain = 8.0

// Gain is a linear gain stage with a smoothed level. Negative levels invert
// polarity.
type Gain struct {
	sampleRate float64

	Level *param.Smoothed
}

// NewGain returns a settled gain stage.
func NewGain(level, sampleRate float64, opts ...param.Option) *Gain {
	return &Gain{
		sampleRate: sampleRate,
		Level:      param.New(level, -maxGain, maxGain, opts...),
	}
}

// Set retargets the linear level.
func (g *Gain) Set(level float64) {
	g.Level.SetTarget(level)
}

// SetDB retargets the level from decibels.
func (g *Gain) SetDB(db float64) {
	g.Level.SetTarget(core.DBToLinear(db))
}

// ProcessInPlace scales buf.
func (g *Gain) ProcessInPlace(buf []float64) {
	g.ProcessStereo(buf, nil)
}

// ProcessStereo applies the same gain ramp to left and right. right may be nil.
func (g *Gain) ProcessStereo(left, right []float64) {
	if g.Level.Settled() {
		v := g.Level.Value()
		if v == 1 {
			return
		}

		vecmath.ScaleBlockInPlace(left, v)
		if right != nil {
			vecmath.ScaleBlockInPlace(right, v)
		}

		return
	}

	for off := 0; off < len(left); off += controlChunk {
		end := min(off+controlChunk, len(left))
		n := end - off

		start := g.Level.Value()
		step := (g.Level.Next(n, g.sampleRate) - start) / float64(n)

		v := start
		for i := off; i < end; i++ {
			v += step
			left[i] *= v
			if right != nil {
				right[i] *= v
			}
		}
	}
}

// Reset jumps the level to its target.
func (g *Gain) Reset() {
	g.Level.Snap()
}

// EqualPower returns the cosine/sine gain pair for a blend position in
// percent. a*a + b*b == 1 for every position.
func EqualPower(pct float64) (a, b float64) {
	theta := core.Clamp(pct, 0, 100) / 100 * math.Pi / 2
	return math.Cos(theta), math.Sin(theta)
}

// DryWet returns the square-root law gains for a wet percentage.
// dry*dry + wet*wet == 1 for every percentage.
func DryWet(pct float64) (dry, wet float64) {
	p := core.Clamp(pct, 0, 100) / 100
	return math.Sqrt(1 - p), math.Sqrt(p)
}

// Crossfade is a pair of gain stages driven by the equal-power law.
type Crossfade struct {
	A, B *Gain

	position float64
}

// NewCrossfade returns a crossfade settled at pct (0 is all A, 100 all B).
func NewCrossfade(pct, sampleRate float64, opts ...param.Option) *Crossfade {
	a, b := EqualPower(pct)

	return &Crossfade{
		A:        NewGain(a, sampleRate, opts...),
		B:        NewGain(b, sampleRate, opts...),
		position: core.Clamp(pct, 0, 100),
	}
}

// SetPosition retargets both gains for a blend position in percent.
func (c *Crossfade) SetPosition(pct float64) {
	if math.IsNaN(pct) {
		return
	}

	c.position = core.Clamp(pct, 0, 100)
	a, b := EqualPower(c.position)
	c.A.Set(a)
	c.B.Set(b)
}

// Position returns the blend position in percent.
func (c *Crossfade) Position() float64 { return c.position }
