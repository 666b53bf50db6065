// Package param provides click-free control parameters.
//
// A Smoothed value has two sides. The control side (SetTarget, SetImmediate,
// Target) may be called from any goroutine. The audio side (Next, Value,
// Settled, Snap) must only be called from the goroutine that renders audio.
package param

import (
	"math"
	"sync/atomic"

	approx "github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-dsp/dsp/core"
)

// DefaultTimeConstant is the one-pole smoothing time constant in seconds.
const DefaultTimeConstant = 0.03

// settleEpsilon is the relative distance below which a ramp snaps to its target.
const settleEpsilon = 1e-9

// Option configures a Smoothed parameter.
type Option func(*Smoothed)

// WithTimeConstant sets the smoothing time constant in seconds.
// Zero disables smoothing. Negative and non-finite values are ignored.
func WithTimeConstant(seconds float64) Option {
	return func(p *Smoothed) {
		if seconds >= 0 && !math.IsInf(seconds, 0) && !math.IsNaN(seconds) {
			p.tau = seconds
		}
	}
}

// Smoothed is a scalar parameter that glides exponentially toward its target.
//
// Retargeting replaces the pending target and the glide continues from the
// current value, so rapid successive writes never queue stale ramps.
type Smoothed struct {
	target   atomic.Uint64
	jump     atomic.Bool
	min, max float64
	tau      float64

	current float64
}

// New returns a parameter clamped to [minValue, maxValue] that starts settled
// at initial.
func New(initial, minValue, maxValue float64, opts ...Option) *Smoothed {
	if minValue > maxValue {
		minValue, maxValue = maxValue, minValue
	}

	p := &Smoothed{
		min: minValue,
		max: maxValue,
		tau: DefaultTimeConstant,
	}
	for _, opt := range opts {
		opt(p)
	}

	if !isFinite(initial) {
		initial = minValue
	}

	initial = core.Clamp(initial, minValue, maxValue)
	p.target.Store(math.Float64bits(initial))
	p.current = initial

	return p
}

// SetTarget cancels any glide in progress and starts a new one toward v.
// v is clamped to the parameter range; NaN and Inf are dropped.
func (p *Smoothed) SetTarget(v float64) {
	if !isFinite(v) {
		return
	}

	p.target.Store(math.Float64bits(core.Clamp(v, p.min, p.max)))
}

// SetImmediate sets the target and makes the audio side jump to it at the
// next block instead of gliding.
func (p *Smoothed) SetImmediate(v float64) {
	if !isFinite(v) {
		return
	}

	p.target.Store(math.Float64bits(core.Clamp(v, p.min, p.max)))
	p.jump.Store(true)
}

// Target returns the most recent target.
func (p *Smoothed) Target() float64 {
	return math.Float64frombits(p.target.Load())
}

// Range returns the clamp bounds.
func (p *Smoothed) Range() (minValue, maxValue float64) {
	return p.min, p.max
}

// TimeConstant returns the smoothing time constant in seconds.
func (p *Smoothed) TimeConstant() float64 {
	return p.tau
}

// Value returns the current smoothed value. Audio side.
func (p *Smoothed) Value() float64 {
	return p.current
}

// Settled reports whether the current value has reached the target. Audio side.
func (p *Smoothed) Settled() bool {
	return p.current == p.Target() && !p.jump.Load()
}

// Snap moves the current value onto the target. Audio side.
func (p *Smoothed) Snap() {
	p.jump.Store(false)
	p.current = p.Target()
}

// Next advances the glide by n samples at sampleRate and returns the new
// current value. Audio side.
func (p *Smoothed) Next(n int, sampleRate float64) float64 {
	target := p.Target()
	if p.jump.Swap(false) || p.tau == 0 || sampleRate <= 0 {
		p.current = target
		return target
	}

	if p.current == target || n <= 0 {
		return p.current
	}

	x := -float64(n) / (p.tau * sampleRate)

	a := 0.0
	if x > -40 {
		a = core.Clamp(approx.FastExp64(x), 0, 1)
	}

	next := target + (p.current-target)*a

	if math.Abs(next-target) <= settleEpsilon*math.Max(1, math.Abs(target)) {
		next = target
	}

	p.current = next

	return next
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
