package stage

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/effects"
	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"
)

// SoftLimiter bounds a signal to a ceiling with a tanh transfer curve.
type SoftLimiter struct {
	ceiling     float64
	left, right *effects.Distortion
}

// NewSoftLimiter returns a stereo tanh limiter. The ceiling is clamped to
// [0.25, 4].
func NewSoftLimiter(ceiling, sampleRate float64) (*SoftLimiter, error) {
	ceiling = core.Clamp(ceiling, 0.25, 4)

	curve := func() (*effects.Distortion, error) {
		return effects.NewDistortion(sampleRate,
			effects.WithDistortionMode(effects.DistortionModeTanh),
			effects.WithDistortionDrive(1/ceiling),
			effects.WithDistortionOutputLevel(ceiling),
			effects.WithDistortionMix(1),
		)
	}

	left, err := curve()
	if err != nil {
		return nil, fmt.Errorf("stage: soft limiter: %w", err)
	}

	right, err := curve()
	if err != nil {
		return nil, fmt.Errorf("stage: soft limiter: %w", err)
	}

	return &SoftLimiter{ceiling: ceiling, left: left, right: right}, nil
}

// Ceiling returns the asymptotic output bound.
func (l *SoftLimiter) Ceiling() float64 { return l.ceiling }

// ProcessStereo limits left and right in place. right may be nil.
func (l *SoftLimiter) ProcessStereo(left, right []float64) {
	l.left.ProcessInPlace(left)
	if right != nil {
		l.right.ProcessInPlace(right)
	}
}

// Reset clears limiter state.
func (l *SoftLimiter) Reset() {
	l.left.Reset()
	l.right.Reset()
}

// CompressorSettings configures the wet-bus compressor.
type CompressorSettings struct {
	ThresholdDB float64 `json:"thresholdDb"`
	Ratio       float64 `json:"ratio"`
	KneeDB      float64 `json:"kneeDb"`
	AttackMs    float64 `json:"attackMs"`
	ReleaseMs   float64 `json:"releaseMs"`
	MakeupDB    float64 `json:"makeupDb"`
}

// DefaultCompressorSettings returns gentle bus-glue settings.
func DefaultCompressorSettings() CompressorSettings {
	return CompressorSettings{
		ThresholdDB: -12,
		Ratio:       3,
		KneeDB:      6,
		AttackMs:    5,
		ReleaseMs:   120,
		MakeupDB:    0,
	}
}

// Compressor is a stereo-linked compressor: both channels follow the gain
// computed from the louder one.
type Compressor struct {
	left, right *dynamics.Compressor
}

// NewCompressor returns a compressor configured with s.
func NewCompressor(sampleRate float64, s CompressorSettings) (*Compressor, error) {
	left, err := newBusCompressor(sampleRate, s)
	if err != nil {
		return nil, err
	}

	right, err := newBusCompressor(sampleRate, s)
	if err != nil {
		return nil, err
	}

	return &Compressor{left: left, right: right}, nil
}

func newBusCompressor(sampleRate float64, s CompressorSettings) (*dynamics.Compressor, error) {
	c, err := dynamics.NewCompressor(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("stage: compressor: %w", err)
	}

	setters := []struct {
		name string
		fn   func() error
	}{
		{"threshold", func() error { return c.SetThreshold(s.ThresholdDB) }},
		{"ratio", func() error { return c.SetRatio(s.Ratio) }},
		{"knee", func() error { return c.SetKnee(s.KneeDB) }},
		{"attack", func() error { return c.SetAttack(s.AttackMs) }},
		{"release", func() error { return c.SetRelease(s.ReleaseMs) }},
		{"makeup", func() error { return c.SetMakeupGain(s.MakeupDB) }},
	}
	for _, set := range setters {
		if err := set.fn(); err != nil {
			return nil, fmt.Errorf("stage: compressor %s: %w", set.name, err)
		}
	}

	return c, nil
}

// ProcessStereo compresses left and right in place. With a nil right channel
// only the left compressor runs.
func (c *Compressor) ProcessStereo(left, right []float64) {
	if right == nil {
		c.left.ProcessInPlace(left)
		return
	}

	for i := range left {
		sc := math.Max(math.Abs(left[i]), math.Abs(right[i]))
		left[i] = c.left.ProcessSampleSidechain(left[i], sc)
		right[i] = c.right.ProcessSampleSidechain(right[i], sc)
	}
}

// Reset clears detector state.
func (c *Compressor) Reset() {
	c.left.Reset()
	c.right.Reset()
}
