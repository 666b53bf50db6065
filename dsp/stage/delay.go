package stage

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
	"github.com/cwbudde/algo-dsp/dsp/interp"

	"github.com/gregorizeidler/Rigmaster-sub006/dsp/param"
)

// Delay is a fractional delay line whose delay time glides to new targets.
type Delay struct {
	sampleRate float64
	maxSeconds float64

	// Time is the delay in seconds.
	Time *param.Smoothed

	line *delay.Line
}

// NewDelay returns a delay stage able to hold up to maxSeconds.
func NewDelay(maxSeconds, seconds, sampleRate float64, opts ...param.Option) (*Delay, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("stage: delay sample rate must be > 0: %f", sampleRate)
	}

	if maxSeconds <= 0 || math.IsNaN(maxSeconds) || math.IsInf(maxSeconds, 0) {
		return nil, fmt.Errorf("stage: delay max time must be > 0: %f", maxSeconds)
	}

	// Read position is delay+1 behind the write head after each write, and
	// linear interpolation touches one more sample.
	size := int(math.Ceil(maxSeconds*sampleRate)) + 4

	line, err := delay.New(size, delay.WithMode(interp.Linear))
	if err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}

	return &Delay{
		sampleRate: sampleRate,
		maxSeconds: maxSeconds,
		Time:       param.New(seconds, 0, maxSeconds, opts...),
		line:       line,
	}, nil
}

// SetTime retargets the delay time in seconds.
func (d *Delay) SetTime(seconds float64) {
	d.Time.SetTarget(seconds)
}

// MaxTime returns the longest delay the line can hold.
func (d *Delay) MaxTime() float64 { return d.maxSeconds }

// ProcessInPlace delays buf, interpolating the delay time linearly across
// each control chunk while it glides.
func (d *Delay) ProcessInPlace(buf []float64) {
	for off := 0; off < len(buf); off += controlChunk {
		end := min(off+controlChunk, len(buf))
		n := end - off

		start := d.Time.Value() * d.sampleRate
		stop := d.Time.Next(n, d.sampleRate) * d.sampleRate
		step := (stop - start) / float64(n)

		for i := off; i < end; i++ {
			start += step
			d.line.Write(buf[i])
			buf[i] = d.line.ReadFractional(start + 1)
		}
	}
}

// Reset clears the line and jumps the delay time to its target.
func (d *Delay) Reset() {
	d.Time.Snap()
	d.line.Reset()
}
