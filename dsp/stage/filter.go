package stage

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/gregorizeidler/Rigmaster-sub006/dsp/param"
)

// controlChunk is the number of samples between coefficient refreshes while a
// parameter glides.
const controlChunk = 32

// Parameter bounds for filter stages. Frequencies at or above Nyquist design
// to a transparent section.
const (
	minFrequency = 1.0
	maxFrequency = 100000.0
	minQ         = 0.01
	maxQ         = 100.0
	maxGainDB    = 48.0
)

// Kind selects the response of a Filter.
type Kind int

const (
	Lowpass Kind = iota
	Highpass
	Peak
	LowShelf
	HighShelf
	Notch
	Bandpass
	Allpass
)

var kindNames = [...]string{
	Lowpass:   "lowpass",
	Highpass:  "highpass",
	Peak:      "peak",
	LowShelf:  "lowshelf",
	HighShelf: "highshelf",
	Notch:     "notch",
	Bandpass:  "bandpass",
	Allpass:   "allpass",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return kindNames[k]
}

// Design returns RBJ coefficients for the kind.
func (k Kind) Design(freq, q, gainDB, sampleRate float64) biquad.Coefficients {
	switch k {
	case Lowpass:
		return design.Lowpass(freq, q, sampleRate)
	case Highpass:
		return design.Highpass(freq, q, sampleRate)
	case Peak:
		return design.Peak(freq, gainDB, q, sampleRate)
	case LowShelf:
		return design.LowShelf(freq, gainDB, q, sampleRate)
	case HighShelf:
		return design.HighShelf(freq, gainDB, q, sampleRate)
	case Notch:
		return design.Notch(freq, q, sampleRate)
	case Bandpass:
		return design.Bandpass(freq, q, sampleRate)
	case Allpass:
		return design.Allpass(freq, q, sampleRate)
	default:
		return biquad.Identity()
	}
}

// Filter is a biquad stage whose frequency, Q and gain glide to new targets.
type Filter struct {
	kind       Kind
	sampleRate float64

	Frequency *param.Smoothed
	Q         *param.Smoothed
	GainDB    *param.Smoothed

	section                         *biquad.Section
	designedF, designedQ, designedG float64
}

// NewFilter returns a settled filter stage. gainDB is ignored by kinds that
// have no gain.
func NewFilter(kind Kind, freq, q, gainDB, sampleRate float64, opts ...param.Option) *Filter {
	f := &Filter{
		kind:       kind,
		sampleRate: sampleRate,
		Frequency:  param.New(freq, minFrequency, maxFrequency, opts...),
		Q:          param.New(q, minQ, maxQ, opts...),
		GainDB:     param.New(gainDB, -maxGainDB, maxGainDB, opts...),
	}
	f.designedF = f.Frequency.Value()
	f.designedQ = f.Q.Value()
	f.designedG = f.GainDB.Value()
	f.section = biquad.NewSection(kind.Design(f.designedF, f.designedQ, f.designedG, sampleRate))

	return f
}

// Kind returns the filter response type.
func (f *Filter) Kind() Kind { return f.kind }

// SampleRate returns the processing rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Set retargets frequency, Q and gain.
func (f *Filter) Set(freq, q, gainDB float64) {
	f.Frequency.SetTarget(freq)
	f.Q.SetTarget(q)
	f.GainDB.SetTarget(gainDB)
}

// Coefficients returns the section designed from the current targets.
func (f *Filter) Coefficients() biquad.Coefficients {
	return f.kind.Design(f.Frequency.Target(), f.Q.Target(), f.GainDB.Target(), f.sampleRate)
}

// MagnitudeDB returns the response at freq once all targets are reached.
func (f *Filter) MagnitudeDB(freq float64) float64 {
	c := f.Coefficients()
	return c.MagnitudeDB(freq, f.sampleRate)
}

// ProcessInPlace filters buf, redesigning the section every control chunk
// while a parameter glides.
func (f *Filter) ProcessInPlace(buf []float64) {
	for off := 0; off < len(buf); off += controlChunk {
		end := min(off+controlChunk, len(buf))
		f.refresh(end - off)
		f.section.ProcessBlock(buf[off:end])
	}

	f.section.FlushDenormals()
}

// Reset clears the filter memory and jumps every parameter to its target.
func (f *Filter) Reset() {
	f.Frequency.Snap()
	f.Q.Snap()
	f.GainDB.Snap()
	f.section.Reset()
	f.redesign(f.Frequency.Value(), f.Q.Value(), f.GainDB.Value())
}

func (f *Filter) refresh(n int) {
	fr := f.Frequency.Next(n, f.sampleRate)
	q := f.Q.Next(n, f.sampleRate)
	g := f.GainDB.Next(n, f.sampleRate)

	if fr == f.designedF && q == f.designedQ && g == f.designedG {
		return
	}

	f.redesign(fr, q, g)
}

func (f *Filter) redesign(fr, q, g float64) {
	f.section.Coefficients = f.kind.Design(fr, q, g, f.sampleRate)
	f.designedF, f.designedQ, f.designedG = fr, q, g
}
