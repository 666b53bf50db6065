package response

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
)

const (
	defaultFFTSize = 16384
	defaultLevel   = 1e-3

	// floorDB is reported for bins without energy.
	floorDB = -240.0
)

var (
	// ErrEmpty is returned for an empty impulse response.
	ErrEmpty = errors.New("response: impulse response is empty")
	// ErrInvalidConfig is returned for a non-positive sample rate.
	ErrInvalidConfig = errors.New("response: invalid config")
)

// Config holds response measurement parameters.
type Config struct {
	SampleRate float64
	// FFTSize defaults to 16384 for Measure and to the next power of two
	// of the response length for Analyze.
	FFTSize int
	// Level is the amplitude of the test impulse used by Measure. Keep it
	// low so level-dependent stages stay linear.
	Level float64
}

// Result is a magnitude response on a linear frequency grid.
type Result struct {
	SampleRate  float64
	BinHz       float64
	MagnitudeDB []float64
}

// Analyze returns the magnitude response of an impulse response. Samples
// beyond FFTSize are ignored.
func Analyze(ir []float64, cfg Config) (Result, error) {
	if len(ir) == 0 {
		return Result{}, ErrEmpty
	}

	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) {
		return Result{}, fmt.Errorf("%w: sample rate %f", ErrInvalidConfig, cfg.SampleRate)
	}

	size := cfg.FFTSize
	if size <= 0 {
		size = nextPowerOf2(len(ir))
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return Result{}, fmt.Errorf("response: failed to create FFT plan: %w", err)
	}

	in := make([]complex128, size)
	for i := range min(len(ir), size) {
		in[i] = complex(ir[i], 0)
	}

	spec := make([]complex128, size)
	if err := plan.Forward(spec, in); err != nil {
		return Result{}, fmt.Errorf("response: forward FFT failed: %w", err)
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	for i := range bins {
		re[i], im[i] = real(spec[i]), imag(spec[i])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	for i, m := range mag {
		if m > 0 {
			mag[i] = math.Max(20*math.Log10(m), floorDB)
		} else {
			mag[i] = floorDB
		}
	}

	return Result{
		SampleRate:  cfg.SampleRate,
		BinHz:       cfg.SampleRate / float64(size),
		MagnitudeDB: mag,
	}, nil
}

// Measure feeds a scaled impulse through process and analyzes what comes
// out. process runs once over a buffer of FFTSize samples.
func Measure(process func([]float64), cfg Config) (Result, error) {
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = defaultFFTSize
	}

	if cfg.Level <= 0 {
		cfg.Level = defaultLevel
	}

	buf := make([]float64, cfg.FFTSize)
	buf[0] = cfg.Level
	process(buf)
	vecmath.ScaleBlockInPlace(buf, 1/cfg.Level)

	return Analyze(buf, cfg)
}

// At returns the response at freq, interpolated linearly between bins.
func (r Result) At(freq float64) float64 {
	if len(r.MagnitudeDB) == 0 || r.BinHz <= 0 {
		return floorDB
	}

	pos := freq / r.BinHz
	if pos <= 0 {
		return r.MagnitudeDB[0]
	}

	last := len(r.MagnitudeDB) - 1
	if pos >= float64(last) {
		return r.MagnitudeDB[last]
	}

	i := int(pos)
	frac := pos - float64(i)

	return r.MagnitudeDB[i]*(1-frac) + r.MagnitudeDB[i+1]*frac
}

// Peak returns the strongest bin between lo and hi Hz.
func (r Result) Peak(lo, hi float64) (freq, db float64) {
	db = math.Inf(-1)

	for i, m := range r.MagnitudeDB {
		f := float64(i) * r.BinHz
		if f < lo || f > hi {
			continue
		}

		if m > db {
			freq, db = f, m
		}
	}

	return freq, db
}

// Bands samples the response at each frequency in freqs.
func (r Result) Bands(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = r.At(f)
	}

	return out
}

// LogFrequencies returns n frequencies spaced logarithmically from lo to hi.
func LogFrequencies(lo, hi float64, n int) []float64 {
	if n <= 0 || lo <= 0 || hi <= lo {
		return nil
	}

	if n == 1 {
		return []float64{lo}
	}

	out := make([]float64, n)
	ratio := math.Log(hi / lo)

	for i := range out {
		out[i] = lo * math.Exp(ratio*float64(i)/float64(n-1))
	}

	return out
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
