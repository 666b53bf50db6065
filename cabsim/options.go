package cabsim

import (
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/gregorizeidler/Rigmaster-sub006/dsp/pan"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/param"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/stage"
	"github.com/gregorizeidler/Rigmaster-sub006/ir"
)

// DefaultThrottle is the minimum spacing of applied position updates per slot.
const DefaultThrottle = 16 * time.Millisecond

// Host is the audio environment the simulator runs in.
type Host interface {
	SampleRate() float64
}

// StereoPannerCapable is implemented by hosts that report whether a native
// stereo panner is available. Hosts that do not implement it are assumed to
// have one.
type StereoPannerCapable interface {
	SupportsStereoPanner() bool
}

// StaticHost is a plain-data Host.
type StaticHost struct {
	Rate float64
	// LegacyPanner reports a host without a native stereo panner.
	LegacyPanner bool
}

// SampleRate returns h.Rate.
func (h StaticHost) SampleRate() float64 { return h.Rate }

// SupportsStereoPanner reports !h.LegacyPanner.
func (h StaticHost) SupportsStereoPanner() bool { return !h.LegacyPanner }

type config struct {
	proc       core.ProcessorConfig
	logger     *slog.Logger
	clock      func() time.Time
	throttle   time.Duration
	smoothing  float64
	panKind    pan.Kind
	panForced  bool
	irMinOrder int
	irMaxOrder int
	compressor stage.CompressorSettings
}

func defaultConfig() config {
	return config{
		proc:       core.DefaultProcessorConfig(),
		logger:     slog.New(slog.DiscardHandler),
		clock:      time.Now,
		throttle:   DefaultThrottle,
		smoothing:  param.DefaultTimeConstant,
		irMinOrder: ir.DefaultMinBlockOrder,
		irMaxOrder: ir.DefaultMaxBlockOrder,
		compressor: stage.DefaultCompressorSettings(),
	}
}

func (c config) paramOptions() []param.Option {
	return []param.Option{param.WithTimeConstant(c.smoothing)}
}

// Option configures a Simulator.
type Option func(*config)

// WithBlockSize sets the largest block processed in one pass.
func WithBlockSize(n int) Option {
	return func(c *config) { core.WithBlockSize(n)(&c.proc) }
}

// WithLogger routes simulator and convolver events to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now for the update throttle.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithThrottle sets the minimum spacing of position updates. Zero applies
// every update.
func WithThrottle(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.throttle = d
		}
	}
}

// WithSmoothing sets the parameter glide time constant in seconds.
func WithSmoothing(seconds float64) Option {
	return func(c *config) {
		if seconds >= 0 && !math.IsInf(seconds, 0) && !math.IsNaN(seconds) {
			c.smoothing = seconds
		}
	}
}

// WithPositioner forces a panner implementation instead of asking the host.
func WithPositioner(kind pan.Kind) Option {
	return func(c *config) {
		if kind == pan.KindStereoPanner || kind == pan.KindLegacy3D {
			c.panKind, c.panForced = kind, true
		}
	}
}

// WithIRBlockOrder sets the convolver partition orders.
func WithIRBlockOrder(minOrder, maxOrder int) Option {
	return func(c *config) {
		if minOrder >= 1 && maxOrder >= minOrder {
			c.irMinOrder, c.irMaxOrder = minOrder, maxOrder
		}
	}
}

// WithCompressor sets the wet-bus compressor.
func WithCompressor(s stage.CompressorSettings) Option {
	return func(c *config) { c.compressor = s }
}

// positionerKind picks the panner once, at construction.
func positionerKind(h Host, cfg config) pan.Kind {
	if cfg.panForced {
		return cfg.panKind
	}

	if pc, ok := h.(StereoPannerCapable); ok && !pc.SupportsStereoPanner() {
		return pan.KindLegacy3D
	}

	return pan.KindStereoPanner
}
