package ir

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/conv"
	"github.com/cwbudde/algo-dsp/dsp/resample"
	irmeasure "github.com/cwbudde/algo-dsp/measure/ir"
	vecmath "github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"

	"github.com/gregorizeidler/Rigmaster-sub006/dsp/stage"
)

// Defaults of the post-convolution EQ and the engine partitioning.
const (
	DefaultHighpass = 80.0
	DefaultLowpass  = 8000.0

	DefaultMinBlockOrder = 6
	DefaultMaxBlockOrder = 13

	// peakWindow bounds the latency search to the direct sound.
	peakWindow = 0.02
	// maxDownload caps LoadURL bodies.
	maxDownload = 64 << 20
)

type config struct {
	minOrder  int
	maxOrder  int
	normalize bool
	logger    *slog.Logger
	client    *http.Client
}

// Option configures a Convolver.
type Option func(*config)

// WithBlockOrder sets the partition orders of the convolution engine. The
// engine latency is 2^minOrder samples.
func WithBlockOrder(minOrder, maxOrder int) Option {
	return func(c *config) {
		if minOrder >= 1 && maxOrder >= minOrder {
			c.minOrder, c.maxOrder = minOrder, maxOrder
		}
	}
}

// WithNormalize scales every loaded kernel to unit energy (default true).
func WithNormalize(on bool) Option {
	return func(c *config) { c.normalize = on }
}

// WithLogger routes load events to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient sets the client used by LoadURL.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		if client != nil {
			c.client = client
		}
	}
}

// blockEngine is the part of conv.PartitionedConvolution the audio path
// uses.
type blockEngine interface {
	ProcessBlock(input, output []float64) error
	Reset()
}

type kernel struct {
	engine blockEngine
	info   Info
}

// Convolver is the impulse-response stage: two convolution slots blended
// with an equal-power law, a polarity switch and a highpass/lowpass post-EQ.
//
// Loading runs on the caller's goroutine and publishes the prepared kernel
// atomically; ProcessInPlace picks it up on its next call. A failed load
// leaves the previous kernel in place.
type Convolver struct {
	sampleRate float64
	cfg        config

	mu       sync.Mutex
	slots    [2]atomic.Pointer[kernel]
	inverted bool

	Blend    *stage.Crossfade
	Phase    *stage.Gain
	Highpass *stage.Filter
	Lowpass  *stage.Filter

	scratchA, scratchB []float64
}

// NewConvolver returns an empty convolver; it outputs silence until a
// response is loaded.
func NewConvolver(sampleRate float64, opts ...Option) (*Convolver, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("ir: sample rate must be > 0: %f", sampleRate)
	}

	cfg := config{
		minOrder:  DefaultMinBlockOrder,
		maxOrder:  DefaultMaxBlockOrder,
		normalize: true,
		logger:    slog.New(slog.DiscardHandler),
		client:    http.DefaultClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Convolver{
		sampleRate: sampleRate,
		cfg:        cfg,
		Blend:      stage.NewCrossfade(0, sampleRate),
		Phase:      stage.NewGain(1, sampleRate),
		Highpass:   stage.NewFilter(stage.Highpass, DefaultHighpass, 0.707, 0, sampleRate),
		Lowpass:    stage.NewFilter(stage.Lowpass, DefaultLowpass, 0.707, 0, sampleRate),
	}, nil
}

// SampleRate returns the processing rate in Hz.
func (c *Convolver) SampleRate() float64 { return c.sampleRate }

// EngineLatency returns the partitioned convolution latency in seconds.
func (c *Convolver) EngineLatency() float64 {
	return float64(int(1)<<c.cfg.minOrder) / c.sampleRate
}

// LoadFile decodes a WAV file into ch.
func (c *Convolver) LoadFile(ctx context.Context, ch Channel, path string) (Info, error) {
	k, err := c.prepareFile(ctx, path)
	if err != nil {
		return c.fail(ch, path, err)
	}

	return c.publish(ch, k), nil
}

// LoadURL fetches a WAV file over HTTP into ch.
func (c *Convolver) LoadURL(ctx context.Context, ch Channel, url string) (Info, error) {
	data, err := c.fetch(ctx, url)
	if err != nil {
		return c.fail(ch, url, err)
	}

	return c.LoadReader(ctx, ch, url, bytes.NewReader(data))
}

// LoadReader decodes a WAV stream into ch. name is reported in Info.
func (c *Convolver) LoadReader(ctx context.Context, ch Channel, name string, r io.ReadSeeker) (Info, error) {
	k, err := c.prepareReader(ctx, name, r)
	if err != nil {
		return c.fail(ch, name, err)
	}

	return c.publish(ch, k), nil
}

// LoadPair decodes two files concurrently and installs both only when both
// succeed.
func (c *Convolver) LoadPair(ctx context.Context, pathA, pathB string) (Info, Info, error) {
	var ka, kb *kernel

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ka, err = c.prepareFile(gctx, pathA)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLoad, pathA, err)
		}

		return nil
	})
	g.Go(func() error {
		var err error
		kb, err = c.prepareFile(gctx, pathB)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLoad, pathB, err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		c.cfg.logger.Error("impulse response pair load failed", "error", err)
		return Info{}, Info{}, err
	}

	return c.publish(A, ka), c.publish(B, kb), nil
}

// SetSamples installs a kernel given at sampleRate into ch.
func (c *Convolver) SetSamples(ch Channel, name string, samples []float64, sampleRate float64) (Info, error) {
	k, err := c.prepare(context.Background(), name, samples, sampleRate, 1)
	if err != nil {
		return c.fail(ch, name, err)
	}

	return c.publish(ch, k), nil
}

// Clear removes the kernel from ch.
func (c *Convolver) Clear(ch Channel) {
	if !ch.valid() {
		return
	}

	c.slots[ch].Store(nil)
	c.cfg.logger.Debug("impulse response cleared", "channel", ch)
}

// Info reports the kernel loaded in ch.
func (c *Convolver) Info(ch Channel) (Info, bool) {
	if !ch.valid() {
		return Info{}, false
	}

	k := c.slots[ch].Load()
	if k == nil {
		return Info{}, false
	}

	return k.info, true
}

// Latency returns the latency of the active response in seconds. With both
// channels loaded it is the larger latency among those the blend keeps
// audible; with one loaded, that channel's. ok is false while nothing is
// loaded.
func (c *Convolver) Latency() (seconds float64, ok bool) {
	ka, kb := c.slots[A].Load(), c.slots[B].Load()

	switch {
	case ka != nil && kb != nil:
		c.mu.Lock()
		ga, gb := stage.EqualPower(c.Blend.Position())
		c.mu.Unlock()

		switch {
		case gb == 0:
			return ka.info.Latency, true
		case ga == 0:
			return kb.info.Latency, true
		default:
			return math.Max(ka.info.Latency, kb.info.Latency), true
		}
	case ka != nil:
		return ka.info.Latency, true
	case kb != nil:
		return kb.info.Latency, true
	default:
		return 0, false
	}
}

// SetBlend sets the A/B blend in percent. It only matters while both
// channels hold a kernel.
func (c *Convolver) SetBlend(pct float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Blend.SetPosition(pct)
}

// BlendPosition returns the A/B blend in percent.
func (c *Convolver) BlendPosition() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.Blend.Position()
}

// SetPhaseInverted flips the polarity of the convolved signal.
func (c *Convolver) SetPhaseInverted(inverted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inverted = inverted
	if inverted {
		c.Phase.Set(-1)
	} else {
		c.Phase.Set(1)
	}
}

// PhaseInverted reports the polarity switch.
func (c *Convolver) PhaseInverted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inverted
}

// SetHighpass retargets the post-EQ highpass corner.
func (c *Convolver) SetHighpass(freq float64) {
	c.Highpass.Frequency.SetTarget(freq)
}

// SetLowpass retargets the post-EQ lowpass corner.
func (c *Convolver) SetLowpass(freq float64) {
	c.Lowpass.Frequency.SetTarget(freq)
}

// ProcessInPlace convolves buf. Audio side; not safe for concurrent calls.
func (c *Convolver) ProcessInPlace(buf []float64) {
	ka, kb := c.slots[A].Load(), c.slots[B].Load()
	if ka == nil && kb == nil {
		clear(buf)
		return
	}

	n := len(buf)
	if cap(c.scratchA) < n {
		c.scratchA = make([]float64, n)
		c.scratchB = make([]float64, n)
	}

	a, b := c.scratchA[:n], c.scratchB[:n]

	var err error

	switch {
	case ka != nil && kb != nil:
		if err = ka.engine.ProcessBlock(buf, a); err == nil {
			err = kb.engine.ProcessBlock(buf, b)
		}

		if err == nil {
			c.Blend.A.ProcessInPlace(a)
			c.Blend.B.ProcessInPlace(b)
			vecmath.AddBlock(buf, a, b)
		}
	case ka != nil:
		if err = ka.engine.ProcessBlock(buf, a); err == nil {
			copy(buf, a)
		}
	default:
		if err = kb.engine.ProcessBlock(buf, b); err == nil {
			copy(buf, b)
		}
	}

	if err != nil {
		clear(buf)
		return
	}

	c.Phase.ProcessInPlace(buf)
	c.Highpass.ProcessInPlace(buf)
	c.Lowpass.ProcessInPlace(buf)
}

// Reset clears the engines and the post-EQ. Audio side.
func (c *Convolver) Reset() {
	for i := range c.slots {
		if k := c.slots[i].Load(); k != nil {
			k.engine.Reset()
		}
	}

	c.Blend.A.Reset()
	c.Blend.B.Reset()
	c.Phase.Reset()
	c.Highpass.Reset()
	c.Lowpass.Reset()
}

func (c *Convolver) fail(ch Channel, name string, err error) (Info, error) {
	err = fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	c.cfg.logger.Error("impulse response load failed", "channel", ch, "name", name, "error", err)

	return Info{}, err
}

func (c *Convolver) publish(ch Channel, k *kernel) Info {
	if !ch.valid() {
		ch = A
	}

	c.slots[ch].Store(k)
	c.cfg.logger.Info("impulse response loaded",
		"channel", ch,
		"name", k.info.Name,
		"length", k.info.Length,
		"latency_ms", k.info.Latency*1000)

	return k.info
}

func (c *Convolver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.cfg.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDownload))
}

func (c *Convolver) prepareFile(ctx context.Context, path string) (*kernel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return c.prepareReader(ctx, filepath.Base(path), f)
}

func (c *Convolver) prepareReader(ctx context.Context, name string, r io.ReadSeeker) (*kernel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples, rate, channels, err := Decode(r)
	if err != nil {
		return nil, err
	}

	return c.prepare(ctx, name, samples, rate, channels)
}

func (c *Convolver) prepare(ctx context.Context, name string, samples []float64, rate float64, channels int) (*kernel, error) {
	if len(samples) == 0 {
		return nil, ErrEmpty
	}

	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: sample rate %f", ErrUnsupported, rate)
	}

	for _, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite sample", ErrUnsupported)
		}
	}

	taps := append([]float64(nil), samples...)
	if rate != c.sampleRate {
		r, err := resample.NewForRates(rate, c.sampleRate, resample.WithQuality(resample.QualityBest))
		if err != nil {
			return nil, err
		}

		taps = r.Process(taps)
		if len(taps) == 0 {
			return nil, ErrEmpty
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.cfg.normalize {
		energy := vecmath.DotProduct(taps, taps)
		if energy == 0 {
			return nil, fmt.Errorf("%w: silent response", ErrEmpty)
		}

		vecmath.ScaleBlockInPlace(taps, 1/math.Sqrt(energy))
	}

	engine, err := conv.NewPartitionedConvolution(taps, c.cfg.minOrder, c.cfg.maxOrder)
	if err != nil {
		return nil, err
	}

	peak := PeakIndex(taps, c.sampleRate)
	info := Info{
		Name:       name,
		SourceRate: rate,
		Channels:   channels,
		Length:     len(taps),
		Duration:   float64(len(taps)) / c.sampleRate,
		PeakIndex:  peak,
		Latency:    float64(peak)/c.sampleRate + float64(engine.Latency())/c.sampleRate,
	}

	if rt, err := irmeasure.NewAnalyzer(c.sampleRate).RT60(taps); err == nil {
		info.RT60 = rt
	}

	return &kernel{engine: engine, info: info}, nil
}

// PeakIndex returns the index of the largest magnitude within the first
// 20 ms of x.
func PeakIndex(x []float64, sampleRate float64) int {
	n := min(len(x), int(sampleRate*peakWindow))

	peak, at := 0.0, 0
	for i := range n {
		if v := math.Abs(x[i]); v > peak {
			peak, at = v, i
		}
	}

	return at
}
