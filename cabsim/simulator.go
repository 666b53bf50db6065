package cabsim

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gregorizeidler/Rigmaster-sub006/cabinet"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/graph"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/pan"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/stage"
	"github.com/gregorizeidler/Rigmaster-sub006/ir"
)

// Limits of the simulator controls.
const (
	// MaxAlignment caps the dry-path alignment delay in seconds.
	MaxAlignment = 0.05

	MinOutputGainDB = -60.0
	MaxOutputGainDB = 12.0

	MaxMicroDelayMs  = 2.0
	MicroDelayWarnMs = 1.5

	MaxStereoSpread = 100.0

	limiterCeiling = 1.0
)

// Default slot contents.
var (
	defaultA = SlotSettings{Cabinet: "4x12_vintage", Microphone: "sm57"}
	defaultB = SlotSettings{
		Cabinet:    "4x12_greenback",
		Microphone: "royer121",
		Position:   cabinet.Position{DistanceCm: 10, AngleDeg: 45},
	}
)

// Simulator is the cabinet simulator. It implements graph.Node, so it can
// run inside a host graph.
type Simulator struct {
	sampleRate float64
	cfg        config
	logger     *slog.Logger

	mu    sync.Mutex
	mode  Mode
	slots [2]*slot
	g     *graph.Graph
	plan  atomic.Pointer[graph.Plan]

	dryDelay   *stage.Delay
	dryGain    *stage.Gain
	wetGain    *stage.Gain
	microDelay *stage.Delay
	phaseB     *stage.Gain
	panA, panB pan.Positioner
	mix        *stage.Crossfade
	conv       *ir.Convolver
	comp       *stage.Compressor
	limiter    *stage.SoftLimiter
	trim       *stage.Gain
	room       *room

	wet          float64
	spread       float64
	phaseInvert  bool
	microDelayMs float64
	outputGainDB float64
	roomSettings RoomSettings
}

// New returns a simulator in Single mode with cabinet A (4x12 Vintage 30,
// SM57, on the cone) fully wet.
func New(host Host, opts ...Option) (*Simulator, error) {
	if host == nil {
		return nil, fmt.Errorf("cabsim: nil host")
	}

	fs := host.SampleRate()
	if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return nil, fmt.Errorf("cabsim: sample rate must be > 0: %f", fs)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	s := &Simulator{
		sampleRate:   fs,
		cfg:          cfg,
		logger:       cfg.logger,
		mode:         ModeSingle,
		g:            graph.New(),
		wet:          100,
		spread:       50,
		roomSettings: DefaultRoomSettings(),
	}

	if err := s.init(host); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Simulator) init(host Host) error {
	var err error

	fs := s.sampleRate
	po := s.cfg.paramOptions()

	for i, def := range []SlotSettings{defaultA, defaultB} {
		sl := &slot{id: Slot(i), node: cabNode(Slot(i)), position: def.Position.Clamped()}
		if sl.cabinet, err = cabinet.LookupCabinet(def.Cabinet); err != nil {
			return fmt.Errorf("cabsim: %w", err)
		}

		if sl.mic, err = cabinet.LookupMicrophone(def.Microphone); err != nil {
			return fmt.Errorf("cabsim: %w", err)
		}

		s.slots[i] = sl
	}

	if s.dryDelay, err = stage.NewDelay(MaxAlignment, 0, fs, po...); err != nil {
		return fmt.Errorf("cabsim: dry delay: %w", err)
	}

	if s.microDelay, err = stage.NewDelay(MaxMicroDelayMs/1000, 0, fs, po...); err != nil {
		return fmt.Errorf("cabsim: micro-delay: %w", err)
	}

	if s.comp, err = stage.NewCompressor(fs, s.cfg.compressor); err != nil {
		return fmt.Errorf("cabsim: %w", err)
	}

	if s.limiter, err = stage.NewSoftLimiter(limiterCeiling, fs); err != nil {
		return fmt.Errorf("cabsim: %w", err)
	}

	if s.room, err = newRoom(fs, s.roomSettings, po...); err != nil {
		return err
	}

	s.conv, err = ir.NewConvolver(fs,
		ir.WithBlockOrder(s.cfg.irMinOrder, s.cfg.irMaxOrder),
		ir.WithLogger(s.logger),
	)
	if err != nil {
		return fmt.Errorf("cabsim: %w", err)
	}

	dry, wet := stage.DryWet(s.wet)
	s.dryGain = stage.NewGain(dry, fs, po...)
	s.wetGain = stage.NewGain(wet, fs, po...)
	s.phaseB = stage.NewGain(1, fs, po...)
	s.trim = stage.NewGain(1, fs, po...)
	s.mix = stage.NewCrossfade(0, fs, po...)

	kind := positionerKind(host, s.cfg)
	s.panA = pan.New(kind, fs, po...)
	s.panB = pan.New(kind, fs, po...)
	s.panA.SetPan(-s.spread / MaxStereoSpread)
	s.panB.SetPan(s.spread / MaxStereoSpread)
	s.panA.Reset()
	s.panB.Reset()

	if err := s.addNodes(); err != nil {
		return err
	}

	if err := s.prepare(); err != nil {
		return err
	}

	if err := s.wire(); err != nil {
		return err
	}

	s.realign()
	s.dryDelay.Reset()

	return nil
}

// SampleRate returns the processing rate in Hz.
func (s *Simulator) SampleRate() float64 { return s.sampleRate }

// Mode returns the active routing mode.
func (s *Simulator) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mode
}

// IR returns the convolver used in IR mode. Its polarity and post-EQ
// controls may be used directly; set the blend through SetIRBlend.
func (s *Simulator) IR() *ir.Convolver { return s.conv }

// Chain returns the chain owned by a slot, or nil while the slot has none.
func (s *Simulator) Chain(id Slot) *cabinet.Chain {
	if !id.valid() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.slots[id].chain
}

// PositionInfo returns a slot's stored placement and physics targets.
func (s *Simulator) PositionInfo(id Slot) (PositionInfo, error) {
	if !id.valid() {
		return PositionInfo{}, fmt.Errorf("%w: %d", ErrInvalidSlot, int(id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.slots[id].info(), nil
}

// DryDelay returns the targeted dry-path alignment delay in seconds.
func (s *Simulator) DryDelay() float64 {
	return s.dryDelay.Time.Target()
}

// ProcessBlock runs one block of mono input and writes the stereo result.
// outR may be nil, in which case the result is downmixed into outL. in and
// outL may alias. Audio side.
func (s *Simulator) ProcessBlock(in, outL, outR []float64) {
	s.plan.Load().Process(in, outL, outR)
}

// ProcessMono processes buf in place, downmixing Dual mode's stereo image.
// Audio side.
func (s *Simulator) ProcessMono(buf []float64) {
	s.plan.Load().Process(buf, buf, nil)
}

// Process implements graph.Node. The result is always stereo.
func (s *Simulator) Process(b *graph.Buffer) {
	b.Downmix()
	s.plan.Load().Process(b.L, b.L, b.R)
	b.Stereo = true
}

// Reset clears every stage and jumps all parameters to their targets.
// Audio side; it never takes the control lock.
func (s *Simulator) Reset() {
	for _, sl := range s.slots {
		if c := sl.live.Load(); c != nil {
			c.Reset()
		}
	}

	s.dryDelay.Reset()
	s.dryGain.Reset()
	s.wetGain.Reset()
	s.microDelay.Reset()
	s.phaseB.Reset()
	s.panA.Reset()
	s.panB.Reset()
	s.mix.A.Reset()
	s.mix.B.Reset()
	s.conv.Reset()
	s.comp.Reset()
	s.limiter.Reset()
	s.trim.Reset()
	s.room.Reset()
}

// active reports whether the current mode routes a slot.
func (s *Simulator) active(id Slot) bool {
	switch s.mode {
	case ModeSingle:
		return id == SlotA
	case ModeDual:
		return true
	default:
		return false
	}
}

// realign sets the dry delay to the wet path's latency.
func (s *Simulator) realign() {
	s.dryDelay.SetTime(math.Min(MaxAlignment, s.wetLatency()))
}

func (s *Simulator) wetLatency() float64 {
	tof := func(id Slot) float64 {
		if c := s.slots[id].chain; c != nil {
			return c.TimeOfFlight()
		}

		return 0
	}

	switch s.mode {
	case ModeSingle:
		return tof(SlotA)
	case ModeDual:
		return math.Max(tof(SlotA), tof(SlotB)+s.microDelay.Time.Target())
	case ModeIR:
		lat, ok := s.conv.Latency()
		if !ok {
			return 0
		}

		return lat
	default:
		return 0
	}
}
