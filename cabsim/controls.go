package cabsim

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/gregorizeidler/Rigmaster-sub006/cabinet"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/stage"
	"github.com/gregorizeidler/Rigmaster-sub006/ir"
)

func (s *Simulator) lookupSlot(id Slot) (*slot, error) {
	if !id.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, int(id))
	}

	return s.slots[id], nil
}

// SetCabinet selects a slot's cabinet and rebuilds its chain. Unknown names
// fail with cabinet.ErrInvalidProfile and leave the slot unchanged.
func (s *Simulator) SetCabinet(id Slot, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, err := s.lookupSlot(id)
	if err != nil {
		return err
	}

	cab, err := cabinet.LookupCabinet(name)
	if err != nil {
		return fmt.Errorf("%w: %w", cabinet.ErrInvalidProfile, err)
	}

	sl.cabinet = cab

	return s.updateSlot(sl, true)
}

// SetMicrophone selects a slot's microphone and rebuilds its chain.
func (s *Simulator) SetMicrophone(id Slot, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, err := s.lookupSlot(id)
	if err != nil {
		return err
	}

	mic, err := cabinet.LookupMicrophone(name)
	if err != nil {
		return fmt.Errorf("%w: %w", cabinet.ErrInvalidProfile, err)
	}

	sl.mic = mic

	return s.updateSlot(sl, true)
}

// SetMicPosition moves a slot's microphone. Values are clamped to
// distance [0, 50] cm, angle [0, 90]° and height [-1, 1]. Updates closer
// together than the throttle window are coalesced; Flush applies the last
// one.
func (s *Simulator) SetMicPosition(id Slot, distanceCm, angleDeg, height float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, err := s.lookupSlot(id)
	if err != nil {
		return err
	}

	sl.position = cabinet.NewPosition(distanceCm, angleDeg, height)

	return s.updateSlot(sl, false)
}

// SetDualMix sets the A/B blend in percent with the equal-power law. It is
// ignored outside Dual mode.
func (s *Simulator) SetDualMix(pct float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeDual {
		s.logger.Warn("dual mix ignored outside dual mode", "mode", s.mode, "mix", pct)
		return
	}

	s.mix.SetPosition(pct)
}

// DualMix returns the A/B blend in percent.
func (s *Simulator) DualMix() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mix.Position()
}

// SetStereoSpread pans A to -amount/100 and B to +amount/100. amount is
// clamped to [-100, 100]; negative values swap the sides.
func (s *Simulator) SetStereoSpread(amount float64) {
	if math.IsNaN(amount) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spread = core.Clamp(amount, -MaxStereoSpread, MaxStereoSpread)
	s.panA.SetPan(-s.spread / MaxStereoSpread)
	s.panB.SetPan(s.spread / MaxStereoSpread)
}

// StereoSpread returns the spread amount.
func (s *Simulator) StereoSpread() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.spread
}

// SetPhaseB inverts cabinet B's polarity.
func (s *Simulator) SetPhaseB(inverted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phaseInvert = inverted
	if inverted {
		s.phaseB.Set(-1)
	} else {
		s.phaseB.Set(1)
	}
}

// PhaseB reports whether cabinet B is inverted.
func (s *Simulator) PhaseB() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phaseInvert
}

// SetMicroDelayB delays cabinet B by ms milliseconds, clamped to [0, 2].
// Values above 1.5 ms are applied but logged, since they start to cancel
// when the stereo image is summed to mono.
func (s *Simulator) SetMicroDelayB(ms float64) {
	if math.IsNaN(ms) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.microDelayMs = core.Clamp(ms, 0, MaxMicroDelayMs)
	if s.microDelayMs > MicroDelayWarnMs {
		s.logger.Warn("micro-delay risks phase cancellation in mono", "ms", s.microDelayMs)
	}

	s.microDelay.SetTime(s.microDelayMs / 1000)
	s.realign()
}

// MicroDelayB returns cabinet B's micro-delay in milliseconds.
func (s *Simulator) MicroDelayB() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.microDelayMs
}

// SetWet sets the wet share in percent with the equal-power dry/wet law.
func (s *Simulator) SetWet(pct float64) {
	if math.IsNaN(pct) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.wet = core.Clamp(pct, 0, 100)
	dry, wet := stage.DryWet(s.wet)
	s.dryGain.Set(dry)
	s.wetGain.Set(wet)
	s.realign()
}

// Wet returns the wet share in percent.
func (s *Simulator) Wet() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wet
}

// SetOutputGainDB sets the wet-bus trim, clamped to [-60, +12] dB.
func (s *Simulator) SetOutputGainDB(db float64) {
	if math.IsNaN(db) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.outputGainDB = core.Clamp(db, MinOutputGainDB, MaxOutputGainDB)
	s.trim.SetDB(s.outputGainDB)
}

// OutputGainDB returns the wet-bus trim in dB.
func (s *Simulator) OutputGainDB() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.outputGainDB
}

// SetRoom configures the room ambience. Every field is clamped. Enabling
// connects the loop after the output trim; disabling disconnects it and
// empties its delay line.
func (s *Simulator) SetRoom(r RoomSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setRoom(r)
}

func (s *Simulator) setRoom(r RoomSettings) error {
	r = r.Clamped()
	was := s.roomSettings.Enabled
	s.roomSettings = r
	s.room.set(r)

	if r.Enabled == was {
		return nil
	}

	if !r.Enabled {
		s.room.requestClear()
	}

	return s.wire()
}

// Room returns the room ambience settings.
func (s *Simulator) Room() RoomSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roomSettings
}

// SetIRBlend sets the convolver's A/B blend in percent and realigns the dry
// path to the channels the blend keeps audible.
func (s *Simulator) SetIRBlend(pct float64) {
	s.conv.SetBlend(pct)

	s.mu.Lock()
	s.realign()
	s.mu.Unlock()
}

// LoadIRFile switches to IR mode and loads a WAV file into a convolver
// channel. The dry path is realigned to the new latency. A failed load
// keeps the previous response.
func (s *Simulator) LoadIRFile(ctx context.Context, ch ir.Channel, path string) (ir.Info, error) {
	return s.loadIR(func() (ir.Info, error) { return s.conv.LoadFile(ctx, ch, path) })
}

// LoadIRURL switches to IR mode and fetches a WAV file over HTTP.
func (s *Simulator) LoadIRURL(ctx context.Context, ch ir.Channel, url string) (ir.Info, error) {
	return s.loadIR(func() (ir.Info, error) { return s.conv.LoadURL(ctx, ch, url) })
}

// LoadIRReader switches to IR mode and decodes a WAV stream.
func (s *Simulator) LoadIRReader(ctx context.Context, ch ir.Channel, name string, r io.ReadSeeker) (ir.Info, error) {
	return s.loadIR(func() (ir.Info, error) { return s.conv.LoadReader(ctx, ch, name, r) })
}

// SetIRSamples switches to IR mode and installs a response given as samples.
func (s *Simulator) SetIRSamples(ch ir.Channel, name string, samples []float64, sampleRate float64) (ir.Info, error) {
	return s.loadIR(func() (ir.Info, error) { return s.conv.SetSamples(ch, name, samples, sampleRate) })
}

// loadIR runs load without holding the control lock; decoding and fetching
// may take a while.
func (s *Simulator) loadIR(load func() (ir.Info, error)) (ir.Info, error) {
	if err := s.SetMode(ModeIR); err != nil {
		return ir.Info{}, err
	}

	info, err := load()

	s.mu.Lock()
	s.realign()
	s.mu.Unlock()

	return info, err
}
