package cabsim

import (
	"fmt"

	"github.com/gregorizeidler/Rigmaster-sub006/cabinet"
)

// SlotSettings is the stored state of one cabinet slot.
type SlotSettings struct {
	Cabinet    string           `json:"cabinet"`
	Microphone string           `json:"microphone"`
	Position   cabinet.Position `json:"position"`
}

// Settings is the plain-data parameter set of a Simulator, suitable for
// presets.
type Settings struct {
	Mode         Mode         `json:"mode"`
	A            SlotSettings `json:"a"`
	B            SlotSettings `json:"b"`
	DualMix      float64      `json:"dualMix"`
	StereoSpread float64      `json:"stereoSpread"`
	PhaseB       bool         `json:"phaseB"`
	MicroDelayMs float64      `json:"microDelayMs"`
	Wet          float64      `json:"wet"`
	OutputGainDB float64      `json:"outputGainDb"`
	Room         RoomSettings `json:"room"`
	IRBlend      float64      `json:"irBlend"`
	IRInverted   bool         `json:"irInverted"`
}

// Settings snapshots the current parameters.
func (s *Simulator) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	slotSettings := func(sl *slot) SlotSettings {
		return SlotSettings{Cabinet: sl.cabinet.ID, Microphone: sl.mic.ID, Position: sl.position}
	}

	return Settings{
		Mode:         s.mode,
		A:            slotSettings(s.slots[SlotA]),
		B:            slotSettings(s.slots[SlotB]),
		DualMix:      s.mix.Position(),
		StereoSpread: s.spread,
		PhaseB:       s.phaseInvert,
		MicroDelayMs: s.microDelayMs,
		Wet:          s.wet,
		OutputGainDB: s.outputGainDB,
		Room:         s.roomSettings,
		IRBlend:      s.conv.BlendPosition(),
		IRInverted:   s.conv.PhaseInverted(),
	}
}

// Apply restores a parameter set. Names are validated before anything
// changes, so a failed Apply leaves the simulator as it was. Positions are
// applied immediately, bypassing the throttle.
func (s *Simulator) Apply(st Settings) error {
	if !st.Mode.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(st.Mode))
	}

	type resolved struct {
		cab cabinet.CabinetProfile
		mic cabinet.MicrophoneProfile
		pos cabinet.Position
	}

	var next [2]resolved
	for i, ss := range []SlotSettings{st.A, st.B} {
		cab, err := cabinet.LookupCabinet(ss.Cabinet)
		if err != nil {
			return fmt.Errorf("%w: slot %s: %w", cabinet.ErrInvalidProfile, Slot(i), err)
		}

		mic, err := cabinet.LookupMicrophone(ss.Microphone)
		if err != nil {
			return fmt.Errorf("%w: slot %s: %w", cabinet.ErrInvalidProfile, Slot(i), err)
		}

		next[i] = resolved{cab, mic, ss.Position.Clamped()}
	}

	s.mu.Lock()
	for i, sl := range s.slots {
		r := next[i]
		changed := sl.cabinet.ID != r.cab.ID || sl.mic.ID != r.mic.ID
		sl.cabinet, sl.mic, sl.position = r.cab, r.mic, r.pos

		var err error
		switch {
		case changed:
			err = s.updateSlot(sl, true)
		case sl.chain != nil:
			s.applyPosition(sl)
		}

		if err != nil {
			s.mu.Unlock()
			return err
		}
	}

	err := s.setMode(st.Mode)
	if err == nil {
		err = s.setRoom(st.Room)
	}

	// Unlike SetDualMix, restoring the blend works in every mode.
	s.mix.SetPosition(st.DualMix)
	s.realign()
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.SetStereoSpread(st.StereoSpread)
	s.SetPhaseB(st.PhaseB)
	s.SetMicroDelayB(st.MicroDelayMs)
	s.SetWet(st.Wet)
	s.SetOutputGainDB(st.OutputGainDB)
	s.SetIRBlend(st.IRBlend)
	s.conv.SetPhaseInverted(st.IRInverted)

	return nil
}
