package cabsim

import (
	"github.com/gregorizeidler/Rigmaster-sub006/cabinet"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/param"
)

// CreateCabinet builds a standalone chain at a preset placement (center,
// edge, off_axis or room). The chain belongs to the caller and is not
// routed through any Simulator. Unknown names fail with
// cabinet.ErrInvalidProfile; callers are expected to bypass the cabinet.
func CreateCabinet(cabinetType, micType, position string, sampleRate float64, opts ...param.Option) (*cabinet.Chain, error) {
	return cabinet.BuildPreset(cabinetType, micType, position, sampleRate, opts...)
}

// Cabinets lists the cabinet profiles.
func Cabinets() []cabinet.CabinetProfile { return cabinet.Cabinets() }

// Microphones lists the microphone profiles.
func Microphones() []cabinet.MicrophoneProfile { return cabinet.Microphones() }

// Positions lists the preset placements.
func Positions() []cabinet.NamedPosition { return cabinet.Positions() }
