package cabinet

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// Physical constants of the near-field model.
const (
	SpeedOfSound = 343.0 // m/s

	RumbleFreq      = 65.0
	MaxTimeOfFlight = 0.05

	notchDisabledFreq = 20000.0
	notchDisabledQ    = 0.1
	notchMinAngle     = 10.0

	// butterworthQ is the Q of the fixed highpass/lowpass stages.
	butterworthQ = 0.707
)

// Targets are the position-dependent stage values for one cabinet, mic and
// placement.
type Targets struct {
	CabinetLowpassFreq float64 `json:"cabinetLowpassFreq"`

	ProximityGainDB float64 `json:"proximityGainDb"`
	ProximityFreq   float64 `json:"proximityFreq"`

	PresenceGainDB float64 `json:"presenceGainDb"`
	PresenceFreq   float64 `json:"presenceFreq"`
	PresenceQ      float64 `json:"presenceQ"`

	NotchFreq   float64 `json:"notchFreq"`
	NotchQ      float64 `json:"notchQ"`
	NotchActive bool    `json:"notchActive"`

	AirFreq float64 `json:"airFreq"`

	// TimeOfFlight is the propagation delay in seconds.
	TimeOfFlight float64 `json:"timeOfFlight"`
}

// Compute evaluates the near-field model. pos is clamped first.
func Compute(cab CabinetProfile, mic MicrophoneProfile, pos Position) Targets {
	pos = pos.Clamped()
	d := pos.DistanceM()
	angle := pos.AngleDeg
	h := pos.Height

	t := Targets{
		CabinetLowpassFreq: CabinetLowpass(cab, d),
		PresenceQ:          mic.PresenceQ * (1 + 0.3*angle/MaxAngleDeg),
		AirFreq:            AirAbsorption(d),
		TimeOfFlight:       TimeOfFlight(d),
	}
	t.ProximityGainDB, t.ProximityFreq = Proximity(mic, d)
	t.PresenceGainDB = core.Clamp(mic.PresenceBoostDB*math.Cos(angle*math.Pi/180), -6, 6)
	t.PresenceFreq = core.Clamp(mic.PresenceFreq*(1+0.12*h), 1500, 12000)
	t.NotchFreq, t.NotchQ, t.NotchActive = OffAxisNotch(angle, h)

	return t
}

// CabinetLowpass returns the speaker rolloff corner at distance d metres.
func CabinetLowpass(cab CabinetProfile, d float64) float64 {
	f := cab.LowpassFreq * (1 - 0.1*math.Min(2*d, 1))
	return core.Clamp(f, 0.9*cab.LowpassFreq, cab.LowpassFreq)
}

// Proximity returns the proximity-effect shelf gain and corner at distance
// d metres.
func Proximity(mic MicrophoneProfile, d float64) (gainDB, freq float64) {
	gainDB = 0
	if mic.ProximityDecay > 0 {
		gainDB = math.Max(0, mic.ProximityBoostDB*math.Exp(-d/mic.ProximityDecay))
	}

	gainDB = core.Clamp(gainDB, 0, math.Max(0, mic.ProximityBoostDB))
	freq = core.Clamp(mic.ProximityFreq*(1-0.2*d), 80, math.Max(80, mic.ProximityFreq))

	return gainDB, freq
}

// OffAxisNotch returns the comb-filter notch for an off-axis angle and
// height. At 10° and below the notch is parked at 20 kHz with Q 0.1.
func OffAxisNotch(angleDeg, height float64) (freq, q float64, active bool) {
	if angleDeg <= notchMinAngle {
		return notchDisabledFreq, notchDisabledQ, false
	}

	freq = core.Clamp((3500+1500*angleDeg/MaxAngleDeg)*(1+0.15*height), 2000, 9000)
	q = 1 + 0.6*angleDeg/MaxAngleDeg

	return freq, q, true
}

// AirAbsorption returns the high-frequency loss corner at distance d metres.
func AirAbsorption(d float64) float64 {
	return core.Clamp(math.Max(6000, 20000/(1+25*d)), 6000, 20000)
}

// TimeOfFlight returns the propagation delay in seconds over d metres.
func TimeOfFlight(d float64) float64 {
	return core.Clamp(d/SpeedOfSound, 0, MaxTimeOfFlight)
}
