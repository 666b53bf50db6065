package cabinet

import (
	"fmt"

	"github.com/gregorizeidler/Rigmaster-sub006/dsp/param"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/stage"
)

// StageInfo describes one stage of a chain at its current targets.
type StageInfo struct {
	Name      string
	Kind      string
	Frequency float64
	Q         float64
	GainDB    float64
	// Seconds is set for the delay stage only.
	Seconds float64
}

// Chain is the eleven-stage cabinet and microphone model:
//
//	rumble HP → resonance → breakup peaks → cabinet LP → mic HP →
//	proximity shelf → presence peak → off-axis notch → mic LP →
//	air absorption LP → time-of-flight delay
//
// Position changes retarget the position-dependent stages in place. A
// different cabinet or microphone needs a new Chain.
type Chain struct {
	cabinet    CabinetProfile
	mic        MicrophoneProfile
	position   Position
	targets    Targets
	sampleRate float64

	rumble         *stage.Filter
	resonance      *stage.Filter
	breakup        []*stage.Filter
	cabinetLowpass *stage.Filter
	micHighpass    *stage.Filter
	proximity      *stage.Filter
	presence       *stage.Filter
	notch          *stage.Filter
	micLowpass     *stage.Filter
	air            *stage.Filter
	timeOfFlight   *stage.Delay

	filters []*stage.Filter
}

// Build assembles a chain for the given profiles and placement.
func Build(cab CabinetProfile, mic MicrophoneProfile, pos Position, sampleRate float64, opts ...param.Option) (*Chain, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("cabinet: sample rate must be > 0: %f", sampleRate)
	}

	pos = pos.Clamped()
	t := Compute(cab, mic, pos)

	tof, err := stage.NewDelay(MaxTimeOfFlight, t.TimeOfFlight, sampleRate, opts...)
	if err != nil {
		return nil, fmt.Errorf("cabinet: %w", err)
	}

	c := &Chain{
		cabinet:    cab,
		mic:        mic,
		position:   pos,
		targets:    t,
		sampleRate: sampleRate,

		rumble:         stage.NewFilter(stage.Highpass, RumbleFreq, butterworthQ, 0, sampleRate, opts...),
		resonance:      stage.NewFilter(stage.Peak, cab.ResonanceFreq, cab.ResonanceQ, cab.ResonanceGainDB, sampleRate, opts...),
		cabinetLowpass: stage.NewFilter(stage.Lowpass, t.CabinetLowpassFreq, cab.LowpassQ, 0, sampleRate, opts...),
		micHighpass:    stage.NewFilter(stage.Highpass, mic.HighpassFreq, butterworthQ, 0, sampleRate, opts...),
		proximity:      stage.NewFilter(stage.LowShelf, t.ProximityFreq, butterworthQ, t.ProximityGainDB, sampleRate, opts...),
		presence:       stage.NewFilter(stage.Peak, t.PresenceFreq, t.PresenceQ, t.PresenceGainDB, sampleRate, opts...),
		notch:          stage.NewFilter(stage.Notch, t.NotchFreq, t.NotchQ, 0, sampleRate, opts...),
		micLowpass:     stage.NewFilter(stage.Lowpass, mic.LowpassFreq, butterworthQ, 0, sampleRate, opts...),
		air:            stage.NewFilter(stage.Lowpass, t.AirFreq, butterworthQ, 0, sampleRate, opts...),
		timeOfFlight:   tof,
	}

	for _, p := range cab.Breakup {
		c.breakup = append(c.breakup, stage.NewFilter(stage.Peak, p.Frequency, p.Q, p.GainDB, sampleRate, opts...))
	}

	c.filters = append(c.filters, c.rumble, c.resonance)
	c.filters = append(c.filters, c.breakup...)
	c.filters = append(c.filters, c.cabinetLowpass, c.micHighpass, c.proximity, c.presence, c.notch, c.micLowpass, c.air)

	return c, nil
}

// BuildNamed looks up both profiles and builds a chain. Unknown names fail
// with ErrInvalidProfile.
func BuildNamed(cabinetName, micName string, pos Position, sampleRate float64, opts ...param.Option) (*Chain, error) {
	cab, err := LookupCabinet(cabinetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	mic, err := LookupMicrophone(micName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	return Build(cab, mic, pos, sampleRate, opts...)
}

// BuildPreset builds a chain at one of the preset placements (center, edge,
// off_axis, room).
func BuildPreset(cabinetName, micName, positionName string, sampleRate float64, opts ...param.Option) (*Chain, error) {
	p, err := LookupPosition(positionName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	return BuildNamed(cabinetName, micName, p.Position, sampleRate, opts...)
}

// SetPosition retargets the cabinet lowpass, proximity, presence, notch,
// air absorption and time-of-flight stages. It never allocates.
func (c *Chain) SetPosition(pos Position) {
	pos = pos.Clamped()
	t := Compute(c.cabinet, c.mic, pos)

	c.position = pos
	c.targets = t

	c.cabinetLowpass.Frequency.SetTarget(t.CabinetLowpassFreq)
	c.proximity.Set(t.ProximityFreq, butterworthQ, t.ProximityGainDB)
	c.presence.Set(t.PresenceFreq, t.PresenceQ, t.PresenceGainDB)
	c.notch.Set(t.NotchFreq, t.NotchQ, 0)
	c.air.Frequency.SetTarget(t.AirFreq)
	c.timeOfFlight.SetTime(t.TimeOfFlight)
}

// ProcessInPlace runs buf through every stage.
func (c *Chain) ProcessInPlace(buf []float64) {
	for _, f := range c.filters {
		f.ProcessInPlace(buf)
	}

	c.timeOfFlight.ProcessInPlace(buf)
}

// Reset clears all stage memory and jumps every parameter to its target.
func (c *Chain) Reset() {
	for _, f := range c.filters {
		f.Reset()
	}

	c.timeOfFlight.Reset()
}

// Cabinet returns the cabinet profile.
func (c *Chain) Cabinet() CabinetProfile { return c.cabinet }

// Microphone returns the microphone profile.
func (c *Chain) Microphone() MicrophoneProfile { return c.mic }

// Position returns the clamped placement.
func (c *Chain) Position() Position { return c.position }

// Targets returns the position-dependent values currently targeted.
func (c *Chain) Targets() Targets { return c.targets }

// SampleRate returns the processing rate in Hz.
func (c *Chain) SampleRate() float64 { return c.sampleRate }

// TimeOfFlight returns the targeted propagation delay in seconds.
func (c *Chain) TimeOfFlight() float64 { return c.targets.TimeOfFlight }

// Len returns the number of stages including the delay.
func (c *Chain) Len() int { return len(c.filters) + 1 }

// MagnitudeDB returns the combined filter response at freq once all
// targets are reached.
func (c *Chain) MagnitudeDB(freq float64) float64 {
	var db float64
	for _, f := range c.filters {
		db += f.MagnitudeDB(freq)
	}

	return db
}

// Stages describes every stage in processing order.
func (c *Chain) Stages() []StageInfo {
	names := []string{"rumble", "resonance"}
	for i := range c.breakup {
		names = append(names, fmt.Sprintf("breakup%d", i+1))
	}

	names = append(names, "cabinet-lowpass", "mic-highpass", "proximity", "presence", "off-axis-notch", "mic-lowpass", "air-absorption")

	out := make([]StageInfo, 0, c.Len())
	for i, f := range c.filters {
		out = append(out, StageInfo{
			Name:      names[i],
			Kind:      f.Kind().String(),
			Frequency: f.Frequency.Target(),
			Q:         f.Q.Target(),
			GainDB:    f.GainDB.Target(),
		})
	}

	return append(out, StageInfo{
		Name:    "time-of-flight",
		Kind:    "delay",
		Seconds: c.timeOfFlight.Time.Target(),
	})
}
