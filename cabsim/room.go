package cabsim

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/delay"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"github.com/cwbudde/algo-dsp/dsp/interp"

	"github.com/gregorizeidler/Rigmaster-sub006/dsp/graph"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/param"
)

// Room ambience bounds.
const (
	MinRoomSize     = 0.01
	MaxRoomSize     = 0.1
	MaxRoomFeedback = 0.5
	MinRoomTone     = 1000.0
	MaxRoomTone     = 8000.0
	MaxRoomMix      = 0.5
)

// controlChunk is the number of samples between room parameter refreshes.
const controlChunk = 32

// roomTaps are the tap times relative to the room size.
var roomTaps = [3]float64{1, 1.37, 1.83}

// RoomSettings configures the room ambience loop.
type RoomSettings struct {
	Enabled bool `json:"enabled"`
	// Size is the shortest tap in seconds.
	Size     float64 `json:"size"`
	Feedback float64 `json:"feedback"`
	// Tone is the loop lowpass corner in Hz.
	Tone float64 `json:"tone"`
	Mix  float64 `json:"mix"`
}

// DefaultRoomSettings returns a small, disabled room.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{Size: 0.03, Feedback: 0.3, Tone: 4000, Mix: 0.15}
}

// Clamped returns r with every field in range. NaN fields take the default.
func (r RoomSettings) Clamped() RoomSettings {
	d := DefaultRoomSettings()

	return RoomSettings{
		Enabled:  r.Enabled,
		Size:     clampOr(r.Size, MinRoomSize, MaxRoomSize, d.Size),
		Feedback: clampOr(r.Feedback, 0, MaxRoomFeedback, d.Feedback),
		Tone:     clampOr(r.Tone, MinRoomTone, MaxRoomTone, d.Tone),
		Mix:      clampOr(r.Mix, 0, MaxRoomMix, d.Mix),
	}
}

func clampOr(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}

	return core.Clamp(v, lo, hi)
}

// room is a three-tap feedback loop: the taps are averaged, lowpassed and
// fed back into the line. Its output is the loop signal scaled by mix.
type room struct {
	sampleRate float64

	size     *param.Smoothed
	feedback *param.Smoothed
	tone     *param.Smoothed
	mix      *param.Smoothed

	line     *delay.Line
	lowpass  *biquad.Section
	designed float64
	tail     float64

	clearing atomic.Bool
}

func newRoom(sampleRate float64, r RoomSettings, opts ...param.Option) (*room, error) {
	r = r.Clamped()

	size := int(math.Ceil(MaxRoomSize*roomTaps[len(roomTaps)-1]*sampleRate)) + 4

	line, err := delay.New(size, delay.WithMode(interp.Linear))
	if err != nil {
		return nil, fmt.Errorf("cabsim: room: %w", err)
	}

	rm := &room{
		sampleRate: sampleRate,
		size:       param.New(r.Size, MinRoomSize, MaxRoomSize, opts...),
		feedback:   param.New(r.Feedback, 0, MaxRoomFeedback, opts...),
		tone:       param.New(r.Tone, MinRoomTone, MaxRoomTone, opts...),
		mix:        param.New(r.Mix, 0, MaxRoomMix, opts...),
		line:       line,
		designed:   r.Tone,
	}
	rm.lowpass = biquad.NewSection(design.Lowpass(r.Tone, 0.707, sampleRate))

	return rm, nil
}

func (r *room) set(s RoomSettings) {
	r.size.SetTarget(s.Size)
	r.feedback.SetTarget(s.Feedback)
	r.tone.SetTarget(s.Tone)
	r.mix.SetTarget(s.Mix)
}

// requestClear empties the loop before its next block. Control side.
func (r *room) requestClear() {
	r.clearing.Store(true)
}

// Process replaces the tapped wet signal with the room return.
func (r *room) Process(b *graph.Buffer) {
	if r.clearing.Swap(false) {
		r.clear()
	}

	b.Downmix()
	buf := b.L

	for off := 0; off < len(buf); off += controlChunk {
		end := min(off+controlChunk, len(buf))
		n := end - off

		size := r.size.Next(n, r.sampleRate) * r.sampleRate
		fb := r.feedback.Next(n, r.sampleRate)
		mix := r.mix.Next(n, r.sampleRate)

		if tone := r.tone.Next(n, r.sampleRate); tone != r.designed {
			r.lowpass.Coefficients = design.Lowpass(tone, 0.707, r.sampleRate)
			r.designed = tone
		}

		for i := off; i < end; i++ {
			r.line.Write(buf[i] + fb*r.tail)

			var sum float64
			for _, k := range roomTaps {
				sum += r.line.ReadFractional(size*k + 1)
			}

			r.tail = core.FlushDenormals(r.lowpass.ProcessSample(sum / float64(len(roomTaps))))
			buf[i] = mix * r.tail
		}
	}
}

// Reset clears the loop and jumps every parameter to its target.
func (r *room) Reset() {
	r.size.Snap()
	r.feedback.Snap()
	r.tone.Snap()
	r.mix.Snap()
	r.clear()
}

func (r *room) clear() {
	r.line.Reset()
	r.lowpass.Reset()
	r.tail = 0
}
