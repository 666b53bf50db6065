package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/gregorizeidler/Rigmaster-sub006/cabinet"
	"github.com/gregorizeidler/Rigmaster-sub006/cabsim"
	"github.com/gregorizeidler/Rigmaster-sub006/ir"
)

const renderBlock = 1024

type renderOptions struct {
	in, out  string
	settings string
	mode     string
	bits     int
	tail     float64
	seed     int64

	cabA, micA, cabB, micB string
	posA, posB             string
	distance, angle        float64
	height                 float64

	irA, irB     string
	irBlend      float64
	mix, spread  float64
	microDelay   float64
	phaseB       bool
	wet, gain    float64
	room         bool
	roomMix      float64
	roomFeedback float64
}

func (o *renderOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.in, "in", "", "input WAV file (mixed to mono)")
	fs.StringVar(&o.out, "out", "", "output WAV file (stereo)")
	fs.StringVar(&o.settings, "settings", "", "JSON settings to apply before the other flags")
	fs.StringVar(&o.mode, "mode", "single", "routing mode: single, dual or ir")
	fs.IntVar(&o.bits, "bits", 24, "output bit depth: 16 or 24")
	fs.Float64Var(&o.tail, "tail", 0.5, "seconds of silence appended to let the output decay")
	fs.Int64Var(&o.seed, "seed", 1, "dither seed")

	fs.StringVar(&o.cabA, "cab", "4x12_vintage", "cabinet A")
	fs.StringVar(&o.micA, "mic", "sm57", "microphone A")
	fs.StringVar(&o.posA, "position", "", "preset placement for A (overrides -distance, -angle, -height)")
	fs.Float64Var(&o.distance, "distance", 0, "mic A distance in cm")
	fs.Float64Var(&o.angle, "angle", 0, "mic A angle in degrees")
	fs.Float64Var(&o.height, "height", 0, "mic A height")
	fs.StringVar(&o.cabB, "cab-b", "4x12_greenback", "cabinet B (dual mode)")
	fs.StringVar(&o.micB, "mic-b", "royer121", "microphone B (dual mode)")
	fs.StringVar(&o.posB, "position-b", "", "preset placement for B")

	fs.StringVar(&o.irA, "ir", "", "impulse response for IR channel A")
	fs.StringVar(&o.irB, "ir-b", "", "impulse response for IR channel B")
	fs.Float64Var(&o.irBlend, "ir-blend", 0, "IR A/B blend in percent")
	fs.Float64Var(&o.mix, "mix", 0, "dual A/B blend in percent")
	fs.Float64Var(&o.spread, "spread", 50, "dual stereo spread [-100, 100]")
	fs.Float64Var(&o.microDelay, "micro-delay", 0, "dual cabinet B delay in ms [0, 2]")
	fs.BoolVar(&o.phaseB, "phase-b", false, "invert cabinet B")
	fs.Float64Var(&o.wet, "wet", 100, "wet share in percent")
	fs.Float64Var(&o.gain, "gain", 0, "output gain in dB [-60, 12]")
	fs.BoolVar(&o.room, "room", false, "enable the room ambience")
	fs.Float64Var(&o.roomMix, "room-mix", cabsim.DefaultRoomSettings().Mix, "room return level [0, 0.5]")
	fs.Float64Var(&o.roomFeedback, "room-feedback", cabsim.DefaultRoomSettings().Feedback, "room feedback [0, 0.5]")
}

func runRender(args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	var o renderOptions

	fs, err := parseSub("render", args, stderr, o.register)
	if err != nil {
		return err
	}

	if o.in == "" || o.out == "" {
		_, _ = fmt.Fprintf(stderr, "error: render needs -in and -out\n")
		return errUsage
	}

	if o.bits != 16 && o.bits != 24 {
		_, _ = fmt.Fprintf(stderr, "error: -bits must be 16 or 24\n")
		return errUsage
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	input, rate, err := readInput(o.in)
	if err != nil {
		return err
	}

	s, err := cabsim.New(cabsim.StaticHost{Rate: rate}, cabsim.WithLogger(logger), cabsim.WithThrottle(0))
	if err != nil {
		return err
	}

	if err := o.configure(s, set); err != nil {
		return err
	}

	input = append(input, make([]float64, int(o.tail*rate))...)
	left := make([]float64, len(input))
	right := make([]float64, len(input))

	for off := 0; off < len(input); off += renderBlock {
		end := min(off+renderBlock, len(input))
		s.ProcessBlock(input[off:end], left[off:end], right[off:end])
	}

	if err := writeOutput(o.out, left, right, int(rate), o.bits, o.seed); err != nil {
		return err
	}

	logger.Debug("render finished", "in", o.in, "out", o.out, "frames", len(left), "mode", s.Mode())
	_, _ = fmt.Fprintf(stdout, "wrote %s: %d frames, %s mode, dry delay %.3f ms\n", o.out, len(left), s.Mode(), s.DryDelay()*1000)

	return nil
}

// configure applies -settings first; explicitly set flags win.
func (o *renderOptions) configure(s *cabsim.Simulator, set map[string]bool) error {
	if o.settings != "" {
		data, err := os.ReadFile(o.settings)
		if err != nil {
			return err
		}

		var st cabsim.Settings
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("settings %s: %w", o.settings, err)
		}

		if err := s.Apply(st); err != nil {
			return err
		}
	}

	explicit := func(names ...string) bool {
		for _, n := range names {
			if set[n] {
				return true
			}
		}

		return o.settings == ""
	}

	if explicit("cab") {
		if err := s.SetCabinet(cabsim.SlotA, o.cabA); err != nil {
			return err
		}
	}

	if explicit("mic") {
		if err := s.SetMicrophone(cabsim.SlotA, o.micA); err != nil {
			return err
		}
	}

	if explicit("position", "distance", "angle", "height") {
		pos := cabinet.NewPosition(o.distance, o.angle, o.height)
		if o.posA != "" {
			p, err := cabinet.LookupPosition(o.posA)
			if err != nil {
				return err
			}

			pos = p.Position
		}

		if err := s.SetMicPosition(cabsim.SlotA, pos.DistanceCm, pos.AngleDeg, pos.Height); err != nil {
			return err
		}
	}

	if explicit("cab-b") {
		if err := s.SetCabinet(cabsim.SlotB, o.cabB); err != nil {
			return err
		}
	}

	if explicit("mic-b") {
		if err := s.SetMicrophone(cabsim.SlotB, o.micB); err != nil {
			return err
		}
	}

	if o.posB != "" {
		p, err := cabinet.LookupPosition(o.posB)
		if err != nil {
			return err
		}

		if err := s.SetMicPosition(cabsim.SlotB, p.Position.DistanceCm, p.Position.AngleDeg, p.Position.Height); err != nil {
			return err
		}
	}

	if explicit("mode") {
		m, err := cabsim.ParseMode(o.mode)
		if err != nil {
			return err
		}

		if err := s.SetMode(m); err != nil {
			return err
		}
	}

	if err := o.loadIRs(s); err != nil {
		return err
	}

	if explicit("mix") && s.Mode() == cabsim.ModeDual {
		s.SetDualMix(o.mix)
	}

	if explicit("spread") {
		s.SetStereoSpread(o.spread)
	}

	if explicit("micro-delay") {
		s.SetMicroDelayB(o.microDelay)
	}

	if explicit("phase-b") {
		s.SetPhaseB(o.phaseB)
	}

	if explicit("wet") {
		s.SetWet(o.wet)
	}

	if explicit("gain") {
		s.SetOutputGainDB(o.gain)
	}

	if explicit("room", "room-mix", "room-feedback") {
		r := s.Room()
		r.Enabled = o.room
		r.Mix = o.roomMix
		r.Feedback = o.roomFeedback

		if err := s.SetRoom(r); err != nil {
			return err
		}
	}

	return nil
}

func (o *renderOptions) loadIRs(s *cabsim.Simulator) error {
	ctx := context.Background()

	for _, l := range []struct {
		ch   ir.Channel
		path string
	}{{ir.A, o.irA}, {ir.B, o.irB}} {
		if l.path == "" {
			continue
		}

		if _, err := s.LoadIRFile(ctx, l.ch, l.path); err != nil {
			return err
		}
	}

	if o.irA != "" && o.irB != "" {
		s.SetIRBlend(o.irBlend)
	}

	return nil
}

func readInput(path string) ([]float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	samples, rate, _, err := ir.Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}

	return samples, rate, nil
}

// writeOutput writes an interleaved stereo PCM file with TPDF dither at
// the target bit depth.
func writeOutput(path string, left, right []float64, rate, bits int, seed int64) error {
	lsb := 1 / float64(int64(1)<<(bits-1))
	state := vecmath.NewDitherState(seed)
	vecmath.AddDitherTPDF(left, lsb, state)
	vecmath.AddDitherTPDF(right, lsb, state)

	data := make([]float32, 2*len(left))
	for i := range left {
		data[2*i] = float32(left[i])
		data[2*i+1] = float32(right[i])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, rate, bits, 2, 1)

	err = enc.Write(&audio.Float32Buffer{
		Format:         &audio.Format{SampleRate: rate, NumChannels: 2},
		Data:           data,
		SourceBitDepth: bits,
	})
	if cerr := enc.Close(); err == nil {
		err = cerr
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return err
}
