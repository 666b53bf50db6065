package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/gregorizeidler/Rigmaster-sub006/cabinet"
	"github.com/gregorizeidler/Rigmaster-sub006/measure/response"
)

func runList(args []string, stdout, stderr io.Writer) error {
	what := "all"
	if len(args) > 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: cabsim list [cabinets|mics|positions]\n")
		return errUsage
	}

	if len(args) == 1 {
		what = args[0]
	}

	t := newTable(stdout)

	switch what {
	case "all", "cabinets", "cabs":
		if err := t.row("CABINET", "NAME", "RESONANCE [Hz]", "LOWPASS [Hz]", "DESCRIPTION"); err != nil {
			return err
		}

		for _, c := range cabinet.Cabinets() {
			if err := t.row(c.ID, c.Name, formatFloat("%.0f", c.ResonanceFreq), formatFloat("%.0f", c.LowpassFreq), c.Description); err != nil {
				return err
			}
		}

		if what != "all" {
			break
		}

		fallthrough
	case "mics", "microphones":
		if what == "all" {
			_ = t.row()
		}

		if err := t.row("MICROPHONE", "NAME", "PRESENCE [Hz]", "PROXIMITY [dB]", "DESCRIPTION"); err != nil {
			return err
		}

		for _, m := range cabinet.Microphones() {
			if err := t.row(m.ID, m.Name, formatFloat("%.0f", m.PresenceFreq), formatFloat("%+.1f", m.ProximityBoostDB), m.Description); err != nil {
				return err
			}
		}

		if what != "all" {
			break
		}

		fallthrough
	case "positions":
		if what == "all" {
			_ = t.row()
		}

		if err := t.row("POSITION", "NAME", "PLACEMENT", "DESCRIPTION"); err != nil {
			return err
		}

		for _, p := range cabinet.Positions() {
			if err := t.row(p.ID, p.Name, p.Position.String(), p.Description); err != nil {
				return err
			}
		}
	default:
		_, _ = fmt.Fprintf(stderr, "error: unknown list %q\n", what)
		return errUsage
	}

	return t.flush()
}

// placement holds the flags shared by chain and response.
type placement struct {
	rate     float64
	cab, mic string
	preset   string
	distance float64
	angle    float64
	height   float64
}

func (p *placement) register(fs *flag.FlagSet) {
	fs.Float64Var(&p.rate, "rate", 48000, "sample rate in Hz")
	fs.StringVar(&p.cab, "cab", "4x12_vintage", "cabinet profile")
	fs.StringVar(&p.mic, "mic", "sm57", "microphone profile")
	fs.StringVar(&p.preset, "position", "", "preset placement (overrides -distance, -angle, -height)")
	fs.Float64Var(&p.distance, "distance", 0, "mic distance in cm [0, 50]")
	fs.Float64Var(&p.angle, "angle", 0, "mic angle in degrees [0, 90]")
	fs.Float64Var(&p.height, "height", 0, "mic height [-1, 1]")
}

func (p *placement) build() (*cabinet.Chain, error) {
	if p.preset != "" {
		return cabinet.BuildPreset(p.cab, p.mic, p.preset, p.rate)
	}

	return cabinet.BuildNamed(p.cab, p.mic, cabinet.NewPosition(p.distance, p.angle, p.height), p.rate)
}

func parseSub(name string, args []string, stderr io.Writer, register func(*flag.FlagSet)) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet("cabsim "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	register(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 0 {
		_, _ = fmt.Fprintf(stderr, "error: unexpected arguments %v\n", fs.Args())
		return nil, errUsage
	}

	return fs, nil
}

func runChain(args []string, stdout, stderr io.Writer) error {
	var p placement
	if _, err := parseSub("chain", args, stderr, p.register); err != nil {
		return err
	}

	c, err := p.build()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "%s / %s at %s\n\n", c.Cabinet().Name, c.Microphone().Name, c.Position())

	t := newTable(stdout)
	if err := t.row("STAGE", "KIND", "FREQ [Hz]", "Q", "GAIN [dB]", "DELAY [ms]"); err != nil {
		return err
	}

	for _, s := range c.Stages() {
		cells := []string{s.Name, s.Kind, "", "", "", ""}
		if s.Kind == "delay" {
			cells[5] = formatFloat("%.3f", s.Seconds*1000)
		} else {
			cells[2] = formatFloat("%.0f", s.Frequency)
			cells[3] = formatFloat("%.2f", s.Q)
			cells[4] = formatFloat("%+.2f", s.GainDB)
		}

		if err := t.row(cells...); err != nil {
			return err
		}
	}

	if err := t.flush(); err != nil {
		return err
	}

	tg := c.Targets()
	if tg.NotchActive {
		_, _ = fmt.Fprintf(stdout, "\noff-axis notch %.0f Hz Q %.2f\n", tg.NotchFreq, tg.NotchQ)
	} else {
		_, _ = fmt.Fprintf(stdout, "\noff-axis notch inactive\n")
	}

	return nil
}

func runResponse(args []string, stdout, stderr io.Writer) error {
	var (
		p      placement
		points int
		lo, hi float64
	)

	_, err := parseSub("response", args, stderr, func(fs *flag.FlagSet) {
		p.register(fs)
		fs.IntVar(&points, "points", 24, "number of log-spaced frequencies")
		fs.Float64Var(&lo, "lo", 40, "lowest frequency in Hz")
		fs.Float64Var(&hi, "hi", 16000, "highest frequency in Hz")
	})
	if err != nil {
		return err
	}

	if points < 2 || lo <= 0 || hi <= lo || hi >= p.rate/2 {
		_, _ = fmt.Fprintf(stderr, "error: need -points >= 2 and 0 < -lo < -hi < rate/2\n")
		return errUsage
	}

	c, err := p.build()
	if err != nil {
		return err
	}

	r, err := response.Measure(c.ProcessInPlace, response.Config{SampleRate: p.rate})
	if err != nil {
		return err
	}

	t := newTable(stdout)
	if err := t.row("FREQ [Hz]", "MEASURED [dB]", "MODEL [dB]"); err != nil {
		return err
	}

	for _, f := range response.LogFrequencies(lo, hi, points) {
		if err := t.row(strconv.FormatFloat(f, 'f', 0, 64), formatFloat("%+.2f", r.At(f)), formatFloat("%+.2f", c.MagnitudeDB(f))); err != nil {
			return err
		}
	}

	freq, db := r.Peak(lo, hi)
	if err := t.flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "\npeak %.0f Hz %+.2f dB\n", freq, db)

	return nil
}
