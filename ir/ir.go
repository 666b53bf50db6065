package ir

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cwbudde/wav"
)

var (
	// ErrLoad wraps every failure to load an impulse response. The
	// previously loaded response stays active.
	ErrLoad = errors.New("ir: load failed")
	// ErrEmpty is returned for responses without samples.
	ErrEmpty = errors.New("ir: impulse response is empty")
	// ErrUnsupported is returned for streams that are not decodable WAV.
	ErrUnsupported = errors.New("ir: unsupported audio data")
)

// Channel selects one of the two impulse-response slots.
type Channel int

const (
	A Channel = iota
	B
)

func (c Channel) String() string {
	switch c {
	case A:
		return "A"
	case B:
		return "B"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

func (c Channel) valid() bool { return c == A || c == B }

// ParseChannel accepts "a"/"b" in either case.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return A, nil
	case "B":
		return B, nil
	default:
		return 0, fmt.Errorf("ir: unknown channel %q", s)
	}
}

// Info describes a loaded impulse response.
type Info struct {
	Name string `json:"name"`
	// SourceRate and Channels describe the decoded file.
	SourceRate float64 `json:"sourceRate"`
	Channels   int     `json:"channels"`
	// Length is the kernel length at the processing rate.
	Length   int     `json:"length"`
	Duration float64 `json:"duration"`
	// PeakIndex is the strongest sample within the first 20 ms.
	PeakIndex int `json:"peakIndex"`
	// Latency is PeakIndex in seconds plus the convolution engine latency.
	Latency float64 `json:"latency"`
	// RT60 is zero when the response does not decay far enough to measure.
	RT60 float64 `json:"rt60"`
}

// Decode reads a WAV stream and returns its samples mixed down to mono
// together with the source sample rate and channel count.
func Decode(r io.ReadSeeker) (samples []float64, sampleRate float64, channels int, err error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, ErrUnsupported
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: missing format", ErrUnsupported)
	}

	channels = buf.Format.NumChannels
	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, 0, 0, ErrEmpty
	}

	samples = make([]float64, frames)
	scale := 1 / float64(channels)

	for i := range samples {
		var sum float64
		for ch := range channels {
			sum += float64(buf.Data[i*channels+ch])
		}

		samples[i] = sum * scale
	}

	return samples, float64(buf.Format.SampleRate), channels, nil
}
