package cabsim

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMode is returned for an unknown routing mode.
	ErrInvalidMode = errors.New("cabsim: invalid mode")
	// ErrInvalidSlot is returned for an unknown cabinet slot.
	ErrInvalidSlot = errors.New("cabsim: invalid slot")
)

// Mode selects the wet-path routing.
type Mode int

const (
	// ModeSingle runs cabinet A alone.
	ModeSingle Mode = iota
	// ModeDual blends cabinets A and B.
	ModeDual
	// ModeIR replaces the cabinets with the impulse-response convolver.
	ModeIR
)

var modeNames = [...]string{ModeSingle: "single", ModeDual: "dual", ModeIR: "ir"}

func (m Mode) String() string {
	if !m.valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}

	return modeNames[m]
}

func (m Mode) valid() bool { return m >= ModeSingle && m <= ModeIR }

// ParseMode parses "single", "dual" or "ir".
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return Mode(m), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}

	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}

	*m = v

	return nil
}

// Slot names one of the two cabinet slots.
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

func (s Slot) String() string {
	switch s {
	case SlotA:
		return "A"
	case SlotB:
		return "B"
	default:
		return fmt.Sprintf("Slot(%d)", int(s))
	}
}

func (s Slot) valid() bool { return s == SlotA || s == SlotB }

// ParseSlot parses "a" or "b", case-insensitively.
func ParseSlot(s string) (Slot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return SlotA, nil
	case "b":
		return SlotB, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlot, s)
	}
}
