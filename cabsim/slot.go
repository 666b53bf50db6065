package cabsim

import (
	"sync/atomic"
	"time"

	"github.com/gregorizeidler/Rigmaster-sub006/cabinet"
)

// slot is one cabinet position in the simulator. The chain is built lazily:
// only while the current mode routes the slot.
type slot struct {
	id       Slot
	node     string
	cabinet  cabinet.CabinetProfile
	mic      cabinet.MicrophoneProfile
	position cabinet.Position
	chain    *cabinet.Chain

	// live mirrors chain for the audio goroutine.
	live atomic.Pointer[cabinet.Chain]

	// lastUpdate and pending implement the per-slot update throttle.
	lastUpdate time.Time
	pending    bool
}

// PositionInfo is a slot's stored placement with the physics targets it
// produces.
type PositionInfo struct {
	Slot       Slot             `json:"-"`
	Cabinet    string           `json:"cabinet"`
	Microphone string           `json:"microphone"`
	Position   cabinet.Position `json:"position"`
	Targets    cabinet.Targets  `json:"targets"`
	// Pending is set while a throttled update has not reached the chain.
	Pending bool `json:"pending"`
	// Built reports whether the slot currently owns a chain.
	Built bool `json:"built"`
}

func (sl *slot) info() PositionInfo {
	return PositionInfo{
		Slot:       sl.id,
		Cabinet:    sl.cabinet.ID,
		Microphone: sl.mic.ID,
		Position:   sl.position,
		Targets:    cabinet.Compute(sl.cabinet, sl.mic, sl.position),
		Pending:    sl.pending,
		Built:      sl.chain != nil,
	}
}
