package cabsim

import (
	"fmt"

	"github.com/gregorizeidler/Rigmaster-sub006/cabinet"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/graph"
	"github.com/gregorizeidler/Rigmaster-sub006/dsp/pan"
)

// Graph node ids.
const (
	nodeDryDelay   = "dry.delay"
	nodeDryGain    = "dry.gain"
	nodeCabA       = "cab.a"
	nodeCabB       = "cab.b"
	nodeMicroDelay = "microdelay.b"
	nodePhaseB     = "phase.b"
	nodePanA       = "pan.a"
	nodePanB       = "pan.b"
	nodeMixA       = "mix.a"
	nodeMixB       = "mix.b"
	nodeIR         = "ir"
	nodeComp       = "bus.comp"
	nodeLimiter    = "bus.limiter"
	nodeTrim       = "bus.trim"
	nodeRoom       = "room"
	nodeWetBus     = "wet.bus"
	nodeWetGain    = "wet.gain"
)

func cabNode(id Slot) string {
	if id == SlotB {
		return nodeCabB
	}

	return nodeCabA
}

// panNode spreads a mono block into the stereo field.
func panNode(p pan.Positioner) graph.Node {
	return graph.NodeFunc(func(b *graph.Buffer) {
		b.Downmix()
		p.Process(b.L, b.L, b.R)
		b.Stereo = true
	})
}

// addNodes registers every node except the cabinet chains, which come and
// go with their slots.
func (s *Simulator) addNodes() error {
	nodes := []struct {
		id   string
		node graph.Node
	}{
		{nodeDryDelay, graph.Mono(s.dryDelay)},
		{nodeDryGain, graph.Stereo(s.dryGain)},
		{nodeMicroDelay, graph.Mono(s.microDelay)},
		{nodePhaseB, graph.Mono(s.phaseB)},
		{nodePanA, panNode(s.panA)},
		{nodePanB, panNode(s.panB)},
		{nodeMixA, graph.Stereo(s.mix.A)},
		{nodeMixB, graph.Stereo(s.mix.B)},
		{nodeIR, graph.Mono(s.conv)},
		{nodeComp, graph.Stereo(s.comp)},
		{nodeLimiter, graph.Stereo(s.limiter)},
		{nodeTrim, graph.Stereo(s.trim)},
		{nodeRoom, s.room},
		{nodeWetBus, graph.Pass},
		{nodeWetGain, graph.Stereo(s.wetGain)},
	}

	for _, n := range nodes {
		if err := s.g.Add(n.id, n.node); err != nil {
			return fmt.Errorf("cabsim: %w", err)
		}
	}

	return nil
}

// prepare makes sure every slot the current mode routes owns an up-to-date
// chain.
func (s *Simulator) prepare() error {
	for _, sl := range s.slots {
		if !s.active(sl.id) {
			continue
		}

		if sl.chain == nil {
			if err := s.build(sl); err != nil {
				return err
			}

			continue
		}

		if sl.pending {
			s.applyPosition(sl)
		}
	}

	return nil
}

// build replaces a slot's chain with a new one for its current profiles.
func (s *Simulator) build(sl *slot) error {
	c, err := cabinet.Build(sl.cabinet, sl.mic, sl.position, s.sampleRate, s.cfg.paramOptions()...)
	if err != nil {
		return fmt.Errorf("cabsim: slot %s: %w", sl.id, err)
	}

	s.g.Remove(sl.node)
	if err := s.g.Add(sl.node, graph.Mono(c)); err != nil {
		return fmt.Errorf("cabsim: slot %s: %w", sl.id, err)
	}

	sl.chain = c
	sl.live.Store(c)
	sl.pending = false

	s.logger.Debug("cabinet chain built",
		"slot", sl.id, "cabinet", sl.cabinet.ID, "microphone", sl.mic.ID, "position", sl.position.String())

	return nil
}

// discard drops the chain of a slot the current mode does not route. It is
// rebuilt when a mode needs it again.
func (s *Simulator) discard(sl *slot) {
	if sl.chain == nil {
		return
	}

	s.g.Remove(sl.node)
	sl.chain = nil
	sl.live.Store(nil)
}

// wire rebuilds every connection for the current mode and publishes the
// compiled plan.
func (s *Simulator) wire() error {
	s.g.Clear()

	var err error
	series := func(ids ...string) {
		if err == nil {
			err = s.g.Series(ids...)
		}
	}

	series(graph.Input, nodeDryDelay, nodeDryGain, graph.Output)

	switch s.mode {
	case ModeSingle:
		series(graph.Input, nodeCabA, nodeComp)
	case ModeDual:
		series(graph.Input, nodeCabA, nodePanA, nodeMixA, nodeComp)
		series(graph.Input, nodeCabB, nodeMicroDelay, nodePhaseB, nodePanB, nodeMixB, nodeComp)
	case ModeIR:
		series(graph.Input, nodeIR, nodeComp)
	}

	series(nodeComp, nodeLimiter, nodeTrim, nodeWetBus, nodeWetGain, graph.Output)

	if s.roomSettings.Enabled {
		series(nodeTrim, nodeRoom, nodeWetBus)
	}

	if err != nil {
		return fmt.Errorf("cabsim: wire %s: %w", s.mode, err)
	}

	plan, err := s.g.Compile(s.cfg.proc.BlockSize)
	if err != nil {
		return fmt.Errorf("cabsim: wire %s: %w", s.mode, err)
	}

	s.plan.Store(plan)

	return nil
}

// SetMode switches the routing. Switching to the current mode does nothing.
func (s *Simulator) SetMode(m Mode) error {
	if !m.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setMode(m)
}

func (s *Simulator) setMode(m Mode) error {
	if m == s.mode {
		return nil
	}

	prev := s.mode
	s.mode = m

	if err := s.prepare(); err != nil {
		s.mode = prev
		return err
	}

	if err := s.wire(); err != nil {
		s.mode = prev
		return err
	}

	s.logger.Debug("routing mode changed", "from", prev, "to", m)
	s.realign()

	return nil
}

// updateSlot applies a slot's stored state. A forced update rebuilds the
// chain; otherwise the position-dependent stages are retargeted, at most
// once per throttle window.
func (s *Simulator) updateSlot(sl *slot, force bool) error {
	if !force && sl.chain != nil && s.throttled(sl) {
		sl.pending = true
		return nil
	}

	if !s.active(sl.id) {
		if force {
			s.discard(sl)
		} else if sl.chain != nil {
			s.applyPosition(sl)
		}

		return nil
	}

	if force || sl.chain == nil {
		if err := s.build(sl); err != nil {
			return err
		}

		if err := s.wire(); err != nil {
			return err
		}
	} else {
		s.applyPosition(sl)
	}

	s.realign()

	return nil
}

func (s *Simulator) throttled(sl *slot) bool {
	if sl.lastUpdate.IsZero() || s.cfg.throttle == 0 {
		return false
	}

	return s.cfg.clock().Sub(sl.lastUpdate) < s.cfg.throttle
}

func (s *Simulator) applyPosition(sl *slot) {
	sl.chain.SetPosition(sl.position)
	sl.pending = false
	sl.lastUpdate = s.cfg.clock()
}

// Flush applies position updates the throttle held back.
func (s *Simulator) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	flushed := false
	for _, sl := range s.slots {
		if sl.pending && sl.chain != nil {
			s.applyPosition(sl)
			flushed = true
		}
	}

	if flushed {
		s.realign()
	}
}
