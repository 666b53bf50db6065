package graph

import (
	vecmath "github.com/cwbudde/algo-vecmath"
)

// Plan is a compiled, immutable execution order. Its buffers belong to the
// goroutine that calls Process.
type Plan struct {
	blockSize int
	steps     []step
	input     int
	output    int
}

type step struct {
	id     string
	node   Node
	inputs []int
	buf    Buffer
	l, r   []float64
}

func newPlan(g *Graph, order []string, blockSize int) *Plan {
	index := make(map[string]int, len(order))
	for i, id := range order {
		index[id] = i
	}

	p := &Plan{
		blockSize: blockSize,
		steps:     make([]step, len(order)),
	}

	for i, id := range order {
		s := step{
			id:   id,
			node: g.nodes[id],
			l:    make([]float64, blockSize),
			r:    make([]float64, blockSize),
		}
		for _, from := range g.in[id] {
			s.inputs = append(s.inputs, index[from])
		}

		p.steps[i] = s

		switch id {
		case Input:
			p.input = i
		case Output:
			p.output = i
		}
	}

	return p
}

// BlockSize returns the largest block processed in one pass.
func (p *Plan) BlockSize() int { return p.blockSize }

// Order returns the node ids in execution order.
func (p *Plan) Order() []string {
	ids := make([]string, len(p.steps))
	for i, s := range p.steps {
		ids[i] = s.id
	}

	return ids
}

// Contains reports whether id takes part in the plan.
func (p *Plan) Contains(id string) bool {
	for _, s := range p.steps {
		if s.id == id {
			return true
		}
	}

	return false
}

// Process runs in through the graph and writes the result to outL and outR.
// A mono result is copied to both outputs. outR may be nil, in which case a
// stereo result is downmixed into outL. in and outL may alias.
func (p *Plan) Process(in, outL, outR []float64) {
	for off := 0; off < len(in); off += p.blockSize {
		end := min(off+p.blockSize, len(in))
		p.run(in[off:end])

		res := &p.steps[p.output].buf
		if outR == nil {
			res.Downmix()
			copy(outL[off:end], res.L)

			continue
		}

		copy(outL[off:end], res.L)
		if res.Stereo {
			copy(outR[off:end], res.R)
		} else {
			copy(outR[off:end], res.L)
		}
	}
}

func (p *Plan) run(in []float64) {
	n := len(in)

	for i := range p.steps {
		s := &p.steps[i]
		s.buf = Buffer{L: s.l[:n], R: s.r[:n]}

		if i == p.input {
			copy(s.buf.L, in)
			continue
		}

		p.gather(s)

		if i != p.output && s.node != nil {
			s.node.Process(&s.buf)
		}
	}
}

func (p *Plan) gather(s *step) {
	clear(s.buf.L)
	clear(s.buf.R)

	for _, j := range s.inputs {
		if p.steps[j].buf.Stereo {
			s.buf.Stereo = true
			break
		}
	}

	for _, j := range s.inputs {
		src := &p.steps[j].buf
		vecmath.AddBlockInPlace(s.buf.L, src.L)

		if !s.buf.Stereo {
			continue
		}

		if src.Stereo {
			vecmath.AddBlockInPlace(s.buf.R, src.R)
		} else {
			vecmath.AddBlockInPlace(s.buf.R, src.L)
		}
	}
}
