// Package graph wires processing nodes into a directed acyclic graph and
// compiles it into an immutable execution Plan.
//
// A Graph is edited on a control goroutine. Compile produces a Plan that an
// audio goroutine can run without further synchronization; publishing a new
// Plan (for example through an atomic pointer) swaps topology at a block
// boundary.
package graph

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// Input is the reserved source node. Its buffer holds the block passed
	// to Plan.Process.
	Input = "input"
	// Output is the reserved sink node. Its summed inputs are written to the
	// Plan.Process output slices.
	Output = "output"
)

var (
	ErrUnknownNode   = errors.New("graph: unknown node")
	ErrDuplicateNode = errors.New("graph: duplicate node")
	ErrReservedNode  = errors.New("graph: reserved node id")
	ErrCycle         = errors.New("graph: contains cycle")
)

// Graph is an editable set of nodes and directed connections.
// It is not safe for concurrent use.
type Graph struct {
	nodes map[string]Node
	ids   []string
	out   map[string][]string
	in    map[string][]string
}

// New returns a graph holding only the Input and Output nodes.
func New() *Graph {
	g := &Graph{
		nodes: make(map[string]Node),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}
	g.nodes[Input] = nil
	g.nodes[Output] = nil
	g.ids = []string{Input, Output}

	return g
}

// Add registers a node under id.
func (g *Graph) Add(id string, n Node) error {
	if id == Input || id == Output {
		return fmt.Errorf("%w: %q", ErrReservedNode, id)
	}

	if _, ok := g.nodes[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
	}

	if n == nil {
		return fmt.Errorf("graph: nil node %q", id)
	}

	g.nodes[id] = n
	g.ids = append(g.ids, id)

	return nil
}

// Remove disconnects and deletes a node. Removing an unknown node is a no-op.
func (g *Graph) Remove(id string) {
	if id == Input || id == Output {
		return
	}

	if _, ok := g.nodes[id]; !ok {
		return
	}

	g.DisconnectAll(id)
	delete(g.nodes, id)
	g.ids = slices.DeleteFunc(g.ids, func(s string) bool { return s == id })
}

// Has reports whether id is registered.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node registered under id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok && n != nil
}

// Connect adds the edge from -> to. Connecting an existing edge is a no-op.
func (g *Graph) Connect(from, to string) error {
	if !g.Has(from) {
		return fmt.Errorf("%w: %q", ErrUnknownNode, from)
	}

	if !g.Has(to) {
		return fmt.Errorf("%w: %q", ErrUnknownNode, to)
	}

	if from == to || from == Output || to == Input {
		return fmt.Errorf("%w: %q -> %q", ErrCycle, from, to)
	}

	if slices.Contains(g.out[from], to) {
		return nil
	}

	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)

	return nil
}

// Series connects ids pairwise in order.
func (g *Graph) Series(ids ...string) error {
	for i := 1; i < len(ids); i++ {
		if err := g.Connect(ids[i-1], ids[i]); err != nil {
			return err
		}
	}

	return nil
}

// Disconnect removes the edge from -> to. Removing an absent edge, or one
// that touches unknown nodes, is a no-op.
func (g *Graph) Disconnect(from, to string) {
	g.out[from] = slices.DeleteFunc(g.out[from], func(s string) bool { return s == to })
	g.in[to] = slices.DeleteFunc(g.in[to], func(s string) bool { return s == from })
}

// DisconnectAll removes every edge into and out of id.
func (g *Graph) DisconnectAll(id string) {
	for _, to := range slices.Clone(g.out[id]) {
		g.Disconnect(id, to)
	}

	for _, from := range slices.Clone(g.in[id]) {
		g.Disconnect(from, id)
	}
}

// Clear removes every edge but keeps the nodes.
func (g *Graph) Clear() {
	clear(g.out)
	clear(g.in)
}

// Connected reports whether the edge from -> to exists.
func (g *Graph) Connected(from, to string) bool {
	return slices.Contains(g.out[from], to)
}

// Inputs returns the nodes feeding id, in connection order.
func (g *Graph) Inputs(id string) []string {
	return slices.Clone(g.in[id])
}

// Outputs returns the nodes id feeds, in connection order.
func (g *Graph) Outputs(id string) []string {
	return slices.Clone(g.out[id])
}

// Compile orders every connected node with Kahn's algorithm and returns a
// Plan that processes in blocks of at most blockSize samples. Nodes with no
// edges are left out of the plan.
func (g *Graph) Compile(blockSize int) (*Plan, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("graph: block size must be > 0: %d", blockSize)
	}

	active := make([]string, 0, len(g.ids))
	for _, id := range g.ids {
		if id == Input || id == Output || len(g.in[id]) > 0 || len(g.out[id]) > 0 {
			active = append(active, id)
		}
	}

	indegree := make(map[string]int, len(active))
	for _, id := range active {
		indegree[id] = len(g.in[id])
	}

	queue := make([]string, 0, len(active))
	for _, id := range active {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(active))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		order = append(order, id)
		for _, to := range g.out[id] {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != len(active) {
		return nil, ErrCycle
	}

	return newPlan(g, order, blockSize), nil
}
