package graph

import (
	"errors"
	"slices"
	"testing"

	"github.com/gregorizeidler/Rigmaster-sub006/internal/testutil"
)

type scale float64

func (s scale) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] *= float64(s)
	}
}

type spread struct{}

func (spread) Process(b *Buffer) {
	b.Downmix()
	for i := range b.L {
		b.R[i] = -b.L[i]
	}
	b.Stereo = true
}

func TestAddRejectsReservedAndDuplicate(t *testing.T) {
	g := New()

	if err := g.Add(Input, Pass); !errors.Is(err, ErrReservedNode) {
		t.Fatalf("Add(Input) error = %v, want ErrReservedNode", err)
	}

	if err := g.Add("a", Pass); err != nil {
		t.Fatalf("Add(a): %v", err)
	}

	if err := g.Add("a", Pass); !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("second Add(a) error = %v, want ErrDuplicateNode", err)
	}
}

func TestConnectUnknownNode(t *testing.T) {
	g := New()

	if err := g.Connect(Input, "missing"); !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("error = %v, want ErrUnknownNode", err)
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	g := New()
	_ = g.Add("a", Mono(scale(2)))

	for range 3 {
		if err := g.Series(Input, "a", Output); err != nil {
			t.Fatalf("Series: %v", err)
		}
	}

	if got := g.Inputs("a"); !slices.Equal(got, []string{Input}) {
		t.Fatalf("Inputs(a) = %v", got)
	}

	p, err := g.Compile(16)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	out := make([]float64, 4)
	p.Process(testutil.Constant(1, 4), out, nil)
	testutil.RequireNearlyEqual(t, out, testutil.Constant(2, 4), 0)
}

func TestDisconnectUnconnectedIsNoOp(t *testing.T) {
	g := New()
	_ = g.Add("a", Pass)

	g.Disconnect("a", Output)
	g.Disconnect("nope", "also-nope")
	g.DisconnectAll("a")
	g.DisconnectAll("nope")
	g.Remove("nope")

	if g.Connected("a", Output) {
		t.Fatal("phantom edge after no-op disconnects")
	}
}

func TestCompileDetectsCycle(t *testing.T) {
	g := New()
	_ = g.Add("a", Pass)
	_ = g.Add("b", Pass)
	_ = g.Series(Input, "a", "b", Output)
	_ = g.Connect("b", "a")

	if _, err := g.Compile(16); !errors.Is(err, ErrCycle) {
		t.Fatalf("Compile error = %v, want ErrCycle", err)
	}

	if err := g.Connect("a", "a"); !errors.Is(err, ErrCycle) {
		t.Fatalf("self edge error = %v, want ErrCycle", err)
	}
}

func TestCompileOrdersAndSkipsIsolatedNodes(t *testing.T) {
	g := New()
	_ = g.Add("late", Mono(scale(3)))
	_ = g.Add("early", Mono(scale(2)))
	_ = g.Add("isolated", Mono(scale(100)))
	_ = g.Series(Input, "early", "late", Output)

	p, err := g.Compile(8)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	order := p.Order()
	if slices.Index(order, "early") > slices.Index(order, "late") {
		t.Fatalf("order %v runs late before early", order)
	}

	if p.Contains("isolated") {
		t.Fatal("isolated node must not be compiled in")
	}

	out := make([]float64, 20)
	p.Process(testutil.Constant(1, 20), out, nil)
	testutil.RequireNearlyEqual(t, out, testutil.Constant(6, 20), 0)
}

func TestParallelBranchesSum(t *testing.T) {
	g := New()
	_ = g.Add("a", Mono(scale(0.25)))
	_ = g.Add("b", Mono(scale(0.5)))
	_ = g.Series(Input, "a", Output)
	_ = g.Series(Input, "b", Output)

	p, err := g.Compile(4)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	left := make([]float64, 10)
	right := make([]float64, 10)
	p.Process(testutil.Constant(1, 10), left, right)

	testutil.RequireNearlyEqual(t, left, testutil.Constant(0.75, 10), 1e-15)
	testutil.RequireNearlyEqual(t, right, left, 0)
}

func TestStereoBranchUpmixesMonoSibling(t *testing.T) {
	g := New()
	_ = g.Add("wide", spread{})
	_ = g.Add("dry", Pass)
	_ = g.Series(Input, "wide", Output)
	_ = g.Series(Input, "dry", Output)

	p, err := g.Compile(32)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	left := make([]float64, 3)
	right := make([]float64, 3)
	p.Process(testutil.Constant(1, 3), left, right)

	testutil.RequireNearlyEqual(t, left, testutil.Constant(2, 3), 0)
	testutil.RequireNearlyEqual(t, right, testutil.Constant(0, 3), 0)
}

func TestRemoveDropsEdges(t *testing.T) {
	g := New()
	_ = g.Add("a", Pass)
	_ = g.Series(Input, "a", Output)

	g.Remove("a")

	if g.Has("a") || len(g.Outputs(Input)) != 0 || len(g.Inputs(Output)) != 0 {
		t.Fatal("Remove left dangling state")
	}

	if err := g.Add("a", Pass); err != nil {
		t.Fatalf("re-adding removed node: %v", err)
	}
}

func TestClearKeepsNodes(t *testing.T) {
	g := New()
	_ = g.Add("a", Pass)
	_ = g.Series(Input, "a", Output)

	g.Clear()

	if !g.Has("a") || g.Connected(Input, "a") {
		t.Fatal("Clear must drop edges and keep nodes")
	}

	p, err := g.Compile(8)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	out := testutil.Constant(1, 4)
	p.Process(testutil.Constant(1, 4), out, nil)
	testutil.RequireNearlyEqual(t, out, testutil.Constant(0, 4), 0)
}

func TestCompileRejectsBadBlockSize(t *testing.T) {
	if _, err := New().Compile(0); err == nil {
		t.Fatal("expected error for block size 0")
	}
}
