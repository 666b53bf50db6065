package graph

// Buffer is the working block of one node. A mono buffer carries its signal
// in L; a stereo buffer uses L and R. R is always allocated.
type Buffer struct {
	L, R   []float64
	Stereo bool
}

// Len returns the number of frames.
func (b *Buffer) Len() int { return len(b.L) }

// Upmix turns a mono buffer into a stereo one by copying L into R.
func (b *Buffer) Upmix() {
	if b.Stereo {
		return
	}

	copy(b.R, b.L)
	b.Stereo = true
}

// Downmix averages a stereo buffer into L.
func (b *Buffer) Downmix() {
	if !b.Stereo {
		return
	}

	for i := range b.L {
		b.L[i] = 0.5 * (b.L[i] + b.R[i])
	}

	b.Stereo = false
}

// Right returns R for stereo buffers and nil for mono ones.
func (b *Buffer) Right() []float64 {
	if b.Stereo {
		return b.R
	}

	return nil
}

// Node processes its summed input buffer in place.
type Node interface {
	Process(b *Buffer)
}

// NodeFunc adapts a function to Node.
type NodeFunc func(b *Buffer)

// Process calls f(b).
func (f NodeFunc) Process(b *Buffer) { f(b) }

// InPlaceProcessor processes a mono block in place.
type InPlaceProcessor interface {
	ProcessInPlace(buf []float64)
}

// StereoProcessor processes a block in place; right is nil for mono input.
type StereoProcessor interface {
	ProcessStereo(left, right []float64)
}

// Mono wraps a mono processor. Stereo input is downmixed first.
func Mono(p InPlaceProcessor) Node {
	return NodeFunc(func(b *Buffer) {
		b.Downmix()
		p.ProcessInPlace(b.L)
	})
}

// Stereo wraps a processor that handles mono and stereo blocks.
func Stereo(p StereoProcessor) Node {
	return NodeFunc(func(b *Buffer) {
		p.ProcessStereo(b.L, b.Right())
	})
}

// Pass is a node that leaves its summed input unchanged. It is used for
// summing buses.
var Pass Node = NodeFunc(func(*Buffer) {})
