// Package cabsim is the cabinet simulator facade.
//
// A Simulator owns two cabinet slots (A and B), an impulse-response
// convolver and the shared wet bus (compressor, soft limiter, output trim,
// optional room ambience). One of three routing modes is active:
//
//	Single: input → cabinet A → bus
//	Dual:   input → cabinet A → pan → mix ─┐
//	        input → cabinet B → micro-delay → phase → pan → mix ─┴→ bus
//	IR:     input → convolver → bus
//
// A dry path runs in parallel through a delay that tracks the wet path's
// latency, so blending dry and wet never comb-filters.
//
// Control methods (setters, SetMode, loads) are serialized by the Simulator
// and may be called from any goroutine. Topology changes compile a new
// plan that the audio goroutine picks up at its next block. ProcessBlock,
// ProcessMono, Process and Reset belong to the audio goroutine.
package cabsim
