// Package response measures magnitude responses.
//
// Analyze transforms an impulse response; Measure drives any block
// processor with a low-level impulse first. Results can be read at
// arbitrary frequencies or sampled on a logarithmic grid.
package response
