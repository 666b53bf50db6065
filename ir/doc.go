// Package ir loads impulse responses and convolves audio with them.
//
// A Convolver holds two kernels (A and B) that can be blended with an
// equal-power law. Kernels come from WAV files, HTTP URLs, arbitrary
// readers or plain sample slices; they are mixed to mono, resampled to the
// processing rate and handed to a low-latency partitioned convolution
// engine. The reported latency is the position of the direct-sound peak
// plus the engine latency, so a dry path can be aligned to it.
//
// Generate renders simple noise-based room, hall, plate and spring
// responses for testing without files.
package ir
