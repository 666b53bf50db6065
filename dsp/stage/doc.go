// Package stage provides the signal primitives the cabinet chains and the
// simulator's buses are assembled from.
//
// Primitives:
//   - Filter: biquad stage (lowpass, highpass, peak, shelves, notch) with
//     smoothed frequency, Q and gain.
//   - Delay: fractional delay line with a smoothed delay time.
//   - Gain and Crossfade: smoothed linear gain and the equal-power blend.
//   - SoftLimiter: tanh transfer curve with a configurable ceiling.
//   - Compressor: stereo-linked bus compressor.
//
// All stages process blocks in place and never allocate on the hot path.
// Parameter setters may be called from a control goroutine while another
// goroutine processes audio; everything else belongs to the audio goroutine.
package stage
