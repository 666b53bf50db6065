// Package cabinet models a close-miked guitar speaker cabinet.
//
// It holds the cabinet and microphone profile tables, the near-field physics
// (proximity effect, off-axis comb notch, air absorption, time of flight)
// as pure functions, and Chain, the eleven-stage filter chain those
// functions drive.
//
// A Chain is built once per cabinet/microphone pair. Moving the microphone
// retargets the position-dependent stages in place; every retarget glides
// over about 30 ms so placement changes never click.
package cabinet
