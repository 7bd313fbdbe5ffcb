// Package analysis provides oscillation analysis for recorded traces.
//
//   - [PowerSpectrum]: magnitude spectrum of a mean-removed, zero-padded signal
//   - [DominantFrequency]: strongest non-DC frequency of a signal
//   - [Crossings]: upward crossings of a level, and the mean period between them
//   - [NewPortrait]: 2D trajectory of two columns, rendered with [PortraitToASCII]
//
// # Swing Frequency
//
// A driver's parameter x oscillates at roughly the pendulum's natural
// frequency once the anchor stops moving:
//
//	hz := analysis.DominantFrequency(xs, dt)
package analysis
