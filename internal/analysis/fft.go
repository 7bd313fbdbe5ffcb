package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT computes the discrete Fourier transform of data. Any length is
// accepted; [PadPow2] keeps bin spacing predictable.
func FFT(data []float64) []complex128 {
	if len(data) == 0 {
		return nil
	}
	return fft.FFTReal(data)
}

// PadPow2 returns data with its mean removed, zero-padded to the next power
// of two.
func PadPow2(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n <<= 1
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}
	out := make([]float64, n)
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}

func PowerSpectrum(data []float64) []float64 {
	fft := FFT(PadPow2(data))
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest bin above
// DC for samples taken every dt seconds, or 0 when there is no signal.
func DominantFrequency(data []float64, dt float64) float64 {
	if len(data) < 4 || dt <= 0 {
		return 0
	}
	ps := PowerSpectrum(data)
	best, bestPow := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > bestPow {
			best, bestPow = i, ps[i]
		}
	}
	if best == 0 {
		return 0
	}
	n := 2 * len(ps)
	return float64(best) / (float64(n) * dt)
}
