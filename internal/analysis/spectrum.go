package analysis

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the power |X_k|² of each non-negative frequency bin of
// data after removing its mean. Bin k corresponds to k/(len(data)*interval).
// The transform is unnormalized, so a unit sine with a whole number of cycles
// puts (len(data)/2)² in its bin.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(len(centered))
	coeff := fft.Coefficients(nil, centered)

	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = real(c)*real(c) + imag(c)*imag(c)
	}
	return ps
}

// DominantPeriod returns the period of the strongest non-constant frequency in
// data sampled every interval time units. It reports false when the signal
// is too short or flat.
func DominantPeriod(data []float64, interval float64) (float64, bool) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0, false
	}

	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] == 0 {
		return 0, false
	}

	return float64(len(data)) * interval / float64(peak), true
}
