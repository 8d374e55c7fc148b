package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	// rolloffFraction is the share of total spectral energy below the
	// rolloff frequency.
	rolloffFraction = 0.85

	// eps floors magnitudes in log-domain math so silent bins never
	// produce -Inf.
	eps = 1e-10
)

// Spectrum is the single-sided magnitude spectrum of one windowed frame.
type Spectrum struct {
	Mags       []float64 // fftSize/2 + 1 bins
	SampleRate int
	FFTSize    int
}

// BinFreq returns the center frequency in Hz of bin i.
func (s *Spectrum) BinFreq(i int) float64 {
	return float64(i) * float64(s.SampleRate) / float64(s.FFTSize)
}

// NewSpectrum windows the frame with a Hann window and returns the
// magnitude spectrum. Frames shorter than the FFT size are zero-padded,
// longer ones truncated.
func NewSpectrum(samples []float64, sampleRate, fftSize int) *Spectrum {
	buf := make([]float64, fftSize)
	copy(buf, samples)

	win := window.Hann(fftSize)
	for i := range buf {
		buf[i] *= win[i]
	}

	bins := fft.FFTReal(buf)
	mags := make([]float64, fftSize/2+1)
	for i := range mags {
		mags[i] = cmplx.Abs(bins[i])
	}

	return &Spectrum{Mags: mags, SampleRate: sampleRate, FFTSize: fftSize}
}

// Centroid is the magnitude-weighted mean frequency in Hz, 0 for an empty
// spectrum.
func (s *Spectrum) Centroid() float64 {
	var num, den float64
	for i, m := range s.Mags {
		num += s.BinFreq(i) * m
		den += m
	}
	if den <= eps {
		return 0
	}
	return sanitize(num / den)
}

// Bandwidth is the magnitude-weighted standard deviation around the
// centroid, in Hz.
func (s *Spectrum) Bandwidth(centroid float64) float64 {
	var num, den float64
	for i, m := range s.Mags {
		d := s.BinFreq(i) - centroid
		num += m * d * d
		den += m
	}
	if den <= eps {
		return 0
	}
	return sanitize(math.Sqrt(num / den))
}

// Flatness is the ratio of geometric to arithmetic mean of the power
// spectrum: near 1 for broadband noise, near 0 for a pure tone.
func (s *Spectrum) Flatness() float64 {
	var logSum, sum float64
	n := float64(len(s.Mags))
	for _, m := range s.Mags {
		p := m * m
		if p < eps {
			p = eps
		}
		logSum += math.Log(p)
		sum += p
	}
	if sum <= eps*n*2 {
		return 0
	}
	flat := math.Exp(logSum/n) / (sum / n)
	if flat > 1 {
		flat = 1
	}
	return sanitize(flat)
}

// Rolloff is the lowest frequency below which rolloffFraction of the total
// spectral energy lies, in Hz.
func (s *Spectrum) Rolloff() float64 {
	var total float64
	for _, m := range s.Mags {
		total += m * m
	}
	if total <= eps {
		return 0
	}
	target := rolloffFraction * total
	var cum float64
	for i, m := range s.Mags {
		cum += m * m
		if cum >= target {
			return s.BinFreq(i)
		}
	}
	return s.BinFreq(len(s.Mags) - 1)
}

// sanitize clamps NaN and infinite values to the neutral 0 so numeric
// degeneracy never leaves the analyzer.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
