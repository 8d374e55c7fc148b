// Package dsp computes per-frame low-level audio features: the four
// spectral shape descriptors and up to four dominant pitch candidates.
package dsp

import (
	"math"

	"featurecast/types"
)

// Analyzer computes low-level features for one track's frames. It keeps no
// cross-frame state: identical input samples always yield identical output.
type Analyzer struct {
	sampleRate      int
	fftSize         int
	signalThreshold float64
	pitchThreshold  float64
}

// NewAnalyzer configures an analyzer for one track.
func NewAnalyzer(sampleRate, fftSize int, signalThreshold, pitchThreshold float64) *Analyzer {
	return &Analyzer{
		sampleRate:      sampleRate,
		fftSize:         fftSize,
		signalThreshold: signalThreshold,
		pitchThreshold:  pitchThreshold,
	}
}

// Analyze runs the full low-level chain on one frame: silence gate, peak
// normalization, windowed magnitude spectrum, the four spectral descriptors
// and pitch candidate extraction. A silent or degenerate frame returns
// all-zero features rather than an error.
func (a *Analyzer) Analyze(frame types.Frame, inst types.Instrument) types.LowLevelFeatures {
	feat := types.LowLevelFeatures{Track: frame.Track, Seq: frame.Seq}

	if RMS(frame.Samples) <= a.signalThreshold {
		return feat
	}

	samples := normalizePeak(frame.Samples)
	spec := NewSpectrum(samples, a.sampleRate, a.fftSize)

	centroid := spec.Centroid()
	feat.Centroid = math.Round(centroid)
	feat.Bandwidth = math.Round(spec.Bandwidth(centroid))
	feat.Flatness = spec.Flatness()
	feat.Rolloff = math.Round(spec.Rolloff())
	feat.Pitches = pitchCandidates(spec, inst, a.pitchThreshold)
	for i := range feat.Pitches {
		feat.Pitches[i] = math.Round(feat.Pitches[i])
	}
	return feat
}

// RMS is the root mean square level of a sample slice.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// normalizePeak scales the frame so its largest absolute sample is 1. The
// input slice is not modified.
func normalizePeak(samples []float64) []float64 {
	var peak float64
	for _, v := range samples {
		if av := math.Abs(v); av > peak {
			peak = av
		}
	}
	out := make([]float64, len(samples))
	if peak <= eps {
		return out
	}
	inv := 1 / peak
	for i, v := range samples {
		out[i] = v * inv
	}
	return out
}
