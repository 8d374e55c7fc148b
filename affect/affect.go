// Package affect estimates arousal and valence for the mixed signal over a
// wall-clock aggregation window.
//
// The model maps windowed acoustic properties to the two affect axes:
// arousal follows energy, onset density and brightness; valence follows
// tonality, brightness and energy stability. Both outputs pass through tanh,
// so they stay strictly inside (-1, 1) for any finite input. This is a
// property of the model, not a defect: the contract bounds are the closed
// interval [-1, 1].
package affect

import (
	"math"

	"github.com/goccmack/godsp/peaks"

	"featurecast/dsp"
	"featurecast/types"
)

const (
	// envelopeBlock is the block length in samples for the energy envelope
	// used by onset detection.
	envelopeBlock = 512

	// envelopePeakSep is the minimum onset separation in envelope blocks
	// (~58 ms at 44.1 kHz).
	envelopePeakSep = 5

	// minFlushFraction is the smallest share of a window worth reporting
	// when the source terminates mid-window.
	minFlushFraction = 0.25

	// silenceRMS below which a window is reported as neutral affect.
	silenceRMS = 0.001
)

// Analyzer accumulates MixFrames until one aggregation window's worth of
// samples has arrived, then emits a single HighLevelFeatures and resets.
type Analyzer struct {
	sampleRate int
	fftSize    int
	budget     int // samples per window
	acc        []float64
}

// NewAnalyzer sizes the aggregation window in wall-clock terms: windowSec
// seconds of audio at the given sample rate, independent of frame cadence.
func NewAnalyzer(sampleRate, fftSize int, windowSec float64) *Analyzer {
	budget := int(windowSec * float64(sampleRate))
	if budget < 1 {
		budget = 1
	}
	return &Analyzer{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		budget:     budget,
		acc:        make([]float64, 0, budget),
	}
}

// WindowSamples is the per-window sample budget.
func (a *Analyzer) WindowSamples() int { return a.budget }

// Push accumulates one mix frame. When the window budget is reached it
// returns the window's features and true, keeping any overflow samples for
// the next window.
func (a *Analyzer) Push(mf types.MixFrame) (types.HighLevelFeatures, bool) {
	a.acc = append(a.acc, mf.Samples...)
	if len(a.acc) < a.budget {
		return types.HighLevelFeatures{}, false
	}

	feat := a.estimate(a.acc[:a.budget])
	rest := len(a.acc) - a.budget
	copy(a.acc, a.acc[a.budget:])
	a.acc = a.acc[:rest]
	return feat, true
}

// Flush emits the final partial window if it holds enough audio to be
// meaningful, otherwise discards it.
func (a *Analyzer) Flush() (types.HighLevelFeatures, bool) {
	if float64(len(a.acc)) < minFlushFraction*float64(a.budget) {
		a.acc = a.acc[:0]
		return types.HighLevelFeatures{}, false
	}
	feat := a.estimate(a.acc)
	a.acc = a.acc[:0]
	return feat, true
}

// estimate maps one window of mixed samples to the two affect dimensions.
func (a *Analyzer) estimate(samples []float64) types.HighLevelFeatures {
	rms := dsp.RMS(samples)
	if rms <= silenceRMS {
		return types.HighLevelFeatures{}
	}

	env := envelope(samples)
	onsets := float64(len(peaks.Get(env, envelopePeakSep)))
	windowSec := float64(len(samples)) / float64(a.sampleRate)
	onsetRate := onsets / windowSec

	centroid, flatness, rolloff := a.spectralSummary(samples)
	nyquist := float64(a.sampleRate) / 2
	brightness := rolloff / nyquist
	sharpness := centroid / nyquist

	arousalRaw := 3.0*rms + 0.12*onsetRate + 1.2*sharpness - 1.0

	tonality := 1 - flatness
	stability := 1 - clamp01(variation(env))
	valenceRaw := 1.4*tonality + 0.5*brightness + 0.6*stability - 1.4

	return types.HighLevelFeatures{
		Arousal: math.Tanh(arousalRaw),
		Valence: math.Tanh(valenceRaw),
	}
}

// spectralSummary averages centroid, flatness and rolloff over
// non-overlapping FFT-size blocks of the window.
func (a *Analyzer) spectralSummary(samples []float64) (centroid, flatness, rolloff float64) {
	blocks := 0
	for start := 0; start < len(samples); start += a.fftSize {
		end := min(start+a.fftSize, len(samples))
		spec := dsp.NewSpectrum(samples[start:end], a.sampleRate, a.fftSize)
		centroid += spec.Centroid()
		flatness += spec.Flatness()
		rolloff += spec.Rolloff()
		blocks++
	}
	if blocks == 0 {
		return 0, 0, 0
	}
	n := float64(blocks)
	return centroid / n, flatness / n, rolloff / n
}

// envelope is the block-wise RMS energy contour of the window.
func envelope(samples []float64) []float64 {
	n := (len(samples) + envelopeBlock - 1) / envelopeBlock
	env := make([]float64, 0, n)
	for start := 0; start < len(samples); start += envelopeBlock {
		end := min(start+envelopeBlock, len(samples))
		env = append(env, dsp.RMS(samples[start:end]))
	}
	return env
}

// variation is the coefficient of variation of the envelope: 0 for steady
// material, larger for spiky dynamics.
func variation(env []float64) float64 {
	if len(env) == 0 {
		return 0
	}
	var mean float64
	for _, v := range env {
		mean += v
	}
	mean /= float64(len(env))
	if mean <= 1e-12 {
		return 0
	}
	var ss float64
	for _, v := range env {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss/float64(len(env))) / mean
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
