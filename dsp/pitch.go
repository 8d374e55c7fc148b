package dsp

import (
	"sort"

	"github.com/goccmack/godsp/peaks"

	"featurecast/types"
)

// minPeakSep is the minimum separation between pitch candidate peaks in
// FFT bins. At 44.1 kHz / 4096-point FFT this is ~108 Hz.
const minPeakSep = 10

// pitchCandidates picks up to types.NumPitches salient peaks from the
// magnitude spectrum, bounded to the instrument's fundamental frequency
// range and thresholded relative to the strongest bin in that range.
// Candidates come back ordered by descending magnitude; unfilled slots
// stay 0.
func pitchCandidates(s *Spectrum, inst types.Instrument, threshold float64) [types.NumPitches]float64 {
	var out [types.NumPitches]float64

	low, high := inst.FundamentalRange()
	idx := peaks.Get(s.Mags, minPeakSep)
	if len(idx) == 0 {
		return out
	}

	var maxMag float64
	candidates := idx[:0]
	for _, i := range idx {
		f := s.BinFreq(i)
		if f < low || f > high {
			continue
		}
		candidates = append(candidates, i)
		if s.Mags[i] > maxMag {
			maxMag = s.Mags[i]
		}
	}
	if maxMag <= eps {
		return out
	}

	sort.Slice(candidates, func(a, b int) bool {
		return s.Mags[candidates[a]] > s.Mags[candidates[b]]
	})

	n := 0
	for _, i := range candidates {
		if n >= types.NumPitches {
			break
		}
		if s.Mags[i] < threshold*maxMag {
			break
		}
		out[n] = sanitize(s.BinFreq(i))
		n++
	}
	return out
}
