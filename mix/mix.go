// Package mix sums the per-track frames of one sequence number into a
// single monitoring/analysis signal.
//
// Clipping policy: the mix is a plain sample-wise sum, hard-clamped to
// [-1, 1]. No normalization is applied, so a mix of silent tracks plus one
// active track equals that track exactly.
package mix

import "featurecast/types"

// Mix sums frames sharing a sequence number. Frames shorter than the
// longest contribute silence past their end. An empty input yields an
// empty MixFrame.
func Mix(frames []types.Frame) types.MixFrame {
	var out types.MixFrame
	if len(frames) == 0 {
		return out
	}
	out.Seq = frames[0].Seq
	out.Time = frames[0].Time

	size := 0
	for _, f := range frames {
		if len(f.Samples) > size {
			size = len(f.Samples)
		}
	}

	sum := make([]float64, size)
	for _, f := range frames {
		for i, v := range f.Samples {
			sum[i] += v
		}
	}
	for i, v := range sum {
		sum[i] = clamp(v)
	}
	out.Samples = sum
	return out
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
