// Package types holds the data model shared by every pipeline stage: the
// fixed track roster, per-frame audio slices and the feature sets produced
// by the analyzers.
package types

import "time"

// Track identifies one audio channel of the session. The roster is fixed at
// session start; tracks are never added or removed mid-session.
type Track struct {
	Index      int
	SampleRate int
	Instrument Instrument
}

// Frame is one chunk of mono samples for a single track. Frames sharing a
// sequence number across tracks were captured simultaneously. A Frame is
// immutable once handed off to a consumer.
type Frame struct {
	Track   int
	Seq     uint64
	Time    time.Time
	Samples []float64
}

// MixFrame is the sample-wise sum of all tracks' frames for one sequence
// number. It is consumed immediately by the high-level analyzer and the
// playback monitor and never retained.
type MixFrame struct {
	Seq     uint64
	Time    time.Time
	Samples []float64
}

// NumPitches is the fixed number of pitch candidate slots per low-level
// feature set. Unfilled slots stay 0 so the wire arity never changes.
const NumPitches = 4

// LowLevelFeatures describes the spectral shape and pitch content of one
// frame of one track.
type LowLevelFeatures struct {
	Track     int
	Seq       uint64
	Centroid  float64             // Hz
	Bandwidth float64             // Hz
	Flatness  float64             // ratio in [0,1]
	Rolloff   float64             // Hz
	Pitches   [NumPitches]float64 // Hz, descending prominence
}

// HighLevelFeatures describes the affect estimate for one aggregation
// window of the mixed signal. Both values are bounded to [-1, 1]; the
// estimation model keeps them strictly inside the open interval for any
// finite input.
type HighLevelFeatures struct {
	Arousal float64
	Valence float64
}
