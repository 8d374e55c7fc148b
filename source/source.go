// Package source supplies fixed-size, timestamped, per-track audio frames
// from either pre-recorded files or a live input device.
package source

import (
	"errors"
	"time"

	"featurecast/types"
)

var (
	ErrNoFiles         = errors.New("source: no input files")
	ErrSampleRateMixed = errors.New("source: input files have differing sample rates")
	ErrUnsupportedFile = errors.New("source: unsupported file format")
)

// Source produces time-aligned frames for the fixed track roster. Read
// returns exactly one frame per track, all sharing a sequence number, or
// io.EOF once the material is exhausted. Any other error is terminal.
type Source interface {
	Tracks() []types.Track
	Read() ([]types.Frame, error)
	FrameDuration() time.Duration
	SampleRate() int
	Close() error
}
