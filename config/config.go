// Package config defines the externally-supplied session configuration.
// The pipeline consumes one Config at session start and never performs
// interactive I/O of its own.
package config

import (
	"errors"
	"fmt"
	"time"

	"featurecast/types"
)

var (
	ErrNoTracks      = errors.New("config: at least one track is required")
	ErrBadChunkSize  = errors.New("config: chunk size must be positive")
	ErrBadWindow     = errors.New("config: aggregation window must be positive")
	ErrBadEndpoint   = errors.New("config: endpoint port must be in 1..65535")
	ErrBadSampleRate = errors.New("config: sample rate must be positive")
	ErrBadFFTSize    = errors.New("config: fft size must be a positive power of two")
	ErrBadThreshold  = errors.New("config: thresholds must be non-negative")
)

// Config carries everything the session needs: source selection, track
// roster, analysis parameters and the outbound endpoint.
type Config struct {
	// Source selection. When Live is true the session captures from the
	// default input device; otherwise Files lists one audio file per track.
	Live  bool
	Files []string

	// Instruments labels each track, index-aligned with the roster. Missing
	// entries fall back to the default instrument.
	Instruments []types.Instrument

	// SampleRate is the session sample rate in Hz. For file sources it is
	// overridden by the decoded material.
	SampleRate int

	// ChunkSize is the frame length in samples; it sets the low-level
	// emission cadence (SampleRate/ChunkSize frames per second).
	ChunkSize int

	// FFTSize, SignalThreshold and PitchThreshold parameterize low-level
	// analysis. A frame whose RMS is below SignalThreshold is reported as
	// silent (all-zero features).
	FFTSize         int
	SignalThreshold float64
	PitchThreshold  float64

	// Window is the wall-clock aggregation window for high-level features.
	Window time.Duration

	// Outbound endpoint for feature messages.
	Address string
	Port    int

	// Playback mirrors the mix to the default output device.
	Playback bool

	// QueueDepth bounds every hand-off queue in the pipeline.
	QueueDepth int
}

// Default returns the stock configuration: 4096-sample frames at 44.1 kHz
// (~10.8 low-level emissions per second per track), a half-second affect
// window and the documented localhost endpoint.
func Default() Config {
	return Config{
		SampleRate:      44100,
		ChunkSize:       4096,
		FFTSize:         4096,
		SignalThreshold: 0.005,
		PitchThreshold:  0.2,
		Window:          500 * time.Millisecond,
		Address:         "127.0.0.1",
		Port:            12345,
		QueueDepth:      8,
	}
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	if !c.Live && len(c.Files) == 0 {
		return ErrNoTracks
	}
	if c.ChunkSize <= 0 {
		return ErrBadChunkSize
	}
	if c.SampleRate <= 0 {
		return ErrBadSampleRate
	}
	if c.FFTSize <= 0 || c.FFTSize&(c.FFTSize-1) != 0 {
		return ErrBadFFTSize
	}
	if c.SignalThreshold < 0 || c.PitchThreshold < 0 {
		return ErrBadThreshold
	}
	if c.Window <= 0 {
		return ErrBadWindow
	}
	if c.Port <= 0 || c.Port > 65535 {
		return ErrBadEndpoint
	}
	if c.QueueDepth <= 0 {
		return fmt.Errorf("config: queue depth must be positive (was %d)", c.QueueDepth)
	}
	return nil
}

// Instrument returns the configured instrument for a track index, falling
// back to the default label.
func (c *Config) Instrument(track int) types.Instrument {
	if track < len(c.Instruments) && c.Instruments[track] != "" {
		return c.Instruments[track]
	}
	return types.InstrumentDefault
}

// FrameDuration is the wall-clock duration of one frame.
func (c *Config) FrameDuration() time.Duration {
	return time.Duration(float64(c.ChunkSize) / float64(c.SampleRate) * float64(time.Second))
}
