package config

import (
	"testing"
	"time"

	"featurecast/types"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Files = []string{"a.wav"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no tracks", func(c *Config) { c.Files = nil }, ErrNoTracks},
		{"zero chunk", func(c *Config) { c.ChunkSize = 0 }, ErrBadChunkSize},
		{"negative rate", func(c *Config) { c.SampleRate = -1 }, ErrBadSampleRate},
		{"fft not power of two", func(c *Config) { c.FFTSize = 1000 }, ErrBadFFTSize},
		{"zero window", func(c *Config) { c.Window = 0 }, ErrBadWindow},
		{"negative signal threshold", func(c *Config) { c.SignalThreshold = -0.1 }, ErrBadThreshold},
		{"negative pitch threshold", func(c *Config) { c.PitchThreshold = -1 }, ErrBadThreshold},
		{"bad port", func(c *Config) { c.Port = 70000 }, ErrBadEndpoint},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			cfg.Files = []string{"a.wav"}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err != tc.want {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestInstrumentFallback(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Instruments = []types.Instrument{types.InstrumentGuitar}

	if got := cfg.Instrument(0); got != types.InstrumentGuitar {
		t.Errorf("Instrument(0) = %v, want guitar", got)
	}
	if got := cfg.Instrument(3); got != types.InstrumentDefault {
		t.Errorf("Instrument(3) = %v, want default fallback", got)
	}
}

func TestFrameDuration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.SampleRate = 44100
	cfg.ChunkSize = 4096

	seconds := 4096.0 / 44100.0
	want := time.Duration(seconds * float64(time.Second))
	if got := cfg.FrameDuration(); got != want {
		t.Errorf("FrameDuration() = %v, want %v", got, want)
	}
}
