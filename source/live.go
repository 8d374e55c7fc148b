package source

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"featurecast/types"
)

// LiveSource captures from the default input device. Each device channel
// becomes one track; Read blocks on the device clock, so the producer needs
// no pacing of its own.
type LiveSource struct {
	stream    *portaudio.Stream
	buffer    []float32
	tracks    []types.Track
	channels  int
	chunkSize int
	rate      int
	seq       uint64
}

// OpenLive initializes portaudio and opens the default input stream with
// the requested channel count and chunk size.
func OpenLive(channels, sampleRate, chunkSize int, instruments func(track int) types.Instrument) (*LiveSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("source: failed to initialize portaudio: %w", err)
	}

	s := &LiveSource{
		buffer:    make([]float32, chunkSize*channels),
		channels:  channels,
		chunkSize: chunkSize,
		rate:      sampleRate,
	}

	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), chunkSize, s.buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("source: failed to open input stream: %w", err)
	}
	s.stream = stream

	for i := 0; i < channels; i++ {
		s.tracks = append(s.tracks, types.Track{
			Index:      i,
			SampleRate: sampleRate,
			Instrument: instruments(i),
		})
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("source: failed to start input stream: %w", err)
	}
	return s, nil
}

func (s *LiveSource) Tracks() []types.Track { return s.tracks }
func (s *LiveSource) SampleRate() int       { return s.rate }

func (s *LiveSource) FrameDuration() time.Duration {
	return time.Duration(float64(s.chunkSize) / float64(s.rate) * float64(time.Second))
}

// Read blocks until the device delivers one chunk, then de-interleaves it
// into per-track frames. A device error is terminal.
func (s *LiveSource) Read() ([]types.Frame, error) {
	if err := s.stream.Read(); err != nil {
		return nil, fmt.Errorf("source: input stream read: %w", err)
	}

	now := time.Now()
	frames := make([]types.Frame, s.channels)
	for c := 0; c < s.channels; c++ {
		samples := make([]float64, s.chunkSize)
		for f := 0; f < s.chunkSize; f++ {
			samples[f] = float64(s.buffer[f*s.channels+c])
		}
		frames[c] = types.Frame{Track: c, Seq: s.seq, Time: now, Samples: samples}
	}
	s.seq++
	return frames, nil
}

func (s *LiveSource) Close() error {
	var err error
	if s.stream != nil {
		s.stream.Stop()
		err = s.stream.Close()
	}
	portaudio.Terminate()
	return err
}
