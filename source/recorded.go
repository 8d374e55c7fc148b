package source

import (
	"fmt"
	"io"
	"time"

	"featurecast/types"
)

// FileSource replays pre-recorded multi-track material, one file per track.
// All tracks advance in lockstep; a track that runs short of a full frame
// is padded with silence so alignment never breaks. Read returns io.EOF
// once every track is exhausted.
type FileSource struct {
	tracks    []types.Track
	data      [][]float64
	chunkSize int
	rate      int
	pos       int
	seq       uint64
	started   time.Time
}

// OpenFiles decodes one file per track. Every file must share a single
// sample rate; mixed-rate material is rejected rather than resampled.
func OpenFiles(paths []string, chunkSize int, instruments func(track int) types.Instrument) (*FileSource, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	s := &FileSource{chunkSize: chunkSize}
	for i, path := range paths {
		dt, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			s.rate = dt.sampleRate
		} else if dt.sampleRate != s.rate {
			return nil, fmt.Errorf("%w: %s has %d Hz, want %d Hz",
				ErrSampleRateMixed, path, dt.sampleRate, s.rate)
		}
		s.data = append(s.data, dt.samples)
		s.tracks = append(s.tracks, types.Track{
			Index:      i,
			SampleRate: dt.sampleRate,
			Instrument: instruments(i),
		})
	}
	s.started = time.Now()
	return s, nil
}

// FromSamples builds a FileSource from already-decoded mono tracks. Used
// when the caller decodes or synthesizes material itself.
func FromSamples(tracks [][]float64, sampleRate, chunkSize int, instruments func(track int) types.Instrument) *FileSource {
	s := &FileSource{chunkSize: chunkSize, rate: sampleRate, started: time.Now()}
	for i, samples := range tracks {
		s.data = append(s.data, samples)
		s.tracks = append(s.tracks, types.Track{
			Index:      i,
			SampleRate: sampleRate,
			Instrument: instruments(i),
		})
	}
	return s
}

func (s *FileSource) Tracks() []types.Track { return s.tracks }
func (s *FileSource) SampleRate() int       { return s.rate }
func (s *FileSource) Close() error          { return nil }

// FrameDuration reports the achieved frame cadence so time-based
// aggregation windows stay correct across chunk size configurations.
func (s *FileSource) FrameDuration() time.Duration {
	return time.Duration(float64(s.chunkSize) / float64(s.rate) * float64(time.Second))
}

// Read emits the next aligned frame per track. Tracks shorter than the
// current offset contribute silence; the final partial frame of the longest
// track is zero-padded to the full chunk size.
func (s *FileSource) Read() ([]types.Frame, error) {
	exhausted := true
	for _, d := range s.data {
		if s.pos < len(d) {
			exhausted = false
			break
		}
	}
	if exhausted {
		return nil, io.EOF
	}

	now := s.started.Add(time.Duration(s.seq) * s.FrameDuration())
	frames := make([]types.Frame, len(s.data))
	for i, d := range s.data {
		samples := make([]float64, s.chunkSize)
		if s.pos < len(d) {
			copy(samples, d[s.pos:min(s.pos+s.chunkSize, len(d))])
		}
		frames[i] = types.Frame{Track: i, Seq: s.seq, Time: now, Samples: samples}
	}

	s.pos += s.chunkSize
	s.seq++
	return frames, nil
}
