package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// decodedTrack is one file decoded to mono float64 samples in [-1, 1].
type decodedTrack struct {
	samples    []float64
	sampleRate int
}

// decodeFile loads an audio file and downmixes interleaved channels to mono
// by averaging. Format is picked by extension.
func decodeFile(path string) (*decodedTrack, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWav(path)
	case ".mp3":
		return decodeMp3(path)
	case ".ogg":
		return decodeVorbis(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
}

func decodeWav(path string) (*decodedTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("source: %s is not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", path, err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	return &decodedTrack{
		samples:    downmixInt(buf, bitDepth),
		sampleRate: buf.Format.SampleRate,
	}, nil
}

// downmixInt averages a buffer's interleaved integer channels to mono
// float64 samples in [-1, 1].
func downmixInt(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := 1.0 / float64(int(1)<<(bitDepth-1))
	frames := len(buf.Data) / channels

	samples := make([]float64, frames)
	for fr := 0; fr < frames; fr++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[fr*channels+c]) * scale
		}
		samples[fr] = sum / float64(channels)
	}
	return samples
}

func decodeMp3(path string) (*decodedTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", path, err)
	}

	// go-mp3 always emits 16-bit little-endian stereo.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", path, err)
	}

	const scale = 1.0 / 32768.0
	frames := len(raw) / 4
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := int16(uint16(raw[4*i]) | uint16(raw[4*i+1])<<8)
		r := int16(uint16(raw[4*i+2]) | uint16(raw[4*i+3])<<8)
		samples[i] = (float64(l) + float64(r)) * 0.5 * scale
	}

	return &decodedTrack{samples: samples, sampleRate: dec.SampleRate()}, nil
}

func decodeVorbis(path string) (*decodedTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", path, err)
	}

	channels := format.Channels
	if channels < 1 {
		channels = 1
	}
	frames := len(data) / channels
	samples := make([]float64, frames)
	for fr := 0; fr < frames; fr++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[fr*channels+c])
		}
		samples[fr] = sum / float64(channels)
	}

	return &decodedTrack{samples: samples, sampleRate: format.SampleRate}, nil
}
