// Package monitor mirrors the mixed signal to the default audio output
// device so an operator can hear what is being analyzed. It runs entirely
// off the analysis critical path: a slow or stalled device drops mix
// frames, it never delays them.
package monitor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"featurecast/types"
	"featurecast/utils"
)

// Monitor plays MixFrames on the default output device from its own
// bounded queue with a drop-oldest policy.
type Monitor struct {
	stream *portaudio.Stream
	buffer []float32
	queue  chan types.MixFrame

	dropped   atomic.Uint64
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Open initializes portaudio and starts the playback goroutine.
func Open(sampleRate, chunkSize, queueDepth int) (*Monitor, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("monitor: failed to initialize portaudio: %w", err)
	}

	m := &Monitor{
		buffer: make([]float32, chunkSize),
		queue:  make(chan types.MixFrame, queueDepth),
		done:   make(chan struct{}),
	}

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), chunkSize, m.buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("monitor: failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("monitor: failed to start output stream: %w", err)
	}
	m.stream = stream

	m.wg.Add(1)
	go m.playLoop()
	return m, nil
}

// Push offers a mix frame for playback without blocking; the oldest queued
// frame is dropped when the device falls behind.
func (m *Monitor) Push(mf types.MixFrame) {
	select {
	case <-m.done:
		return
	default:
	}
	for {
		select {
		case m.queue <- mf:
			return
		default:
		}
		select {
		case <-m.queue:
			m.dropped.Add(1)
		default:
		}
	}
}

// Dropped reports how many mix frames were discarded because the device
// fell behind.
func (m *Monitor) Dropped() uint64 { return m.dropped.Load() }

// Close stops playback and joins the playback goroutine.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
	m.stream.Stop()
	m.stream.Close()
	portaudio.Terminate()
}

func (m *Monitor) playLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case mf := <-m.queue:
			for i := range m.buffer {
				if i < len(mf.Samples) {
					m.buffer[i] = float32(mf.Samples[i])
				} else {
					m.buffer[i] = 0
				}
			}
			if err := m.stream.Write(); err != nil {
				utils.Log.Debug("monitor: output write: %v", err)
			}
		}
	}
}
