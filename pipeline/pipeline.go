// Package pipeline wires the frame source, analyzers, mixer, broadcaster
// and optional playback monitor into one running session.
//
// Scheduling: the producer goroutine runs at frame cadence (the device
// clock for live input, a ticker for recorded material) and never blocks on
// analysis. Hand-off everywhere is a bounded queue with a drop-oldest
// policy, so a slow consumer costs stale work, never upstream stalls.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"featurecast/affect"
	"featurecast/broadcast"
	"featurecast/config"
	"featurecast/dsp"
	"featurecast/mix"
	"featurecast/monitor"
	"featurecast/source"
	"featurecast/types"
	"featurecast/utils"
)

// State is the session lifecycle signal exposed to a supervisor.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var ErrBadTrack = errors.New("pipeline: track index out of range")

// Stats counts pipeline activity. All fields are safe to read while the
// session runs.
type Stats struct {
	FramesProduced atomic.Uint64
	FramesDropped  atomic.Uint64
	LowLevelSets   atomic.Uint64
	HighLevelSets  atomic.Uint64
}

// Session is one feature-extraction run over a fixed track roster.
type Session struct {
	cfg config.Config
	src source.Source
	bc  *broadcast.Broadcaster
	mon *monitor.Monitor // nil when playback is off

	analyzers []*dsp.Analyzer
	hf        *affect.Analyzer

	instMu      sync.RWMutex
	instruments []types.Instrument

	state atomic.Int32
	done  chan struct{}
	Stats Stats
}

// New assembles a session from its collaborators. The monitor may be nil.
func New(cfg config.Config, src source.Source, bc *broadcast.Broadcaster, mon *monitor.Monitor) *Session {
	tracks := src.Tracks()
	s := &Session{
		cfg:         cfg,
		src:         src,
		bc:          bc,
		mon:         mon,
		hf:          affect.NewAnalyzer(src.SampleRate(), cfg.FFTSize, cfg.Window.Seconds()),
		instruments: make([]types.Instrument, len(tracks)),
		done:        make(chan struct{}),
	}
	for i, t := range tracks {
		s.analyzers = append(s.analyzers, dsp.NewAnalyzer(
			t.SampleRate, cfg.FFTSize, cfg.SignalThreshold, cfg.PitchThreshold))
		s.instruments[i] = t.Instrument
	}
	return s
}

// State reports the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Done is closed once Run has returned and every worker is joined. It lets
// a supervisor wait for termination without polling State.
func (s *Session) Done() <-chan struct{} { return s.done }

// SetInstrument re-labels a track mid-session. The label only steers pitch
// search bounds; it is otherwise opaque.
func (s *Session) SetInstrument(track int, inst types.Instrument) error {
	if track < 0 || track >= len(s.instruments) {
		return fmt.Errorf("%w: %d", ErrBadTrack, track)
	}
	s.instMu.Lock()
	s.instruments[track] = inst
	s.instMu.Unlock()
	return nil
}

func (s *Session) instrument(track int) types.Instrument {
	s.instMu.RLock()
	defer s.instMu.RUnlock()
	return s.instruments[track]
}

// Run drives the session until the source terminates or ctx is cancelled.
// It joins every worker before returning; the returned error is nil for a
// clean stop (end of material or cancellation) and non-nil when the source
// failed terminally.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	tracks := s.src.Tracks()
	s.state.Store(int32(StateRunning))
	utils.Log.Info("session started: %d track(s), frame %v, window %v",
		len(tracks), s.src.FrameDuration(), s.cfg.Window)

	frameQueues := make([]chan types.Frame, len(tracks))
	for i := range frameQueues {
		frameQueues[i] = make(chan types.Frame, s.cfg.QueueDepth)
	}
	mixQueue := make(chan types.MixFrame, s.cfg.QueueDepth)

	var workers sync.WaitGroup
	for i := range tracks {
		workers.Add(1)
		go func(track int) {
			defer workers.Done()
			s.lowLevelWorker(track, frameQueues[track])
		}(i)
	}
	workers.Add(1)
	go func() {
		defer workers.Done()
		s.highLevelWorker(mixQueue)
	}()

	err := s.produce(ctx, frameQueues, mixQueue)

	for _, q := range frameQueues {
		close(q)
	}
	close(mixQueue)
	workers.Wait()
	s.bc.Close()

	if err != nil {
		s.state.Store(int32(StateFailed))
		utils.Log.Error("session failed: %v", err)
		return err
	}
	s.state.Store(int32(StateStopped))
	utils.Log.Info("session stopped: %d frames, %d low-level, %d high-level, %d dropped",
		s.Stats.FramesProduced.Load(), s.Stats.LowLevelSets.Load(),
		s.Stats.HighLevelSets.Load(), s.Stats.FramesDropped.Load())
	return nil
}

// produce reads aligned frames and hands them off. Recorded sources are
// paced with a ticker at the frame duration; live sources pace themselves
// on the device clock.
func (s *Session) produce(ctx context.Context, frameQueues []chan types.Frame, mixQueue chan types.MixFrame) error {
	var tick <-chan time.Time
	if !s.cfg.Live {
		ticker := time.NewTicker(s.src.FrameDuration())
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		frames, err := s.src.Read()
		if err == io.EOF {
			utils.Log.Info("source exhausted, shutting down")
			return nil
		}
		if err != nil {
			return fmt.Errorf("source failed: %w", err)
		}
		s.Stats.FramesProduced.Add(1)

		for i, f := range frames {
			if i < len(frameQueues) && !offerFrame(frameQueues[i], f) {
				s.Stats.FramesDropped.Add(1)
			}
		}

		mf := mix.Mix(frames)
		if !offerMix(mixQueue, mf) {
			s.Stats.FramesDropped.Add(1)
		}
		if s.mon != nil {
			s.mon.Push(mf)
		}
	}
}

func (s *Session) lowLevelWorker(track int, queue <-chan types.Frame) {
	for frame := range queue {
		feat := s.analyzers[track].Analyze(frame, s.instrument(track))
		s.bc.Send(broadcast.EncodeLowLevel(feat))
		s.Stats.LowLevelSets.Add(1)
	}
}

func (s *Session) highLevelWorker(queue <-chan types.MixFrame) {
	for mf := range queue {
		if feat, ok := s.hf.Push(mf); ok {
			s.bc.Send(broadcast.EncodeHighLevel(feat))
			s.Stats.HighLevelSets.Add(1)
		}
	}
	// Final partial window, if it holds enough audio.
	if feat, ok := s.hf.Flush(); ok {
		s.bc.Send(broadcast.EncodeHighLevel(feat))
		s.Stats.HighLevelSets.Add(1)
	}
}
