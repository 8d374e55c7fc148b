package pipeline

import (
	"context"
	"errors"
	"math"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"featurecast/broadcast"
	"featurecast/config"
	"featurecast/source"
	"featurecast/types"
)

// collector gathers OSC messages from a local UDP socket.
type collector struct {
	conn net.PacketConn
	mu   sync.Mutex
	msgs []*osc.Message
	wg   sync.WaitGroup
}

func newCollector(t *testing.T) *collector {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	c := &collector{conn: conn}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		server := &osc.Server{}
		for {
			packet, err := server.ReceivePacket(conn)
			if err != nil {
				return
			}
			if msg, ok := packet.(*osc.Message); ok {
				c.mu.Lock()
				c.msgs = append(c.msgs, msg)
				c.mu.Unlock()
			}
		}
	}()
	return c
}

func (c *collector) port() int { return c.conn.LocalAddr().(*net.UDPAddr).Port }

func (c *collector) stop() {
	c.conn.Close()
	c.wg.Wait()
}

func (c *collector) byPrefix(prefix string) []*osc.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*osc.Message
	for _, m := range c.msgs {
		if strings.HasPrefix(m.Address, prefix) {
			out = append(out, m)
		}
	}
	return out
}

func testConfig(port int) config.Config {
	cfg := config.Default()
	cfg.SampleRate = 8000
	cfg.ChunkSize = 1024
	cfg.FFTSize = 1024
	cfg.Window = 250 * time.Millisecond
	cfg.Port = port
	cfg.Files = []string{"synthetic"}
	return cfg
}

func sineTrack(freq float64, rate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.6 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func defaultInstrument(int) types.Instrument { return types.InstrumentDefault }

func TestEndToEndSineTone(t *testing.T) {
	col := newCollector(t)
	cfg := testConfig(col.port())

	// Two seconds of a 440 Hz tone on a single track.
	src := source.FromSamples([][]float64{sineTrack(440, 8000, 16000)},
		8000, cfg.ChunkSize, defaultInstrument)
	bc := broadcast.New(cfg.Address, cfg.Port, cfg.QueueDepth)
	session := New(cfg, src, bc, nil)

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if session.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", session.State())
	}

	// Give the last datagrams time to land.
	time.Sleep(100 * time.Millisecond)
	col.stop()

	low := col.byPrefix("/Lfmsg_ch0")
	if len(low) == 0 {
		t.Fatal("no low-level messages received")
	}

	// The top pitch candidate must sit near 440 Hz for the majority of
	// frames (bin width is ~7.8 Hz here).
	near := 0
	for _, m := range low {
		if len(m.Arguments) != 8 {
			t.Fatalf("low-level arity = %d, want 8", len(m.Arguments))
		}
		if pitch := float64(m.Arguments[4].(float32)); math.Abs(pitch-440) < 16 {
			near++
		}
	}
	if near*2 <= len(low) {
		t.Errorf("top pitch near 440 Hz in %d/%d frames, want majority", near, len(low))
	}

	high := col.byPrefix("/Hfmsg_ch0")
	if len(high) == 0 {
		t.Fatal("no high-level messages received")
	}
	for _, m := range high {
		if len(m.Arguments) != 2 {
			t.Fatalf("high-level arity = %d, want 2", len(m.Arguments))
		}
		for i := 0; i < 2; i++ {
			v := float64(m.Arguments[i].(float32))
			if v < -1 || v > 1 {
				t.Errorf("high-level arg %d = %v, outside [-1, 1]", i, v)
			}
		}
	}
}

func TestFeatureSetPerFrameParity(t *testing.T) {
	col := newCollector(t)
	defer col.stop()
	cfg := testConfig(col.port())

	tracks := [][]float64{
		sineTrack(220, 8000, 8192),
		sineTrack(330, 8000, 8192),
		make([]float64, 8192),
	}
	src := source.FromSamples(tracks, 8000, cfg.ChunkSize, defaultInstrument)
	bc := broadcast.New(cfg.Address, cfg.Port, cfg.QueueDepth)
	session := New(cfg, src, bc, nil)

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	produced := session.Stats.FramesProduced.Load()
	low := session.Stats.LowLevelSets.Load()
	if produced == 0 {
		t.Fatal("no frames produced")
	}
	// One low-level feature set per track per frame under normal load.
	if low != produced*uint64(len(tracks)) {
		t.Errorf("low-level sets = %d, want %d (%d frames x %d tracks)",
			low, produced*uint64(len(tracks)), produced, len(tracks))
	}
	if session.Stats.FramesDropped.Load() != 0 {
		t.Errorf("dropped %d frames under normal load, want 0", session.Stats.FramesDropped.Load())
	}
}

func TestCancelStopsWithinWindow(t *testing.T) {
	col := newCollector(t)
	defer col.stop()
	cfg := testConfig(col.port())

	// Long material so only cancellation can end the session.
	src := source.FromSamples([][]float64{sineTrack(440, 8000, 8000*60)},
		8000, cfg.ChunkSize, defaultInstrument)
	bc := broadcast.New(cfg.Address, cfg.Port, cfg.QueueDepth)
	session := New(cfg, src, bc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	time.Sleep(400 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() after cancel = %v, want nil", err)
		}
	case <-time.After(cfg.Window + time.Second):
		t.Fatal("session did not stop within one aggregation window")
	}
	if session.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", session.State())
	}
}

func TestDoneSignalsTermination(t *testing.T) {
	col := newCollector(t)
	defer col.stop()
	cfg := testConfig(col.port())

	src := source.FromSamples([][]float64{sineTrack(440, 8000, 4096)},
		8000, cfg.ChunkSize, defaultInstrument)
	bc := broadcast.New(cfg.Address, cfg.Port, cfg.QueueDepth)
	session := New(cfg, src, bc, nil)

	select {
	case <-session.Done():
		t.Fatal("Done() closed before Run")
	default:
	}

	go session.Run(context.Background())

	select {
	case <-session.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done() not closed after the source was exhausted")
	}
	if session.State() != StateStopped {
		t.Errorf("State() after Done = %v, want stopped", session.State())
	}
}

type failingSource struct {
	reads int
}

func (f *failingSource) Tracks() []types.Track {
	return []types.Track{{Index: 0, SampleRate: 8000, Instrument: types.InstrumentDefault}}
}

func (f *failingSource) Read() ([]types.Frame, error) {
	f.reads++
	if f.reads > 2 {
		return nil, errors.New("device disconnected")
	}
	return []types.Frame{{Track: 0, Seq: uint64(f.reads), Samples: make([]float64, 1024)}}, nil
}

func (f *failingSource) FrameDuration() time.Duration { return 10 * time.Millisecond }
func (f *failingSource) SampleRate() int              { return 8000 }
func (f *failingSource) Close() error                 { return nil }

func TestSourceFailureIsTerminal(t *testing.T) {
	col := newCollector(t)
	defer col.stop()
	cfg := testConfig(col.port())

	bc := broadcast.New(cfg.Address, cfg.Port, cfg.QueueDepth)
	session := New(cfg, &failingSource{}, bc, nil)

	if err := session.Run(context.Background()); err == nil {
		t.Fatal("Run() = nil, want terminal source error")
	}
	if session.State() != StateFailed {
		t.Errorf("State() = %v, want failed", session.State())
	}
}

func TestSetInstrument(t *testing.T) {
	col := newCollector(t)
	defer col.stop()
	cfg := testConfig(col.port())

	src := source.FromSamples([][]float64{make([]float64, 1024)},
		8000, cfg.ChunkSize, defaultInstrument)
	bc := broadcast.New(cfg.Address, cfg.Port, cfg.QueueDepth)
	session := New(cfg, src, bc, nil)

	if err := session.SetInstrument(0, types.InstrumentDrums); err != nil {
		t.Errorf("SetInstrument(0) error = %v", err)
	}
	if got := session.instrument(0); got != types.InstrumentDrums {
		t.Errorf("instrument(0) = %v, want drums", got)
	}
	if err := session.SetInstrument(5, types.InstrumentVoice); err == nil {
		t.Error("SetInstrument(5) = nil, want range error")
	}
}

func TestOfferEvictsOldest(t *testing.T) {
	t.Parallel()

	ch := make(chan types.Frame, 2)
	if !offerFrame(ch, types.Frame{Seq: 1}) {
		t.Error("offer to empty queue reported eviction")
	}
	offerFrame(ch, types.Frame{Seq: 2})
	if offerFrame(ch, types.Frame{Seq: 3}) {
		t.Error("offer to full queue reported no eviction")
	}

	if f := <-ch; f.Seq != 2 {
		t.Errorf("front Seq = %d, want 2 (oldest evicted)", f.Seq)
	}
	if f := <-ch; f.Seq != 3 {
		t.Errorf("second Seq = %d, want 3", f.Seq)
	}
}
