// Package broadcast serializes feature sets to OSC messages and transmits
// them over UDP without ever blocking the analysis pipeline.
package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/hypebeast/go-osc/osc"

	"featurecast/utils"
)

// Broadcaster owns the outbound queue and the single sender goroutine.
// Send never blocks: under saturation the oldest queued message is dropped
// (datagram semantics, no retry). Transmission failures are surfaced once
// rather than per message.
type Broadcaster struct {
	client *osc.Client
	queue  chan *osc.Message

	dropped   atomic.Uint64
	failOnce  sync.Once
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New starts a broadcaster for the given endpoint. An unreachable endpoint
// does not fail the session: messages are dropped on send and the condition
// is logged once, so extraction can run without a live consumer.
func New(address string, port, queueDepth int) *Broadcaster {
	b := &Broadcaster{
		client: osc.NewClient(address, port),
		queue:  make(chan *osc.Message, queueDepth),
		done:   make(chan struct{}),
	}
	b.wg.Add(1)
	go b.sendLoop()
	return b
}

// Send enqueues a message, dropping the oldest queued message when the
// queue is full. Safe for concurrent use.
func (b *Broadcaster) Send(msg *osc.Message) {
	select {
	case <-b.done:
		return
	default:
	}
	for {
		select {
		case b.queue <- msg:
			return
		default:
		}
		select {
		case <-b.queue:
			b.dropped.Add(1)
		default:
		}
	}
}

// Dropped reports how many messages were discarded under saturation.
func (b *Broadcaster) Dropped() uint64 { return b.dropped.Load() }

// Close stops accepting messages, drains what is already queued and joins
// the sender goroutine.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
}

func (b *Broadcaster) sendLoop() {
	defer b.wg.Done()
	for {
		select {
		case msg := <-b.queue:
			b.transmit(msg)
		case <-b.done:
			// Drain whatever was queued before shutdown, then exit.
			for {
				select {
				case msg := <-b.queue:
					b.transmit(msg)
				default:
					return
				}
			}
		}
	}
}

func (b *Broadcaster) transmit(msg *osc.Message) {
	if err := b.client.Send(msg); err != nil {
		b.failOnce.Do(func() {
			utils.Log.Warn("broadcast: endpoint unreachable, running deaf: %v", err)
		})
	}
}
