package pipeline

import "featurecast/types"

// offerFrame enqueues without blocking, evicting the oldest queued frame
// under saturation (bounded staleness). Returns false when an eviction was
// needed.
func offerFrame(ch chan types.Frame, f types.Frame) bool {
	ok := true
	for {
		select {
		case ch <- f:
			return ok
		default:
		}
		select {
		case <-ch:
			ok = false
		default:
		}
	}
}

// offerMix is offerFrame for mix frames.
func offerMix(ch chan types.MixFrame, mf types.MixFrame) bool {
	ok := true
	for {
		select {
		case ch <- mf:
			return ok
		default:
		}
		select {
		case <-ch:
			ok = false
		default:
		}
	}
}
