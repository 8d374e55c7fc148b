package broadcast

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"

	"featurecast/types"
)

// OSC address prefixes for the two message kinds. The trailing channel
// number is the track index (always 0 for the mix-level message).
const (
	lowLevelAddrPrefix = "/Lfmsg_ch"
	highLevelAddr      = "/Hfmsg_ch0"
	lowLevelArity      = 8
	highLevelArity     = 2
)

// EncodeLowLevel maps a low-level feature set to its wire message: address
// /Lfmsg_ch<track> with exactly 8 float32 arguments in fixed order:
// centroid, bandwidth, flatness, rolloff, pitch1..4. Absent pitch slots are
// already 0, preserving arity.
func EncodeLowLevel(f types.LowLevelFeatures) *osc.Message {
	msg := osc.NewMessage(fmt.Sprintf("%s%d", lowLevelAddrPrefix, f.Track))
	msg.Append(float32(f.Centroid))
	msg.Append(float32(f.Bandwidth))
	msg.Append(float32(f.Flatness))
	msg.Append(float32(f.Rolloff))
	for _, p := range f.Pitches {
		msg.Append(float32(p))
	}
	return msg
}

// EncodeHighLevel maps a high-level feature set to its wire message:
// address /Hfmsg_ch0 with arousal then valence as float32.
func EncodeHighLevel(f types.HighLevelFeatures) *osc.Message {
	msg := osc.NewMessage(highLevelAddr)
	msg.Append(float32(f.Arousal))
	msg.Append(float32(f.Valence))
	return msg
}
