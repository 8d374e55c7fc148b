package types

import (
	"errors"
	"strings"
)

// Instrument is an opaque label assigned to a track by external
// configuration. The only place the pipeline looks at it is pitch
// detection, which bounds its search to the instrument's fundamental
// frequency range.
type Instrument string

const (
	InstrumentDefault Instrument = "DEFAULT"
	InstrumentVoice   Instrument = "VOICE"
	InstrumentGuitar  Instrument = "GUITAR"
	InstrumentPiano   Instrument = "PIANO"
	InstrumentStrings Instrument = "STRINGS"
	InstrumentDrums   Instrument = "DRUMS"
)

var ErrUnknownInstrument = errors.New("unknown instrument")

var instrumentRanges = map[Instrument][2]float64{
	InstrumentDefault: {20.0, 8000.0},
	InstrumentVoice:   {80.0, 4000.0},
	InstrumentGuitar:  {20.0, 5000.0},
	InstrumentPiano:   {20.0, 4500.0},
	InstrumentStrings: {20.0, 3500.0},
	InstrumentDrums:   {20.0, 10000.0},
}

// ParseInstrument maps a configuration string to an Instrument,
// case-insensitively.
func ParseInstrument(s string) (Instrument, error) {
	inst := Instrument(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := instrumentRanges[inst]; !ok {
		return InstrumentDefault, ErrUnknownInstrument
	}
	return inst, nil
}

// FundamentalRange returns the [low, high] fundamental frequency bounds in
// Hz for the instrument. Unknown instruments get the default range.
func (i Instrument) FundamentalRange() (low, high float64) {
	r, ok := instrumentRanges[i]
	if !ok {
		r = instrumentRanges[InstrumentDefault]
	}
	return r[0], r[1]
}

func (i Instrument) String() string { return string(i) }
