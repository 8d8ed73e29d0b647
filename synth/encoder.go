package synth

// RegWriter programs chip registers. The engine writes through it so
// the chip can sit behind a queue on the realtime path or be driven
// directly when rendering offline.
type RegWriter interface {
	WriteReg(addr uint16, val uint8)
}

// Operator register banks are indexed by slot offset, channel
// registers by channel number.
const (
	regCharacteristics = 0x20
	regLevel           = 0x40
	regAttackDecay     = 0x60
	regSustainRelease  = 0x80
	regFnumLow         = 0xA0
	regKeyOnBlock      = 0xB0
	regFeedbackConn    = 0xC0
	regWaveform        = 0xE0

	keyOnBit = 0x20
)

// modSlots maps a channel to its modulator's slot offset. The layout
// is not arithmetic: the 18 operators come in three groups of six
// with gaps in between. The carrier sits three slots above the
// modulator.
var modSlots = [numChannels]uint16{0, 1, 2, 8, 9, 10, 16, 17, 18}

const carrierOffset = 3

// encodeOperator emits the five writes that program one operator
// slot. Fields are masked to their bit widths as a backstop; patches
// are clamped at load time.
func encodeOperator(w RegWriter, slot uint16, op *Operator) {
	var c uint8
	if op.Tremolo {
		c |= 0x80
	}
	if op.Vibrato {
		c |= 0x40
	}
	if op.Sustaining {
		c |= 0x20
	}
	if op.KSR {
		c |= 0x10
	}
	c |= op.Mult & 0x0f
	w.WriteReg(regCharacteristics+slot, c)
	w.WriteReg(regLevel+slot, (op.KSL&0x03)<<6|op.Level&0x3f)
	w.WriteReg(regAttackDecay+slot, (op.Attack&0x0f)<<4|op.Decay&0x0f)
	w.WriteReg(regSustainRelease+slot, (op.Sustain&0x0f)<<4|op.Release&0x0f)
	w.WriteReg(regWaveform+slot, op.Wave&0x07)
}

// encodeVoice programs a voice onto a channel: modulator, carrier,
// then the feedback/connection byte.
func encodeVoice(w RegWriter, channel int, v *Voice) {
	slot := modSlots[channel]
	encodeOperator(w, slot, &v.Modulator)
	encodeOperator(w, slot+carrierOffset, &v.Carrier)
	fc := (v.Feedback & 0x07) << 1
	if v.Conn == FM {
		fc |= 0x01
	}
	w.WriteReg(regFeedbackConn+uint16(channel), fc)
}

// b0Value packs the key-on/block/F-number-high register byte.
func b0Value(on bool, block uint8, fnum uint16) uint8 {
	v := (block&0x07)<<2 | uint8(fnum>>8)&0x03
	if on {
		v |= keyOnBit
	}
	return v
}
