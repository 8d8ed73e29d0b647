// Package ymf emulates a 9-channel, two-operator FM synthesis chip of
// the OPL3 family. The chip is programmed through its register file
// (WriteReg) and renders mono 16-bit PCM at its native rate in bounded
// chunks (Generate). Pitch is encoded as a 10-bit F-number plus a
// 3-bit block, envelopes are rate-based ADSR, and each operator can
// select one of eight waveforms.
package ymf

const (
	// SampleRate is the chip's native output rate: the 14.318 MHz
	// master clock divided by 288.
	SampleRate = 49716

	// MaxChunk is the most samples a single Generate call fills.
	MaxChunk = 512

	numChannels = 9
)

// Register map, per-operator registers indexed by sparse slot offsets,
// per-channel registers by channel index.
const (
	regCharacteristics = 0x20 // tremolo, vibrato, sustaining, KSR, mult
	regLevel           = 0x40 // key-scale level, total level
	regAttackDecay     = 0x60
	regSustainRelease  = 0x80
	regFnumLow         = 0xA0
	regKeyOnBlock      = 0xB0 // key-on, block, F-number high bits
	regFeedbackConn    = 0xC0
	regWaveform        = 0xE0

	numSlotOffsets = 0x16
)

// regSlot maps a sparse operator register offset to channel*2+op.
// The hardware lays the 18 operators out in three groups of six with a
// two-slot gap after each group; the gaps are -1.
var regSlot = [numSlotOffsets]int8{
	0, 2, 4, 1, 3, 5, -1, -1,
	6, 8, 10, 7, 9, 11, -1, -1,
	12, 14, 16, 13, 15, 17,
}

type channel struct {
	op    [2]operator // modulator, carrier
	fnum  uint16
	block uint8
	keyOn bool
	fb    uint8
	fm    bool // connection bit set: modulator drives the carrier phase
}

func (ch *channel) keyCode() uint8 {
	return ch.block<<1 | uint8(ch.fnum>>9&1)
}

// Chip is the full register file plus synthesis state. It must be
// mutated from a single goroutine; it holds no locks.
type Chip struct {
	ch        [numChannels]channel
	egCounter uint32
	samples   uint32 // total samples rendered, drives the LFOs
	tremPos   uint8
}

func New() *Chip {
	c := &Chip{}
	for i := range c.ch {
		c.ch[i].op[0].egLevel = maxEnvLevel
		c.ch[i].op[1].egLevel = maxEnvLevel
	}
	return c
}

// WriteReg programs one register. Writes outside the documented map
// are ignored, as on the hardware.
func (c *Chip) WriteReg(addr uint16, val uint8) {
	switch {
	case addr >= regCharacteristics && addr < regCharacteristics+numSlotOffsets:
		if op := c.slot(addr - regCharacteristics); op != nil {
			op.mult = val & 0x0F
			op.ksr = val&0x10 != 0
			op.sustaining = val&0x20 != 0
			op.vibrato = val&0x40 != 0
			op.tremolo = val&0x80 != 0
		}
	case addr >= regLevel && addr < regLevel+numSlotOffsets:
		if op := c.slot(addr - regLevel); op != nil {
			op.ksl = val >> 6
			op.tl = val & 0x3F
		}
	case addr >= regAttackDecay && addr < regAttackDecay+numSlotOffsets:
		if op := c.slot(addr - regAttackDecay); op != nil {
			op.attack = val >> 4
			op.decay = val & 0x0F
		}
	case addr >= regSustainRelease && addr < regSustainRelease+numSlotOffsets:
		if op := c.slot(addr - regSustainRelease); op != nil {
			op.sustain = val >> 4
			op.release = val & 0x0F
		}
	case addr >= regWaveform && addr < regWaveform+numSlotOffsets:
		if op := c.slot(addr - regWaveform); op != nil {
			op.wave = val & 0x07
		}
	case addr >= regFnumLow && addr < regFnumLow+numChannels:
		ch := &c.ch[addr-regFnumLow]
		ch.fnum = ch.fnum&0x300 | uint16(val)
	case addr >= regKeyOnBlock && addr < regKeyOnBlock+numChannels:
		ch := &c.ch[addr-regKeyOnBlock]
		ch.fnum = ch.fnum&0x0FF | uint16(val&0x03)<<8
		ch.block = val >> 2 & 0x07
		on := val&0x20 != 0
		if on != ch.keyOn {
			for i := range ch.op {
				if on {
					ch.op[i].keyOn()
				} else {
					ch.op[i].keyOff()
				}
			}
			ch.keyOn = on
		}
	case addr >= regFeedbackConn && addr < regFeedbackConn+numChannels:
		ch := &c.ch[addr-regFeedbackConn]
		ch.fb = val >> 1 & 0x07
		ch.fm = val&0x01 != 0
	}
}

func (c *Chip) slot(offset uint16) *operator {
	if offset >= numSlotOffsets || regSlot[offset] < 0 {
		return nil
	}
	s := regSlot[offset]
	return &c.ch[s/2].op[s%2]
}

// Generate fills out with up to MaxChunk mono samples and returns the
// number written. It allocates nothing and never blocks.
func (c *Chip) Generate(out []int16) int {
	n := len(out)
	if n > MaxChunk {
		n = MaxChunk
	}
	for i := 0; i < n; i++ {
		c.egCounter++
		c.stepEnvelopes()

		// tremolo: 210-step triangle advanced every 64 samples
		// (~3.7 Hz); vibrato: 8-step table advanced every 1024
		// samples (~6.1 Hz)
		if c.samples&63 == 0 {
			c.tremPos++
			if c.tremPos >= 210 {
				c.tremPos = 0
			}
		}
		trem := uint32(c.tremPos)
		if trem > 105 {
			trem = 210 - trem
		}
		trem >>= 4
		vib := c.samples >> 10 & 7

		var acc int32
		for j := range c.ch {
			acc += c.channelOutput(&c.ch[j], trem, vib)
		}
		acc <<= 2
		if acc > 32767 {
			acc = 32767
		} else if acc < -32768 {
			acc = -32768
		}
		out[i] = int16(acc)
		c.samples++
	}
	return n
}

func (c *Chip) stepEnvelopes() {
	for i := range c.ch {
		ch := &c.ch[i]
		kc := ch.keyCode()
		for j := range ch.op {
			ch.op[j].stepEnvelope(c.egCounter, kc)
		}
	}
}

func (c *Chip) channelOutput(ch *channel, trem, vibPos uint32) int32 {
	mod, car := &ch.op[0], &ch.op[1]
	if mod.egState == egOff && car.egState == egOff {
		return 0
	}

	for i := range ch.op {
		o := &ch.op[i]
		f := int32(ch.fnum)
		if o.vibrato {
			f += vibDelta(ch.fnum, vibPos)
		}
		o.phase += (uint32(f) << ch.block) * multTable[o.mult] >> 1
	}

	var fb int32
	if ch.fb > 0 {
		fb = (mod.prev0 + mod.prev1) >> (10 - ch.fb)
	}
	modOut := mod.output(fb, mod.envAtten(trem, kslAtten(mod.ksl, ch.block, ch.fnum)))
	carAtt := car.envAtten(trem, kslAtten(car.ksl, ch.block, ch.fnum))
	if ch.fm {
		return car.output(modOut, carAtt)
	}
	return modOut + car.output(0, carAtt)
}

var vibSteps = [8]int8{0, 1, 2, 1, 0, -1, -2, -1}

func vibDelta(fnum uint16, pos uint32) int32 {
	return int32(fnum>>7) * int32(vibSteps[pos]) / 2
}

// kslRom gives the base key-scale attenuation for the top four
// F-number bits at block 7, in 0.375 dB units.
var kslRom = [16]uint8{0, 24, 32, 37, 40, 43, 45, 47, 48, 50, 51, 52, 53, 54, 55, 56}

// kslAtten returns the key-scale attenuation in envelope units. The
// 2-bit ksl field selects 0, 1.5, 3 or 6 dB per octave.
func kslAtten(ksl, block uint8, fnum uint16) uint32 {
	if ksl == 0 {
		return 0
	}
	base := int32(kslRom[fnum>>6]) - 8*int32(7-block)
	if base < 0 {
		return 0
	}
	return uint32(base) << 1 >> (3 - ksl)
}
