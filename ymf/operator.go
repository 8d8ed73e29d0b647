package ymf

import "math"

const (
	phaseFrac = 10 // fractional phase bits below the 10-bit table index
	phaseMask = 1<<10 - 1

	// maxEnvLevel is full attenuation on the 9-bit envelope scale,
	// 0.1875 dB per unit.
	maxEnvLevel = 511
)

type egState uint8

const (
	egOff egState = iota
	egAttack
	egDecay
	egSustain
	egRelease
)

type operator struct {
	// programmed parameters
	mult       uint8
	ksr        bool
	sustaining bool
	vibrato    bool
	tremolo    bool
	ksl        uint8
	tl         uint8
	attack     uint8
	decay      uint8
	sustain    uint8
	release    uint8
	wave       uint8

	// synthesis state
	phase        uint32
	egState      egState
	egLevel      uint16
	prev0, prev1 int32 // last two outputs, for feedback
}

// multTable holds the frequency multipliers doubled, so the x0.5
// setting stays integral.
var multTable = [16]uint32{1, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 20, 24, 24, 30, 30}

// The output stage works in the log domain, like the hardware:
// logSinTable holds -log2(sin) over the first quarter wave in 1/256
// octave units, pow2Table the fractional part of 2^(i/256) scaled to
// 10 bits. A magnitude is reconstructed by table lookup with an
// implied leading bit, then shifted down by the integer part of the
// attenuation.
var (
	logSinTable [256]uint16
	pow2Table   [256]uint16
)

func init() {
	for i := range logSinTable {
		s := math.Sin((float64(i) + 0.5) * math.Pi / 512)
		logSinTable[i] = uint16(math.Round(-math.Log2(s) * 256))
	}
	for i := range pow2Table {
		pow2Table[i] = uint16(math.Round((math.Exp2(float64(i)/256) - 1) * 1024))
	}
}

func (o *operator) keyOn() {
	o.phase = 0
	o.prev0, o.prev1 = 0, 0
	o.egState = egAttack
}

func (o *operator) keyOff() {
	if o.egState != egOff {
		o.egState = egRelease
	}
}

// output computes one sample: waveform lookup at the operator's phase
// index offset by pm (phase modulation from the modulator or from
// feedback), attenuated by envAtt envelope units.
func (o *operator) output(pm int32, envAtt uint32) int32 {
	idx := uint32(int32(o.phase>>phaseFrac)+pm) & phaseMask
	watt, neg, silent := waveAtten(o.wave, idx)
	var mag int32
	if !silent {
		mag = attenToMag(watt + envAtt<<3)
		if neg {
			mag = -mag
		}
	}
	o.prev1 = o.prev0
	o.prev0 = mag
	return mag
}

// envAtten combines envelope level, total level, key scaling and
// tremolo into a single 9-bit attenuation.
func (o *operator) envAtten(trem, ksl uint32) uint32 {
	if o.egState == egOff {
		return maxEnvLevel
	}
	att := uint32(o.egLevel) + uint32(o.tl)<<2 + ksl
	if o.tremolo {
		att += trem
	}
	if att > maxEnvLevel {
		att = maxEnvLevel
	}
	return att
}

// waveAtten returns the log-domain attenuation and sign of waveform
// wave at the 10-bit phase index p. Muted segments report silent.
func waveAtten(wave uint8, p uint32) (att uint32, neg, silent bool) {
	switch wave {
	case 0: // sine
		return quarterLogSin(p), p&0x200 != 0, false
	case 1: // half sine
		if p&0x200 != 0 {
			return 0, false, true
		}
		return quarterLogSin(p), false, false
	case 2: // absolute sine
		return quarterLogSin(p), false, false
	case 3: // pulse sine: rising quarters only
		if p&0x100 != 0 {
			return 0, false, true
		}
		return quarterLogSin(p), false, false
	case 4: // alternating sine: two periods in the first half
		if p&0x200 != 0 {
			return 0, false, true
		}
		return quarterLogSin(p << 1), p&0x100 != 0, false
	case 5: // camel sine: like 4, all positive
		if p&0x200 != 0 {
			return 0, false, true
		}
		return quarterLogSin(p << 1), false, false
	case 6: // square
		return 0, p&0x200 != 0, false
	default: // 7: logarithmic sawtooth
		idx := p & 0x1FF
		if p&0x200 != 0 {
			idx ^= 0x1FF
		}
		return idx << 3, p&0x200 != 0, false
	}
}

func quarterLogSin(p uint32) uint32 {
	i := p & 0xFF
	if p&0x100 != 0 {
		i ^= 0xFF
	}
	return uint32(logSinTable[i])
}

// attenToMag converts a total log-domain attenuation (1/256 octave
// units) to a signed 13-bit magnitude.
func attenToMag(att uint32) int32 {
	if att >= 13<<8 {
		return 0
	}
	return int32((uint32(pow2Table[att&0xFF^0xFF]) + 1024) << 1 >> (att >> 8))
}

// Envelope increments follow the Nemesis hardware analysis of Yamaha
// envelope generators: below rate 48 a shift gates how often updates
// happen and rate&3 picks an increment pattern; rates 48-63 update on
// every tick with per-rate patterns.
var egInc = [4][8]uint8{
	{0, 1, 0, 1, 0, 1, 0, 1},
	{0, 1, 0, 1, 1, 1, 0, 1},
	{0, 1, 1, 1, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 1},
}

var egIncHigh = [16][8]uint8{
	{1, 1, 1, 1, 1, 1, 1, 1},
	{1, 1, 1, 2, 1, 1, 1, 2},
	{1, 2, 1, 2, 1, 2, 1, 2},
	{1, 2, 2, 2, 1, 2, 2, 2},
	{2, 2, 2, 2, 2, 2, 2, 2},
	{2, 2, 2, 4, 2, 2, 2, 4},
	{2, 4, 2, 4, 2, 4, 2, 4},
	{2, 4, 4, 4, 2, 4, 4, 4},
	{4, 4, 4, 4, 4, 4, 4, 4},
	{4, 4, 4, 8, 4, 4, 4, 8},
	{4, 8, 4, 8, 4, 8, 4, 8},
	{4, 8, 8, 8, 4, 8, 8, 8},
	{8, 8, 8, 8, 8, 8, 8, 8},
	{8, 8, 8, 8, 8, 8, 8, 8},
	{8, 8, 8, 8, 8, 8, 8, 8},
	{8, 8, 8, 8, 8, 8, 8, 8},
}

func (o *operator) stepEnvelope(counter uint32, keyCode uint8) {
	// check the sustain boundary before stepping so decay never
	// overshoots the sustain level
	if o.egState == egDecay && o.egLevel >= o.sustainLevel() {
		o.egState = egSustain
	}

	var rate uint8
	switch o.egState {
	case egOff:
		return
	case egAttack:
		rate = o.attack
	case egDecay:
		rate = o.decay
	case egSustain:
		if o.sustaining {
			return // held until key-off
		}
		rate = o.release
	case egRelease:
		rate = o.release
	}
	if rate == 0 {
		return
	}

	eff := o.effectiveRate(rate, keyCode)
	var inc uint8
	if eff >= 48 {
		inc = egIncHigh[eff-48][counter&7]
	} else {
		shift := uint(11 - eff>>2)
		if counter&(1<<shift-1) != 0 {
			return
		}
		inc = egInc[eff&3][counter>>shift&7]
	}
	if inc == 0 {
		return
	}

	if o.egState == egAttack {
		if eff >= 60 {
			o.egLevel = 0
		} else {
			// exponential attack: the complement makes the step
			// negative and proportional to the remaining level
			lvl := int32(o.egLevel) + (^int32(o.egLevel)*int32(inc))>>3
			if lvl < 0 {
				lvl = 0
			}
			o.egLevel = uint16(lvl)
		}
		if o.egLevel == 0 {
			o.egState = egDecay
		}
		return
	}

	o.egLevel += uint16(inc)
	if o.egLevel >= maxEnvLevel {
		o.egLevel = maxEnvLevel
		o.egState = egOff
	}
}

func (o *operator) effectiveRate(rate, keyCode uint8) uint8 {
	rof := keyCode
	if !o.ksr {
		rof >>= 2
	}
	r := rate*4 + rof
	if r > 63 {
		r = 63
	}
	return r
}

// sustainLevel converts the 4-bit sustain field to envelope units,
// 3 dB per step; 15 means full attenuation.
func (o *operator) sustainLevel() uint16 {
	if o.sustain == 15 {
		return maxEnvLevel
	}
	return uint16(o.sustain) << 4
}
