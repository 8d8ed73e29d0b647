// Package synth is the driver for a 9-channel OPL-family FM chip: it
// allocates hardware channels for polyphonic note events, encodes
// instrument patches into register writes, and bridges the chip's
// bounded sample generator to host audio buffers.
package synth

import (
	"errors"
	"fmt"
)

// Connection selects how a voice's operators combine: FM phase
// modulates the carrier with the modulator, Additive mixes both
// operators into the output.
type Connection uint8

const (
	FM Connection = iota
	Additive
)

// Operator holds the parameters of one FM operator. Numeric fields
// are clamped to the chip's bit widths by Patch.Validate before they
// reach the encoder. Level is an attenuation: 0 is loudest.
type Operator struct {
	Attack  uint8 // 4 bits
	Decay   uint8 // 4 bits
	Sustain uint8 // 4 bits
	Release uint8 // 4 bits
	Mult    uint8 // 4 bits, frequency multiplier
	Wave    uint8 // 3 bits
	Level   uint8 // 6 bits
	KSL     uint8 // 2 bits, key-scale level

	Tremolo    bool
	Vibrato    bool
	Sustaining bool
	KSR        bool
}

func (o *Operator) clamp() {
	o.Attack = clampBits(o.Attack, 4)
	o.Decay = clampBits(o.Decay, 4)
	o.Sustain = clampBits(o.Sustain, 4)
	o.Release = clampBits(o.Release, 4)
	o.Mult = clampBits(o.Mult, 4)
	o.Wave = clampBits(o.Wave, 3)
	o.Level = clampBits(o.Level, 6)
	o.KSL = clampBits(o.KSL, 2)
}

func clampBits(v uint8, bits uint) uint8 {
	if max := uint8(1<<bits - 1); v > max {
		return max
	}
	return v
}

// Voice is one complete modulator/carrier pair, the unit programmed
// onto a single hardware channel. BaseNote biases the MIDI note in
// semitones before frequency conversion.
type Voice struct {
	Modulator Operator
	Carrier   Operator
	Feedback  uint8 // 3 bits
	Conn      Connection
	BaseNote  int
}

func (v *Voice) clamp() {
	v.Modulator.clamp()
	v.Carrier.clamp()
	v.Feedback = clampBits(v.Feedback, 3)
}

// Patch is an immutable instrument description: a primary voice,
// optionally a second voice played on its own channel when DualVoice
// is set. Patches outlive any note that plays them.
type Patch struct {
	ID     string
	Name   string
	Voice1 *Voice
	Voice2 *Voice

	// DualVoice requests two channels per note. A dual patch without
	// Voice2 plays single voice; the engine checks for that, not the
	// validator.
	DualVoice bool
}

// Validate clamps all numeric fields to their bit widths and rejects
// structurally broken patches. It runs at load time so the note-on
// path can assume well-formed data.
func (p *Patch) Validate() error {
	if p == nil {
		return errors.New("nil patch")
	}
	if p.Voice1 == nil {
		return fmt.Errorf("patch %q: missing primary voice", p.ID)
	}
	p.Voice1.clamp()
	if p.Voice2 != nil {
		p.Voice2.clamp()
	}
	return nil
}
