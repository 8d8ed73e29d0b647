package synth

import (
	"fmt"
	"log"
	"math"
)

// sampleClock is the chip's sample rate, which also fixes the
// F-number scale: fnum = freq * 2^(20-block) / sampleClock.
const sampleClock = 49716

const maxFnum = 1023

// Engine turns note events into channel allocations and register
// writes. It owns a ChannelManager and runs entirely on the control
// goroutine; the chip is reached only through the RegWriter.
type Engine struct {
	mgr *ChannelManager
	out RegWriter

	// shadow of each channel's 0xB0 byte, so key-off can clear the
	// key-on bit without disturbing block and F-number bits
	b0 [numChannels]uint8
}

func NewEngine(out RegWriter) *Engine {
	e := &Engine{out: out}
	e.mgr = NewChannelManager(e.keyOffChannels)
	return e
}

// NoteOn starts a note. A dual-voice patch asks for two channels and
// plays voice2 on the second; when the manager degrades the grant to
// one channel only voice1 sounds. Allocation failure drops the note
// silently: the warning is already logged and the caller gets nil.
func (e *Engine) NoteOn(track, midiNote int, patch *Patch, velocity int) error {
	if err := checkNote(midiNote); err != nil {
		log.Printf("synth: note on: %v", err)
		return err
	}
	if velocity < 0 || velocity > 127 {
		err := fmt.Errorf("velocity %d out of range 0-127", velocity)
		log.Printf("synth: note on: %v", err)
		return err
	}
	if patch == nil || patch.Voice1 == nil {
		err := fmt.Errorf("no patch for note %d", midiNote)
		log.Printf("synth: note on: %v", err)
		return err
	}

	id := NoteID{Track: track, Note: midiNote}
	if _, ok := e.mgr.Allocation(id); ok {
		// retrigger: silence the old instance before reprogramming
		e.NoteOff(track, midiNote)
	}

	var channels []int
	if patch.DualVoice && patch.Voice2 != nil {
		chs, ok := e.mgr.AllocateDualChannels(id)
		if !ok {
			return nil
		}
		channels = chs
	} else {
		ch, ok := e.mgr.AllocateChannel(id)
		if !ok {
			return nil
		}
		channels = []int{ch}
	}

	voices := [2]*Voice{patch.Voice1, patch.Voice2}
	for i, ch := range channels {
		v := scaleVelocity(voices[i], velocity)
		encodeVoice(e.out, ch, v)
		e.keyOn(ch, midiNote+v.BaseNote)
	}
	return nil
}

// NoteOff stops a note. A note that was already stolen has no
// allocation left, which is fine.
func (e *Engine) NoteOff(track, midiNote int) {
	if err := checkNote(midiNote); err != nil {
		log.Printf("synth: note off: %v", err)
		return
	}
	id := NoteID{Track: track, Note: midiNote}
	a, ok := e.mgr.Allocation(id)
	if !ok {
		return
	}
	e.keyOffChannels(a.Channels)
	e.mgr.ReleaseNote(id)
}

// AllNotesOff silences every channel and clears all allocations.
func (e *Engine) AllNotesOff() {
	for ch := 0; ch < numChannels; ch++ {
		e.keyOffChannels([]int{ch})
	}
	e.mgr.Reset()
}

// LoadPatch programs a patch's primary voice straight onto a channel,
// bypassing allocation. Meant for auditioning; notes started through
// NoteOn will reprogram the channel.
func (e *Engine) LoadPatch(channel int, patch *Patch) error {
	if channel < 0 || channel >= numChannels {
		err := fmt.Errorf("channel %d out of range 0-%d", channel, numChannels-1)
		log.Printf("synth: load patch: %v", err)
		return err
	}
	if err := patch.Validate(); err != nil {
		log.Printf("synth: load patch: %v", err)
		return err
	}
	encodeVoice(e.out, channel, patch.Voice1)
	return nil
}

func (e *Engine) Stats() Stats { return e.mgr.Stats() }

func (e *Engine) Snapshot() []ChannelStatus { return e.mgr.Snapshot() }

func (e *Engine) keyOn(ch, note int) {
	fnum, block := noteFnum(note)
	e.out.WriteReg(regFnumLow+uint16(ch), uint8(fnum))
	e.b0[ch] = b0Value(true, block, fnum)
	e.out.WriteReg(regKeyOnBlock+uint16(ch), e.b0[ch])
}

// keyOffChannels clears the key-on bit on each channel, keeping the
// block and F-number bits so the release phase stays at pitch. Also
// the manager's eviction callback: stolen channels are keyed off
// before their new owner programs them.
func (e *Engine) keyOffChannels(channels []int) {
	for _, ch := range channels {
		e.b0[ch] &^= keyOnBit
		e.out.WriteReg(regKeyOnBlock+uint16(ch), e.b0[ch])
	}
}

func checkNote(midiNote int) error {
	if midiNote < 0 || midiNote > 127 {
		return fmt.Errorf("midi note %d out of range 0-127", midiNote)
	}
	return nil
}

// noteFnum converts a MIDI note to the chip's F-number/block pair.
// Blocks are tried from 0 up and the first that fits is used, so the
// smallest valid pair wins deterministically. A note beyond the
// chip's range fails closed to fnum 0, block 0.
func noteFnum(midiNote int) (fnum uint16, block uint8) {
	freq := 440 * math.Exp2(float64(midiNote-69)/12)
	for b := 0; b < 8; b++ {
		f := math.Round(freq * math.Exp2(float64(20-b)) / sampleClock)
		if f <= maxFnum {
			return uint16(f), uint8(b)
		}
	}
	log.Printf("synth: note %d has no representable F-number, muting", midiNote)
	return 0, 0
}

// scaleVelocity folds the note velocity into the carrier's
// attenuation, or both operators' when they are mixed additively.
// Full velocity leaves the patch untouched; the modulator in an FM
// pair shapes timbre, not loudness, so it keeps its level.
func scaleVelocity(v *Voice, velocity int) *Voice {
	if velocity >= 127 {
		return v
	}
	scaled := *v
	scaled.Carrier.Level = attenuate(v.Carrier.Level, velocity)
	if v.Conn == Additive {
		scaled.Modulator.Level = attenuate(v.Modulator.Level, velocity)
	}
	return &scaled
}

func attenuate(level uint8, velocity int) uint8 {
	att := int(level) + (127-velocity)/2
	if att > 0x3F {
		att = 0x3F
	}
	return uint8(att)
}
