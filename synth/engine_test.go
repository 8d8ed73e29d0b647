package synth

import (
	"math"
	"testing"
)

func testPatch() *Patch {
	return &Patch{
		ID: "test", Name: "Test",
		Voice1: &Voice{
			Modulator: Operator{Attack: 8, Decay: 4, Sustain: 5, Release: 2, Mult: 1, Level: 22, Sustaining: true},
			Carrier:   Operator{Attack: 8, Decay: 4, Sustain: 4, Release: 3, Mult: 1, Sustaining: true},
			Feedback:  6, Conn: FM,
		},
	}
}

func dualPatch() *Patch {
	p := testPatch()
	p.DualVoice = true
	p.Voice2 = &Voice{
		Modulator: Operator{Attack: 8, Decay: 4, Level: 30, Sustaining: true},
		Carrier:   Operator{Attack: 8, Decay: 4, Sustaining: true},
		Feedback:  4, Conn: FM, BaseNote: -12,
	}
	return p
}

func TestNoteOnWriteOrder(t *testing.T) {
	var rec recorder
	e := NewEngine(&rec)
	if err := e.NoteOn(0, 60, testPatch(), 127); err != nil {
		t.Fatal(err)
	}
	// 11 voice writes, then F-number low and key-on
	if want, got := 13, len(rec.writes); want != got {
		t.Fatalf("wrong write count: want %d, got %d", want, got)
	}
	last := rec.writes[len(rec.writes)-1]
	if last.addr != regKeyOnBlock {
		t.Errorf("final write must be key-on, got register %#x", last.addr)
	}
	if last.val&keyOnBit == 0 {
		t.Error("key-on bit not set")
	}
	if prev := rec.writes[len(rec.writes)-2]; prev.addr != regFnumLow {
		t.Errorf("F-number low byte must precede key-on, got register %#x", prev.addr)
	}
	for _, w := range rec.writes[:11] {
		if w.addr >= regFnumLow && w.addr < regFeedbackConn {
			t.Errorf("frequency register %#x written before the voice was programmed", w.addr)
		}
	}
}

func TestNoteOffPreservesPitchBits(t *testing.T) {
	var rec recorder
	e := NewEngine(&rec)
	e.NoteOn(0, 60, testPatch(), 127)
	on, _ := rec.find(regKeyOnBlock)
	e.NoteOff(0, 60)
	off, _ := rec.find(regKeyOnBlock)
	if off&keyOnBit != 0 {
		t.Error("key-on bit still set after note off")
	}
	if want, got := on&^keyOnBit, off; want != got {
		t.Errorf("block/fnum bits changed by key-off: want %#x, got %#x", want, got)
	}
	if want, got := 0, e.Stats().Allocated; want != got {
		t.Errorf("allocation survived note off: %d", got)
	}
}

func TestNoteOffUnknownNote(t *testing.T) {
	var rec recorder
	e := NewEngine(&rec)
	e.NoteOff(3, 64) // never played, possibly stolen: must be silent
	if len(rec.writes) != 0 {
		t.Errorf("unexpected writes: %v", rec.writes)
	}
}

func TestNoteOnInvalidInput(t *testing.T) {
	tests := []struct {
		name           string
		note, velocity int
		patch          *Patch
	}{
		{"note too high", 128, 100, testPatch()},
		{"note negative", -1, 100, testPatch()},
		{"velocity out of range", 60, 200, testPatch()},
		{"nil patch", 60, 100, nil},
	}
	for _, test := range tests {
		var rec recorder
		e := NewEngine(&rec)
		if err := e.NoteOn(0, test.note, test.patch, test.velocity); err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
		if len(rec.writes) != 0 {
			t.Errorf("%s: state mutated on invalid input", test.name)
		}
		if e.Stats().Allocated != 0 {
			t.Errorf("%s: channel allocated on invalid input", test.name)
		}
	}
}

func TestRetriggerReleasesFirst(t *testing.T) {
	var rec recorder
	e := NewEngine(&rec)
	e.NoteOn(0, 60, testPatch(), 127)
	n := len(rec.writes)
	e.NoteOn(0, 60, testPatch(), 127)
	if want, got := 1, e.Stats().Allocated; want != got {
		t.Fatalf("retrigger duplicated the allocation: %d", got)
	}
	// the first write of the second noteOn must clear key-on
	w := rec.writes[n]
	if w.addr != regKeyOnBlock || w.val&keyOnBit != 0 {
		t.Errorf("expected a key-off before retriggering, got {%#x %#x}", w.addr, w.val)
	}
}

func TestDualVoiceNoteOn(t *testing.T) {
	var rec recorder
	e := NewEngine(&rec)
	e.NoteOn(0, 60, dualPatch(), 127)
	if want, got := 2, e.Stats().Allocated; want != got {
		t.Fatalf("expected two channels, got %d", got)
	}
	// voice2 is pitched an octave down, so the two channels must get
	// different B0 bytes
	var b0 []uint8
	for _, w := range rec.writes {
		if w.addr >= regKeyOnBlock && w.addr < regKeyOnBlock+numChannels {
			b0 = append(b0, w.val)
		}
	}
	if len(b0) != 2 {
		t.Fatalf("expected two key-on writes, got %d", len(b0))
	}
	if b0[0] == b0[1] {
		t.Error("voice2's base note offset was not applied")
	}
}

func TestStolenChannelKeyedOff(t *testing.T) {
	var rec recorder
	e := NewEngine(&rec)
	for n := 0; n < numChannels; n++ {
		e.NoteOn(0, 60+n, testPatch(), 127)
	}
	n := len(rec.writes)
	e.NoteOn(0, 100, testPatch(), 127)
	w := rec.writes[n]
	if w.addr != regKeyOnBlock || w.val&keyOnBit != 0 {
		t.Errorf("stolen channel was not keyed off first, got {%#x %#x}", w.addr, w.val)
	}
}

func TestAllNotesOff(t *testing.T) {
	var rec recorder
	e := NewEngine(&rec)
	for n := 0; n < 5; n++ {
		e.NoteOn(n, 60, testPatch(), 127)
	}
	e.AllNotesOff()
	if want, got := 9, e.Stats().Free; want != got {
		t.Errorf("channels still allocated after all notes off: free %d", got)
	}
	for i := len(rec.writes) - numChannels; i < len(rec.writes); i++ {
		w := rec.writes[i]
		if w.addr < regKeyOnBlock || w.addr >= regKeyOnBlock+numChannels || w.val&keyOnBit != 0 {
			t.Fatalf("expected key-off writes for every channel, got {%#x %#x}", w.addr, w.val)
		}
	}
}

func TestLoadPatch(t *testing.T) {
	var rec recorder
	e := NewEngine(&rec)
	if err := e.LoadPatch(9, testPatch()); err == nil {
		t.Error("expected an error for channel 9")
	}
	if err := e.LoadPatch(0, &Patch{ID: "broken"}); err == nil {
		t.Error("expected an error for a patch without voice1")
	}
	if len(rec.writes) != 0 {
		t.Fatalf("writes issued for rejected patches: %v", rec.writes)
	}
	if err := e.LoadPatch(4, testPatch()); err != nil {
		t.Fatal(err)
	}
	if want, got := 11, len(rec.writes); want != got {
		t.Errorf("wrong write count: want %d, got %d", want, got)
	}
}

func TestVelocityScaling(t *testing.T) {
	patch := testPatch()
	var loud, quiet recorder
	NewEngine(&loud).NoteOn(0, 60, patch, 127)
	NewEngine(&quiet).NoteOn(0, 60, patch, 40)

	modAddr := uint16(regLevel)                 // channel 0 modulator
	carAddr := uint16(regLevel + carrierOffset) // channel 0 carrier

	lm, _ := loud.find(modAddr)
	qm, _ := quiet.find(modAddr)
	if lm != qm {
		t.Errorf("velocity changed the FM modulator level: %#x vs %#x", lm, qm)
	}
	lc, _ := loud.find(carAddr)
	qc, _ := quiet.find(carAddr)
	if qc&0x3F <= lc&0x3F {
		t.Errorf("low velocity did not attenuate the carrier: %#x vs %#x", lc, qc)
	}

	// in additive mode both operators carry the signal
	patch.Voice1.Conn = Additive
	var add recorder
	NewEngine(&add).NoteOn(0, 60, patch, 40)
	am, _ := add.find(modAddr)
	if am&0x3F <= lm&0x3F {
		t.Errorf("low velocity did not attenuate the additive modulator: %#x vs %#x", lm, am)
	}
}

// decodeFnum inverts the F-number/block encoding back to Hz.
func decodeFnum(fnum uint16, block uint8) float64 {
	return float64(fnum) * sampleClock / math.Exp2(float64(20-block))
}

func TestFrequencyOctaveRatio(t *testing.T) {
	f60, b60 := noteFnum(60)
	f72, b72 := noteFnum(72)
	lo, hi := decodeFnum(f60, b60), decodeFnum(f72, b72)
	if ratio := hi / lo; math.Abs(ratio-2) > 1e-3 {
		t.Errorf("octave ratio off: %v (%d/%d vs %d/%d)", ratio, f60, b60, f72, b72)
	}
}

func TestFrequencyPicksSmallestBlock(t *testing.T) {
	// note 114 (~5920Hz) is the highest pitch the chip can encode at
	// its 49716Hz clock
	prevBlock := uint8(0)
	for n := 0; n <= 114; n++ {
		fnum, block := noteFnum(n)
		if fnum > maxFnum {
			t.Fatalf("note %d: fnum %d out of range", n, fnum)
		}
		if block < prevBlock {
			t.Errorf("note %d: block went backwards (%d after %d)", n, block, prevBlock)
		}
		prevBlock = block
		want := 440 * math.Exp2(float64(n-69)/12)
		if got := decodeFnum(fnum, block); math.Abs(got-want)/want > 0.01 {
			t.Errorf("note %d: decoded %vHz, want %vHz", n, got, want)
		}
	}
}

func TestFrequencyFailsClosed(t *testing.T) {
	// beyond the chip's reachable range: mute instead of wrapping
	fnum, block := noteFnum(120)
	if fnum != 0 || block != 0 {
		t.Errorf("expected fnum 0 block 0, got %d/%d", fnum, block)
	}
}
