package ymf

import "testing"

// program writes a sustained sine patch with instant attack to a
// channel; fm selects the connection bit.
func program(c *Chip, ch uint16, fm bool) {
	mod := ch     // operator offsets for channels 0-2 are 0,1,2
	car := ch + 3 // carrier sits three slots up
	for _, op := range []uint16{mod, car} {
		c.WriteReg(regCharacteristics+op, 0x21) // sustaining, mult 1
		c.WriteReg(regAttackDecay+op, 0xF0)
		c.WriteReg(regSustainRelease+op, 0x0F)
		c.WriteReg(regWaveform+op, 0x00)
	}
	c.WriteReg(regLevel+mod, 0x10)
	c.WriteReg(regLevel+car, 0x00)
	conn := uint8(0x00)
	if fm {
		conn = 0x01
	}
	c.WriteReg(regFeedbackConn+ch, conn)
}

// keyOn writes F-number 690, block 3 (roughly middle C) with the
// key-on bit set or cleared.
func keyOn(c *Chip, ch uint16, on bool) {
	c.WriteReg(regFnumLow+ch, 0xB2)
	val := uint8(3<<2 | 0x02)
	if on {
		val |= 0x20
	}
	c.WriteReg(regKeyOnBlock+ch, val)
}

func generate(c *Chip, n int) []int16 {
	buf := make([]int16, n)
	for off := 0; off < n; {
		off += c.Generate(buf[off:])
	}
	return buf
}

func peak(buf []int16) int {
	var p int
	for _, s := range buf {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > p {
			p = v
		}
	}
	return p
}

func TestSilentUntilKeyOn(t *testing.T) {
	c := New()
	program(c, 0, true)
	if got := peak(generate(c, 1024)); got != 0 {
		t.Fatalf("expected silence before key-on, got peak %v", got)
	}
	keyOn(c, 0, true)
	if got := peak(generate(c, 1024)); got == 0 {
		t.Fatalf("expected audio after key-on")
	}
}

func TestKeyOffReleases(t *testing.T) {
	c := New()
	program(c, 0, true)
	keyOn(c, 0, true)
	generate(c, 2048)
	keyOn(c, 0, false)
	generate(c, 1024) // release rate 15 decays within a chunk
	if got := peak(generate(c, 512)); got != 0 {
		t.Errorf("expected silence after release, got peak %v", got)
	}
}

func TestGenerateChunkCap(t *testing.T) {
	c := New()
	buf := make([]int16, 4*MaxChunk)
	if want, got := MaxChunk, c.Generate(buf); want != got {
		t.Errorf("wrong chunk size: want %v, got %v", want, got)
	}
}

func TestRegisterRouting(t *testing.T) {
	c := New()
	// offset 0x0C is the carrier of channel 4
	c.WriteReg(regLevel+0x0C, 0x7F)
	if want, got := uint8(0x3F), c.ch[4].op[1].tl; want != got {
		t.Errorf("wrong total level: want %#x, got %#x", want, got)
	}
	if want, got := uint8(0x01), c.ch[4].op[1].ksl; want != got {
		t.Errorf("wrong ksl: want %#x, got %#x", want, got)
	}
	// offsets 6 and 7 are gaps in the map and must be ignored
	c.WriteReg(regLevel+6, 0xFF)
	c.WriteReg(regLevel+7, 0xFF)
	for i := range c.ch {
		for j := range c.ch[i].op {
			if i == 4 && j == 1 {
				continue
			}
			if got := c.ch[i].op[j].tl; got != 0 {
				t.Errorf("level write leaked into channel %d op %d: %#x", i, j, got)
			}
		}
	}
}

func TestConnectionModes(t *testing.T) {
	fm, add := New(), New()
	program(fm, 0, true)
	program(add, 0, false)
	keyOn(fm, 0, true)
	keyOn(add, 0, true)

	a, b := generate(fm, 2048), generate(add, 2048)
	if peak(a) == 0 || peak(b) == 0 {
		t.Fatal("expected audio from both connection modes")
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("fm and additive connections produced identical output")
	}
}

func TestFnumLatching(t *testing.T) {
	c := New()
	c.WriteReg(regFnumLow, 0xB2)
	c.WriteReg(regKeyOnBlock, 3<<2|0x02)
	if want, got := uint16(0x2B2), c.ch[0].fnum; want != got {
		t.Errorf("wrong fnum: want %#x, got %#x", want, got)
	}
	if want, got := uint8(3), c.ch[0].block; want != got {
		t.Errorf("wrong block: want %v, got %v", want, got)
	}
}
