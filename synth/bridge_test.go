package synth

import "testing"

// rampChip produces a known deterministic sample stream and records
// the chunk sizes it was asked for.
type rampChip struct {
	next   int16
	chunks []int
}

func (c *rampChip) WriteReg(addr uint16, val uint8) {}

func (c *rampChip) Generate(out []int16) int {
	n := len(out)
	if n > maxChunk {
		n = maxChunk
	}
	c.chunks = append(c.chunks, n)
	for i := 0; i < n; i++ {
		out[i] = c.next
		c.next++
	}
	return n
}

func TestBridgeRenderChunking(t *testing.T) {
	chip := &rampChip{}
	b := NewBridge(chip, nil)

	const frames = 4096
	out := [][]float32{make([]float32, frames), make([]float32, frames)}
	b.Render(out)

	for i, n := range chip.chunks {
		if n > maxChunk {
			t.Fatalf("chunk %d: requested %d samples, limit is %d", i, n, maxChunk)
		}
	}
	var total int
	for _, n := range chip.chunks {
		total += n
	}
	if total != frames {
		t.Errorf("generated %d samples for a %d-frame buffer", total, frames)
	}
}

func TestBridgeRenderStereoAndScale(t *testing.T) {
	chip := &rampChip{next: -32768}
	b := NewBridge(chip, nil)

	out := [][]float32{make([]float32, 600), make([]float32, 600)}
	b.Render(out)

	for i := range out[0] {
		if out[0][i] != out[1][i] {
			t.Fatalf("frame %d: left %v right %v, mono must be duplicated", i, out[0][i], out[1][i])
		}
		want := float32(int16(-32768+i)) / 32768
		if out[0][i] != want {
			t.Fatalf("frame %d: want %v, got %v", i, want, out[0][i])
		}
	}
	if out[0][0] != -1 {
		t.Errorf("minimum sample must map to -1, got %v", out[0][0])
	}
}

func TestBridgeRenderInterleaved(t *testing.T) {
	chip := &rampChip{}
	b := NewBridge(chip, nil)

	out := make([]float32, 2*700)
	b.RenderInterleaved(out)

	for i := 0; i < 700; i++ {
		if out[i*2] != out[i*2+1] {
			t.Fatalf("frame %d: channels differ", i)
		}
		if want := float32(int16(i)) / 32768; out[i*2] != want {
			t.Fatalf("frame %d: want %v, got %v", i, want, out[i*2])
		}
	}
}

func TestBridgeDrainsQueueAtChunkBoundaries(t *testing.T) {
	q := NewRegQueue()
	chip := &captureChip{}
	b := NewBridge(chip, q)

	q.WriteReg(0xB0, 0x20)
	out := [][]float32{make([]float32, 64), make([]float32, 64)}
	b.Render(out)

	if len(chip.writes) != 1 || chip.writes[0] != (regWrite{0xB0, 0x20}) {
		t.Errorf("queued write not delivered before rendering: %v", chip.writes)
	}
}
