package synth

// Chip is the register/sample interface of the emulated FM chip.
// Generate fills at most its internal chunk limit per call and
// returns the number of samples written.
type Chip interface {
	WriteReg(addr uint16, val uint8)
	Generate(out []int16) int
}

// maxChunk bounds how many samples a Bridge requests per Generate
// call, matching the chip's limit.
const maxChunk = 512

// Bridge pulls mono int16 audio from the chip in bounded chunks and
// fills host float32 buffers, duplicating the signal into both stereo
// channels. When constructed with a queue it drains pending register
// writes at each chunk boundary, so this is the only code touching
// the chip on the audio thread. The render methods never allocate,
// lock, or block.
type Bridge struct {
	chip  Chip
	queue *RegQueue // nil when the caller owns the chip directly
	chunk [maxChunk]int16
}

func NewBridge(chip Chip, queue *RegQueue) *Bridge {
	return &Bridge{chip: chip, queue: queue}
}

// Render fills a planar stereo buffer: out[0] is the left channel,
// out[1] the right.
func (b *Bridge) Render(out [][]float32) {
	left, right := out[0], out[1]
	for off := 0; off < len(left); {
		n := b.generate(len(left) - off)
		for i, s := range b.chunk[:n] {
			v := float32(s) / 32768
			left[off+i] = v
			right[off+i] = v
		}
		off += n
	}
}

// RenderInterleaved fills an interleaved stereo buffer; len(out) must
// be even.
func (b *Bridge) RenderInterleaved(out []float32) {
	frames := len(out) / 2
	for off := 0; off < frames; {
		n := b.generate(frames - off)
		for i, s := range b.chunk[:n] {
			v := float32(s) / 32768
			out[(off+i)*2] = v
			out[(off+i)*2+1] = v
		}
		off += n
	}
}

func (b *Bridge) generate(remaining int) int {
	if b.queue != nil {
		b.queue.Drain(b.chip)
	}
	n := remaining
	if n > maxChunk {
		n = maxChunk
	}
	return b.chip.Generate(b.chunk[:n])
}
