package synth

import (
	"fmt"
	"io"
	"sort"

	wav "github.com/youpy/go-wav"
)

// Step is one timed note event in a bounced sequence. A nil Patch
// means note-off.
type Step struct {
	At       float64 // seconds from the start
	Track    int
	Note     int
	Velocity int
	Patch    *Patch
}

// Bounce renders a note sequence offline and writes it as a 16-bit
// stereo WAV. The chip is owned by this goroutine for the duration,
// so the engine writes registers directly instead of going through a
// queue. Steps fire at sample-accurate offsets.
func Bounce(w io.Writer, chip Chip, song []Step, seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("bounce length %v must be positive", seconds)
	}
	steps := make([]Step, len(song))
	copy(steps, song)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })

	engine := NewEngine(chip)
	bridge := NewBridge(chip, nil)

	totalFrames := int(seconds * sampleClock)
	ww := wav.NewWriter(w, uint32(totalFrames), 2, sampleClock, 16)

	buf := make([]float32, 2*maxChunk)
	samples := make([]wav.Sample, maxChunk)
	next := 0
	for frame := 0; frame < totalFrames; {
		for next < len(steps) && int(steps[next].At*sampleClock) <= frame {
			fire(engine, steps[next])
			next++
		}
		n := totalFrames - frame
		if n > maxChunk {
			n = maxChunk
		}
		if next < len(steps) {
			if until := int(steps[next].At*sampleClock) - frame; until < n {
				n = until
			}
		}
		bridge.RenderInterleaved(buf[:n*2])
		for i := 0; i < n; i++ {
			samples[i].Values[0] = int(buf[i*2] * 32767)
			samples[i].Values[1] = int(buf[i*2+1] * 32767)
		}
		if err := ww.WriteSamples(samples[:n]); err != nil {
			return err
		}
		frame += n
	}
	return nil
}

func fire(engine *Engine, s Step) {
	if s.Patch == nil {
		engine.NoteOff(s.Track, s.Note)
		return
	}
	vel := s.Velocity
	if vel == 0 {
		vel = 127
	}
	engine.NoteOn(s.Track, s.Note, s.Patch, vel)
}
