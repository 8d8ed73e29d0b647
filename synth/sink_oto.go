package synth

import (
	"encoding/binary"
	"math"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays the chip through oto, for hosts without portaudio.
// oto pulls samples by reading from an io.Reader on its own
// goroutine; that goroutine is the audio context here.
type OtoSink struct {
	ctx    *oto.Context
	player *oto.Player
}

func NewOtoSink(bridge *Bridge, bufferSize int) (*OtoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleClock,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	s := &OtoSink{ctx: ctx}
	s.player = ctx.NewPlayer(&otoStream{bridge: bridge})
	s.player.SetBufferSize(bufferSize * 2 * 4)
	return s, nil
}

func (s *OtoSink) Start() error {
	s.player.Play()
	return nil
}

func (s *OtoSink) Stop() error {
	return s.player.Close()
}

// otoStream adapts the bridge to oto's reader interface, rendering
// into a fixed scratch buffer and serializing to little-endian bytes.
type otoStream struct {
	bridge  *Bridge
	scratch [2 * maxChunk]float32
}

func (s *otoStream) Read(buf []byte) (int, error) {
	n := len(buf) / 4
	if n > len(s.scratch) {
		n = len(s.scratch)
	}
	n &^= 1 // whole stereo frames only
	s.bridge.RenderInterleaved(s.scratch[:n])
	for i, v := range s.scratch[:n] {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return n * 4, nil
}
