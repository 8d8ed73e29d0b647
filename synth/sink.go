package synth

import (
	"github.com/gordonklaus/portaudio"
)

// Sink plays the chip through portaudio. The callback runs on the
// host's realtime audio thread and only touches the bridge.
type Sink struct {
	bridge *Bridge
	stream *portaudio.Stream
}

func NewSink(bridge *Bridge, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &Sink{bridge: bridge}
	stream, err := portaudio.OpenDefaultStream(0, 2, sampleClock, bufferSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

func (s *Sink) Stop() error {
	s.stream.Close()
	portaudio.Terminate()
	return nil
}

func (s *Sink) process(out [][]float32) {
	s.bridge.Render(out)
}
