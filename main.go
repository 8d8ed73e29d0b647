package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/mrdg/adlib/ins"
	"github.com/mrdg/adlib/synth"
	"github.com/mrdg/adlib/ymf"
)

func main() {
	var (
		backend = flag.String("backend", "portaudio", "audio backend: portaudio or oto")
		buffer  = flag.Int("buffer", 1024, "host audio buffer size in frames")
		insFile = flag.String("ins", "", "instrument file to load at startup")
		bounce  = flag.String("bounce", "", "render the demo song to a wav file and exit")
	)
	flag.Parse()

	patches := make(map[string]*synth.Patch)
	for id, p := range synth.Presets {
		patches[id] = p
	}
	if *insFile != "" {
		loaded, err := ins.ParseFile(*insFile)
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range loaded {
			patches[p.ID] = p
		}
	}

	if *bounce != "" {
		if err := bounceDemo(*bounce, patches); err != nil {
			log.Fatal(err)
		}
		return
	}

	queue := synth.NewRegQueue()
	bridge := synth.NewBridge(ymf.New(), queue)

	var sink audioSink
	var err error
	switch *backend {
	case "portaudio":
		sink, err = synth.NewSink(bridge, *buffer)
	case "oto":
		sink, err = synth.NewOtoSink(bridge, *buffer)
	default:
		err = fmt.Errorf("unknown backend: %s", *backend)
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}
	defer sink.Stop()

	session := &session{
		engine:  synth.NewEngine(queue),
		patches: patches,
	}
	defer session.stopDemo()

	if err := repl(session); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

type audioSink interface {
	Start() error
	Stop() error
}

// session serializes access to the engine between the REPL and the
// demo player. The engine itself is single-threaded; the mutex keeps
// it that way.
type session struct {
	mu      sync.Mutex
	engine  *synth.Engine
	patches map[string]*synth.Patch

	demoStop chan struct{}
	demoDone chan struct{}
}

func (s *session) update(f func(*synth.Engine)) {
	s.mu.Lock()
	f(s.engine)
	s.mu.Unlock()
}

func (s *session) patch(name string) (*synth.Patch, error) {
	p, ok := s.patches[name]
	if !ok {
		return nil, fmt.Errorf("unknown patch: %s", name)
	}
	return p, nil
}

func (s *session) patchNames() []string {
	names := make([]string, 0, len(s.patches))
	for name := range s.patches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
