package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mrdg/adlib/synth"
	"github.com/mrdg/adlib/ymf"
)

// demoSong is a short loop: a dual-voice brass chord progression, a
// bass line, and a lead melody on separate tracks. Enough voices
// moving at once to show stealing in the stats view.
func demoSong(patches map[string]*synth.Patch) []synth.Step {
	var (
		brass = patches["brass"]
		bass  = patches["bass"]
		lead  = patches["lead"]
	)
	const beat = 0.5 // 120 bpm

	var song []synth.Step
	on := func(at float64, track, note int, patch *synth.Patch, vel int) {
		song = append(song, synth.Step{At: at * beat, Track: track, Note: note, Patch: patch, Velocity: vel})
	}
	off := func(at float64, track, note int) {
		song = append(song, synth.Step{At: at * beat, Track: track, Note: note})
	}

	chords := [][3]int{{48, 55, 60}, {45, 52, 60}, {53, 57, 60}, {43, 55, 59}}
	for bar, chord := range chords {
		at := float64(bar * 4)
		for i, n := range chord {
			on(at, i, n, brass, 100)
			off(at+3.5, i, n)
		}
		root := chord[0] - 12
		for b := 0; b < 4; b++ {
			on(at+float64(b), 3, root, bass, 110)
			off(at+float64(b)+0.4, 3, root)
		}
	}
	melody := []int{72, 74, 76, 74, 72, 67, 69, 72, 77, 76, 74, 72, 71, 67, 71, 72}
	for i, n := range melody {
		at := float64(i)
		on(at, 4, n, lead, 90)
		off(at+0.9, 4, n)
	}
	sort.SliceStable(song, func(i, j int) bool { return song[i].At < song[j].At })
	return song
}

const demoLength = 8 * time.Second

func (s *session) startDemo() error {
	for _, name := range []string{"brass", "bass", "lead"} {
		if _, ok := s.patches[name]; !ok {
			return fmt.Errorf("demo song needs the %q patch", name)
		}
	}
	song := demoSong(s.patches)
	s.demoStop = make(chan struct{})
	s.demoDone = make(chan struct{})
	go s.playDemo(song)
	return nil
}

func (s *session) stopDemo() {
	if s.demoStop == nil {
		return
	}
	close(s.demoStop)
	<-s.demoDone
	s.demoStop, s.demoDone = nil, nil
	s.update(func(e *synth.Engine) {
		e.AllNotesOff()
	})
}

func (s *session) playDemo(song []synth.Step) {
	defer close(s.demoDone)
	start := time.Now()
	loop := demoLength
	for {
		for _, step := range song {
			at := start.Add(time.Duration(step.At * float64(time.Second)))
			select {
			case <-s.demoStop:
				return
			case <-time.After(time.Until(at)):
			}
			s.update(func(e *synth.Engine) {
				if step.Patch == nil {
					e.NoteOff(step.Track, step.Note)
				} else {
					e.NoteOn(step.Track, step.Note, step.Patch, step.Velocity)
				}
			})
		}
		start = start.Add(loop)
	}
}

// bounceDemo renders the demo song offline to a wav file using a
// private chip instance, leaving the live audio path alone.
func bounceDemo(path string, patches map[string]*synth.Patch) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := synth.Bounce(f, ymf.New(), demoSong(patches), demoLength.Seconds()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
