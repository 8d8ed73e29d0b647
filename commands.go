package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mrdg/adlib/ins"
	"github.com/mrdg/adlib/synth"
)

func noteOnCommand(s *session, args []string) error {
	var track, note int
	if err := readInts(args[:2], &track, &note); err != nil {
		return err
	}
	patch, err := s.patch(args[2])
	if err != nil {
		return err
	}
	velocity := 127
	if len(args) > 3 {
		if err := readInts(args[3:4], &velocity); err != nil {
			return err
		}
	}
	var onErr error
	s.update(func(e *synth.Engine) {
		onErr = e.NoteOn(track, note, patch, velocity)
	})
	return onErr
}

func noteOffCommand(s *session, args []string) error {
	var track, note int
	if err := readInts(args, &track, &note); err != nil {
		return err
	}
	s.update(func(e *synth.Engine) {
		e.NoteOff(track, note)
	})
	return nil
}

func patchCommand(s *session, args []string) error {
	var channel int
	if err := readInts(args[:1], &channel); err != nil {
		return err
	}
	patch, err := s.patch(args[1])
	if err != nil {
		return err
	}
	var loadErr error
	s.update(func(e *synth.Engine) {
		loadErr = e.LoadPatch(channel, patch)
	})
	return loadErr
}

func patchesCommand(s *session, args []string) error {
	var filter string
	if len(args) > 0 {
		filter = args[0]
	}
	var names []string
	for _, name := range s.patchNames() {
		if strings.Contains(name, filter) {
			names = append(names, name)
		}
	}
	renderPatches(os.Stdout, s, names)
	return nil
}

func statsCommand(s *session, args []string) error {
	var stats synth.Stats
	var channels []synth.ChannelStatus
	s.update(func(e *synth.Engine) {
		stats = e.Stats()
		channels = e.Snapshot()
	})
	renderStats(os.Stdout, stats, channels)
	return nil
}

func panicCommand(s *session, args []string) error {
	s.update(func(e *synth.Engine) {
		e.AllNotesOff()
	})
	return nil
}

func loadCommand(s *session, args []string) error {
	patches, err := ins.ParseFile(args[0])
	if err != nil {
		return err
	}
	for _, p := range patches {
		s.patches[p.ID] = p
		fmt.Printf("loaded %s\n", p.ID)
	}
	return nil
}

func demoCommand(s *session, args []string) error {
	if s.demoStop != nil {
		s.stopDemo()
		return nil
	}
	return s.startDemo()
}

func bounceCommand(s *session, args []string) error {
	return bounceDemo(args[0], s.patches)
}

func helpCommand(s *session, args []string) error {
	for _, cmd := range commands {
		fmt.Printf("  %-30s %s\n", cmd.name+" "+cmd.usage, cmd.help)
	}
	fmt.Printf("  %-30s %s\n", "quit", "leave")
	return nil
}

func readInts(args []string, dests ...*int) error {
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", arg)
		}
		*dests[i] = n
	}
	return nil
}
