package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

func repl(s *session) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := eval(s, fields[0], fields[1:]); err != nil {
			fmt.Println(err)
		}
	}
}

func eval(s *session, name string, args []string) error {
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		switch {
		case cmd.arity == arityAny:
		case cmd.arity < 0:
			if len(args) < -cmd.arity {
				return fmt.Errorf("usage: %s %s", cmd.name, cmd.usage)
			}
		case len(args) != cmd.arity:
			return fmt.Errorf("usage: %s %s", cmd.name, cmd.usage)
		}
		if err := cmd.run(s, args); err != nil {
			return fmt.Errorf("%s: %w", cmd.name, err)
		}
		return nil
	}
	return fmt.Errorf("unknown command: %s (try help)", name)
}

type command struct {
	name  string
	usage string
	help  string
	run   func(*session, []string) error
	arity int // -n means len(args) must be >= n, arityAny skips the check
}

const arityAny = -128

var commands = []command{
	{"on", "track note patch [velocity]", "start a note", noteOnCommand, -3},
	{"off", "track note", "stop a note", noteOffCommand, 2},
	{"patch", "channel name", "program a patch onto a channel directly", patchCommand, 2},
	{"patches", "[filter]", "list known patches", patchesCommand, arityAny},
	{"stats", "", "show channel occupancy", statsCommand, 0},
	{"panic", "", "silence everything", panicCommand, 0},
	{"load", "file", "load patches from an instrument file", loadCommand, 1},
	{"demo", "", "toggle the demo song", demoCommand, 0},
	{"bounce", "file", "render the demo song to a wav file", bounceCommand, 1},
	{"help", "", "show this list", helpCommand, 0},
}
