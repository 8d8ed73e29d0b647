package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrdg/adlib/synth"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	freeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dualStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	summaryText = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func renderStats(w io.Writer, stats synth.Stats, channels []synth.ChannelStatus) {
	fmt.Fprintln(w, headerStyle.Render("  ch  state  track  note  age"))
	for _, ch := range channels {
		if ch.Free {
			fmt.Fprintln(w, freeStyle.Render(fmt.Sprintf("  %d   free", ch.Channel)))
			continue
		}
		style := noteStyle
		state := "held"
		if ch.DualVoice {
			style = dualStyle
			state = "dual"
		}
		row := fmt.Sprintf("  %d   %s   %-5d  %-4s  %d",
			ch.Channel, state, ch.ID.Track, noteName(ch.ID.Note), ch.Age)
		fmt.Fprintln(w, style.Render(row))
	}
	fmt.Fprintln(w, summaryText.Render(fmt.Sprintf(
		"  free %d  allocated %d  dual-voice notes %d",
		stats.Free, stats.Allocated, stats.DualVoiceNotes)))
}

func renderPatches(w io.Writer, s *session, names []string) {
	for _, name := range names {
		p := s.patches[name]
		desc := "single"
		style := noteStyle
		if p.DualVoice && p.Voice2 != nil {
			desc = "dual"
			style = dualStyle
		}
		fmt.Fprintf(w, "  %s  %s\n",
			style.Render(fmt.Sprintf("%-10s", name)),
			freeStyle.Render(desc+"  "+p.Name))
	}
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteName renders a MIDI note number like C4 (middle C = 60).
func noteName(n int) string {
	return noteNames[n%12] + strconv.Itoa(n/12-1)
}
