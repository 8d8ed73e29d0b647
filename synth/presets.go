package synth

import (
	"fmt"
	"sort"
)

// Presets is the built-in patch catalog, keyed by patch id. Values
// are shared; callers must treat them as read-only.
var Presets = map[string]*Patch{
	"piano": {
		ID: "piano", Name: "Electric Piano",
		Voice1: &Voice{
			Modulator: Operator{Attack: 15, Decay: 4, Sustain: 6, Release: 4, Mult: 1, Level: 18, Sustaining: true},
			Carrier:   Operator{Attack: 15, Decay: 3, Sustain: 4, Release: 5, Mult: 1, Level: 0, Sustaining: true},
			Feedback:  6, Conn: FM,
		},
	},
	"organ": {
		ID: "organ", Name: "Drawbar Organ",
		Voice1: &Voice{
			Modulator: Operator{Attack: 15, Decay: 0, Sustain: 0, Release: 4, Mult: 1, Level: 14, Sustaining: true, Tremolo: true},
			Carrier:   Operator{Attack: 15, Decay: 0, Sustain: 0, Release: 4, Mult: 2, Level: 0, Sustaining: true, Tremolo: true},
			Feedback:  2, Conn: Additive,
		},
	},
	"brass": {
		ID: "brass", Name: "Synth Brass", DualVoice: true,
		Voice1: &Voice{
			Modulator: Operator{Attack: 8, Decay: 4, Sustain: 5, Release: 2, Mult: 1, Level: 22, Sustaining: true, KSR: true},
			Carrier:   Operator{Attack: 8, Decay: 4, Sustain: 4, Release: 3, Mult: 1, Level: 0, Sustaining: true},
			Feedback:  6, Conn: FM,
		},
		Voice2: &Voice{
			Modulator: Operator{Attack: 9, Decay: 4, Sustain: 5, Release: 2, Mult: 1, Level: 25, Sustaining: true},
			Carrier:   Operator{Attack: 9, Decay: 4, Sustain: 4, Release: 3, Mult: 2, Level: 4, Sustaining: true},
			Feedback:  4, Conn: FM, BaseNote: -12,
		},
	},
	"strings": {
		ID: "strings", Name: "Strings", DualVoice: true,
		Voice1: &Voice{
			Modulator: Operator{Attack: 6, Decay: 2, Sustain: 3, Release: 5, Mult: 1, Level: 26, Sustaining: true, Vibrato: true},
			Carrier:   Operator{Attack: 5, Decay: 2, Sustain: 2, Release: 6, Mult: 1, Level: 0, Sustaining: true, Vibrato: true},
			Feedback:  3, Conn: FM,
		},
		Voice2: &Voice{
			Modulator: Operator{Attack: 5, Decay: 2, Sustain: 3, Release: 5, Mult: 2, Level: 30, Sustaining: true, Vibrato: true},
			Carrier:   Operator{Attack: 6, Decay: 2, Sustain: 2, Release: 6, Mult: 2, Level: 6, Sustaining: true},
			Feedback:  3, Conn: FM,
		},
	},
	"bass": {
		ID: "bass", Name: "FM Bass",
		Voice1: &Voice{
			Modulator: Operator{Attack: 13, Decay: 6, Sustain: 7, Release: 6, Mult: 0, Level: 16, KSR: true},
			Carrier:   Operator{Attack: 13, Decay: 5, Sustain: 5, Release: 7, Mult: 1, Level: 0, Sustaining: true},
			Feedback:  5, Conn: FM,
		},
	},
	"lead": {
		ID: "lead", Name: "Square Lead",
		Voice1: &Voice{
			Modulator: Operator{Attack: 15, Decay: 2, Sustain: 2, Release: 3, Mult: 2, Level: 20, Wave: 1, Sustaining: true},
			Carrier:   Operator{Attack: 15, Decay: 1, Sustain: 1, Release: 4, Mult: 1, Level: 0, Wave: 6, Sustaining: true, Vibrato: true},
			Feedback:  7, Conn: FM,
		},
	},
	"bell": {
		ID: "bell", Name: "Tubular Bell",
		Voice1: &Voice{
			Modulator: Operator{Attack: 15, Decay: 3, Sustain: 9, Release: 3, Mult: 7, Level: 24, KSL: 1},
			Carrier:   Operator{Attack: 15, Decay: 2, Sustain: 7, Release: 3, Mult: 2, Level: 0, KSL: 1},
			Feedback:  0, Conn: FM,
		},
	},
	"tom": {
		ID: "tom", Name: "FM Tom",
		Voice1: &Voice{
			Modulator: Operator{Attack: 15, Decay: 8, Sustain: 15, Release: 8, Mult: 0, Level: 12},
			Carrier:   Operator{Attack: 15, Decay: 7, Sustain: 15, Release: 8, Mult: 0, Level: 0},
			Feedback:  4, Conn: FM, BaseNote: -24,
		},
	},
}

func init() {
	for id, p := range Presets {
		if err := p.Validate(); err != nil {
			panic(fmt.Sprintf("bad preset %q: %v", id, err))
		}
	}
}

// PresetNames lists the catalog ids in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
