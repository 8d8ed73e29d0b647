package ins

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mrdg/adlib/synth"
)

// Parse reads patch definitions from src. name labels error messages,
// typically a file name. Every patch is validated before it is
// returned, so a successful parse yields only well-formed patches.
func Parse(name, src string) ([]*synth.Patch, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	p := parser{tokens: tokens}
	patches, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return patches, nil
}

// ParseFile reads patch definitions from the file at path.
func ParseFile(path string) ([]*synth.Patch, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, string(src))
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() token {
	t := p.next()
	p.pos--
	return t
}

func (p *parser) backup() {
	p.pos--
}

func (p *parser) parse() ([]*synth.Patch, error) {
	var patches []*synth.Patch
	for {
		t := p.next()
		if t.typ == typeEOF {
			return patches, nil
		}
		if t.typ != typeIdentifier || t.text != "patch" {
			return nil, unexpected(t)
		}
		patch, err := p.patch()
		if err != nil {
			return nil, err
		}
		if err := patch.Validate(); err != nil {
			return nil, err
		}
		patches = append(patches, patch)
	}
}

func (p *parser) patch() (*synth.Patch, error) {
	name := p.next()
	if name.typ != typeString {
		return nil, unexpected(name)
	}
	id := name.text[1 : len(name.text)-1]
	patch := &synth.Patch{ID: id, Name: id}
	if err := p.expect(typeOpenBrace); err != nil {
		return nil, err
	}
	for {
		t := p.next()
		switch {
		case t.typ == typeCloseBrace:
			if patch.Voice1 == nil {
				return nil, fmt.Errorf("line %d: patch %q has no voice block", t.line, id)
			}
			return patch, nil
		case t.typ == typeIdentifier && t.text == "dual":
			patch.DualVoice = true
		case t.typ == typeIdentifier && t.text == "voice":
			voice, err := p.voice()
			if err != nil {
				return nil, err
			}
			switch {
			case patch.Voice1 == nil:
				patch.Voice1 = voice
			case patch.Voice2 == nil:
				patch.Voice2 = voice
			default:
				return nil, fmt.Errorf("line %d: patch %q has more than two voices", t.line, id)
			}
		default:
			return nil, unexpected(t)
		}
	}
}

func (p *parser) voice() (*synth.Voice, error) {
	if err := p.expect(typeOpenBrace); err != nil {
		return nil, err
	}
	var voice synth.Voice
	for {
		t := p.next()
		switch {
		case t.typ == typeCloseBrace:
			return &voice, nil
		case t.typ != typeIdentifier:
			return nil, unexpected(t)
		}
		switch t.text {
		case "fm":
			voice.Conn = synth.FM
		case "additive":
			voice.Conn = synth.Additive
		case "feedback":
			n, err := p.unsigned()
			if err != nil {
				return nil, err
			}
			voice.Feedback = uint8(n)
		case "base":
			n, err := p.number()
			if err != nil {
				return nil, err
			}
			voice.BaseNote = n
		case "mod":
			if err := p.operator(&voice.Modulator); err != nil {
				return nil, err
			}
		case "car":
			if err := p.operator(&voice.Carrier); err != nil {
				return nil, err
			}
		default:
			return nil, unexpected(t)
		}
	}
}

func (p *parser) operator(op *synth.Operator) error {
	if err := p.expect(typeOpenBrace); err != nil {
		return err
	}
	for {
		t := p.next()
		switch t.typ {
		case typeCloseBrace:
			return nil
		case typeSemicolon:
			continue
		}
		if t.typ != typeIdentifier {
			return unexpected(t)
		}
		switch t.text {
		case "adsr":
			fields := []*uint8{&op.Attack, &op.Decay, &op.Sustain, &op.Release}
			for _, f := range fields {
				n, err := p.unsigned()
				if err != nil {
					return err
				}
				*f = uint8(n)
			}
		case "mult", "level", "wave", "ksl":
			n, err := p.unsigned()
			if err != nil {
				return err
			}
			switch t.text {
			case "mult":
				op.Mult = uint8(n)
			case "level":
				op.Level = uint8(n)
			case "wave":
				op.Wave = uint8(n)
			case "ksl":
				op.KSL = uint8(n)
			}
		case "flags":
			if err := p.flags(op); err != nil {
				return err
			}
		default:
			return unexpected(t)
		}
	}
}

func (p *parser) flags(op *synth.Operator) error {
	for {
		t := p.peek()
		if t.typ != typeIdentifier {
			return nil
		}
		switch t.text {
		case "trem":
			op.Tremolo = true
		case "vib":
			op.Vibrato = true
		case "sus":
			op.Sustaining = true
		case "ksr":
			op.KSR = true
		default:
			return fmt.Errorf("line %d: unknown flag %q", t.line, t.text)
		}
		p.next()
	}
}

// number parses an integer token; negative values are allowed only
// for base. Magnitude clamping belongs to Patch.Validate, not here.
func (p *parser) number() (int, error) {
	t := p.next()
	if t.typ != typeInt {
		return 0, unexpected(t)
	}
	return strconv.Atoi(t.text)
}

func (p *parser) unsigned() (int, error) {
	t := p.peek()
	n, err := p.number()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("line %d: negative value %d", t.line, n)
	}
	return n, nil
}

func (p *parser) expect(typ tokenType) error {
	if t := p.next(); t.typ != typ {
		return unexpected(t)
	}
	return nil
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("line %d: unexpected end of input", t.line)
	}
	return fmt.Errorf("line %d: unexpected token %q", t.line, t.text)
}
