package pattern

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/cadence-lang/cadence/internal/dsp"
	"github.com/cadence-lang/cadence/internal/theory"
)

// DefaultBeatsPerCycle is the cycle length of a bare mini-notation pattern:
// one bar of 4 quarter-note beats.
var DefaultBeatsPerCycle = RationalFromInt(4)

// ParseError reports a mini-notation syntax problem. No engine state
// changes as a result (spec §7).
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return "pattern parse error: " + e.Msg }

func parseErrorf(format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// Parse parses mini-notation source into a Pattern with the default cycle
// length of 4 beats. A pattern consisting of a single bare, unresolved
// variable token is rejected so bare identifiers can denote ordinary string
// values elsewhere in the surface language.
func Parse(src string) (Pattern, error) {
	p := &parser{input: []rune(src)}
	steps, err := p.parseSequence("")
	if err != nil {
		return Pattern{}, err
	}
	p.skipSpace()
	if !p.atEnd() {
		return Pattern{}, parseErrorf("unexpected %q at position %d", p.peek(), p.pos)
	}
	if len(steps) == 1 && steps[0].Kind == KindVariable {
		return Pattern{}, parseErrorf("a bare variable %q is not a pattern", steps[0].VariableName)
	}
	return NewPattern(steps, DefaultBeatsPerCycle), nil
}

type parser struct {
	input []rune
	pos   int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.input) }

func (p *parser) peek() rune {
	if p.atEnd() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for !p.atEnd() && (p.peek() == ' ' || p.peek() == '\t' || p.peek() == '\n') {
		p.pos++
	}
}

// parseSequence parses whitespace-separated steps until it hits a rune in
// stopSet (or EOF if stopSet is empty).
func (p *parser) parseSequence(stopSet string) ([]Step, error) {
	var steps []Step
	for {
		p.skipSpace()
		if p.atEnd() || (stopSet != "" && strings.ContainsRune(stopSet, p.peek())) {
			break
		}
		s, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// parseStep parses one primary step plus any postfix modifiers (*n, @w,
// (p,s), (v)) attached directly after it with no intervening whitespace.
func (p *parser) parseStep() (Step, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return Step{}, err
	}
	for !p.atEnd() {
		switch p.peek() {
		case '*':
			p.pos++
			n, err := p.parseInt()
			if err != nil {
				return Step{}, err
			}
			base = NewRepeatStep(base, n)
		case '@':
			p.pos++
			w, err := p.parseRational()
			if err != nil {
				return Step{}, err
			}
			base = NewWeightedStep(base, w)
		case '(':
			p.pos++
			content, err := p.parseBalancedRest(')')
			if err != nil {
				return Step{}, err
			}
			base, err = applyParenModifier(base, content)
			if err != nil {
				return Step{}, err
			}
		default:
			return base, nil
		}
	}
	return base, nil
}

func applyParenModifier(base Step, content string) (Step, error) {
	parts := strings.Split(content, ",")
	switch len(parts) {
	case 1:
		v, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Step{}, parseErrorf("invalid velocity %q", parts[0])
		}
		return NewVelocityStep(base, v), nil
	case 2:
		pulses, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Step{}, parseErrorf("invalid euclidean pulses %q", parts[0])
		}
		total, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Step{}, parseErrorf("invalid euclidean steps %q", parts[1])
		}
		return NewEuclideanStep(base, pulses, total), nil
	default:
		return Step{}, parseErrorf("invalid parenthesized modifier %q", content)
	}
}

func (p *parser) parseInt() (int, error) {
	start := p.pos
	if !p.atEnd() && p.peek() == '-' {
		p.pos++
	}
	for !p.atEnd() && isDigit(p.peek()) {
		p.pos++
	}
	if p.pos == start {
		return 0, parseErrorf("expected a number at position %d", p.pos)
	}
	n, err := strconv.Atoi(string(p.input[start:p.pos]))
	if err != nil {
		return 0, parseErrorf("invalid number %q", string(p.input[start:p.pos]))
	}
	return n, nil
}

func (p *parser) parseRational() (Rational, error) {
	start := p.pos
	if !p.atEnd() && p.peek() == '-' {
		p.pos++
	}
	for !p.atEnd() && (isDigit(p.peek()) || p.peek() == '.' || p.peek() == '/') {
		p.pos++
	}
	text := string(p.input[start:p.pos])
	if text == "" {
		return Zero, parseErrorf("expected a weight number at position %d", p.pos)
	}
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return Zero, parseErrorf("invalid weight %q", text)
	}
	return Rational{r: r}, nil
}

// parseBalancedRest consumes runes up to (not including) the matching close
// rune, tracking nested bracket depth, and consumes the close rune itself.
// Called with p.pos immediately after the opening rune was consumed.
func (p *parser) parseBalancedRest(closeRune rune) (string, error) {
	depth := 1
	start := p.pos
	for !p.atEnd() {
		c := p.peek()
		if isOpenBracket(c) {
			depth++
		} else if isCloseBracket(c) {
			depth--
			if depth == 0 {
				content := string(p.input[start:p.pos])
				p.pos++ // consume the close rune
				return content, nil
			}
		}
		p.pos++
	}
	return "", parseErrorf("unterminated %q starting at position %d", closeRune, start)
}

func isOpenBracket(c rune) bool  { return c == '[' || c == '<' || c == '{' || c == '(' }
func isCloseBracket(c rune) bool { return c == ']' || c == '>' || c == '}' || c == ')' }

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isTokenRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '#' || c == '-':
		return true
	}
	return false
}

// parsePrimary parses a rest, bracketed group/chord/alternation/
// polyrhythm, or a bare note/drum/variable token.
func (p *parser) parsePrimary() (Step, error) {
	p.skipSpace()
	if p.atEnd() {
		return Step{}, parseErrorf("unexpected end of pattern")
	}
	switch c := p.peek(); c {
	case '_':
		p.pos++
		return NewRestStep(), nil
	case '[':
		p.pos++
		content, err := p.parseBalancedRest(']')
		if err != nil {
			return Step{}, err
		}
		if hasTopLevelComma(content) {
			return parseChordLiteral(content)
		}
		sub := &parser{input: []rune(content)}
		children, err := sub.parseSequence("")
		if err != nil {
			return Step{}, err
		}
		return NewGroupStep(children), nil
	case '<':
		p.pos++
		content, err := p.parseBalancedRest('>')
		if err != nil {
			return Step{}, err
		}
		sub := &parser{input: []rune(content)}
		children, err := sub.parseSequence("")
		if err != nil {
			return Step{}, err
		}
		return NewAlternationStep(children), nil
	case '{':
		p.pos++
		content, err := p.parseBalancedRest('}')
		if err != nil {
			return Step{}, err
		}
		parts := splitTopLevel(content, ',')
		groups := make([][]Step, 0, len(parts))
		for _, part := range parts {
			sub := &parser{input: []rune(part)}
			children, err := sub.parseSequence("")
			if err != nil {
				return Step{}, err
			}
			groups = append(groups, children)
		}
		return NewPolyrhythmStep(groups), nil
	default:
		return p.parseToken()
	}
}

func (p *parser) parseToken() (Step, error) {
	start := p.pos
	for !p.atEnd() && isTokenRune(p.peek()) {
		p.pos++
	}
	if p.pos == start {
		return Step{}, parseErrorf("unexpected character %q at position %d", p.peek(), p.pos)
	}
	text := string(p.input[start:p.pos])
	return classifyToken(text), nil
}

// classifyToken decides whether a bare token is a Note, a known drum name,
// or an unresolved Variable.
func classifyToken(text string) Step {
	if n, err := theory.ParseNote(text); err == nil {
		return NewNoteStep(n)
	}
	if d, ok := dsp.LookupDrum(strings.ToLower(text)); ok {
		return NewDrumStep(d)
	}
	return NewVariableStep(text)
}

// parseChordLiteral builds a Chord step from comma-separated pitch-class
// names (octave digits, if present, are ignored per spec §3).
func parseChordLiteral(content string) (Step, error) {
	parts := splitTopLevel(content, ',')
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		names = append(names, strings.TrimSpace(part))
	}
	c, err := theory.NewChordFromNames(names)
	if err != nil {
		return Step{}, parseErrorf("invalid chord literal [%s]: %v", content, err)
	}
	return NewChordStep(c), nil
}

// hasTopLevelComma reports whether s contains a comma outside of any
// nested bracket pair.
func hasTopLevelComma(s string) bool {
	depth := 0
	for _, c := range s {
		if isOpenBracket(c) {
			depth++
		} else if isCloseBracket(c) {
			depth--
		} else if c == ',' && depth == 0 {
			return true
		}
	}
	return false
}

// splitTopLevel splits s on sep, ignoring separators nested inside brackets.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth := 0
	start := 0
	runes := []rune(s)
	for i, c := range runes {
		if isOpenBracket(c) {
			depth++
		} else if isCloseBracket(c) {
			depth--
		} else if c == sep && depth == 0 {
			parts = append(parts, string(runes[start:i]))
			start = i + 1
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}
