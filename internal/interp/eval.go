package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cadence-lang/cadence/internal/pattern"
)

// EvalExpression parses and evaluates a single expression against env. This
// is the entry point the dispatcher calls every beat to reactively
// re-evaluate a loop's stored source text (spec §4.8's reactive contract).
func EvalExpression(src string, env *Environment) (Value, error) {
	p := &exprParser{input: []rune(src), env: env}
	v, err := p.parseExpr()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if !p.atEnd() {
		return Value{}, fmt.Errorf("interp: unexpected trailing input %q", string(p.input[p.pos:]))
	}
	return v, nil
}

type exprParser struct {
	input []rune
	pos   int
	env   *Environment
}

func (p *exprParser) atEnd() bool { return p.pos >= len(p.input) }
func (p *exprParser) peek() rune {
	if p.atEnd() {
		return 0
	}
	return p.input[p.pos]
}
func (p *exprParser) skipSpace() {
	for !p.atEnd() && (p.peek() == ' ' || p.peek() == '\t' || p.peek() == '\n') {
		p.pos++
	}
}

// parseExpr parses a primary value followed by any number of `.method(args)`
// postfix calls, so `"c e g".fast(2).rev()` chains left to right.
func (p *exprParser) parseExpr() (Value, error) {
	v, err := p.parsePrimary()
	if err != nil {
		return Value{}, err
	}
	for {
		p.skipSpace()
		if p.peek() != '.' {
			return v, nil
		}
		p.pos++
		name, err := p.parseIdent()
		if err != nil {
			return Value{}, err
		}
		args, err := p.parseArgList()
		if err != nil {
			return Value{}, err
		}
		v, err = applyMethod(v, name, args)
		if err != nil {
			return Value{}, err
		}
	}
}

func (p *exprParser) parseIdent() (string, error) {
	p.skipSpace()
	start := p.pos
	for !p.atEnd() && (isLetter(p.peek()) || isDigit(p.peek()) || p.peek() == '_') {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("interp: expected identifier at position %d", p.pos)
	}
	return string(p.input[start:p.pos]), nil
}

func isLetter(c rune) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c rune) bool  { return c >= '0' && c <= '9' }

// parseArgList parses a parenthesized, comma-separated argument list.
// Each argument is a full expression; a bare identifier with no binding
// that names a builtin transform (e.g. every's second argument) evaluates
// to a String value via resolveIdent.
func (p *exprParser) parseArgList() ([]Value, error) {
	p.skipSpace()
	if p.peek() != '(' {
		return nil, fmt.Errorf("interp: expected '(' at position %d", p.pos)
	}
	p.pos++
	var args []Value
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return args, nil
	}
	for {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, fmt.Errorf("interp: expected ',' or ')' at position %d", p.pos)
		}
	}
}

func (p *exprParser) parsePrimary() (Value, error) {
	p.skipSpace()
	if p.atEnd() {
		return Value{}, fmt.Errorf("interp: unexpected end of expression")
	}
	switch c := p.peek(); {
	case c == '"':
		return p.parseStringLiteral()
	case c == '[':
		return p.parseArrayLiteral()
	case c == '-' || isDigit(c):
		return p.parseNumberLiteral()
	case isLetter(c) || c == '_':
		return p.parseIdentOrCall()
	default:
		return Value{}, fmt.Errorf("interp: unexpected character %q at position %d", c, p.pos)
	}
}

func (p *exprParser) parseStringLiteral() (Value, error) {
	p.pos++ // opening quote
	start := p.pos
	for !p.atEnd() && p.peek() != '"' {
		p.pos++
	}
	if p.atEnd() {
		return Value{}, fmt.Errorf("interp: unterminated string literal")
	}
	text := string(p.input[start:p.pos])
	p.pos++ // closing quote
	pat, err := pattern.Parse(text)
	if err != nil {
		return StringValue(text), nil
	}
	return PatternValue(pat), nil
}

func (p *exprParser) parseArrayLiteral() (Value, error) {
	p.pos++ // '['
	var items []Value
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return ArrayValue(items), nil
	}
	for {
		v, err := p.parseExpr()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case ']':
			p.pos++
			return ArrayValue(items), nil
		default:
			return Value{}, fmt.Errorf("interp: expected ',' or ']' at position %d", p.pos)
		}
	}
}

func (p *exprParser) parseNumberLiteral() (Value, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for !p.atEnd() && (isDigit(p.peek()) || p.peek() == '.') {
		p.pos++
	}
	text := string(p.input[start:p.pos])
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, fmt.Errorf("interp: invalid number %q", text)
	}
	return NumberValue(n), nil
}

// builtinTransforms are the free-function call forms, e.g. fast(2, expr) and
// every(4, rev, expr). Apart from every, concat and stack, which have their
// own evaluators and no method form, they mirror the method-style forms
// applyMethod implements, with the pattern argument last instead of as the
// receiver.
var builtinTransforms = map[string]bool{
	"fast": true, "slow": true, "rev": true, "rotate": true, "take": true,
	"drop": true, "palindrome": true, "stutter": true, "transpose": true,
	"concat": true, "stack": true, "every": true,
}

func (p *exprParser) parseIdentOrCall() (Value, error) {
	name, err := p.parseIdent()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.peek() != '(' {
		return p.resolveIdent(name)
	}
	args, err := p.parseArgList()
	if err != nil {
		return Value{}, err
	}
	switch name {
	case "beat":
		return NumberValue(p.env.Beat()), nil
	case "true":
		return BooleanValue(true), nil
	case "false":
		return BooleanValue(false), nil
	case "every":
		return evalEvery(args)
	case "concat":
		return evalConcatOrStack(args, false)
	case "stack":
		return evalConcatOrStack(args, true)
	default:
		if builtinTransforms[name] {
			if len(args) == 0 {
				return Value{}, fmt.Errorf("interp: %s() requires at least a pattern argument", name)
			}
			receiver := args[len(args)-1]
			return applyMethod(receiver, name, args[:len(args)-1])
		}
		return Value{}, fmt.Errorf("interp: unknown function %q", name)
	}
}

func (p *exprParser) resolveIdent(name string) (Value, error) {
	switch name {
	case "true":
		return BooleanValue(true), nil
	case "false":
		return BooleanValue(false), nil
	}
	if v, ok := p.env.Get(name); ok {
		return v, nil
	}
	if builtinTransforms[name] {
		return StringValue(name), nil
	}
	return Value{}, fmt.Errorf("interp: undefined variable %q", name)
}

func evalEvery(args []Value) (Value, error) {
	if len(args) != 3 {
		return Value{}, fmt.Errorf("interp: every() takes (interval, transform, pattern)")
	}
	if args[0].Kind != KindNumber {
		return Value{}, fmt.Errorf("interp: every()'s first argument must be a number")
	}
	pat, err := asPattern(args[2])
	if err != nil {
		return Value{}, err
	}
	transformName, err := asTransformName(args[1])
	if err != nil {
		return Value{}, err
	}
	transformed, err := applyMethod(PatternValue(pat), transformName, nil)
	if err != nil {
		return Value{}, err
	}
	tp, err := asPattern(transformed)
	if err != nil {
		return Value{}, err
	}
	return EveryValue(EveryPattern{Interval: int(args[0].Number), Base: pat, Transformed: tp}), nil
}

// asTransformName accepts either a bare identifier captured as a String
// value (the common case, since transform names aren't bound variables) or
// an actual string-valued pattern-parse failure fallback.
func asTransformName(v Value) (string, error) {
	if v.Kind == KindString {
		return v.String, nil
	}
	return "", fmt.Errorf("interp: expected a transform name, got %s", v.Describe())
}

func evalConcatOrStack(args []Value, stack bool) (Value, error) {
	var pats []pattern.Pattern
	items := args
	if len(args) == 1 && args[0].Kind == KindArray {
		items = args[0].Array
	}
	for _, a := range items {
		pat, err := asPattern(a)
		if err != nil {
			return Value{}, err
		}
		pats = append(pats, pat)
	}
	if stack {
		return PatternValue(pattern.Stack(pats)), nil
	}
	return PatternValue(pattern.Concat(pats...)), nil
}

func asPattern(v Value) (pattern.Pattern, error) {
	switch v.Kind {
	case KindPattern:
		return v.Pattern, nil
	case KindString:
		return pattern.Parse(v.String)
	default:
		return pattern.Pattern{}, fmt.Errorf("interp: expected a pattern, got %s", v.Describe())
	}
}

// applyMethod dispatches a named pattern transform, used both by postfix
// `.method(args)` chains and by the free-function call forms.
func applyMethod(receiver Value, name string, args []Value) (Value, error) {
	pat, err := asPattern(receiver)
	if err != nil {
		return Value{}, err
	}
	intArg := func(i int) (int64, error) {
		if i >= len(args) || args[i].Kind != KindNumber {
			return 0, fmt.Errorf("interp: %s() expects a numeric argument", name)
		}
		return int64(args[i].Number), nil
	}
	switch strings.ToLower(name) {
	case "fast":
		n, err := intArg(0)
		if err != nil {
			return Value{}, err
		}
		return PatternValue(pat.Fast(n)), nil
	case "slow":
		n, err := intArg(0)
		if err != nil {
			return Value{}, err
		}
		return PatternValue(pat.Slow(n)), nil
	case "rev":
		return PatternValue(pat.Rev()), nil
	case "rotate":
		n, err := intArg(0)
		if err != nil {
			return Value{}, err
		}
		return PatternValue(pat.Rotate(int(n))), nil
	case "take":
		n, err := intArg(0)
		if err != nil {
			return Value{}, err
		}
		return PatternValue(pat.Take(int(n))), nil
	case "drop":
		n, err := intArg(0)
		if err != nil {
			return Value{}, err
		}
		return PatternValue(pat.Drop(int(n))), nil
	case "palindrome":
		return PatternValue(pat.Palindrome()), nil
	case "stutter":
		n, err := intArg(0)
		if err != nil {
			return Value{}, err
		}
		return PatternValue(pat.Stutter(int(n))), nil
	case "transpose":
		n, err := intArg(0)
		if err != nil {
			return Value{}, err
		}
		return PatternValue(pat.Transpose(int(n))), nil
	default:
		return Value{}, fmt.Errorf("interp: unknown transform %q", name)
	}
}
