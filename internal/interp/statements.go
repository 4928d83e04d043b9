package interp

import (
	"fmt"
	"strconv"
	"strings"
)

// ExecuteProgram runs every top-level statement of src against env in
// order, line by line, accumulating the Actions it produces. A line
// starting with '#' is a comment. Used both for the startup file and for
// hot-reload (spec §4.10): the coordinator is responsible for filtering the
// resulting actions per the hot-reload policy before acting on them.
func ExecuteProgram(src string, env *Environment) ([]Action, error) {
	var actions []Action
	lines := strings.Split(src, "\n")
	ambientTrack := 0
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "on ") && strings.HasSuffix(line, "{") {
			n, err := parseOnTrackHeader(line)
			if err != nil {
				return actions, err
			}
			ambientTrack = n
			continue
		}
		if line == "}" {
			ambientTrack = 0
			continue
		}
		action, err := ExecuteStatement(line, env, ambientTrack)
		if err != nil {
			return actions, err
		}
		if action != nil {
			actions = append(actions, *action)
		}
	}
	return actions, nil
}

func parseOnTrackHeader(line string) (int, error) {
	body := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(line, "on")), "{")
	n, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return 0, fmt.Errorf("interp: invalid track number in %q", line)
	}
	return n, nil
}

// ExecuteStatement parses and runs a single statement line. ambientTrack is
// the default track number for statements inside an `on <n> { ... }` block
// (0 outside any block).
func ExecuteStatement(line string, env *Environment, ambientTrack int) (*Action, error) {
	switch {
	case strings.HasPrefix(line, "let "):
		return nil, execLet(line, env)
	case strings.HasPrefix(line, "tempo "):
		return execTempo(line)
	case strings.HasPrefix(line, "play "):
		return execPlay(line, ambientTrack)
	case strings.HasPrefix(line, "volume "):
		return execVolume(line, ambientTrack)
	case line == "stop" || strings.HasPrefix(line, "stop "):
		return execStop(line, ambientTrack)
	default:
		return nil, fmt.Errorf("interp: unrecognized statement %q", line)
	}
}

func execLet(line string, env *Environment) error {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "let "))
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return fmt.Errorf("interp: malformed let statement %q", line)
	}
	name := strings.TrimSpace(rest[:eq])
	exprSrc := strings.TrimSpace(rest[eq+1:])
	v, err := EvalExpression(exprSrc, env)
	if err != nil {
		return err
	}
	env.Set(name, v)
	return nil
}

func execTempo(line string) (*Action, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "tempo "))
	bpm, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return nil, fmt.Errorf("interp: invalid tempo %q", rest)
	}
	a := SetTempo(bpm)
	return &a, nil
}

// execPlay parses `play <expr> [loop] [queue] [on <n>]`. The expr portion
// may itself contain spaces (it is a quoted string or a chained call), so
// trailing modifier keywords are stripped from the end of the line rather
// than split on every space.
func execPlay(line string, ambientTrack int) (*Action, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "play "))
	looping := false
	queue := false
	track := ambientTrack

	for {
		rest = strings.TrimSpace(rest)
		switch {
		case strings.HasSuffix(rest, " loop"):
			looping = true
			rest = strings.TrimSuffix(rest, " loop")
		case strings.HasSuffix(rest, " queue"):
			queue = true
			rest = strings.TrimSuffix(rest, " queue")
		case hasOnTrackSuffix(rest):
			n, trimmed, err := trimOnTrackSuffix(rest)
			if err != nil {
				return nil, err
			}
			track = n
			rest = trimmed
		default:
			a := PlayExpression(rest, looping, queue, track)
			return &a, nil
		}
	}
}

func hasOnTrackSuffix(s string) bool {
	idx := strings.LastIndex(s, " on ")
	if idx < 0 {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(s[idx+4:]))
	return err == nil
}

func trimOnTrackSuffix(s string) (int, string, error) {
	idx := strings.LastIndex(s, " on ")
	n, err := strconv.Atoi(strings.TrimSpace(s[idx+4:]))
	if err != nil {
		return 0, s, err
	}
	return n, s[:idx], nil
}

func execVolume(line string, ambientTrack int) (*Action, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "volume "))
	track := ambientTrack
	if hasOnTrackSuffix(rest) {
		n, trimmed, err := trimOnTrackSuffix(rest)
		if err != nil {
			return nil, err
		}
		track, rest = n, trimmed
	}
	vol, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return nil, fmt.Errorf("interp: invalid volume %q", rest)
	}
	a := SetVolume(track, vol)
	return &a, nil
}

func execStop(line string, ambientTrack int) (*Action, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "stop"))
	if rest == "" {
		if ambientTrack != 0 {
			a := Stop(ambientTrack, true)
			return &a, nil
		}
		a := Stop(0, false)
		return &a, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return nil, fmt.Errorf("interp: invalid stop target %q", rest)
	}
	a := Stop(n, true)
	return &a, nil
}
