package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/milk9111/footsim/motion"
)

// segment holds a key combination for a number of frames.
type segment struct {
	keys   motion.Keys
	frames int
}

// script is the player's input over time, written as comma separated
// keys:frames pairs where keys joins left, right, up, down, jump with '+'
// and "none" holds nothing, e.g. "right:90,jump+right:1,right:30".
type script []segment

func parseScript(s string) (script, error) {
	var out script
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		names, count, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("input %q: want keys:frames", part)
		}
		frames, err := strconv.Atoi(count)
		if err != nil || frames <= 0 {
			return nil, fmt.Errorf("input %q: bad frame count", part)
		}
		keys, err := parseKeys(names)
		if err != nil {
			return nil, err
		}
		out = append(out, segment{keys: keys, frames: frames})
	}
	return out, nil
}

func parseKeys(s string) (motion.Keys, error) {
	var k motion.Keys
	for _, name := range strings.Split(s, "+") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "none", "":
		case "left":
			k.Left = true
		case "right":
			k.Right = true
		case "up":
			k.Up = true
		case "down":
			k.Down = true
		case "jump":
			k.Jump = true
		default:
			return k, fmt.Errorf("input: unknown key %q", name)
		}
	}
	return k, nil
}

// At returns the keys held on frame, or nothing once the script ends.
func (s script) At(frame int) motion.Keys {
	for _, seg := range s {
		if frame < seg.frames {
			return seg.keys
		}
		frame -= seg.frames
	}
	return motion.Keys{}
}

func (s script) Len() int {
	n := 0
	for _, seg := range s {
		n += seg.frames
	}
	return n
}
