package main

import (
	"testing"

	"github.com/milk9111/footsim/motion"
)

func TestParseScript(t *testing.T) {
	s, err := parseScript("right:3, jump+right:1,none:2")
	if err != nil {
		t.Fatalf("parseScript: %v", err)
	}
	if s.Len() != 6 {
		t.Fatalf("expected 6 frames, got %d", s.Len())
	}

	cases := []struct {
		frame int
		want  motion.Keys
	}{
		{0, motion.Keys{Right: true}},
		{2, motion.Keys{Right: true}},
		{3, motion.Keys{Right: true, Jump: true}},
		{4, motion.Keys{}},
		{10, motion.Keys{}},
	}
	for _, tc := range cases {
		if got := s.At(tc.frame); got != tc.want {
			t.Fatalf("frame %d: expected %+v, got %+v", tc.frame, tc.want, got)
		}
	}
}

func TestParseScriptErrors(t *testing.T) {
	for _, in := range []string{"right", "right:0", "right:x", "fly:3"} {
		t.Run(in, func(t *testing.T) {
			if _, err := parseScript(in); err == nil {
				t.Fatalf("expected error for %q", in)
			}
		})
	}

	s, err := parseScript("  ")
	if err != nil || s.Len() != 0 {
		t.Fatalf("expected empty script, got %v %v", s, err)
	}
}
