package keybind

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	for _, tt := range []struct {
		spec string
		want Identity
	}{
		{"shift+ctrl+a", Identity{Shift: true, Ctrl: true, Key: "a"}},
		{"ctrl+shift+a", Identity{Shift: true, Ctrl: true, Key: "a"}},
		{"a+ctrl+shift", Identity{Shift: true, Ctrl: true, Key: "a"}},
		{"shift+alt+m", Identity{Shift: true, Alt: true, Key: "m"}},
		{"ctrl+alt", Identity{Ctrl: true, Alt: true}},
		{"f5", Identity{Key: "f5"}},
		{"Ctrl+a", Identity{Key: "a"}},
		{"ctrl++a", Identity{Ctrl: true, Key: "a"}},
		{"a+b", Identity{Key: "b"}},
		{"ctrl+a+", Identity{Ctrl: true}},
		{"ctrl+", Identity{Ctrl: true}},
		{"", Identity{}},
	} {
		t.Run(tt.spec, func(t *testing.T) {
			if got := Parse(tt.spec); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseOrderIndependent(t *testing.T) {
	mods := []string{"shift", "alt", "ctrl"}
	// every subset of modifiers, key inserted at every position
	for subset := 0; subset < 1<<len(mods); subset++ {
		var chosen []string
		for i, m := range mods {
			if subset&(1<<i) != 0 {
				chosen = append(chosen, m)
			}
		}
		want := Parse(join(append(append([]string{}, chosen...), "x")))
		for pos := 0; pos <= len(chosen); pos++ {
			toks := append([]string{}, chosen[:pos]...)
			toks = append(toks, "x")
			toks = append(toks, chosen[pos:]...)
			for _, perm := range rotations(toks) {
				if got := Parse(join(perm)); got != want {
					t.Errorf("Parse(%q) = %+v, want %+v", join(perm), got, want)
				}
			}
		}
	}
}

func rotations(toks []string) [][]string {
	out := make([][]string, 0, len(toks))
	for i := range toks {
		out = append(out, append(append([]string{}, toks[i:]...), toks[:i]...))
	}
	return out
}

func join(toks []string) string {
	s := ""
	for i, t := range toks {
		if i > 0 {
			s += "+"
		}
		s += t
	}
	return s
}

func TestParseStrict(t *testing.T) {
	if _, err := ParseStrict("ctrl+a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, spec := range []string{"ctrl+a+b", "ctrl+a+", "ctrl++a"} {
		if _, err := ParseStrict(spec); !errors.Is(err, ErrMultipleKeys) {
			t.Errorf("ParseStrict(%q) = %v, want ErrMultipleKeys", spec, err)
		}
	}
}

func TestIdentityString(t *testing.T) {
	for _, tt := range []struct{ spec, want string }{
		{"ctrl+shift+a", "shift+ctrl+a"},
		{"alt+ctrl", "alt+ctrl"},
		{"q", "q"},
	} {
		if got := Parse(tt.spec).String(); got != tt.want {
			t.Errorf("Parse(%q).String() = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestFromMaskRoundTrip(t *testing.T) {
	id := Parse("shift+alt+m")
	if got := FromMask(id.Mask(), "m"); got != id {
		t.Errorf("FromMask = %+v, want %+v", got, id)
	}
}

func TestTriggerString(t *testing.T) {
	if got := PressedTrigger(3).String(); got != "pressed(3)" {
		t.Errorf("got %q", got)
	}
	if got := ReleasedTrigger(4).String(); got != "released(4)" {
		t.Errorf("got %q", got)
	}
}
