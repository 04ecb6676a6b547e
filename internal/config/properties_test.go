package config

import (
	"reflect"
	"testing"
	"time"
)

func TestPropertiesWithDoesNotMutate(t *testing.T) {
	base := FromMap(map[string]string{"a": "1"})
	next := base.With("b", "2")
	if base.Has("b") {
		t.Fatalf("With mutated the receiver")
	}
	if got := next.Get("b", ""); got != "2" {
		t.Fatalf("With: got %q", got)
	}
	src := map[string]string{"x": "y"}
	p := FromMap(src)
	src["x"] = "changed"
	if p.Get("x", "") != "y" {
		t.Fatalf("FromMap must copy its input")
	}
}

func TestPropertiesAccessors(t *testing.T) {
	p := FromMap(map[string]string{
		"flag":    "true",
		"bad":     "maybe",
		"n":       " 7 ",
		"ms":      "1500",
		"dur":     "2s",
		"list":    " a, ,b ,c,",
		"pos.x":   "1",
		"pos.y":   "2",
		"posture": "3",
	})
	if !p.Bool("flag", false) || p.Bool("bad", false) || !p.Bool("missing", true) {
		t.Fatalf("Bool accessors misbehaved")
	}
	if p.Int("n", 0) != 7 || p.Int("missing", 3) != 3 {
		t.Fatalf("Int accessors misbehaved")
	}
	if d, _ := p.Duration("ms", 0); d != 1500*time.Millisecond {
		t.Fatalf("ms duration: %v", d)
	}
	if d, _ := p.Duration("dur", 0); d != 2*time.Second {
		t.Fatalf("duration: %v", d)
	}
	if _, err := p.Duration("bad", 0); err == nil {
		t.Fatalf("expected duration error")
	}
	if got := p.List("list"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("List: %v", got)
	}
	if got := p.WithPrefix("pos.").Keys(); !reflect.DeepEqual(got, []string{"pos.x", "pos.y"}) {
		t.Fatalf("WithPrefix: %v", got)
	}
}

func TestParseAssignment(t *testing.T) {
	k, v, err := ParseAssignment(" pos.model = default ")
	if err != nil || k != "pos.model" || v != "default" {
		t.Fatalf("got %q %q %v", k, v, err)
	}
	if _, _, err := ParseAssignment("novalue"); err == nil {
		t.Fatalf("expected error")
	}
	if _, _, err := ParseAssignment("=x"); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestCustomClass(t *testing.T) {
	p := FromMap(map[string]string{CustomClassPrefix + "shout": " lua ", CustomClassPrefix + "empty": ""})
	if c, ok := p.CustomClass("shout"); !ok || c != "lua" {
		t.Fatalf("CustomClass: %q %v", c, ok)
	}
	if _, ok := p.CustomClass("empty"); ok {
		t.Fatalf("empty class must not count as configured")
	}
}
