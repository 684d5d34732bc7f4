package domain

import (
	"testing"
	"time"
)

// ============================================================
// Value Tests
// ============================================================

func TestKind_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil{}, "none"},
		{Int(1), "string"},
		{Str("a"), "string"},
		{NewList("a"), "list"},
		{Set{"a": {}}, "set"},
		{Hash{}, "hash"},
		{ZSet{}, "zset"},
		{Array{}, "array"},
	}

	for _, tt := range tests {
		if got := tt.v.Kind().String(); got != tt.want {
			t.Errorf("%T.Kind().String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"1", Int(1)},
		{"-12", Int(-12)},
		{"0", Int(0)},
		{"9223372036854775807", Int(9223372036854775807)},
		{"9223372036854775808", Str("9223372036854775808")},
		{"007", Str("007")},
		{"+1", Str("+1")},
		{"-0", Str("-0")},
		{"-", Str("-")},
		{"1.5", Str("1.5")},
		{"abc", Str("abc")},
		{"", Str("")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseScalar(tt.in); got != tt.want {
				t.Errorf("ParseScalar(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestText(t *testing.T) {
	if s, ok := Text(Int(-5)); !ok || s != "-5" {
		t.Errorf("Text(Int(-5)) = %q, %v", s, ok)
	}
	if s, ok := Text(Str("hi")); !ok || s != "hi" {
		t.Errorf("Text(Str) = %q, %v", s, ok)
	}
	if _, ok := Text(NewList()); ok {
		t.Error("Text(List) ok = true, want false")
	}
	if IsScalar(Set{}) {
		t.Error("IsScalar(Set) = true, want false")
	}
}

func TestExpireTime_Less(t *testing.T) {
	a := ExpireTime{Key: "a", ExpireAt: 10}
	b := ExpireTime{Key: "b", ExpireAt: 5}
	c := ExpireTime{Key: "c", ExpireAt: 5}

	if !b.Less(a) {
		t.Error("sooner expiry should sort first")
	}
	if a.Less(b) {
		t.Error("later expiry should not sort first")
	}
	if !b.Less(c) || c.Less(b) {
		t.Error("ties should break on key")
	}
}

// ============================================================
// Command Tests
// ============================================================

func TestCommand_Name(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{SetString{Key: "k"}, "SET"},
		{IncrBy{Verb: "DECRBY"}, "DECRBY"},
		{Push{Left: true}, "LPUSH"},
		{Push{}, "RPUSH"},
		{Pop{Left: true}, "LPOP"},
		{Pop{}, "RPOP"},
		{TTL{Unit: time.Millisecond}, "PTTL"},
		{TTL{Unit: time.Second}, "TTL"},
		{Echo{Verb: "PING", Message: "PONG"}, "PING"},
		{SwapDB{A: 0, B: 1}, "SWAPDB"},
	}

	for _, tt := range tests {
		if got := tt.cmd.Name(); got != tt.want {
			t.Errorf("%T.Name() = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}
