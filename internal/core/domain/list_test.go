package domain

import (
	"reflect"
	"testing"
)

func TestList_PushPop(t *testing.T) {
	l := &List{}
	for _, s := range []string{"a", "b", "c"} {
		l.PushFront(s)
	}
	l.PushBack("z")

	if got := l.Items(); !reflect.DeepEqual(got, []string{"c", "b", "a", "z"}) {
		t.Fatalf("Items() = %v", got)
	}

	if s, ok := l.PopBack(); !ok || s != "z" {
		t.Errorf("PopBack() = %q, %v, want z", s, ok)
	}
	for _, want := range []string{"c", "b", "a"} {
		if s, ok := l.PopFront(); !ok || s != want {
			t.Errorf("PopFront() = %q, %v, want %q", s, ok, want)
		}
	}
	if _, ok := l.PopFront(); ok {
		t.Error("PopFront() on empty list ok = true")
	}
	if _, ok := l.PopBack(); ok {
		t.Error("PopBack() on empty list ok = true")
	}
}

func TestList_GrowWrapped(t *testing.T) {
	l := &List{}
	// Force head to wrap before growing.
	for i := 0; i < 5; i++ {
		l.PushBack(string(rune('a' + i)))
	}
	for i := 0; i < 20; i++ {
		l.PushFront(string(rune('A' + i)))
	}

	if l.Len() != 25 {
		t.Fatalf("Len() = %d, want 25", l.Len())
	}
	if l.At(0) != "T" || l.At(24) != "e" {
		t.Errorf("At(0), At(24) = %q, %q", l.At(0), l.At(24))
	}
}

func TestList_Index(t *testing.T) {
	l := NewList("a", "b", "c")

	tests := []struct {
		in     int64
		want   int
		wantOK bool
	}{
		{0, 0, true},
		{2, 2, true},
		{3, 0, false},
		{-1, 2, true},
		{-3, 0, true},
		{-4, 0, false},
	}

	for _, tt := range tests {
		got, ok := l.Index(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("Index(%d) = %d, %v, want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}

	l.Set(1, "B")
	if l.At(1) != "B" {
		t.Errorf("At(1) = %q after Set, want B", l.At(1))
	}
}
