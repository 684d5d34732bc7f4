package domain

// List is a double-ended sequence of strings backed by a ring buffer.
// The zero value is an empty list ready for use.
type List struct {
	buf  []string
	head int
	n    int
}

// NewList returns a list holding items in order.
func NewList(items ...string) *List {
	l := &List{}
	for _, it := range items {
		l.PushBack(it)
	}
	return l
}

// Len returns the number of elements.
func (l *List) Len() int {
	return l.n
}

// PushFront inserts s before the first element.
func (l *List) PushFront(s string) {
	l.grow()
	l.head = (l.head - 1 + len(l.buf)) % len(l.buf)
	l.buf[l.head] = s
	l.n++
}

// PushBack appends s after the last element.
func (l *List) PushBack(s string) {
	l.grow()
	l.buf[(l.head+l.n)%len(l.buf)] = s
	l.n++
}

// PopFront removes and returns the first element.
func (l *List) PopFront() (string, bool) {
	if l.n == 0 {
		return "", false
	}
	s := l.buf[l.head]
	l.buf[l.head] = ""
	l.head = (l.head + 1) % len(l.buf)
	l.n--
	return s, true
}

// PopBack removes and returns the last element.
func (l *List) PopBack() (string, bool) {
	if l.n == 0 {
		return "", false
	}
	i := (l.head + l.n - 1) % len(l.buf)
	s := l.buf[i]
	l.buf[i] = ""
	l.n--
	return s, true
}

// Index resolves a possibly negative index against the list length.
// -1 is the last element. ok is false when the result is outside [0, Len).
func (l *List) Index(i int64) (int, bool) {
	if i < 0 {
		i += int64(l.n)
	}
	if i < 0 || i >= int64(l.n) {
		return 0, false
	}
	return int(i), true
}

// At returns the element at resolved index i.
func (l *List) At(i int) string {
	return l.buf[(l.head+i)%len(l.buf)]
}

// Set replaces the element at resolved index i.
func (l *List) Set(i int, s string) {
	l.buf[(l.head+i)%len(l.buf)] = s
}

// Items returns a copy of the elements front to back.
func (l *List) Items() []string {
	out := make([]string, l.n)
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}

func (l *List) grow() {
	if l.n < len(l.buf) {
		return
	}
	size := len(l.buf) * 2
	if size == 0 {
		size = 8
	}
	buf := make([]string, size)
	for i := 0; i < l.n; i++ {
		buf[i] = l.At(i)
	}
	l.buf = buf
	l.head = 0
}
