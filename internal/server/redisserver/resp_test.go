package redisserver

import (
	"bufio"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// ============================================================
// ParseFrames Tests
// ============================================================

func TestParseFrames(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		want         [][]string
		wantConsumed int
	}{
		{
			name:         "single frame",
			input:        "*1\r\n$4\r\nPING\r\n",
			want:         [][]string{{"PING"}},
			wantConsumed: 14,
		},
		{
			name:         "set with value",
			input:        "*3\r\n$3\r\nSET\r\n$5\r\nmykey\r\n$7\r\nmyvalue\r\n",
			want:         [][]string{{"SET", "mykey", "myvalue"}},
			wantConsumed: 37,
		},
		{
			name:         "pipelined frames",
			input:        "*1\r\n$6\r\nDBSIZE\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n",
			want:         [][]string{{"DBSIZE"}, {"GET", "k"}},
			wantConsumed: 36,
		},
		{
			name:         "empty bulk",
			input:        "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$0\r\n\r\n",
			want:         [][]string{{"SET", "k", ""}},
			wantConsumed: 26,
		},
		{
			name:         "binary-safe bulk",
			input:        "*2\r\n$4\r\nECHO\r\n$4\r\na\r\nb\r\n",
			want:         [][]string{{"ECHO", "a\r\nb"}},
			wantConsumed: 24,
		},
		{
			name:         "empty array",
			input:        "*0\r\n",
			want:         [][]string{{}},
			wantConsumed: 4,
		},
		{
			name:         "null array",
			input:        "*-1\r\n",
			want:         [][]string{{}},
			wantConsumed: 5,
		},
		{
			name:         "partial header",
			input:        "*2\r",
			wantConsumed: 0,
		},
		{
			name:         "partial bulk",
			input:        "*2\r\n$3\r\nGET\r\n$5\r\nab",
			wantConsumed: 0,
		},
		{
			name:         "missing trailing CRLF",
			input:        "*1\r\n$4\r\nPING",
			wantConsumed: 0,
		},
		{
			name:         "complete then partial",
			input:        "*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPI",
			want:         [][]string{{"PING"}},
			wantConsumed: 14,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumed, frames, err := ParseFrames([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseFrames() error = %v", err)
			}
			if consumed != tt.wantConsumed {
				t.Errorf("consumed = %d, want %d", consumed, tt.wantConsumed)
			}
			if got := framesToStrings(frames); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("frames = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFrames_ByteAtATime(t *testing.T) {
	input := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$5\r\nhello\r\n"
	var buf []byte
	for i := 0; i < len(input); i++ {
		buf = append(buf, input[i])
		consumed, frames, err := ParseFrames(buf)
		if err != nil {
			t.Fatalf("ParseFrames() at byte %d error = %v", i, err)
		}
		if i < len(input)-1 {
			if consumed != 0 || len(frames) != 0 {
				t.Fatalf("ParseFrames() at byte %d consumed %d with %d frames", i, consumed, len(frames))
			}
			continue
		}
		if consumed != len(input) || len(frames) != 1 {
			t.Fatalf("ParseFrames() final consumed=%d frames=%d", consumed, len(frames))
		}
	}
}

func TestParseFrames_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantFrames   int
		wantConsumed int
	}{
		{"inline command", "PING\r\n", 0, 0},
		{"non-numeric count", "*x\r\n", 0, 0},
		{"negative count", "*-2\r\n", 0, 0},
		{"array too long", "*99999999\r\n", 0, 0},
		{"missing dollar", "*1\r\n+OK\r\n", 0, 0},
		{"null bulk", "*1\r\n$-1\r\n", 0, 0},
		{"negative bulk", "*1\r\n$-5\r\n", 0, 0},
		{"bulk too long", "*1\r\n$999999999999\r\n", 0, 0},
		{"bad terminator", "*1\r\n$4\r\nPINGxx", 0, 0},
		{"bare CR in header", "*1\rx\n", 0, 0},
		{"header never ends", "*" + strings.Repeat("1", 40), 0, 0},
		{"error after valid frame", "*1\r\n$4\r\nPING\r\n$3\r\n", 1, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumed, frames, err := ParseFrames([]byte(tt.input))
			if !errors.Is(err, ErrProtocol) {
				t.Fatalf("ParseFrames() error = %v, want ErrProtocol", err)
			}
			if len(frames) != tt.wantFrames {
				t.Errorf("len(frames) = %d, want %d", len(frames), tt.wantFrames)
			}
			if consumed != tt.wantConsumed {
				t.Errorf("consumed = %d, want %d", consumed, tt.wantConsumed)
			}
		})
	}
}

func TestParseFrames_LargeCountTrickled(t *testing.T) {
	// A maximal array header followed by a few bulks is incomplete, not an
	// error, and the token slice is not sized from the header.
	input := "*" + strconv.Itoa(MaxArrayLen) + "\r\n$1\r\na\r\n$1\r\nb\r\n"
	consumed, frames, err := ParseFrames([]byte(input))
	if err != nil || consumed != 0 || len(frames) != 0 {
		t.Fatalf("ParseFrames() = %d, %d frames, %v; want need-more", consumed, len(frames), err)
	}

	tests := []struct {
		count   int64
		wantCap int
	}{
		{1, 1},
		{initialTokenCap, initialTokenCap},
		{initialTokenCap + 1, initialTokenCap},
		{MaxArrayLen, initialTokenCap},
	}
	for _, tt := range tests {
		if got := cap(newTokens(tt.count)); got != tt.wantCap {
			t.Errorf("cap(newTokens(%d)) = %d, want %d", tt.count, got, tt.wantCap)
		}
	}
}

func TestParseFrames_GrowsPastInitialCap(t *testing.T) {
	args := make([]string, initialTokenCap*2)
	for i := range args {
		args[i] = strconv.Itoa(i)
	}
	buf := AppendCommand(nil, args...)
	consumed, frames, err := ParseFrames(buf)
	if err != nil || consumed != len(buf) || len(frames) != 1 {
		t.Fatalf("ParseFrames() = %d, %d frames, %v", consumed, len(frames), err)
	}
	if len(frames[0]) != len(args) || string(frames[0][len(args)-1]) != args[len(args)-1] {
		t.Errorf("frame has %d tokens, want %d", len(frames[0]), len(args))
	}
}

func TestAppendCommand_RoundTrip(t *testing.T) {
	args := []string{"SET", "greeting", "hello world", ""}
	buf := AppendCommand(nil, args...)

	consumed, frames, err := ParseFrames(buf)
	if err != nil {
		t.Fatalf("ParseFrames() error = %v", err)
	}
	if consumed != len(buf) {
		t.Errorf("consumed = %d, want %d", consumed, len(buf))
	}
	if got := framesToStrings(frames); !reflect.DeepEqual(got, [][]string{args}) {
		t.Errorf("frames = %q, want %q", got, args)
	}
}

// ============================================================
// AppendReturn Tests
// ============================================================

func TestAppendReturn(t *testing.T) {
	tests := []struct {
		name string
		ret  domain.Return
		want string
	}{
		{"ok", domain.OK{}, "+OK\r\n"},
		{"error", domain.Error{Msg: "ERR syntax error"}, "-ERR syntax error\r\n"},
		{"error with newline", domain.Error{Msg: "ERR bad\r\nthing"}, "-ERR bad  thing\r\n"},
		{"nil", domain.ReplyNil(), "$-1\r\n"},
		{"int", domain.ReplyInt(42), ":42\r\n"},
		{"negative int", domain.ReplyInt(-1), ":-1\r\n"},
		{"str", domain.ReplyStr("hello"), "$5\r\nhello\r\n"},
		{"empty str", domain.ReplyStr(""), "$0\r\n\r\n"},
		{
			"array",
			domain.ReplyValue(domain.Array{domain.Str("a"), domain.Int(1), domain.Nil{}}),
			"*3\r\n$1\r\na\r\n:1\r\n$-1\r\n",
		},
		{"empty array", domain.ReplyValue(domain.Array{}), "*0\r\n"},
		{"list", domain.ReplyValue(domain.NewList("x", "y")), "*2\r\n$1\r\nx\r\n$1\r\ny\r\n"},
		{
			"set sorted",
			domain.ReplyValue(domain.Set{"b": {}, "a": {}}),
			"*2\r\n$1\r\na\r\n$1\r\nb\r\n",
		},
		{
			"hash",
			domain.ReplyValue(domain.Hash{"f": "v"}),
			"*2\r\n$1\r\nf\r\n$1\r\nv\r\n",
		},
		{
			"zset by score",
			domain.ReplyValue(domain.ZSet{"hi": 2, "lo": 1.5}),
			"*4\r\n$2\r\nlo\r\n$3\r\n1.5\r\n$2\r\nhi\r\n$1\r\n2\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(AppendReturn(nil, tt.ret)); got != tt.want {
				t.Errorf("AppendReturn() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================
// ReadReply Tests
// ============================================================

func TestReadReply(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  domain.Value
	}{
		{"simple string", "+OK\r\n", domain.Str("OK")},
		{"integer", ":-7\r\n", domain.Int(-7)},
		{"bulk", "$5\r\nhello\r\n", domain.Str("hello")},
		{"binary bulk", "$4\r\na\r\nb\r\n", domain.Str("a\r\nb")},
		{"null bulk", "$-1\r\n", domain.Nil{}},
		{"null array", "*-1\r\n", domain.Nil{}},
		{"empty array", "*0\r\n", domain.Array{}},
		{
			"nested array",
			"*2\r\n:1\r\n*1\r\n$1\r\nx\r\n",
			domain.Array{domain.Int(1), domain.Array{domain.Str("x")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadReply(bufio.NewReader(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadReply() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadReply() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestReadReply_Error(t *testing.T) {
	_, err := ReadReply(bufio.NewReader(strings.NewReader("-WRONGTYPE Operation against a key\r\n")))
	var re *ReplyError
	if !errors.As(err, &re) {
		t.Fatalf("ReadReply() error = %v, want *ReplyError", err)
	}
	if re.Msg != "WRONGTYPE Operation against a key" {
		t.Errorf("Msg = %q", re.Msg)
	}
}

func TestReadReply_Malformed(t *testing.T) {
	inputs := []string{
		"?what\r\n",
		"+OK\n",
		":abc\r\n",
		"$abc\r\n",
		"$3\r\nabcde",
		"*x\r\n",
	}
	for _, in := range inputs {
		if _, err := ReadReply(bufio.NewReader(strings.NewReader(in))); err == nil {
			t.Errorf("ReadReply(%q) error = nil", in)
		}
	}
}

func TestAppendReturn_ReadReplyRoundTrip(t *testing.T) {
	values := []domain.Value{
		domain.Str("hello"),
		domain.Int(1 << 40),
		domain.Nil{},
		domain.Array{domain.Str("a"), domain.Array{domain.Int(2)}},
	}
	for _, v := range values {
		buf := AppendReturn(nil, domain.ReplyValue(v))
		got, err := ReadReply(bufio.NewReader(strings.NewReader(string(buf))))
		if err != nil {
			t.Fatalf("ReadReply(%q) error = %v", buf, err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Errorf("round trip of %#v = %#v", v, got)
		}
	}
}

func framesToStrings(frames [][][]byte) [][]string {
	if frames == nil {
		return nil
	}
	out := make([][]string, len(frames))
	for i, f := range frames {
		out[i] = make([]string, len(f))
		for j, tok := range f {
			out[i][j] = string(tok)
		}
	}
	return out
}
