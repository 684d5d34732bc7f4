package connection

import (
	"bufio"
	"errors"
	"net"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/server/redisserver"
)

// fakeServer answers each RESP request with a canned reply chosen by the
// upper-cased verb. It records every request it sees.
type fakeServer struct {
	ln      net.Listener
	replies map[string]string

	mu       sync.Mutex
	requests [][]string
	accepted int
}

func startFakeServer(t *testing.T, replies map[string]string) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln, replies: replies}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepted++
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()
	br := bufio.NewReader(conn)
	for {
		v, err := redisserver.ReadReply(br)
		if err != nil {
			return
		}
		arr, ok := v.(domain.Array)
		if !ok || len(arr) == 0 {
			return
		}
		args := make([]string, len(arr))
		for i, a := range arr {
			args[i] = string(a.(domain.Str))
		}
		s.mu.Lock()
		s.requests = append(s.requests, args)
		s.mu.Unlock()

		verb := strings.ToUpper(args[0])
		if verb == "HANGUP" {
			return
		}
		reply, ok := s.replies[verb]
		if !ok {
			reply = "+OK\r\n"
		}
		if _, err := conn.Write([]byte(reply)); err != nil {
			return
		}
	}
}

func (s *fakeServer) snapshot() ([][]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.requests...), s.accepted
}

// ============================================================
// Dial Tests
// ============================================================

func TestDial(t *testing.T) {
	s := startFakeServer(t, nil)
	c, err := Dial(s.ln.Addr().String(), 0)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	if c.Addr() != s.ln.Addr().String() {
		t.Errorf("Addr() = %q", c.Addr())
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
	}
}

func TestDial_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Dial(addr, time.Second); err == nil {
		t.Fatal("Dial() to closed port succeeded")
	}
}

// ============================================================
// Do Tests
// ============================================================

func TestClient_Do(t *testing.T) {
	s := startFakeServer(t, map[string]string{
		"INCR": ":7\r\n",
		"GET":  "$-1\r\n",
		"ECHO": "$11\r\nhello world\r\n",
		"FOO":  "-ERR unknown command 'FOO'\r\n",
		"KEYS": "*2\r\n$1\r\na\r\n$1\r\nb\r\n",
	})
	c, err := Dial(s.ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	tests := []struct {
		args    []string
		want    domain.Value
		wantErr string
	}{
		{[]string{"SET", "k", "v"}, domain.Str("OK"), ""},
		{[]string{"INCR", "n"}, domain.Int(7), ""},
		{[]string{"GET", "missing"}, domain.Nil{}, ""},
		{[]string{"ECHO", "hello world"}, domain.Str("hello world"), ""},
		{[]string{"KEYS"}, domain.Array{domain.Str("a"), domain.Str("b")}, ""},
		{[]string{"FOO"}, nil, "ERR unknown command 'FOO'"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := c.Do(tt.args...)
			if tt.wantErr != "" {
				var re *redisserver.ReplyError
				if !errors.As(err, &re) || re.Msg != tt.wantErr {
					t.Fatalf("Do() error = %v, want reply error %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Do() = %#v, want %#v", got, tt.want)
			}
		})
	}

	reqs, _ := s.snapshot()
	if len(reqs) != len(tests) {
		t.Fatalf("server saw %d requests, want %d", len(reqs), len(tests))
	}
	if reqs[3][1] != "hello world" {
		t.Errorf("ECHO payload = %q, want %q", reqs[3][1], "hello world")
	}
}

func TestClient_Do_EmptyAndClosed(t *testing.T) {
	s := startFakeServer(t, nil)
	c, err := Dial(s.ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	if _, err := c.Do(); err == nil {
		t.Error("Do() with no args succeeded")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := c.Do("PING"); !errors.Is(err, ErrClosed) {
		t.Errorf("Do() after Close error = %v, want ErrClosed", err)
	}
}

func TestClient_ReconnectReselects(t *testing.T) {
	s := startFakeServer(t, nil)
	c, err := Dial(s.ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	if _, err := c.Do("select", "2"); err != nil {
		t.Fatalf("SELECT error = %v", err)
	}
	if c.DB() != 2 {
		t.Fatalf("DB() = %d, want 2", c.DB())
	}

	// The server drops the connection without replying.
	if _, err := c.Do("HANGUP"); err == nil {
		t.Fatal("Do(HANGUP) succeeded")
	}
	if _, err := c.Do("PING"); err != nil {
		t.Fatalf("Do() after reconnect error = %v", err)
	}

	reqs, accepted := s.snapshot()
	if accepted != 2 {
		t.Errorf("accepted = %d, want 2", accepted)
	}
	last := reqs[len(reqs)-2:]
	if strings.Join(last[0], " ") != "SELECT 2" || last[1][0] != "PING" {
		t.Errorf("requests after reconnect = %v", last)
	}
}
