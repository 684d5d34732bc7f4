package connection

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/server/redisserver"
)

// DefaultTimeout bounds dialing and each request round trip.
const DefaultTimeout = 5 * time.Second

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("connection: client closed")

// Client is a single-connection RESP client. It is not safe for
// concurrent use.
type Client struct {
	addr    string
	timeout time.Duration

	conn   net.Conn
	br     *bufio.Reader
	buf    []byte
	db     int
	closed bool
}

// Dial connects to addr. A non-positive timeout uses DefaultTimeout.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{addr: addr, timeout: timeout}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.addr, err)
	}
	c.conn = conn
	c.br = bufio.NewReader(conn)
	if c.db != 0 {
		if _, err := c.roundTrip("SELECT", strconv.Itoa(c.db)); err != nil {
			c.drop()
			return fmt.Errorf("reselect db %d: %w", c.db, err)
		}
	}
	return nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// DB returns the database selected through this client.
func (c *Client) DB() int {
	return c.db
}

// Do sends one command and returns its reply. An error reply is returned
// as *redisserver.ReplyError with a nil value.
func (c *Client) Do(args ...string) (domain.Value, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if len(args) == 0 {
		return nil, errors.New("connection: empty command")
	}
	if c.conn == nil {
		if err := c.connect(); err != nil {
			return nil, err
		}
	}

	v, err := c.roundTrip(args...)
	var re *redisserver.ReplyError
	switch {
	case errors.As(err, &re):
		return nil, err
	case err != nil:
		// The stream position is unknown; start over next time.
		c.drop()
		return nil, err
	}

	if isSelect(args) {
		c.db, _ = strconv.Atoi(args[1])
	}
	return v, nil
}

func (c *Client) roundTrip(args ...string) (domain.Value, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}
	c.buf = redisserver.AppendCommand(c.buf[:0], args...)
	if _, err := c.conn.Write(c.buf); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	v, err := redisserver.ReadReply(c.br)
	if err != nil {
		var re *redisserver.ReplyError
		if errors.As(err, &re) {
			return nil, err
		}
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return v, nil
}

func isSelect(args []string) bool {
	return len(args) == 2 && strings.EqualFold(args[0], "SELECT")
}

func (c *Client) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.br = nil
	}
}

// Close closes the connection. Further calls to Do fail with ErrClosed.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
