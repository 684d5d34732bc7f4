package redisserver

import (
	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
)

// shrinkThreshold is the buffer capacity above which an emptied buffer is
// released instead of reused.
const shrinkThreshold = 64 << 10

// conn is the loop-owned state of one client connection.
type conn struct {
	fd     int
	token  uint32
	id     string
	remote string

	// db is the selected slot in the keyspace, not a database handle.
	db int

	rbuf []byte
	wbuf []byte

	limiter *rate.Limiter

	closing    bool // close once wbuf is flushed
	peerClosed bool // read side saw EOF
	wantWrite  bool // write readiness is registered
}

func newConn(fd int, token uint32, remote string, cfg *Config) *conn {
	c := &conn{
		fd:     fd,
		token:  token,
		id:     ulid.Make().String(),
		remote: remote,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// consumeRead drops the first n bytes of the read buffer.
func (c *conn) consumeRead(n int) {
	c.rbuf = compact(c.rbuf, n)
}

// consumeWrite drops the first n bytes of the write buffer.
func (c *conn) consumeWrite(n int) {
	c.wbuf = compact(c.wbuf, n)
}

func compact(b []byte, n int) []byte {
	if n == 0 {
		return b
	}
	if n >= len(b) {
		if cap(b) > shrinkThreshold {
			return nil
		}
		return b[:0]
	}
	return b[:copy(b, b[n:])]
}
