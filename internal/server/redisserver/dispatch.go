package redisserver

import (
	"log/slog"
	"strings"
	"time"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/core/grammar"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

// Metric labels for frames that never became a command.
const (
	labelInvalid     = "invalid"
	labelRateLimited = "ratelimited"
)

// handler turns buffered request bytes into replies. It touches no
// sockets, so it runs unchanged under the event loop and in tests.
type handler struct {
	keyspace   *memory.Keyspace
	metrics    *metric.Registry
	logger     *slog.Logger
	maxPending int
}

// process executes every complete frame in c.rbuf, in order, appending
// one reply per frame to c.wbuf. A malformed frame or an oversized
// partial frame gets a protocol error reply and marks c for closing.
func (h *handler) process(c *conn) {
	if c.closing {
		return
	}

	consumed, frames, err := ParseFrames(c.rbuf)
	for _, tokens := range frames {
		if len(tokens) == 0 {
			continue
		}
		c.wbuf = AppendReturn(c.wbuf, h.execute(c, tokens))
	}
	c.consumeRead(consumed)

	switch {
	case err != nil:
		h.protocolError(c, strings.TrimPrefix(err.Error(), ErrProtocol.Error()+": "))
	case h.maxPending > 0 && len(c.rbuf) > h.maxPending:
		h.protocolError(c, "request exceeds max pending bytes")
	}
}

func (h *handler) protocolError(c *conn, detail string) {
	h.logger.Warn("protocol error, closing connection",
		"conn_id", c.id, "remote", c.remote, "error", detail)
	h.metrics.IncProtocolErrors()
	c.wbuf = AppendReturn(c.wbuf, domain.ErrProtocol.WithDetails(detail).Reply())
	c.rbuf = nil
	c.closing = true
}

// execute runs one frame's tokens and returns its reply.
func (h *handler) execute(c *conn, tokens [][]byte) domain.Return {
	start := time.Now()

	if c.limiter != nil && !c.limiter.Allow() {
		h.metrics.RecordCommand(labelRateLimited, false, time.Since(start))
		return domain.ErrRateLimited.Reply()
	}

	cmd, err := grammar.Parse(grammar.Linearize(tokens))
	if err != nil {
		h.logger.Debug("command rejected", "conn_id", c.id, "error", err)
		h.metrics.RecordCommand(labelInvalid, false, time.Since(start))
		return domain.ReplyFor(err)
	}

	ret := h.dispatch(c, cmd)
	_, failed := ret.(domain.Error)
	h.metrics.RecordCommand(cmd.Name(), !failed, time.Since(start))
	return ret
}

// dispatch routes keyspace-level commands to the keyspace and everything
// else to the connection's selected database.
func (h *handler) dispatch(c *conn, cmd domain.Command) domain.Return {
	switch cmd := cmd.(type) {
	case domain.Select:
		if err := h.keyspace.Validate(cmd.Index); err != nil {
			return domain.ReplyFor(err)
		}
		c.db = int(cmd.Index)
		return domain.OK{}
	case domain.SwapDB:
		if err := h.keyspace.Swap(cmd.A, cmd.B); err != nil {
			return domain.ReplyFor(err)
		}
		return domain.OK{}
	case domain.FlushAll:
		h.keyspace.FlushAll()
		return domain.OK{}
	}
	return h.keyspace.DB(c.db).Execute(cmd)
}
