//go:build linux

package redisserver

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

// readChunk is the size of the shared read scratch buffer.
const readChunk = 64 << 10

var errPendingReplies = errors.New("reply buffer exceeds max pending bytes")

// eventLoop owns the listener, every connection and the keyspace. All of
// its methods except poller.wake run on the loop goroutine.
type eventLoop struct {
	srv    *Server
	poller *poller
	lfd    int
	addr   net.Addr

	tokens  *tokenPool
	conns   []*conn // indexed by token
	scratch []byte

	rejectLog rate.Sometimes
}

func newEventLoop(s *Server) (*eventLoop, error) {
	maxClients := s.cfg.MaxClients
	if maxClients <= 0 {
		maxClients = DefaultConfig().MaxClients
	}

	lfd, addr, err := listenTCP(s.cfg.Addr)
	if err != nil {
		return nil, err
	}
	p, err := newPoller()
	if err != nil {
		unix.Close(lfd)
		return nil, err
	}
	if err := p.add(lfd, listenerToken, unix.EPOLLIN|unix.EPOLLET); err != nil {
		p.close()
		unix.Close(lfd)
		return nil, err
	}

	return &eventLoop{
		srv:       s,
		poller:    p,
		lfd:       lfd,
		addr:      addr,
		tokens:    newTokenPool(maxClients),
		conns:     make([]*conn, maxClients+1),
		scratch:   make([]byte, readChunk),
		rejectLog: rate.Sometimes{Interval: 10 * time.Second},
	}, nil
}

// run processes readiness events until the server is stopping. The
// active expiry sweep piggybacks on the poll timeout.
func (l *eventLoop) run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer l.teardown()

	interval := l.srv.cfg.SweepInterval
	lastSweep := time.Now()
	for {
		events, err := l.poller.wait(interval)
		if err != nil {
			l.srv.logger.Error("event loop failed", "error", err)
			return err
		}
		for _, ev := range events {
			switch token := uint32(ev.Fd); token {
			case listenerToken:
				l.acceptAll()
			case wakeToken:
				l.poller.drainWake()
			default:
				l.serve(token, ev.Events)
			}
		}
		if l.srv.stopping.Load() {
			return nil
		}
		if interval > 0 && time.Since(lastSweep) >= interval {
			l.srv.sweep()
			lastSweep = time.Now()
		}
	}
}

func (l *eventLoop) teardown() {
	open := 0
	for _, c := range l.conns {
		if c != nil {
			_ = l.flush(c)
			l.closeConn(c, "server shutdown")
			open++
		}
	}
	if err := unix.Close(l.lfd); err != nil {
		l.srv.logger.Warn("failed to close listener", "error", err)
	}
	if err := l.poller.close(); err != nil {
		l.srv.logger.Warn("failed to close poller", "error", err)
	}
	l.srv.logger.Info("redis server stopped", "closed_connections", open)
}

// acceptAll drains the accept queue.
func (l *eventLoop) acceptAll() {
	for {
		nfd, sa, err := unix.Accept4(l.lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch err {
		case nil:
		case unix.EAGAIN:
			return
		case unix.EINTR, unix.ECONNABORTED:
			continue
		default:
			l.srv.logger.Error("accept failed", "error", err)
			return
		}

		remote := sockaddrString(sa)
		token, ok := l.tokens.get()
		if !ok {
			unix.Close(nfd)
			l.srv.metrics.ConnRejected()
			l.rejectLog.Do(func() {
				l.srv.logger.Warn("max clients reached, rejecting connections",
					"remote", remote, "max_clients", len(l.conns)-1)
			})
			continue
		}

		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		c := newConn(nfd, token, remote, l.srv.cfg)
		if err := l.poller.add(nfd, token, connEvents); err != nil {
			l.srv.logger.Error("failed to register connection", "remote", remote, "error", err)
			unix.Close(nfd)
			l.tokens.put(token)
			continue
		}
		l.conns[token] = c
		l.srv.metrics.ConnOpened()
		l.srv.logger.Debug("client connected", "conn_id", c.id, "remote", remote)
	}
}

// serve handles readiness on one connection.
func (l *eventLoop) serve(token uint32, events uint32) {
	if int(token) >= len(l.conns) {
		return
	}
	c := l.conns[token]
	if c == nil {
		return
	}
	if events&unix.EPOLLERR != 0 {
		l.closeConn(c, "socket error")
		return
	}

	if events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP) != 0 {
		if err := l.readAndProcess(c); err != nil {
			l.closeConn(c, err.Error())
			return
		}
	}
	if err := l.flush(c); err != nil {
		l.closeConn(c, err.Error())
		return
	}

	switch {
	case events&unix.EPOLLHUP != 0:
		l.closeConn(c, "hang up")
	case len(c.wbuf) > 0:
		if c.peerClosed {
			c.closing = true
		}
	case c.closing:
		l.closeConn(c, "error reply sent")
	case c.peerClosed:
		l.closeConn(c, "peer closed")
	}
}

// readAndProcess reads until the socket would block, executing complete
// frames after every chunk so that a pipelining client is served while
// its buffers stay bounded.
func (l *eventLoop) readAndProcess(c *conn) error {
	limit := l.srv.cfg.MaxPendingBytes
	for !c.closing && !c.peerClosed {
		n, err := unix.Read(c.fd, l.scratch)
		switch err {
		case nil:
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return nil
		default:
			return err
		}
		if n == 0 {
			c.peerClosed = true
			return nil
		}

		c.rbuf = append(c.rbuf, l.scratch[:n]...)
		l.srv.handler.process(c)

		if limit > 0 && len(c.wbuf) > limit {
			if err := l.flush(c); err != nil {
				return err
			}
			if len(c.wbuf) > limit {
				return errPendingReplies
			}
		}
	}
	return nil
}

// flush writes as much of c.wbuf as the socket accepts and tracks write
// interest accordingly.
func (l *eventLoop) flush(c *conn) error {
	for len(c.wbuf) > 0 {
		n, err := unix.Write(c.fd, c.wbuf)
		switch err {
		case nil:
			c.consumeWrite(n)
		case unix.EINTR:
		case unix.EAGAIN:
			return l.setWantWrite(c, true)
		default:
			return err
		}
	}
	return l.setWantWrite(c, false)
}

func (l *eventLoop) setWantWrite(c *conn, want bool) error {
	if c.wantWrite == want {
		return nil
	}
	events := uint32(connEvents)
	if want {
		events |= unix.EPOLLOUT
	}
	if err := l.poller.modify(c.fd, c.token, events); err != nil {
		return err
	}
	c.wantWrite = want
	return nil
}

func (l *eventLoop) closeConn(c *conn, reason string) {
	_ = l.poller.remove(c.fd)
	if err := unix.Close(c.fd); err != nil {
		l.srv.logger.Warn("failed to close connection", "conn_id", c.id, "error", err)
	}
	l.conns[c.token] = nil
	l.tokens.put(c.token)
	l.srv.metrics.ConnClosed()
	l.srv.logger.Debug("client disconnected", "conn_id", c.id, "remote", c.remote, "reason", reason)
}

// listenTCP creates a non-blocking listening socket bound to addr and
// returns it with the address actually bound.
func listenTCP(addr string) (int, net.Addr, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return -1, nil, fmt.Errorf("resolve %q: %w", addr, err)
	}

	family := unix.AF_INET
	var sa unix.Sockaddr
	if ip4 := tcpAddr.IP.To4(); tcpAddr.IP == nil || ip4 != nil {
		sa4 := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		family = unix.AF_INET6
		sa6 := &unix.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa6.Addr[:], tcpAddr.IP.To16())
		sa = sa6
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return -1, nil, fmt.Errorf("getsockname: %w", err)
	}
	return fd, sockaddrToTCP(bound), nil
}

func sockaddrToTCP(sa unix.Sockaddr) *net.TCPAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IPv4(sa.Addr[0], sa.Addr[1], sa.Addr[2], sa.Addr[3]), Port: sa.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}
	}
	return &net.TCPAddr{}
}

func sockaddrString(sa unix.Sockaddr) string {
	if sa == nil {
		return "unknown"
	}
	a := sockaddrToTCP(sa)
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))
}
