//go:build !linux

package redisserver

import "net"

type poller struct{}

func (*poller) wake() error { return nil }

type eventLoop struct {
	addr   net.Addr
	poller *poller
}

func newEventLoop(*Server) (*eventLoop, error) {
	return nil, ErrUnsupportedPlatform
}

func (*eventLoop) run() error {
	return ErrUnsupportedPlatform
}
