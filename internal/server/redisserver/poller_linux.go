//go:build linux

package redisserver

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"golang.org/x/sys/unix"
)

// Reserved poll tokens. Connection tokens come from tokenPool (1..MaxClients).
const (
	listenerToken uint32 = 0
	wakeToken     uint32 = math.MaxInt32
)

// connEvents is the edge-triggered interest set of every connection.
const connEvents = unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLET

// maxEvents is the number of readiness events collected per wait.
const maxEvents = 256

// poller wraps an epoll instance and an eventfd used to wake it from
// other goroutines.
type poller struct {
	epfd   int
	wakefd int
	events []unix.EpollEvent
}

func newPoller() (*poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	p := &poller{
		epfd:   epfd,
		wakefd: wakefd,
		events: make([]unix.EpollEvent, maxEvents),
	}
	if err := p.add(wakefd, wakeToken, unix.EPOLLIN); err != nil {
		p.close()
		return nil, err
	}
	return p, nil
}

func (p *poller) add(fd int, token uint32, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(token)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl add: %w", err)
	}
	return nil
}

func (p *poller) modify(fd int, token uint32, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(token)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl mod: %w", err)
	}
	return nil
}

func (p *poller) remove(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll_ctl del: %w", err)
	}
	return nil
}

// wait blocks until at least one event is ready or timeout elapses. A
// non-positive timeout blocks indefinitely. The returned slice is reused
// by the next call.
func (p *poller) wait(timeout time.Duration) ([]unix.EpollEvent, error) {
	msec := -1
	if timeout > 0 {
		msec = int(timeout / time.Millisecond)
		if msec == 0 {
			msec = 1
		}
	}
	n, err := unix.EpollWait(p.epfd, p.events, msec)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("epoll_wait: %w", err)
	}
	return p.events[:n], nil
}

// wake interrupts a concurrent wait. Safe for use from any goroutine.
func (p *poller) wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wakefd, buf[:])
	if err == unix.EAGAIN {
		// Counter is saturated; a wakeup is already pending.
		return nil
	}
	return err
}

// drainWake resets the eventfd counter.
func (p *poller) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakefd, buf[:]); err != unix.EINTR {
			return
		}
	}
}

func (p *poller) close() error {
	err1 := unix.Close(p.wakefd)
	err2 := unix.Close(p.epfd)
	if err1 != nil {
		return err1
	}
	return err2
}
