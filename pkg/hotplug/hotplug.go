//go:build linux

// Package hotplug reports kernel device add/remove events read from the
// NETLINK_KOBJECT_UEVENT socket, without cgo or libudev.
package hotplug

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// pollTimeoutMs bounds how long Run waits before re-checking its context.
const pollTimeoutMs = 500

// Monitor listens for kernel device events via netlink.
type Monitor struct {
	fd int

	mu         sync.RWMutex
	subsystems map[string]struct{}
	actions    map[string]struct{}
	closeOnce  sync.Once
}

// NewMonitor opens a uevent socket bound to the kernel broadcast group.
func NewMonitor() (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("open uevent socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: 1,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind uevent socket: %w", err)
	}

	return &Monitor{
		fd:         fd,
		subsystems: make(map[string]struct{}),
		actions:    make(map[string]struct{}),
	}, nil
}

// FilterSubsystems restricts events to the given subsystems. With no
// subsystem filter every subsystem passes.
func (m *Monitor) FilterSubsystems(subsystems ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range subsystems {
		m.subsystems[s] = struct{}{}
	}
}

// FilterActions restricts events to the given actions. With no action
// filter every action passes.
func (m *Monitor) FilterActions(actions ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range actions {
		m.actions[a] = struct{}{}
	}
}

func (m *Monitor) accepts(e *Event) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.subsystems) > 0 {
		if _, ok := m.subsystems[e.Subsystem]; !ok {
			return false
		}
	}
	if len(m.actions) > 0 {
		if _, ok := m.actions[e.Action]; !ok {
			return false
		}
	}
	return true
}

// Close releases the socket. It is safe to call more than once.
func (m *Monitor) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = unix.Close(m.fd)
	})
	return err
}

// Run delivers accepted events to out until ctx is cancelled or the socket
// fails. A receive buffer overrun is delivered as an ActionOverrun event and
// reading continues. out is closed when Run returns.
func (m *Monitor) Run(ctx context.Context, out chan<- Event) error {
	defer close(out)

	buf := make([]byte, 16384)
	fds := []unix.PollFd{{Fd: int32(m.fd), Events: unix.POLLIN}}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := unix.Poll(fds, pollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll uevent socket: %w", err)
		}
		if n == 0 || fds[0].Revents&(unix.POLLIN|unix.POLLERR) == 0 {
			continue
		}

		var event *Event
		size, _, err := unix.Recvfrom(m.fd, buf, 0)
		switch {
		case err == nil:
			event = ParseUEvent(buf[:size])
			if event == nil || !m.accepts(event) {
				continue
			}
		case overrun(err):
			event = &Event{Action: ActionOverrun}
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			continue
		default:
			return fmt.Errorf("read uevent: %w", err)
		}

		select {
		case out <- *event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// overrun reports whether a receive error only means events were lost.
func overrun(err error) bool {
	return errors.Is(err, unix.ENOBUFS)
}
