package monitor

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/smazurov/udevzero/internal/udev/device"
)

// netlinkKobjectUevent is NETLINK_KOBJECT_UEVENT from linux/netlink.h.
const netlinkKobjectUevent = 15

const recvBufSize = 1 << 20 // matches udevd's SO_RCVBUF request

// NetlinkMonitor receives uevents multicast by the kernel over a
// NETLINK_KOBJECT_UEVENT socket. A message is discarded as spoofed when its
// sender address carries no multicast group, or claims the kernel group
// (GroupKernel) from a non-kernel pid: the udev group (GroupUdev) is
// legitimately re-broadcast by udevd with a non-zero sender pid, so pid
// alone can't gate the check.
type NetlinkMonitor struct {
	fd      int
	factory *device.Factory
	group   uint32
	bound   bool

	stopR, stopW int
	done         chan struct{}
	running      atomic.Bool
}

// NewNetlinkMonitor opens a netlink socket without joining any multicast
// group. Call EnableReceiving to bind a group and start receiving.
func NewNetlinkMonitor(factory *device.Factory) (*NetlinkMonitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, netlinkKobjectUevent)
	if err != nil {
		return nil, fmt.Errorf("monitor: opening netlink socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, recvBufSize); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("monitor: SO_RCVBUF: %w", err)
	}

	fds, err := unix.Pipe2(unix.O_CLOEXEC | unix.O_NONBLOCK)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("monitor: creating shutdown pipe: %w", err)
	}

	return &NetlinkMonitor{
		fd:      fd,
		factory: factory,
		stopR:   fds[0],
		stopW:   fds[1],
		done:    make(chan struct{}),
	}, nil
}

// EnableReceiving binds the socket to the given multicast group (GroupKernel
// or GroupUdev), the point at which this monitor actually starts receiving
// uevents. Must be called before Run.
func (m *NetlinkMonitor) EnableReceiving(group uint32) error {
	addr := &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: group}
	if err := unix.Bind(m.fd, addr); err != nil {
		return fmt.Errorf("monitor: binding netlink socket: %w", err)
	}
	m.group = group
	m.bound = true
	return nil
}

// Close signals Run to exit via the self-pipe and waits for it to return,
// then releases the socket. Using a pipe rather than closing fd out from
// under a blocked syscall avoids a race where a concurrent Recvmsg could
// observe a reused file descriptor number.
func (m *NetlinkMonitor) Close() error {
	if m.running.Load() {
		var buf [1]byte
		unix.Write(m.stopW, buf[:])
		<-m.done
	}
	unix.Close(m.stopR)
	unix.Close(m.stopW)
	return unix.Close(m.fd)
}

// Run polls the socket and the shutdown pipe, decoding and forwarding
// well-formed, non-spoofed uevents until Close is called or ctx is
// cancelled. The out channel is never closed by Run; callers own its
// lifetime.
func (m *NetlinkMonitor) Run(ctx context.Context, out chan<- *Event) error {
	if !m.bound {
		return fmt.Errorf("monitor: Run called before EnableReceiving")
	}
	m.running.Store(true)
	defer close(m.done)

	buf := make([]byte, 64*1024)
	pollFds := []unix.PollFd{
		{Fd: int32(m.fd), Events: unix.POLLIN},
		{Fd: int32(m.stopR), Events: unix.POLLIN},
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := unix.Poll(pollFds, 1000)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("monitor: poll: %w", err)
		}
		if n == 0 {
			continue
		}
		if pollFds[1].Revents&unix.POLLIN != 0 {
			return nil
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		nn, _, recvFlags, from, err := unix.Recvmsg(m.fd, buf, nil, 0)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				continue
			}
			return fmt.Errorf("monitor: recvmsg: %w", err)
		}
		if nn == 0 {
			continue
		}
		if recvFlags&unix.MSG_TRUNC != 0 {
			continue // datagram larger than buf, payload incomplete
		}

		nl, ok := from.(*unix.SockaddrNetlink)
		if !ok || isSpoofed(nl) {
			continue
		}

		dev, err := m.factory.FromUevent(buf[:nn])
		if err != nil {
			continue
		}

		select {
		case out <- &Event{Device: dev, Seqnum: dev.Get("SEQNUM")}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// isSpoofed reports whether a received message's sender address fails the
// netlink(7) anti-spoofing check: no multicast group set, or the kernel
// group (GroupKernel) claimed by a non-kernel (non-zero) sender pid. The
// udev group (GroupUdev) is legitimately re-broadcast by udevd, so a
// non-zero pid there is expected, not spoofed.
func isSpoofed(nl *unix.SockaddrNetlink) bool {
	return nl.Groups == 0 || (nl.Groups == GroupKernel && nl.Pid != 0)
}
