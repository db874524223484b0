//go:build linux

package asyncrt

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

var (
	errFDOutOfRange        = errors.New("asyncrt: fd out of range")
	errFDAlreadyRegistered = errors.New("asyncrt: fd already registered")
	errFDNotRegistered     = errors.New("asyncrt: fd not registered")
	errPollerClosed        = errors.New("asyncrt: poller closed")
)

// fdRegistration is what the reactor remembers about one registered fd.
type fdRegistration struct {
	callback IOCallback
}

// platformPoller is the epoll-backed reactor poller for Linux (spec §6's
// I/O adapter requirements). Registrations live in a sync.Map rather than
// eventloop/poller_linux.go's FastPoller's direct-indexed, cache-padded
// array behind an RWMutex plus a version counter to detect mutation across
// the blocking poll syscall: a sync.Map already makes concurrent
// registration changes safe to observe mid-poll without that bookkeeping,
// at the cost of a lookup-by-fd instead of array indexing. The event buffer
// grows by doubling when a poll saturates it, instead of the teacher's
// fixed 256-entry buffer.
type platformPoller struct {
	epfd     int32
	regs     sync.Map // map[int]*fdRegistration
	eventBuf []unix.EpollEvent
	closed   atomic.Bool
}

func (p *platformPoller) Init() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = int32(epfd)
	p.eventBuf = make([]unix.EpollEvent, 64)
	return nil
}

func (p *platformPoller) Close() error {
	p.closed.Store(true)
	return unix.Close(int(p.epfd))
}

func (p *platformPoller) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	if p.closed.Load() {
		return errPollerClosed
	}
	if fd < 0 {
		return errFDOutOfRange
	}
	if _, loaded := p.regs.LoadOrStore(fd, &fdRegistration{callback: cb}); loaded {
		return errFDAlreadyRegistered
	}

	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(int(p.epfd), unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		p.regs.Delete(fd)
		return err
	}
	return nil
}

func (p *platformPoller) UnregisterFD(fd int) error {
	if fd < 0 {
		return errFDOutOfRange
	}
	if _, ok := p.regs.LoadAndDelete(fd); !ok {
		return errFDNotRegistered
	}
	return unix.EpollCtl(int(p.epfd), unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *platformPoller) ModifyFD(fd int, events IOEvents) error {
	if fd < 0 {
		return errFDOutOfRange
	}
	if _, ok := p.regs.Load(fd); !ok {
		return errFDNotRegistered
	}
	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	return unix.EpollCtl(int(p.epfd), unix.EPOLL_CTL_MOD, fd, ev)
}

func (p *platformPoller) PollIO(timeoutMs int) (int, error) {
	if p.closed.Load() {
		return 0, errPollerClosed
	}
	n, err := unix.EpollWait(int(p.epfd), p.eventBuf, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Fd)
		if v, ok := p.regs.Load(fd); ok {
			v.(*fdRegistration).callback(epollToEvents(p.eventBuf[i].Events))
		}
	}
	if n == len(p.eventBuf) {
		p.eventBuf = make([]unix.EpollEvent, len(p.eventBuf)*2)
	}
	return n, nil
}

func eventsToEpoll(events IOEvents) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func epollToEvents(e uint32) IOEvents {
	var events IOEvents
	if e&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if e&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}

func newWakePipe() (readFD, writeFD int, err error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}

func closeWakePipe(readFD, writeFD int) {
	_ = unix.Close(readFD)
	_ = unix.Close(writeFD)
}

func drainWakePipe(readFD int) {
	var buf [64]byte
	for {
		n, err := unix.Read(readFD, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (r *reactor) wake() {
	var b [1]byte
	_, _ = unix.Write(r.wakeWriteFD, b[:])
}
