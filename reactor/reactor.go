/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

//go:build linux

// Package reactor is the single-threaded event loop: it multiplexes a
// listening socket, a signal self-pipe, and every client socket behind
// one epoll instance, owns every client connection's lifetime from accept
// to close, and hands readable connections to a worker pool for parsing
// and response assembly. Accept, initial interest registration, socket
// reads and writes, and timer ticks happen on the loop's own goroutine;
// a worker parses the buffered request, builds the response, re-arms the
// socket itself with EPOLL_CTL_MOD, and closes the connection itself on
// failure. Every close is guarded by the connection's generation, so a
// second close of the same connection does nothing.
package reactor

import (
	"context"
	"time"

	"golang.org/x/sys/unix"

	libatm "github.com/sabouaram/reactorhttp/atomic"
	libcfg "github.com/sabouaram/reactorhttp/config"
	libconn "github.com/sabouaram/reactorhttp/httpconn"
	liblog "github.com/sabouaram/reactorhttp/logger"
	libsts "github.com/sabouaram/reactorhttp/runner/startStop"
	libpipe "github.com/sabouaram/reactorhttp/selfpipe"
	libsyncx "github.com/sabouaram/reactorhttp/syncx"
	libtimer "github.com/sabouaram/reactorhttp/timer"
	libheap "github.com/sabouaram/reactorhttp/timer/heap"
	liblist "github.com/sabouaram/reactorhttp/timer/list"
	libpool "github.com/sabouaram/reactorhttp/workerpool"
)

// MaxEvents bounds how many ready events a single EpollWait call reports.
const MaxEvents = 10000

// acceptBacklog is the backlog passed to listen(2).
const acceptBacklog = 1024

// TimerKind selects which timer.Structure implementation backs eviction.
type TimerKind int

const (
	// TimerList uses the sorted doubly linked list.
	TimerList TimerKind = iota
	// TimerHeap uses the binary min-heap.
	TimerHeap
)

// Reactor owns the epoll instance, the listening socket, the signal
// self-pipe, the connection registry, the eviction timer structure, and
// the worker pool every parsed request is handed off to.
type Reactor struct {
	cfg  libcfg.Config
	logf liblog.FuncLog

	epfd     int
	listenFd int

	pipe    *libpipe.Pipe
	pipeRef libatm.Value[*libpipe.Pipe]

	conns *libconn.Registry
	pool  *libpool.Pool
	tmr   libtimer.Structure[*libconn.Conn]

	timers libatm.MapTyped[int, *libtimer.Timer[*libconn.Conn]]

	activeUsers libatm.Value[int]
	admit       *libsyncx.Semaphore

	listening libatm.Value[bool]
	addr      libatm.Value[string]

	r libatm.Value[libsts.StartStop]
}

// New builds a Reactor from cfg, defaulting to the sorted-list timer
// structure; use NewWithTimer to select the heap instead.
func New(cfg libcfg.Config, logf liblog.FuncLog) *Reactor {
	return NewWithTimer(cfg, logf, TimerList)
}

// NewWithTimer builds a Reactor from cfg, selecting the timer.Structure
// implementation that tracks connection idle eviction.
func NewWithTimer(cfg libcfg.Config, logf liblog.FuncLog, kind TimerKind) *Reactor {
	var tmr libtimer.Structure[*libconn.Conn]
	switch kind {
	case TimerHeap:
		tmr = libheap.New[*libconn.Conn]()
	default:
		tmr = liblist.New[*libconn.Conn]()
	}

	re := &Reactor{
		cfg:         cfg,
		logf:        logf,
		epfd:        -1,
		listenFd:    -1,
		conns:       libconn.NewRegistry(cfg.DocRoot, logf),
		pool:        libpool.New(cfg.Workers, cfg.WorkQueueSize),
		tmr:         tmr,
		timers:      libatm.NewMapTyped[int, *libtimer.Timer[*libconn.Conn]](),
		activeUsers: libatm.NewValue[int](),
		admit:       libsyncx.NewSemaphore(int64(cfg.MaxFD)),
		listening:   libatm.NewValue[bool](),
		addr:        libatm.NewValue[string](),
		pipeRef:     libatm.NewValue[*libpipe.Pipe](),
		r:           libatm.NewValue[libsts.StartStop](),
	}
	re.activeUsers.Store(0)
	re.r.Store(libsts.New(re.run, re.closeRun))
	return re
}

// Start launches the event loop in its own goroutine; it returns
// immediately, reporting setup failures through ErrorsLast.
func (re *Reactor) Start(ctx context.Context) error {
	return re.r.Load().Start(ctx)
}

// Stop signals shutdown through the self-pipe, the same path a caught
// SIGTERM takes, so a loop parked in the notifier's indefinite wait wakes
// immediately instead of waiting for the next unrelated event, then waits
// for the loop to drain current events and return.
func (re *Reactor) Stop(ctx context.Context) error {
	if p := re.pipeRef.Load(); p != nil {
		_ = p.Terminate()
	}
	return re.r.Load().Stop(ctx)
}

func (re *Reactor) IsRunning() bool {
	return re.r.Load().IsRunning()
}

func (re *Reactor) ErrorsLast() error {
	return re.r.Load().ErrorsLast()
}

func (re *Reactor) ActiveUsers() int {
	return re.activeUsers.Load()
}

// IsListening reports whether the loop has finished binding its socket
// and registering its initial epoll interests. Tests and health checks
// poll this instead of racing Start's asynchronous return.
func (re *Reactor) IsListening() bool {
	return re.listening.Load()
}

// Addr returns the listening socket's bound address, valid once
// IsListening reports true. Useful when Bind uses port 0.
func (re *Reactor) Addr() string {
	return re.addr.Load()
}

func (re *Reactor) run(ctx context.Context) error {
	listenFd, err := listen(re.cfg.Bind, acceptBacklog)
	if err != nil {
		return err
	}
	re.listenFd = listenFd
	defer func() { _ = unix.Close(re.listenFd) }()
	defer re.listening.Store(false)

	if sa, saErr := unix.Getsockname(listenFd); saErr == nil {
		re.addr.Store(peerAddrString(sa))
	}

	pipe, err := libpipe.New()
	if err != nil {
		return err
	}
	re.pipe = pipe
	re.pipeRef.Store(pipe)
	defer re.pipeRef.Store(nil)
	defer func() { _ = re.pipe.Close() }()

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return ErrorEpollCreate.Error(err)
	}
	re.epfd = epfd
	defer func() { _ = unix.Close(re.epfd) }()

	if err = re.epollAdd(re.listenFd, unix.EPOLLIN, false); err != nil {
		return err
	}
	if err = re.epollAdd(re.pipe.ReadFd(), unix.EPOLLIN, false); err != nil {
		return err
	}

	if err = re.pool.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = re.pool.Stop(context.Background()) }()

	if err = libpipe.ArmAlarm(uint(re.cfg.TimeSlot.Time() / time.Second)); err != nil {
		return err
	}

	re.listening.Store(true)

	events := make([]unix.EpollEvent, MaxEvents)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, werr := unix.EpollWait(re.epfd, events, -1)
		if werr != nil {
			if werr == unix.EINTR {
				continue
			}
			return ErrorEpollWait.Error(werr)
		}

		timeoutPending := false
		stop := false

		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Fd)

			switch {
			case fd == re.listenFd:
				re.acceptLoop()

			case fd == re.pipe.ReadFd():
				alarms, term, derr := re.pipe.Drain()
				if derr == nil && alarms > 0 {
					timeoutPending = true
				}
				if term {
					stop = true
				}

			case ev.Events&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0:
				re.closeConn(fd)

			case ev.Events&unix.EPOLLIN != 0:
				re.handleReadable(fd)

			case ev.Events&unix.EPOLLOUT != 0:
				re.handleWritable(fd)
			}
		}

		if timeoutPending {
			re.tmr.Tick(nowSeconds())
			if aerr := libpipe.ArmAlarm(uint(re.cfg.TimeSlot.Time() / time.Second)); aerr != nil {
				return aerr
			}
		}

		if stop {
			return nil
		}
	}
}

func (re *Reactor) closeRun(_ context.Context) error {
	return nil
}

func nowSeconds() int64 {
	return time.Now().Unix()
}

func (re *Reactor) epollAdd(fd int, events uint32, oneshot bool) error {
	if oneshot {
		events |= unix.EPOLLONESHOT
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(re.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return ErrorEpollCtl.Error(err)
	}
	return nil
}

func (re *Reactor) epollMod(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events | unix.EPOLLONESHOT, Fd: int32(fd)}
	if err := unix.EpollCtl(re.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return ErrorEpollCtl.Error(err)
	}
	return nil
}

func (re *Reactor) epollDel(fd int) {
	_ = unix.EpollCtl(re.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// clientEvents returns the epoll interest flags for readable/writable
// rearm, honoring the configured trigger mode.
func (re *Reactor) clientEvents(base uint32) uint32 {
	base |= unix.EPOLLRDHUP
	if re.cfg.EdgeTriggered {
		base |= unix.EPOLLET
	}
	return base
}

func (re *Reactor) acceptLoop() {
	for {
		nfd, sa, err := unix.Accept4(re.listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			// EAGAIN means the backlog is drained; any other error also
			// ends this accept pass, without being logged.
			return
		}

		if !re.admit.TryAcquire() {
			_ = unix.Close(nfd)
			if re.logf != nil {
				if log := re.logf(); log != nil {
					log.Warning("rejecting connection: max concurrent connections reached", nil)
				}
			}
			continue
		}

		conn := re.conns.Bind(nfd, peerAddrString(sa))
		re.incUsers(1)

		expire := nowSeconds() + int64(re.cfg.EvictAfter().Time()/time.Second)
		t := libtimer.New(expire, conn, re.onTimerExpire)
		re.timers.Store(nfd, t)
		re.tmr.Add(t)

		if err = re.epollAdd(nfd, re.clientEvents(unix.EPOLLIN), true); err != nil {
			re.closeConn(nfd)
		}
	}
}

func (re *Reactor) onTimerExpire(conn *libconn.Conn) {
	re.closeConnGen(conn.Fd, conn.Generation)
}

func (re *Reactor) handleReadable(fd int) {
	conn, ref, ok := re.conns.Lookup(fd)
	if !ok {
		return
	}

	total := 0
	for {
		if conn.ReadFull() {
			re.closeConn(fd)
			return
		}
		n, err := unix.Read(fd, conn.ReadBuf())
		if n > 0 {
			conn.Advance(n)
			total += n
		}
		if err != nil {
			if err == unix.EAGAIN {
				break
			}
			re.closeConn(fd)
			return
		}
		if n == 0 {
			re.closeConn(fd)
			return
		}
	}

	if total == 0 {
		return
	}

	if tm, found := re.timers.Load(fd); found {
		tm.Expire = nowSeconds() + int64(re.cfg.EvictAfter().Time()/time.Second)
		re.tmr.Adjust(tm)
	}

	queued := re.pool.TrySubmit(func(_ context.Context) {
		re.process(fd, ref)
	})
	if !queued {
		if re.logf != nil {
			if log := re.logf(); log != nil {
				log.Warning("dropping connection: work queue is full", nil)
			}
		}
		re.closeConn(fd)
	}
}

func (re *Reactor) process(fd int, ref libconn.Ref) {
	conn, _, ok := re.conns.Lookup(fd)
	if !ok || !re.conns.Valid(ref) {
		return
	}

	result := conn.Parse()
	switch result {
	case libconn.ResultNone:
		if rerr := re.epollMod(fd, re.clientEvents(unix.EPOLLIN)); rerr != nil {
			re.closeConn(fd)
		}
		return
	case libconn.ResultGetRequest:
		result = conn.DoRequest()
	}

	if berr := conn.BuildResponse(result); berr != nil {
		re.closeConn(fd)
		return
	}

	if rerr := re.epollMod(fd, re.clientEvents(unix.EPOLLOUT)); rerr != nil {
		re.closeConn(fd)
	}
}

func (re *Reactor) handleWritable(fd int) {
	conn, ref, ok := re.conns.Lookup(fd)
	if !ok {
		return
	}

	done, rearm, err := conn.Flush()
	if err != nil {
		re.closeConn(fd)
		return
	}
	if rearm {
		if rerr := re.epollMod(fd, re.clientEvents(unix.EPOLLOUT)); rerr != nil {
			re.closeConn(fd)
		}
		return
	}
	if !done {
		re.closeConn(fd)
		return
	}

	re.logAccess(conn)

	if !conn.KeepAlive() {
		re.closeConn(fd)
		return
	}

	conn.ResetParser()
	if !re.conns.Valid(ref) {
		return
	}
	if rerr := re.epollMod(fd, re.clientEvents(unix.EPOLLIN)); rerr != nil {
		re.closeConn(fd)
	}
}

// logAccess emits one Common-Log-Format-style entry per completed
// response, extending spec.md's bare requirement for a served response
// with the remote address, latency, method, status, and size a real
// deployment would want out of an access log.
func (re *Reactor) logAccess(conn *libconn.Conn) {
	if re.logf == nil {
		return
	}
	log := re.logf()
	if log == nil {
		return
	}
	log.Access(
		conn.PeerAddr, "",
		time.Now(), time.Since(conn.RequestStarted()),
		conn.MethodString(), conn.URL(), conn.Proto(),
		conn.StatusCode(), conn.BytesSent(),
	).Log()
}

func (re *Reactor) closeConn(fd int) {
	conn, _, ok := re.conns.Lookup(fd)
	if !ok {
		return
	}
	re.closeConnGen(fd, conn.Generation)
}

// closeConnGen tears down fd only if its live connection is still at
// generation gen, so a timer expiry racing a worker-driven close (or vice
// versa) never double-releases the same slot.
func (re *Reactor) closeConnGen(fd int, gen uint64) {
	conn, _, ok := re.conns.Lookup(fd)
	if !ok || conn.Generation != gen {
		return
	}

	if tm, found := re.timers.LoadAndDelete(fd); found {
		re.tmr.Delete(tm)
	}

	re.epollDel(fd)
	re.conns.Release(fd)
	_ = unix.Close(fd)
	re.incUsers(-1)
	re.admit.Release()
}

func (re *Reactor) incUsers(delta int) {
	for {
		cur := re.activeUsers.Load()
		if re.activeUsers.CompareAndSwap(cur, cur+delta) {
			return
		}
	}
}

var _ libsts.StartStop = (*Reactor)(nil)
