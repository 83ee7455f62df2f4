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

// Package selfpipe bridges asynchronous SIGALRM/SIGTERM delivery into
// ordinary readable readiness on a pipe, so the reactor's notifier never
// needs a signal-aware code path of its own: it just reads another fd.
//
// Go's signal.Notify already does the async-signal-unsafety-avoidance
// work a classic self-pipe exists for (the runtime queues signals and
// delivers them on an ordinary channel), so the one goroutine here does
// only what a C-style signal handler would have done by hand: turn each
// notification into a single written byte, nothing else.
package selfpipe

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	// ByteAlarm is written to the pipe for every delivered SIGALRM.
	ByteAlarm = 'A'
	// ByteTerm is written to the pipe for every delivered SIGTERM.
	ByteTerm = 'T'
)

// Pipe owns both ends of a non-blocking pipe(2) pair and the goroutine
// translating caught signals into bytes on its write end.
type Pipe struct {
	readFd  int
	writeFd int

	sigCh chan os.Signal

	closeOnce sync.Once
}

// New creates the pipe and starts catching SIGALRM and SIGTERM. The
// returned Pipe's ReadFd is what the caller registers with the readiness
// notifier; Close stops signal delivery and closes both ends.
func New() (*Pipe, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, ErrorPipeCreate.Error(err)
	}

	p := &Pipe{
		readFd:  fds[0],
		writeFd: fds[1],
		sigCh:   make(chan os.Signal, 16),
	}

	signal.Ignore(syscall.SIGPIPE)
	signal.Notify(p.sigCh, syscall.SIGALRM, syscall.SIGTERM)
	go p.relay()

	return p, nil
}

// relay is the only goroutine that ever writes to writeFd: one byte per
// signal, in delivery order, never blocking past EAGAIN (a full pipe
// means the reactor is behind; dropping a redundant ALARM byte costs
// nothing since the next alarm naturally follows).
func (p *Pipe) relay() {
	for sig := range p.sigCh {
		var b [1]byte
		switch sig {
		case syscall.SIGALRM:
			b[0] = ByteAlarm
		case syscall.SIGTERM:
			b[0] = ByteTerm
		default:
			continue
		}
		_, _ = unix.Write(p.writeFd, b[:])
	}
}

// ReadFd is the end to register with the readiness notifier, level-triggered.
func (p *Pipe) ReadFd() int {
	return p.readFd
}

// Drain reads and classifies every byte currently pending on the read
// end, matching the reactor's "drain byte stream, count ALARM and TERM
// occurrences" contract. It never blocks: the read end is non-blocking
// and EAGAIN simply ends the drain.
func (p *Pipe) Drain() (alarms int, term bool, err error) {
	var buf [256]byte
	for {
		n, rerr := unix.Read(p.readFd, buf[:])
		if n > 0 {
			for _, b := range buf[:n] {
				switch b {
				case ByteAlarm:
					alarms++
				case ByteTerm:
					term = true
				}
			}
		}
		if rerr != nil {
			if rerr == unix.EAGAIN {
				return alarms, term, nil
			}
			return alarms, term, ErrorPipeRead.Error(rerr)
		}
		if n == 0 {
			return alarms, term, nil
		}
	}
}

// Terminate writes a TERM byte directly, without waiting for an actual
// SIGTERM delivery. The reactor's Stop path uses this to wake a loop
// blocked in the notifier's indefinite wait.
func (p *Pipe) Terminate() error {
	_, err := unix.Write(p.writeFd, []byte{ByteTerm})
	if err != nil && err != unix.EAGAIN {
		return ErrorPipeRead.Error(err)
	}
	return nil
}

// ArmAlarm schedules the next SIGALRM, mirroring alarm(TIMESLOT) in the
// original design: one shot, rearmed by the caller every time it fires.
func ArmAlarm(seconds uint) error {
	if _, err := unix.Alarm(seconds); err != nil {
		return ErrorAlarmArm.Error(err)
	}
	return nil
}

// Close stops catching signals and closes both ends of the pipe. Safe to
// call more than once.
func (p *Pipe) Close() error {
	var err error
	p.closeOnce.Do(func() {
		signal.Stop(p.sigCh)
		close(p.sigCh)
		_ = unix.Close(p.writeFd)
		if cerr := unix.Close(p.readFd); cerr != nil {
			err = ErrorPipeClose.Error(cerr)
		}
	})
	return err
}
