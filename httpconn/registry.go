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

package httpconn

import (
	"sync/atomic"

	liblog "github.com/sabouaram/reactorhttp/logger"

	libatm "github.com/sabouaram/reactorhttp/atomic"
)

// Ref pairs an fd with the Generation its holder last observed, so a
// timer entry or queued task that outlives a close-then-reuse of that fd
// can tell its Conn moved on instead of silently operating on the wrong
// connection.
type Ref struct {
	Fd         int
	Generation uint64
}

// Registry is the fd-indexed connection table. Entries are bounded by
// MaxFD by the caller (the reactor refuses to accept past that many
// simultaneous connections); the registry itself just maps fd to *Conn.
type Registry struct {
	conns   libatm.MapTyped[int, *Conn]
	docRoot string
	logf    liblog.FuncLog
	nextGen atomic.Uint64
}

// NewRegistry returns an empty registry; docRoot and logf are forwarded
// to every Conn it creates via Bind.
func NewRegistry(docRoot string, logf liblog.FuncLog) *Registry {
	return &Registry{
		conns:   libatm.NewMapTyped[int, *Conn](),
		docRoot: docRoot,
		logf:    logf,
	}
}

// Bind installs a new Conn for fd, replacing (and generation-bumping
// past) whatever previously lived at that fd if the slot is reused
// before the kernel got around to telling us the old one closed. Every
// Bind stamps the Conn with a registry-wide increasing Generation, so an
// fd bound again after Release never repeats an earlier generation.
func (r *Registry) Bind(fd int, peerAddr string) *Conn {
	gen := r.nextGen.Add(1)

	if old, ok := r.conns.Load(fd); ok {
		old.Rebind(fd, peerAddr)
		old.Generation = gen
		return old
	}

	c := New(fd, peerAddr, r.docRoot, r.logf)
	c.Generation = gen
	r.conns.Store(fd, c)
	return c
}

// Lookup returns the live connection for fd along with the Ref an owner
// should retain to detect later reuse of the same fd.
func (r *Registry) Lookup(fd int) (*Conn, Ref, bool) {
	c, ok := r.conns.Load(fd)
	if !ok {
		return nil, Ref{}, false
	}
	return c, Ref{Fd: fd, Generation: c.Generation}, true
}

// Valid reports whether ref still addresses the connection currently
// bound to its fd. A timer or worker should call this before touching
// the *Conn it was handed and silently drop the work if it returns
// false.
func (r *Registry) Valid(ref Ref) bool {
	c, ok := r.conns.Load(ref.Fd)
	return ok && c.Generation == ref.Generation
}

// Release closes and forgets the connection at fd. It is safe to call
// even if fd was already released or never bound.
func (r *Registry) Release(fd int) {
	if c, ok := r.conns.LoadAndDelete(fd); ok {
		_ = c.Close()
	}
}

// Len reports the number of currently bound connections.
func (r *Registry) Len() int {
	n := 0
	r.conns.Range(func(int, *Conn) bool {
		n++
		return true
	})
	return n
}

// Range visits every bound connection. f returning false stops iteration
// early, matching sync.Map's Range contract.
func (r *Registry) Range(f func(fd int, c *Conn) bool) {
	r.conns.Range(f)
}
