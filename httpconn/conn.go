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

// Package httpconn holds the per-connection state machine: a fixed read and
// write buffer, an incremental GET-only request-line/header/body parser, a
// static-file resolver backed by mmap, a response assembler, and a vectored
// flush. None of it touches the readiness notifier directly; the reactor
// drives ReadBuf/Advance/Parse/DoRequest/BuildResponse/Flush from event
// callbacks.
package httpconn

import (
	"os"
	"time"

	liblog "github.com/sabouaram/reactorhttp/logger"
)

const (
	// ReadCap is the fixed size of a connection's read buffer.
	ReadCap = 2048
	// WriteCap is the fixed size of a connection's write buffer.
	WriteCap = 2048
	// FilenameLen bounds the resolved filesystem path.
	FilenameLen = 200
	// MaxFD bounds the number of simultaneously live connections.
	MaxFD = 65535
)

// ParserState is the connection's position in the GET-only request grammar.
type ParserState int

const (
	StateRequestLine ParserState = iota
	StateHeaders
	StateBody
)

// Method enumerates the methods the parser recognizes. Only MethodGet is
// ever accepted; anything else is a parse failure.
type Method int

const (
	MethodUnknown Method = iota
	MethodGet
)

// ReqResult is the outcome of feeding bytes through Parse, or of resolving
// a completed request's target file through DoRequest.
type ReqResult int

const (
	ResultNone ReqResult = iota
	ResultGetRequest
	ResultFileRequest
	ResultBadRequest
	ResultForbidden
	ResultNoResource
	ResultInternalError
)

// Span is an (offset, length) pair into a Conn's read buffer. The parser
// uses spans instead of NUL-terminating the buffer in place, so read bytes
// are never mutated by parsing.
type Span struct {
	Offset int
	Length int
}

func (s Span) Empty() bool { return s.Length == 0 }

// Bytes returns the slice of buf addressed by s.
func (s Span) Bytes(buf []byte) []byte {
	return buf[s.Offset : s.Offset+s.Length]
}

// Conn is one client connection's full state: buffers, parser cursors,
// extracted request fields, resolved file, and write progress.
//
// Generation increases every time the slot is reused for a new fd, so a
// timer or work-queue entry holding a stale *Conn pointer (or fd+generation
// pair) can detect it no longer refers to the connection it was issued
// for. The reactor, not Conn itself, is responsible for checking it.
type Conn struct {
	Fd         int
	Generation uint64
	PeerAddr   string

	readBuf   [ReadCap]byte
	readEnd   int
	checkIdx  int
	lineStart int

	writeBuf [WriteCap]byte
	writeEnd int

	state         ParserState
	method        Method
	url           Span
	version       Span
	host          Span
	contentLength int
	bodyStart     int
	keepAlive     bool

	realFile string
	statInfo os.FileInfo
	mapped   []byte

	iov         [][]byte
	bytesToSend int64
	bytesSent   int64
	errorBody   []byte
	statusCode  int

	reqStart time.Time

	docRoot string
	logf    liblog.FuncLog
}

// New returns a freshly initialized connection bound to fd, ready to read a
// first request. docRoot is the static-file root used by DoRequest.
func New(fd int, peerAddr string, docRoot string, logf liblog.FuncLog) *Conn {
	c := &Conn{
		Fd:       fd,
		PeerAddr: peerAddr,
		docRoot:  docRoot,
		logf:     logf,
	}
	c.ResetParser()
	return c
}

// Rebind reinitializes c for reuse at the same array slot under a new fd,
// bumping Generation so stale holders of the old (fd, generation) pair can
// detect the mismatch.
func (c *Conn) Rebind(fd int, peerAddr string) {
	c.unmapLocked()
	c.Fd = fd
	c.PeerAddr = peerAddr
	c.Generation++
	c.ResetParser()
}

// ResetParser clears all parser and response state for the next request on
// a keep-alive connection, but keeps Fd/PeerAddr/Generation/docRoot intact.
// Bytes still in the read buffer past checkIdx are discarded as well:
// readEnd returns to zero, so a pipelined second request that arrived in
// the same read is lost.
func (c *Conn) ResetParser() {
	c.unmapLocked()

	c.readEnd = 0
	c.checkIdx = 0
	c.lineStart = 0

	c.writeEnd = 0

	c.state = StateRequestLine
	c.method = MethodUnknown
	c.url = Span{}
	c.version = Span{}
	c.host = Span{}
	c.contentLength = 0
	c.bodyStart = 0
	c.keepAlive = false

	c.realFile = ""
	c.iov = nil
	c.bytesToSend = 0
	c.bytesSent = 0
	c.errorBody = nil
	c.statusCode = 0
	c.reqStart = time.Now()
}

// Close releases the connection's mmap region, if any. It is idempotent:
// calling it more than once (the reactor and a worker can both reach a
// teardown path for the same fd) is always safe.
func (c *Conn) Close() error {
	c.unmapLocked()
	return nil
}

func (c *Conn) unmapLocked() {
	if c.mapped != nil {
		_ = unmap(c.mapped)
		c.mapped = nil
	}
}

// ReadBuf exposes the read buffer's free suffix so the reactor can drain
// the socket directly into it without an intermediate copy.
func (c *Conn) ReadBuf() []byte {
	return c.readBuf[c.readEnd:]
}

// Advance records that n bytes were just written into the slice returned
// by ReadBuf.
func (c *Conn) Advance(n int) {
	c.readEnd += n
}

// ReadFull reports whether the read buffer has no room left for the
// current request; the reactor should treat this as a fatal parse error
// for that connection (oversize request).
func (c *Conn) ReadFull() bool {
	return c.readEnd >= ReadCap
}

// KeepAlive reports the negotiated Connection behavior for the completed
// request.
func (c *Conn) KeepAlive() bool {
	return c.keepAlive
}

// StatInfo exposes the last resolved file's stat result, non-nil only
// immediately after a ResultFileRequest outcome.
func (c *Conn) StatInfo() os.FileInfo {
	return c.statInfo
}

// MethodString returns the request method's textual form for access
// logging; the parser only ever accepts GET, so anything else reflects a
// request that was rejected before a method was recorded.
func (c *Conn) MethodString() string {
	if c.method == MethodGet {
		return "GET"
	}
	return "-"
}

// Proto returns the verbatim HTTP version token from the request line.
func (c *Conn) Proto() string {
	return string(c.version.Bytes(c.readBuf[:]))
}

// StatusCode returns the status code of the last built response, valid
// once BuildResponse has run for the current request.
func (c *Conn) StatusCode() int {
	return c.statusCode
}

// BytesSent returns how many response bytes have been written so far for
// the current request.
func (c *Conn) BytesSent() int64 {
	return c.bytesSent
}

// RequestStarted returns when the current request's parsing began,
// stamped by ResetParser; access logging uses it to compute latency.
func (c *Conn) RequestStarted() time.Time {
	return c.reqStart
}
