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

package httpconn

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type statusLine struct {
	code   int
	reason string
	body   string
}

var statusByResult = map[ReqResult]statusLine{
	ResultFileRequest:   {200, "OK", ""},
	ResultBadRequest:    {400, "Bad Request", "<html><body>400 Bad Request</body></html>"},
	ResultForbidden:     {403, "Forbidden", "<html><body>403 Forbidden</body></html>"},
	ResultNoResource:    {404, "Not Found", "<html><body>404 Not Found</body></html>"},
	ResultInternalError: {500, "Internal Error", "<html><body>500 Internal Error</body></html>"},
}

// BuildResponse renders the status line and headers for result into the
// write buffer and arranges the vectored payload: for ResultFileRequest,
// one iovec over the header buffer and a second over the mmap region;
// otherwise one iovec over the header buffer and a second over the
// canned error body.
func (c *Conn) BuildResponse(result ReqResult) error {
	st, ok := statusByResult[result]
	if !ok {
		st = statusByResult[ResultInternalError]
	}
	c.statusCode = st.code

	var bodyLen int
	if result == ResultFileRequest {
		bodyLen = len(c.mapped)
	} else {
		bodyLen = len(st.body)
	}

	connection := "close"
	if c.keepAlive {
		connection = "keep-alive"
	}

	header := fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nContent-Length: %d\r\nContent-Type: text/html\r\nConnection: %s\r\n\r\n",
		st.code, st.reason, bodyLen, connection,
	)
	if len(header) >= WriteCap {
		return ErrHeaderTooLarge.Error()
	}

	c.writeEnd = copy(c.writeBuf[:], header)

	if result == ResultFileRequest {
		c.iov = [][]byte{c.writeBuf[:c.writeEnd], c.mapped}
		c.bytesToSend = int64(c.writeEnd) + int64(len(c.mapped))
	} else {
		c.iov = [][]byte{c.writeBuf[:c.writeEnd], []byte(st.body)}
		c.bytesToSend = int64(c.writeEnd) + int64(len(st.body))
	}
	c.bytesSent = 0

	return nil
}

// Flush issues vectored writes until the assembled response is fully
// sent, EAGAIN is hit, or a fatal write error occurs.
//
// done reports whether the whole response was written (the caller should
// then honor KeepAlive: reset and re-arm readable, or close). rearm
// reports whether the caller should re-arm writable interest and call
// Flush again later (true only on EAGAIN with bytes still pending).
func (c *Conn) Flush() (done bool, rearm bool, err error) {
	for c.bytesSent < c.bytesToSend {
		bufs := c.pendingIOV()
		n, werr := unix.Writev(c.Fd, bufs)
		if n > 0 {
			c.bytesSent += int64(n)
		}
		if werr != nil {
			if werr == unix.EAGAIN {
				return false, true, nil
			}
			c.unmapLocked()
			return false, false, werr
		}
	}

	c.unmapLocked()
	return true, false, nil
}

// pendingIOV returns the remaining unsent suffix of the two-part response
// stream as a writev-ready slice, skipping buffers already fully drained.
func (c *Conn) pendingIOV() [][]byte {
	remaining := c.bytesSent
	out := make([][]byte, 0, len(c.iov))

	for _, buf := range c.iov {
		if remaining >= int64(len(buf)) {
			remaining -= int64(len(buf))
			continue
		}
		out = append(out, buf[remaining:])
		remaining = 0
	}

	return out
}
