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
	"bytes"
	"strconv"
)

type lineStatus int

const (
	lineOpen lineStatus = iota
	lineOK
	lineBad
)

// parseLine scans forward from checkIdx for a line terminator.
//
// A CR at the last received byte is LINE_OPEN: more bytes are needed
// before the line can be judged. A CR immediately followed by LF is
// LINE_OK; the returned span excludes both. A CR not followed by LF, or
// a bare LF with no preceding CR, is LINE_BAD. checkIdx always advances
// to just past what was examined, so a line split across two reads
// resumes exactly where the previous call left off.
func (c *Conn) parseLine() (Span, lineStatus) {
	for i := c.checkIdx; i < c.readEnd; i++ {
		switch c.readBuf[i] {
		case '\n':
			c.checkIdx = i + 1
			return Span{}, lineBad
		case '\r':
			if i+1 == c.readEnd {
				c.checkIdx = i
				return Span{}, lineOpen
			}
			if c.readBuf[i+1] == '\n' {
				line := Span{c.lineStart, i - c.lineStart}
				c.checkIdx = i + 2
				return line, lineOK
			}
			return Span{}, lineBad
		}
	}
	c.checkIdx = c.readEnd
	return Span{}, lineOpen
}

// Parse advances the state machine as far as the bytes already appended
// via Advance allow, returning ResultNone if more input is needed and
// ResultGetRequest once a full request has been received. Any other
// result is a terminal parse failure: the caller should build the
// matching error response and not call Parse again before ResetParser.
func (c *Conn) Parse() ReqResult {
	for {
		switch c.state {
		case StateRequestLine:
			line, status := c.parseLine()
			switch status {
			case lineOpen:
				return ResultNone
			case lineBad:
				return ResultBadRequest
			}
			c.lineStart = c.checkIdx

			if res := c.parseRequestLine(line); res != ResultNone {
				return res
			}

		case StateHeaders:
			line, status := c.parseLine()
			switch status {
			case lineOpen:
				return ResultNone
			case lineBad:
				return ResultBadRequest
			}

			if line.Empty() {
				c.lineStart = c.checkIdx
				if c.contentLength == 0 {
					return ResultGetRequest
				}
				c.bodyStart = c.checkIdx
				c.state = StateBody
				continue
			}

			if !c.parseHeaderLine(line) {
				return ResultBadRequest
			}
			c.lineStart = c.checkIdx

		case StateBody:
			if c.bodyStart+c.contentLength <= c.readEnd {
				c.checkIdx = c.bodyStart + c.contentLength
				return ResultGetRequest
			}
			return ResultNone
		}
	}
}

// parseRequestLine expects "GET SP url SP HTTP/1.1" and transitions to
// StateHeaders on success. Offsets into the line are tracked by hand
// (rather than via bytes.Split) so url and version can be stored as spans
// back into readBuf instead of copied strings.
func (c *Conn) parseRequestLine(line Span) ReqResult {
	text := line.Bytes(c.readBuf[:])

	sp1 := bytes.IndexByte(text, ' ')
	if sp1 == -1 {
		return ResultBadRequest
	}
	method := text[:sp1]

	rest := text[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 == -1 {
		return ResultBadRequest
	}
	urlPart := rest[:sp2]
	versionPart := rest[sp2+1:]
	urlOffset := line.Offset + sp1 + 1
	versionOffset := line.Offset + sp1 + 1 + sp2 + 1

	if !bytes.Equal(method, []byte("GET")) {
		return ResultBadRequest
	}
	if !bytes.Equal(versionPart, []byte("HTTP/1.1")) {
		return ResultBadRequest
	}

	if bytes.HasPrefix(urlPart, []byte("http://")) {
		skip := len("http://")
		idx := bytes.IndexByte(urlPart[skip:], '/')
		if idx == -1 {
			// Preserve the original parser's bug: scheme-stripping requires
			// a trailing slash after the authority.
			return ResultBadRequest
		}
		urlOffset += skip + idx
		urlPart = urlPart[skip+idx:]
	}
	if len(urlPart) == 0 || urlPart[0] != '/' {
		return ResultBadRequest
	}

	c.method = MethodGet
	c.url = Span{urlOffset, len(urlPart)}
	c.version = Span{versionOffset, len(versionPart)}
	c.state = StateHeaders
	return ResultNone
}

// parseHeaderLine recognizes Connection, Content-Length, and Host; any
// other header is logged and ignored.
func (c *Conn) parseHeaderLine(line Span) bool {
	text := line.Bytes(c.readBuf[:])
	idx := bytes.IndexByte(text, ':')
	if idx == -1 {
		return false
	}

	name := bytes.TrimSpace(text[:idx])
	rawValue := text[idx+1:]
	value := bytes.TrimLeft(rawValue, " \t")
	valueOffset := line.Offset + idx + 1 + (len(rawValue) - len(value))

	switch {
	case bytes.EqualFold(name, []byte("Connection")):
		c.keepAlive = bytes.EqualFold(value, []byte("keep-alive"))
	case bytes.EqualFold(name, []byte("Content-Length")):
		n, err := strconv.Atoi(string(value))
		if err != nil || n < 0 {
			return false
		}
		c.contentLength = n
	case bytes.EqualFold(name, []byte("Host")):
		c.host = Span{valueOffset, len(value)}
	default:
		if c.logf != nil {
			if l := c.logf(); l != nil {
				l.Debug("ignoring unrecognized header", nil, string(name))
			}
		}
	}

	return true
}

// URL returns the request target extracted from the request line.
func (c *Conn) URL() string {
	return string(c.url.Bytes(c.readBuf[:]))
}

// Host returns the verbatim Host header value, or "" if none was sent.
func (c *Conn) Host() string {
	if c.host.Empty() {
		return ""
	}
	return string(c.host.Bytes(c.readBuf[:]))
}
