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
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	libperm "github.com/sabouaram/reactorhttp/file/perm"
)

// DoRequest resolves the parsed URL against the connection's document
// root, stats it, and for a servable file mmaps it read-only. Call this
// only after Parse returned ResultGetRequest.
func (c *Conn) DoRequest() ReqResult {
	path := c.resolvePath()
	if path == "" {
		return ResultBadRequest
	}

	info, err := os.Stat(path)
	if err != nil {
		return ResultNoResource
	}
	if !worldReadable(info) {
		return ResultForbidden
	}
	if info.IsDir() {
		return ResultBadRequest
	}

	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return ResultNoResource
	}
	defer f.Close()

	size := int(info.Size())
	var mapped []byte
	if size > 0 {
		mapped, err = unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			return ResultInternalError
		}
	}

	c.realFile = path
	c.statInfo = info
	c.mapped = mapped
	return ResultFileRequest
}

// resolvePath joins docRoot with the parsed URL, bounding the result to
// FilenameLen and rejecting any attempt to escape the document root via
// "..".
func (c *Conn) resolvePath() string {
	url := c.URL()
	if !strings.HasPrefix(url, "/") {
		return ""
	}
	if strings.Contains(url, "..") {
		return ""
	}

	full := filepath.Join(c.docRoot, filepath.Clean(url))
	if len(full) >= FilenameLen {
		return ""
	}
	return full
}

func worldReadable(info os.FileInfo) bool {
	p := libperm.ParseFileMode(info.Mode())
	return p.FileMode()&0o004 != 0
}

func unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munmap(b)
}
