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

package reactor

import (
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// listen builds a non-blocking, SO_REUSEADDR listening socket bound to
// addr ("host:port", either family) and returns its raw file descriptor.
// It is built from raw socket/bind/listen calls rather than net.ListenTCP
// so the reactor owns the fd directly and never pays for a goroutine
// blocked inside the runtime's netpoller for the same socket.
func listen(addr string, backlog int) (int, error) {
	resolved, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return -1, ErrorSocketBind.Error(err)
	}

	domain := unix.AF_INET
	if resolved.IP != nil && resolved.IP.To4() == nil {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, ErrorSocketCreate.Error(err)
	}

	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, ErrorSocketCreate.Error(err)
	}

	var sa unix.Sockaddr
	if domain == unix.AF_INET6 {
		s6 := &unix.SockaddrInet6{Port: resolved.Port}
		copy(s6.Addr[:], resolved.IP.To16())
		sa = s6
	} else {
		s4 := &unix.SockaddrInet4{Port: resolved.Port}
		if ip4 := resolved.IP.To4(); ip4 != nil {
			copy(s4.Addr[:], ip4)
		}
		sa = s4
	}

	if err = unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, ErrorSocketBind.Error(err)
	}

	if err = unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return -1, ErrorSocketListen.Error(err)
	}

	return fd, nil
}

func peerAddrString(sa unix.Sockaddr) string {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(v.Addr[:]).String(), strconv.Itoa(v.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(v.Addr[:]).String(), strconv.Itoa(v.Port))
	default:
		return "?"
	}
}
